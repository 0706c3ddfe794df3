package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	FitOps             prometheus.Counter
	FitDuration        prometheus.Histogram
	EmbedOps           prometheus.Counter
	EmbedDuration      prometheus.Histogram
	VocabularySize     prometheus.Gauge
	EmbeddingDimension prometheus.Gauge
	ErrorCount         prometheus.Counter
}

// NewMetrics registers the metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the metrics with the given registerer. Tests use
// a fresh registry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FitOps: factory.NewCounter(prometheus.CounterOpts{
			Name: "knirvembed_fit_ops_total",
			Help: "Total number of model fit operations",
		}),
		FitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "knirvembed_fit_duration_seconds",
			Help:    "Time taken to fit a model",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		EmbedOps: factory.NewCounter(prometheus.CounterOpts{
			Name: "knirvembed_embed_ops_total",
			Help: "Total number of embed operations",
		}),
		EmbedDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "knirvembed_embed_duration_seconds",
			Help:    "Embed latency distribution",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 10),
		}),
		VocabularySize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "knirvembed_vocabulary_size",
			Help: "Number of terms in the fitted vocabulary",
		}),
		EmbeddingDimension: factory.NewGauge(prometheus.GaugeOpts{
			Name: "knirvembed_embedding_dimension",
			Help: "Width of the embedding vectors produced by the fitted model",
		}),
		ErrorCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "knirvembed_errors_total",
			Help: "Total number of errors",
		}),
	}
}
