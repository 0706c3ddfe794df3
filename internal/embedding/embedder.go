package embedding

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/knirvcorp/knirvembed/go/internal/logging"
	"github.com/knirvcorp/knirvembed/go/internal/monitoring"
	"github.com/knirvcorp/knirvembed/go/internal/tracing"
)

// Config is the construction-time configuration shared by the embedding
// backends. The zero value selects all defaults.
type Config struct {
	// Method selects the spectral factorization. Ignored by the plain
	// TF-IDF embedder.
	Method Method `yaml:"method"`

	// Dimension is the target output width. For the spectral embedder the
	// effective width is capped at min(Dimension, terms, documents); zero
	// selects the default of min(128, terms, documents). For the plain
	// embedder zero means the vocabulary size.
	Dimension int `yaml:"dimension"`

	// Smoothing selects the IDF formula. Defaults to smoothed.
	Smoothing Smoothing `yaml:"smoothing"`
}

// WithDefaults fills in the default method and smoothing policy.
func (c Config) WithDefaults() Config {
	if c.Method == "" {
		c.Method = MethodSVD
	}
	if c.Smoothing == "" {
		c.Smoothing = SmoothingSmoothed
	}
	return c
}

// Validate rejects unrecognized method and smoothing names. The defaulted
// configuration is always valid.
func (c Config) Validate() error {
	c = c.WithDefaults()
	switch c.Method {
	case MethodSVD, MethodPCA, MethodLaplacian:
	default:
		return fmt.Errorf("method %q: %w", c.Method, ErrUnsupportedMethod)
	}
	switch c.Smoothing {
	case SmoothingSmoothed, SmoothingUnsmoothed:
	default:
		return fmt.Errorf("smoothing %q: %w", c.Smoothing, ErrUnsupportedMethod)
	}
	if c.Dimension < 0 {
		return fmt.Errorf("dimension must be non-negative, got %d", c.Dimension)
	}
	return nil
}

// Embedder is the contract shared by every embedding backend, local or
// network-backed. All operations are synchronous; the context parameter
// exists for uniformity with remote backends and for trace propagation.
type Embedder interface {
	// Fit learns vocabulary, IDF and (for spectral backends) the projection
	// basis from the corpus. On success the new model replaces the old one
	// atomically; on failure the previous model stays installed.
	Fit(ctx context.Context, corpus []string) error

	// Embed produces a fixed-length vector for text using the fitted model.
	// Returns ErrNotFitted before a successful Fit.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch embeds every text against the current fitted model. It is
	// a pure read: same order and length as the input, no refit.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// FitEmbedBatch fits on texts and then embeds each of them against the
	// newly learned model.
	FitEmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimension reports the output vector width; 0 before the first fit.
	Dimension() int

	// Config returns the configuration supplied at construction.
	Config() Config

	// Healthy reports whether the embedder is fitted with a non-empty
	// vocabulary (and basis, for spectral backends).
	Healthy() bool

	// Disconnect resets to the unfitted state, releasing the model. There
	// are no external resources; this is a logical reset and is idempotent.
	Disconnect()
}

var (
	_ Embedder = (*TFIDFEmbedder)(nil)
	_ Embedder = (*SpectralEmbedder)(nil)
)

// TFIDFEmbedder embeds text as its raw TF-IDF weighted vector.
type TFIDFEmbedder struct {
	cfg     Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
	model   atomic.Pointer[model]
}

// NewTFIDFEmbedder creates an unfitted plain TF-IDF embedder. Logger and
// metrics may be nil.
func NewTFIDFEmbedder(cfg Config, logger *logging.Logger, metrics *monitoring.Metrics) (*TFIDFEmbedder, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &TFIDFEmbedder{cfg: cfg, logger: logger, metrics: metrics}, nil
}

// Fit learns vocabulary and IDF from the corpus.
func (e *TFIDFEmbedder) Fit(ctx context.Context, corpus []string) error {
	_, span := tracing.StartSpan(ctx, "tfidf.fit",
		attribute.Int("corpus.size", len(corpus)))
	defer span.End()

	start := time.Now()
	stats, err := buildTFIDF(corpus, e.cfg.Smoothing)
	if err != nil {
		e.countError()
		return fmt.Errorf("tfidf fit: %w", err)
	}

	m := newModel(stats, nil)
	e.model.Store(m)
	e.observeFit(m, len(corpus), stats.degenerate, time.Since(start))
	return nil
}

// Embed produces the TF-IDF vector for text against the fitted vocabulary
// and IDF.
func (e *TFIDFEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	_, span := tracing.StartSpan(ctx, "tfidf.embed")
	defer span.End()

	m := e.model.Load()
	if m == nil {
		e.countError()
		return nil, fmt.Errorf("tfidf embed: %w", ErrNotFitted)
	}

	start := time.Now()
	vector := e.embedWith(m, text)
	e.observeEmbed(time.Since(start))
	return vector, nil
}

// EmbedBatch embeds every text against the current model without refitting.
func (e *TFIDFEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	_, span := tracing.StartSpan(ctx, "tfidf.embed_batch",
		attribute.Int("batch.size", len(texts)))
	defer span.End()

	m := e.model.Load()
	if m == nil {
		e.countError()
		return nil, fmt.Errorf("tfidf embed batch: %w", ErrNotFitted)
	}

	start := time.Now()
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedWith(m, text)
	}
	e.observeEmbed(time.Since(start))
	return vectors, nil
}

// FitEmbedBatch fits on texts, then embeds each of them.
func (e *TFIDFEmbedder) FitEmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if err := e.Fit(ctx, texts); err != nil {
		return nil, err
	}
	return e.EmbedBatch(ctx, texts)
}

// Dimension reports the configured width if set, else the vocabulary size.
// 0 before the first fit.
func (e *TFIDFEmbedder) Dimension() int {
	m := e.model.Load()
	if m == nil {
		return 0
	}
	if e.cfg.Dimension > 0 {
		return e.cfg.Dimension
	}
	return m.vocabularySize()
}

// Config returns the configuration supplied at construction.
func (e *TFIDFEmbedder) Config() Config { return e.cfg }

// Healthy reports whether a model with a non-empty vocabulary is installed.
func (e *TFIDFEmbedder) Healthy() bool {
	return e.model.Load().vocabularySize() > 0
}

// Disconnect resets the embedder to the unfitted state.
func (e *TFIDFEmbedder) Disconnect() {
	e.model.Store(nil)
}

func (e *TFIDFEmbedder) embedWith(m *model, text string) []float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		e.logger.Warn("document tokenized to zero terms, embedding as zero vector")
	}
	vector := weightRow(tokens, m.vocab, m.idf)
	if e.cfg.Dimension > 0 {
		vector = padToWidth(vector, e.cfg.Dimension)
	}
	return vector
}

func (e *TFIDFEmbedder) observeFit(m *model, corpusSize int, degenerate []int, elapsed time.Duration) {
	if e.metrics != nil {
		e.metrics.FitOps.Inc()
		e.metrics.FitDuration.Observe(elapsed.Seconds())
		e.metrics.VocabularySize.Set(float64(m.vocabularySize()))
		e.metrics.EmbeddingDimension.Set(float64(e.Dimension()))
	}
	if len(degenerate) > 0 {
		e.logger.Warn("corpus contains documents with zero terms",
			zap.Ints("document_indices", degenerate))
	}
	e.logger.WithFitID(m.fitID).Info("tf-idf model fitted",
		zap.Int("corpus_size", corpusSize),
		zap.Int("vocabulary_size", m.vocabularySize()),
		zap.Duration("elapsed", elapsed))
}

func (e *TFIDFEmbedder) observeEmbed(elapsed time.Duration) {
	if e.metrics != nil {
		e.metrics.EmbedOps.Inc()
		e.metrics.EmbedDuration.Observe(elapsed.Seconds())
	}
}

func (e *TFIDFEmbedder) countError() {
	if e.metrics != nil {
		e.metrics.ErrorCount.Inc()
	}
}

// SpectralEmbedder embeds text by projecting its TF-IDF vector onto a
// low-rank basis learned from the fitted corpus.
type SpectralEmbedder struct {
	cfg     Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
	model   atomic.Pointer[model]
}

// NewSpectralEmbedder creates an unfitted spectral embedder. Logger and
// metrics may be nil.
func NewSpectralEmbedder(cfg Config, logger *logging.Logger, metrics *monitoring.Metrics) (*SpectralEmbedder, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &SpectralEmbedder{cfg: cfg, logger: logger, metrics: metrics}, nil
}

// Fit learns vocabulary, IDF and the projection basis from the corpus.
func (e *SpectralEmbedder) Fit(ctx context.Context, corpus []string) error {
	_, span := tracing.StartSpan(ctx, "spectral.fit",
		attribute.Int("corpus.size", len(corpus)),
		attribute.String("method", string(e.cfg.Method)))
	defer span.End()

	start := time.Now()
	stats, err := buildTFIDF(corpus, e.cfg.Smoothing)
	if err != nil {
		e.countError()
		return fmt.Errorf("spectral fit: %w", err)
	}

	b, err := fitBasis(stats.matrix, e.cfg.Dimension, e.cfg.Method)
	if err != nil {
		e.countError()
		return fmt.Errorf("spectral fit: %w", err)
	}

	m := newModel(stats, b)
	e.model.Store(m)
	elapsed := time.Since(start)

	if e.metrics != nil {
		e.metrics.FitOps.Inc()
		e.metrics.FitDuration.Observe(elapsed.Seconds())
		e.metrics.VocabularySize.Set(float64(m.vocabularySize()))
		e.metrics.EmbeddingDimension.Set(float64(b.width()))
	}
	if len(stats.degenerate) > 0 {
		e.logger.Warn("corpus contains documents with zero terms",
			zap.Ints("document_indices", stats.degenerate))
	}
	e.logger.WithFitID(m.fitID).Info("spectral model fitted",
		zap.String("method", string(e.cfg.Method)),
		zap.Int("corpus_size", len(corpus)),
		zap.Int("vocabulary_size", m.vocabularySize()),
		zap.Int("basis_width", b.width()),
		zap.Duration("elapsed", elapsed))
	return nil
}

// Embed projects the TF-IDF vector of text onto the fitted basis.
func (e *SpectralEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	_, span := tracing.StartSpan(ctx, "spectral.embed")
	defer span.End()

	m := e.model.Load()
	if m == nil {
		e.countError()
		return nil, fmt.Errorf("spectral embed: %w", ErrNotFitted)
	}

	start := time.Now()
	vector := e.embedWith(m, text)
	e.observeEmbed(time.Since(start))
	return vector, nil
}

// EmbedBatch embeds every text against the current model without refitting.
func (e *SpectralEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	_, span := tracing.StartSpan(ctx, "spectral.embed_batch",
		attribute.Int("batch.size", len(texts)))
	defer span.End()

	m := e.model.Load()
	if m == nil {
		e.countError()
		return nil, fmt.Errorf("spectral embed batch: %w", ErrNotFitted)
	}

	start := time.Now()
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedWith(m, text)
	}
	e.observeEmbed(time.Since(start))
	return vectors, nil
}

// FitEmbedBatch fits on texts, then embeds each of them against the newly
// learned model. This is the explicit replacement for implicit
// refit-on-batch-embed behavior.
func (e *SpectralEmbedder) FitEmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if err := e.Fit(ctx, texts); err != nil {
		return nil, err
	}
	return e.EmbedBatch(ctx, texts)
}

// Dimension reports the effective basis width; 0 before the first fit. A
// configured dimension larger than the matrix rank is capped at fit time.
func (e *SpectralEmbedder) Dimension() int {
	m := e.model.Load()
	if m == nil {
		return 0
	}
	return m.basis.width()
}

// Config returns the configuration supplied at construction.
func (e *SpectralEmbedder) Config() Config { return e.cfg }

// Healthy reports whether a model with a non-empty vocabulary and basis is
// installed.
func (e *SpectralEmbedder) Healthy() bool {
	m := e.model.Load()
	if m == nil {
		return false
	}
	return m.vocabularySize() > 0 && m.basis.width() > 0
}

// Disconnect resets the embedder to the unfitted state.
func (e *SpectralEmbedder) Disconnect() {
	e.model.Store(nil)
}

func (e *SpectralEmbedder) embedWith(m *model, text string) []float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		e.logger.Warn("document tokenized to zero terms, embedding as zero vector")
	}
	return project(weightRow(tokens, m.vocab, m.idf), m.basis)
}

func (e *SpectralEmbedder) observeEmbed(elapsed time.Duration) {
	if e.metrics != nil {
		e.metrics.EmbedOps.Inc()
		e.metrics.EmbedDuration.Observe(elapsed.Seconds())
	}
}

func (e *SpectralEmbedder) countError() {
	if e.metrics != nil {
		e.metrics.ErrorCount.Inc()
	}
}

// padToWidth pads or truncates a vector to the target width; padded entries
// stay zero.
func padToWidth(vector []float64, width int) []float64 {
	result := make([]float64, width)
	copy(result, vector)
	return result
}
