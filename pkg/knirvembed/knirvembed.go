package knirvembed

import (
	"context"
	"fmt"

	cfgpkg "github.com/knirvcorp/knirvembed/go/internal/config"
	emb "github.com/knirvcorp/knirvembed/go/internal/embedding"
	"github.com/knirvcorp/knirvembed/go/internal/logging"
	"github.com/knirvcorp/knirvembed/go/internal/monitoring"
)

// Options contains configuration for the library.
type Options struct {
	// ConfigPath points to a YAML configuration file. A missing file yields
	// defaults. Ignored when Config is set.
	ConfigPath string

	// Config overrides ConfigPath when non-nil.
	Config *cfgpkg.AppConfig

	// Logger defaults to a no-op logger when nil.
	Logger *logging.Logger

	// Metrics are optional; nil disables metric collection.
	Metrics *monitoring.Metrics
}

// Embedder is the public wrapper around the configured internal embedding
// backend.
type Embedder struct {
	inner emb.Embedder
	cfg   *cfgpkg.AppConfig
}

// New constructs an Embedder with the provided options.
func New(ctx context.Context, opts Options) (*Embedder, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := cfgpkg.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	} else if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var inner emb.Embedder
	var err error
	switch cfg.Embedder.Strategy {
	case cfgpkg.StrategySpectral:
		inner, err = emb.NewSpectralEmbedder(cfg.Embedder.Config, opts.Logger, opts.Metrics)
	default:
		inner, err = emb.NewTFIDFEmbedder(cfg.Embedder.Config, opts.Logger, opts.Metrics)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &Embedder{inner: inner, cfg: cfg}, nil
}

// Fit learns a model from the corpus.
func (e *Embedder) Fit(ctx context.Context, corpus []string) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return e.inner.Fit(ctx, corpus)
}

// Embed produces a fixed-length vector for text. Requires a prior Fit.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	return e.inner.Embed(ctx, text)
}

// EmbedBatch embeds every text against the current model, same order and
// length as the input. Requires a prior Fit.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	return e.inner.EmbedBatch(ctx, texts)
}

// FitEmbedBatch fits on texts and then embeds each of them.
func (e *Embedder) FitEmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	return e.inner.FitEmbedBatch(ctx, texts)
}

// Dimension reports the output vector width; 0 before the first fit.
func (e *Embedder) Dimension() int { return e.inner.Dimension() }

// Config returns the full configuration in effect.
func (e *Embedder) Config() *cfgpkg.AppConfig { return e.cfg }

// Healthy reports whether the embedder holds a usable fitted model.
func (e *Embedder) Healthy() bool { return e.inner.Healthy() }

// Disconnect resets the embedder to the unfitted state. Idempotent.
func (e *Embedder) Disconnect() { e.inner.Disconnect() }

// Raw returns the underlying internal embedder for advanced usage.
func (e *Embedder) Raw() emb.Embedder { return e.inner }
