package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knirvcorp/knirvembed/go/internal/monitoring"
)

// TestConfigValidate tests configuration validation
func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.NoError(t, Config{Method: MethodPCA, Dimension: 64, Smoothing: SmoothingUnsmoothed}.Validate())

	err := Config{Method: Method("umap")}.Validate()
	assert.ErrorIs(t, err, ErrUnsupportedMethod)

	err = Config{Smoothing: Smoothing("bm25")}.Validate()
	assert.ErrorIs(t, err, ErrUnsupportedMethod)

	err = Config{Dimension: -1}.Validate()
	assert.Error(t, err)
}

// TestConfigWithDefaults tests default selection
func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	assert.Equal(t, MethodSVD, cfg.Method)
	assert.Equal(t, SmoothingSmoothed, cfg.Smoothing)
	assert.Equal(t, 0, cfg.Dimension)

	cfg = Config{Method: MethodLaplacian, Smoothing: SmoothingUnsmoothed}.WithDefaults()
	assert.Equal(t, MethodLaplacian, cfg.Method)
	assert.Equal(t, SmoothingUnsmoothed, cfg.Smoothing)
}

// TestNewTFIDFEmbedder tests construction
func TestNewTFIDFEmbedder(t *testing.T) {
	embedder, err := NewTFIDFEmbedder(Config{}, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, embedder)
	assert.Equal(t, 0, embedder.Dimension())
	assert.False(t, embedder.Healthy())

	_, err = NewTFIDFEmbedder(Config{Dimension: -5}, nil, nil)
	assert.Error(t, err)
}

// TestTFIDFEmbedderNotFitted verifies embed operations fail before fit
func TestTFIDFEmbedderNotFitted(t *testing.T) {
	embedder, err := NewTFIDFEmbedder(Config{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = embedder.Embed(ctx, "anything")
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = embedder.EmbedBatch(ctx, []string{"anything"})
	assert.ErrorIs(t, err, ErrNotFitted)
}

// TestTFIDFEmbedderLifecycle walks Unfitted -> Fitted -> Unfitted
func TestTFIDFEmbedderLifecycle(t *testing.T) {
	embedder, err := NewTFIDFEmbedder(Config{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	corpus := []string{"the cat sat", "the dog ran"}

	require.NoError(t, embedder.Fit(ctx, corpus))
	assert.True(t, embedder.Healthy())
	assert.Equal(t, 5, embedder.Dimension())

	vector, err := embedder.Embed(ctx, "the cat sat")
	require.NoError(t, err)
	assert.Len(t, vector, embedder.Dimension())

	embedder.Disconnect()
	assert.False(t, embedder.Healthy())
	assert.Equal(t, 0, embedder.Dimension())
	_, err = embedder.Embed(ctx, "the cat sat")
	assert.ErrorIs(t, err, ErrNotFitted)

	// Disconnect is idempotent
	embedder.Disconnect()
	assert.False(t, embedder.Healthy())
}

// TestTFIDFEmbedderConcreteScenario checks embedding weights for a known corpus
func TestTFIDFEmbedderConcreteScenario(t *testing.T) {
	embedder, err := NewTFIDFEmbedder(Config{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, embedder.Fit(ctx, []string{"the cat sat", "the dog ran"}))

	vector, err := embedder.Embed(ctx, "the cat sat")
	require.NoError(t, err)
	require.Len(t, vector, 5)

	// Sorted vocabulary: cat dog ran sat the
	idfRare := math.Log(3.0/2.0) + 1
	assert.InDelta(t, (1.0/3.0)*idfRare, vector[0], 1e-12) // cat
	assert.Equal(t, 0.0, vector[1])                        // dog
	assert.Equal(t, 0.0, vector[2])                        // ran
	assert.InDelta(t, (1.0/3.0)*idfRare, vector[3], 1e-12) // sat
	assert.InDelta(t, (1.0/3.0)*1.0, vector[4], 1e-12)     // the
}

// TestTFIDFEmbedderIdempotentReembed verifies repeated embeds of the same
// text return identical vectors
func TestTFIDFEmbedderIdempotentReembed(t *testing.T) {
	embedder, err := NewTFIDFEmbedder(Config{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, embedder.Fit(ctx, []string{"alpha beta gamma", "beta gamma delta"}))

	first, err := embedder.Embed(ctx, "alpha delta")
	require.NoError(t, err)
	second, err := embedder.Embed(ctx, "alpha delta")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestTFIDFEmbedderUnseenTerms verifies a text of unknown terms embeds to all
// zeros
func TestTFIDFEmbedderUnseenTerms(t *testing.T) {
	embedder, err := NewTFIDFEmbedder(Config{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, embedder.Fit(ctx, []string{"alpha beta", "beta gamma"}))

	vector, err := embedder.Embed(ctx, "delta epsilon")
	require.NoError(t, err)
	for _, val := range vector {
		assert.Equal(t, 0.0, val)
	}
}

// TestTFIDFEmbedderDegenerateText verifies punctuation-only text embeds to
// zeros, never NaN
func TestTFIDFEmbedderDegenerateText(t *testing.T) {
	embedder, err := NewTFIDFEmbedder(Config{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, embedder.Fit(ctx, []string{"alpha beta", "beta gamma"}))

	vector, err := embedder.Embed(ctx, "!!! ... ???")
	require.NoError(t, err)
	for _, val := range vector {
		assert.Equal(t, 0.0, val)
		assert.False(t, math.IsNaN(val))
	}
}

// TestTFIDFEmbedderConfiguredDimension verifies the output is padded or
// truncated to a configured width
func TestTFIDFEmbedderConfiguredDimension(t *testing.T) {
	embedder, err := NewTFIDFEmbedder(Config{Dimension: 10}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, embedder.Fit(ctx, []string{"alpha beta", "beta gamma"})) // 3 terms

	assert.Equal(t, 10, embedder.Dimension())
	vector, err := embedder.Embed(ctx, "alpha")
	require.NoError(t, err)
	assert.Len(t, vector, 10)
	for _, val := range vector[3:] {
		assert.Equal(t, 0.0, val)
	}
}

// TestTFIDFEmbedderFitFailureKeepsModel verifies a failed fit leaves the
// previous model installed
func TestTFIDFEmbedderFitFailureKeepsModel(t *testing.T) {
	embedder, err := NewTFIDFEmbedder(Config{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, embedder.Fit(ctx, []string{"alpha beta", "beta gamma"}))
	before, err := embedder.Embed(ctx, "alpha beta")
	require.NoError(t, err)

	assert.ErrorIs(t, embedder.Fit(ctx, nil), ErrEmptyCorpus)
	assert.True(t, embedder.Healthy())

	after, err := embedder.Embed(ctx, "alpha beta")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// TestTFIDFEmbedderEmbedBatch verifies batch embedding matches individual
// embeds and preserves order
func TestTFIDFEmbedderEmbedBatch(t *testing.T) {
	embedder, err := NewTFIDFEmbedder(Config{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, embedder.Fit(ctx, []string{"alpha beta gamma", "beta gamma delta"}))

	texts := []string{"alpha", "delta", "gamma beta"}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	for i, text := range texts {
		individual, err := embedder.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, individual, vectors[i])
	}
}

// TestTFIDFEmbedderVocabularyReplaced verifies refitting swaps in a fresh
// vocabulary
func TestTFIDFEmbedderVocabularyReplaced(t *testing.T) {
	embedder, err := NewTFIDFEmbedder(Config{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, embedder.Fit(ctx, []string{"alpha beta", "beta gamma"}))
	assert.Equal(t, 3, embedder.Dimension())

	require.NoError(t, embedder.Fit(ctx, []string{"one two three four", "five six"}))
	assert.Equal(t, 6, embedder.Dimension())

	// Terms from the first corpus are gone
	vector, err := embedder.Embed(ctx, "alpha beta gamma")
	require.NoError(t, err)
	for _, val := range vector {
		assert.Equal(t, 0.0, val)
	}
}

// TestTFIDFEmbedderMetrics verifies counters move on fit and embed
func TestTFIDFEmbedderMetrics(t *testing.T) {
	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())
	embedder, err := NewTFIDFEmbedder(Config{}, nil, metrics)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, embedder.Fit(ctx, []string{"alpha beta", "beta gamma"}))
	_, err = embedder.Embed(ctx, "alpha")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.FitOps), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.EmbedOps), 1e-9)
}

// TestNewSpectralEmbedder tests construction and method validation
func TestNewSpectralEmbedder(t *testing.T) {
	embedder, err := NewSpectralEmbedder(Config{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, MethodSVD, embedder.Config().Method)

	_, err = NewSpectralEmbedder(Config{Method: Method("tsne")}, nil, nil)
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

// TestSpectralEmbedderLifecycle exercises fit, embed and reset for every
// supported method
func TestSpectralEmbedderLifecycle(t *testing.T) {
	corpus := []string{
		"the cat sat on the mat",
		"the dog played in the park",
		"cats and dogs are pets",
		"mats and parks are places",
	}

	for _, method := range []Method{MethodSVD, MethodPCA, MethodLaplacian} {
		t.Run(string(method), func(t *testing.T) {
			embedder, err := NewSpectralEmbedder(Config{Method: method, Dimension: 2}, nil, nil)
			require.NoError(t, err)

			ctx := context.Background()
			_, err = embedder.Embed(ctx, "the cat")
			assert.ErrorIs(t, err, ErrNotFitted)

			require.NoError(t, embedder.Fit(ctx, corpus))
			assert.True(t, embedder.Healthy())
			assert.Equal(t, 2, embedder.Dimension())

			vector, err := embedder.Embed(ctx, "the cat sat")
			require.NoError(t, err)
			assert.Len(t, vector, 2)
			for _, val := range vector {
				assert.False(t, math.IsNaN(val))
			}

			embedder.Disconnect()
			assert.False(t, embedder.Healthy())
			assert.Equal(t, 0, embedder.Dimension())
		})
	}
}

// TestSpectralDimensionBound verifies a configured dimension above matrix
// rank is capped
func TestSpectralDimensionBound(t *testing.T) {
	embedder, err := NewSpectralEmbedder(Config{Dimension: 500}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	corpus := []string{"alpha beta gamma", "beta gamma delta", "gamma delta epsilon"}
	require.NoError(t, embedder.Fit(ctx, corpus))

	assert.LessOrEqual(t, embedder.Dimension(), len(corpus))
	vector, err := embedder.Embed(ctx, "alpha")
	require.NoError(t, err)
	assert.Len(t, vector, embedder.Dimension())
}

// TestSpectralUnseenTermsZero verifies unseen-term neutrality through the
// uncentered projection paths
func TestSpectralUnseenTermsZero(t *testing.T) {
	for _, method := range []Method{MethodSVD, MethodLaplacian} {
		t.Run(string(method), func(t *testing.T) {
			embedder, err := NewSpectralEmbedder(Config{Method: method, Dimension: 2}, nil, nil)
			require.NoError(t, err)

			ctx := context.Background()
			require.NoError(t, embedder.Fit(ctx, []string{"alpha beta gamma", "beta gamma delta", "gamma delta alpha"}))

			vector, err := embedder.Embed(ctx, "unknown words only")
			require.NoError(t, err)
			for _, val := range vector {
				assert.Equal(t, 0.0, val)
			}
		})
	}
}

// TestSpectralEmbedderDeterministic verifies fit+embed reproduces bit-equal
// vectors across runs
func TestSpectralEmbedderDeterministic(t *testing.T) {
	corpus := []string{"alpha beta gamma", "beta gamma delta", "delta epsilon alpha"}
	ctx := context.Background()

	run := func() []float64 {
		embedder, err := NewSpectralEmbedder(Config{Dimension: 2}, nil, nil)
		require.NoError(t, err)
		require.NoError(t, embedder.Fit(ctx, corpus))
		vector, err := embedder.Embed(ctx, "alpha delta")
		require.NoError(t, err)
		return vector
	}

	assert.Equal(t, run(), run())
}

// TestSpectralFitEmbedBatch verifies the explicit refit-then-embed operation
func TestSpectralFitEmbedBatch(t *testing.T) {
	embedder, err := NewSpectralEmbedder(Config{Dimension: 2}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	first := []string{"alpha beta gamma", "beta gamma delta", "gamma delta alpha"}
	vectors, err := embedder.FitEmbedBatch(ctx, first)
	require.NoError(t, err)
	require.Len(t, vectors, len(first))
	firstDim := embedder.Dimension()

	// A second batch refits: the model is replaced, not reused
	second := []string{"one two"}
	vectors, err = embedder.FitEmbedBatch(ctx, second)
	require.NoError(t, err)
	require.Len(t, vectors, len(second))
	assert.Equal(t, 2, firstDim)
	assert.Equal(t, 1, embedder.Dimension())
}

// TestSpectralEmbedBatchIsReadOnly verifies EmbedBatch never refits
func TestSpectralEmbedBatchIsReadOnly(t *testing.T) {
	embedder, err := NewSpectralEmbedder(Config{Dimension: 2}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, embedder.Fit(ctx, []string{"alpha beta gamma", "beta gamma delta", "gamma delta alpha"}))
	dim := embedder.Dimension()

	_, err = embedder.EmbedBatch(ctx, []string{"completely different words"})
	require.NoError(t, err)
	assert.Equal(t, dim, embedder.Dimension())
}

// TestSpectralFitEmptyCorpus tests the empty-corpus guard
func TestSpectralFitEmptyCorpus(t *testing.T) {
	embedder, err := NewSpectralEmbedder(Config{}, nil, nil)
	require.NoError(t, err)

	err = embedder.Fit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyCorpus)
	assert.False(t, embedder.Healthy())
}

// TestEmbedderConfigRoundTrip verifies Config returns the construction-time
// configuration
func TestEmbedderConfigRoundTrip(t *testing.T) {
	cfg := Config{Method: MethodPCA, Dimension: 7, Smoothing: SmoothingUnsmoothed}

	spectral, err := NewSpectralEmbedder(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, spectral.Config())

	plain, err := NewTFIDFEmbedder(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, plain.Config())
}

// Benchmark embedding against a fitted plain model
func BenchmarkTFIDFEmbedderEmbed(b *testing.B) {
	embedder, _ := NewTFIDFEmbedder(Config{}, nil, nil)
	ctx := context.Background()
	_ = embedder.Fit(ctx, []string{
		"benchmark test document one",
		"benchmark test document two",
		"benchmark test document three",
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = embedder.Embed(ctx, "benchmark test query")
	}
}

// Benchmark embedding against a fitted spectral model
func BenchmarkSpectralEmbedderEmbed(b *testing.B) {
	embedder, _ := NewSpectralEmbedder(Config{Dimension: 2}, nil, nil)
	ctx := context.Background()
	_ = embedder.Fit(ctx, []string{
		"benchmark test document one",
		"benchmark test document two",
		"benchmark test document three",
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = embedder.Embed(ctx, "benchmark test query")
	}
}
