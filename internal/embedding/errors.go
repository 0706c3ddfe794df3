package embedding

import "errors"

var (
	// ErrNotFitted is returned when Embed or EmbedBatch is called before a
	// successful Fit. The caller can recover by fitting first.
	ErrNotFitted = errors.New("embedder not fitted")

	// ErrEmptyCorpus is returned when Fit is called with zero documents.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrUnsupportedMethod is returned when the configuration names a
	// projection method or smoothing policy outside the recognized set.
	ErrUnsupportedMethod = errors.New("unsupported method")
)
