package embedding

import "github.com/google/uuid"

// model is the immutable result of one successful fit. A new value replaces
// the previous one by atomic pointer swap, so readers never observe a
// partially updated vocabulary/idf/basis triple.
type model struct {
	fitID string
	vocab *vocabulary
	idf   []float64
	basis *basis // nil for the plain TF-IDF variant
}

func newModel(stats *tfidfStats, b *basis) *model {
	return &model{
		fitID: uuid.NewString(),
		vocab: stats.vocab,
		idf:   stats.idf,
		basis: b,
	}
}

func (m *model) vocabularySize() int {
	if m == nil {
		return 0
	}
	return m.vocab.size()
}
