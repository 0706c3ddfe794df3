package embedding

import (
	"fmt"
	"math"
	"sort"
)

// Smoothing selects the IDF damping formula.
type Smoothing string

const (
	// SmoothingSmoothed computes log((N+1)/(df+1)) + 1. Always positive,
	// safe for terms that appear in every document.
	SmoothingSmoothed Smoothing = "smoothed"

	// SmoothingUnsmoothed computes log(N/(1+df)). Goes to zero or negative
	// when df is large relative to N; kept for callers that expect the raw
	// formula.
	SmoothingUnsmoothed Smoothing = "unsmoothed"
)

// vocabulary is an ordered set of distinct terms. The index is positionally
// aligned with the IDF vector and every matrix column, so the order must not
// change for the lifetime of a fitted model.
type vocabulary struct {
	terms []string
	index map[string]int
}

func (v *vocabulary) size() int {
	if v == nil {
		return 0
	}
	return len(v.terms)
}

// buildVocabulary unions the term sets of all tokenized documents into a
// lexicographically sorted vocabulary. Sorting gives a stable index order
// across repeated fits of the same corpus.
func buildVocabulary(tokenized [][]string) *vocabulary {
	seen := make(map[string]bool)
	for _, tokens := range tokenized {
		for _, token := range tokens {
			seen[token] = true
		}
	}

	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	index := make(map[string]int, len(terms))
	for i, term := range terms {
		index[term] = i
	}

	return &vocabulary{terms: terms, index: index}
}

// termFrequency returns the fraction of terms equal to term. Defined as 0 for
// an empty sequence; naive division would produce NaN and poison every
// downstream dot product.
func termFrequency(terms []string, term string) float64 {
	if len(terms) == 0 {
		return 0
	}
	count := 0
	for _, t := range terms {
		if t == term {
			count++
		}
	}
	return float64(count) / float64(len(terms))
}

// inverseDocumentFrequency computes the IDF for a term with document
// frequency df in a corpus of n documents.
func inverseDocumentFrequency(n, df int, smoothing Smoothing) float64 {
	if smoothing == SmoothingUnsmoothed {
		return math.Log(float64(n) / float64(1+df))
	}
	return math.Log(float64(n+1)/float64(df+1)) + 1
}

// tfidfStats holds the learned corpus statistics and the weighted
// document-term matrix from one fit.
type tfidfStats struct {
	vocab  *vocabulary
	idf    []float64
	matrix [][]float64

	// degenerate lists indices of documents that tokenized to zero terms.
	// Their matrix rows are all zeros.
	degenerate []int
}

// buildTFIDF tokenizes every document, fixes the vocabulary, computes
// per-term IDF over the entire corpus, and assembles the document-term
// matrix with rows = len(corpus) and columns = vocabulary size. The output
// is fully deterministic for a given corpus.
func buildTFIDF(corpus []string, smoothing Smoothing) (*tfidfStats, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("build tf-idf: %w", ErrEmptyCorpus)
	}

	tokenized := make([][]string, len(corpus))
	for i, doc := range corpus {
		tokenized[i] = tokenize(doc)
	}

	vocab := buildVocabulary(tokenized)

	// Document frequency: number of documents whose token set contains the
	// term.
	docFreq := make(map[string]int, vocab.size())
	for _, tokens := range tokenized {
		unique := make(map[string]bool, len(tokens))
		for _, token := range tokens {
			unique[token] = true
		}
		for term := range unique {
			docFreq[term]++
		}
	}

	idf := make([]float64, vocab.size())
	for i, term := range vocab.terms {
		idf[i] = inverseDocumentFrequency(len(corpus), docFreq[term], smoothing)
	}

	stats := &tfidfStats{vocab: vocab, idf: idf}
	stats.matrix = make([][]float64, len(corpus))
	for i, tokens := range tokenized {
		stats.matrix[i] = weightRow(tokens, vocab, idf)
		if len(tokens) == 0 {
			stats.degenerate = append(stats.degenerate, i)
		}
	}

	return stats, nil
}

// buildVector computes the TF-IDF row for one document against an already
// fitted vocabulary and IDF. Terms absent from the vocabulary contribute
// nothing and do not widen the vector.
func buildVector(text string, vocab *vocabulary, idf []float64) []float64 {
	return weightRow(tokenize(text), vocab, idf)
}

// weightRow builds one tf*idf weighted row. A zero-token document yields an
// all-zero row.
func weightRow(tokens []string, vocab *vocabulary, idf []float64) []float64 {
	row := make([]float64, vocab.size())
	if len(tokens) == 0 {
		return row
	}

	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}

	docLength := float64(len(tokens))
	for term, count := range counts {
		if idx, ok := vocab.index[term]; ok {
			row[idx] = float64(count) / docLength * idf[idx]
		}
	}

	return row
}
