package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTokenize tests the tokenization function
func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple text",
			input:    "hello world",
			expected: []string{"hello", "world"},
		},
		{
			name:     "mixed case",
			input:    "Hello WORLD",
			expected: []string{"hello", "world"},
		},
		{
			name:     "with punctuation",
			input:    "Hello, world! How are you?",
			expected: []string{"hello", "world", "how", "are", "you"},
		},
		{
			name:     "single characters kept",
			input:    "a b cd ef",
			expected: []string{"a", "b", "cd", "ef"},
		},
		{
			name:     "underscore is a word character",
			input:    "snake_case and camelCase",
			expected: []string{"snake_case", "and", "camelcase"},
		},
		{
			name:     "numbers included",
			input:    "test123 code456",
			expected: []string{"test123", "code456"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "whitespace only",
			input:    "  \t\n  ",
			expected: nil,
		},
		{
			name:     "punctuation only",
			input:    "!!! ... ---",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tokenize(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestTokenizeDeterministic verifies repeated calls return identical output
func TestTokenizeDeterministic(t *testing.T) {
	input := "The quick brown fox, jumps over the lazy dog!"
	first := tokenize(input)
	second := tokenize(input)
	assert.Equal(t, first, second)
}
