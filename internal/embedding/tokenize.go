package embedding

import (
	"strings"
	"unicode"
)

// tokenize splits text into lowercase terms on runs of characters that are
// neither alphanumeric nor underscore. Empty tokens are discarded.
func tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var currentToken strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			currentToken.WriteRune(r)
		} else if currentToken.Len() > 0 {
			tokens = append(tokens, currentToken.String())
			currentToken.Reset()
		}
	}

	if currentToken.Len() > 0 {
		tokens = append(tokens, currentToken.String())
	}

	return tokens
}
