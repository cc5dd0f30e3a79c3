package platform

import (
	"strings"
	"unicode"
)

// Normalizer cleans free text before it is persisted. The pipeline only
// needs the contract; richer NLP preprocessing plugs in behind it.
type Normalizer interface {
	Clean(text string) string
}

// BasicNormalizer strips punctuation and symbol runes and lower-cases the
// rest. Punctuation in stored text breaks downstream tokenization and
// some database collations.
type BasicNormalizer struct{}

func (BasicNormalizer) Clean(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
