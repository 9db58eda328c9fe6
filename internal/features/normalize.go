package features

import (
	"strings"
	"unicode"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/russian"
)

// Normalize lower-cases text, splits it into letter/digit runs and reduces
// every token to its stem. Cyrillic tokens go through the Russian Snowball
// stemmer, Latin tokens through Porter.
func Normalize(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "ё", "е")
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, stem(f))
	}
	return tokens
}

func stem(token string) string {
	switch script(token) {
	case unicode.Cyrillic:
		env := snowballstem.NewEnv(token)
		russian.Stem(env)
		return env.Current()
	case unicode.Latin:
		return porterstemmer.StemString(token)
	default:
		return token
	}
}

// script returns the table every letter of token belongs to, or nil for
// mixed or letterless tokens.
func script(token string) *unicode.RangeTable {
	var table *unicode.RangeTable
	for _, r := range token {
		if !unicode.IsLetter(r) {
			return nil
		}
		var cur *unicode.RangeTable
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			cur = unicode.Cyrillic
		case unicode.Is(unicode.Latin, r):
			cur = unicode.Latin
		default:
			return nil
		}
		if table != nil && table != cur {
			return nil
		}
		table = cur
	}
	return table
}
