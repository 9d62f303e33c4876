package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Fold lower-cases text, strips diacritics ("Pokémon" -> "pokemon") and
// collapses runs of whitespace into a single space.
func Fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	folded = strings.ToLower(folded)
	folded = whitespaceRegex.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}

// NormalizeName folds a name and removes all whitespace, useful for comparing
// names that only differ in spacing.
func NormalizeName(name string) string {
	name = Fold(name)
	return whitespaceRegex.ReplaceAllString(name, "")
}

// MatchName reports whether the normalized name contains any of the matchers.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// Tokens splits already folded text on whitespace and trims punctuation off
// the edges of every word. Inner punctuation is kept so "3-pack" stays one token.
func Tokens(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f == "" {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// HasToken reports whether any of `words` is one of the tokens of `text`.
func HasToken(text string, words ...string) bool {
	for _, token := range Tokens(text) {
		for _, w := range words {
			if token == w {
				return true
			}
		}
	}
	return false
}

// ContainsAny reports whether text contains at least one of the terms.
func ContainsAny(text string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// ContainsAll reports whether text contains every one of the terms.
func ContainsAll(text string, terms ...string) bool {
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}

// FirstContained returns the first term contained in text.
func FirstContained(text string, terms []string) (string, bool) {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return t, true
		}
	}
	return "", false
}
