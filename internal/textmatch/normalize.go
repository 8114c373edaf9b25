// Package textmatch holds the text helpers shared by every signal: whitespace
// normalization, token-set fuzzy similarity and classifier input cleaning.
package textmatch

import (
	"regexp"
	"strings"
	"unicode"
)

// Normalize lowercases s, trims it and collapses every whitespace run to a
// single space. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var (
	urlPattern   = regexp.MustCompile(`http\S+|www\S+`)
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	digitPattern = regexp.MustCompile(`\d+`)
)

// CleanText prepares posting text for the classifier: lowercase, URLs,
// email-like tokens and digits replaced by spaces, ASCII punctuation dropped,
// whitespace collapsed.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = urlPattern.ReplaceAllString(s, " ")
	s = emailPattern.ReplaceAllString(s, " ")
	s = digitPattern.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsPunct(r) || unicode.IsSymbol(r)) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
