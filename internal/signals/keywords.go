package signals

import (
	"sort"

	"github.com/cloudflare/ahocorasick"

	"jobmate/verifier-service/internal/textmatch"
)

// KeywordScanner reports which scam phrases occur in a posting.
type KeywordScanner struct {
	phrases []string
	matcher *ahocorasick.Matcher
}

// NewKeywordScanner compiles the rules' scam phrases into one automaton.
func NewKeywordScanner(rules Rules) *KeywordScanner {
	return &KeywordScanner{
		phrases: rules.ScamPhrases,
		matcher: ahocorasick.NewStringMatcher(rules.ScamPhrases),
	}
}

// Scan returns every phrase that appears as a substring of the normalized
// text. Hits are in phrase-list order, not order of appearance. Matching is
// case-insensitive and ignores word boundaries, so "ssn" hits "classnotes".
func (s *KeywordScanner) Scan(text string) []string {
	norm := textmatch.Normalize(text)
	if norm == "" {
		return []string{}
	}

	idx := s.matcher.MatchThreadSafe([]byte(norm))
	sort.Ints(idx)

	hits := make([]string, 0, len(idx))
	for n, i := range idx {
		if n > 0 && idx[n-1] == i {
			continue
		}
		hits = append(hits, s.phrases[i])
	}
	return hits
}
