package textmatch

import (
	"math"
	"sort"
	"strings"
)

// Similarity scores two strings 0..100 by token-set overlap: word order and
// repeated words are ignored, and a string whose tokens are a subset of the
// other's scores 100. Either side normalizing to "" scores 0.
func Similarity(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	return int(math.RoundToEven(tokenSetRatio(na, nb)))
}

func tokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	var common, onlyA, onlyB []string
	for t := range setA {
		if setB[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if !setA[t] {
			onlyB = append(onlyB, t)
		}
	}

	if len(common) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(common, " ")
	diffA := strings.Join(onlyA, " ")
	diffB := strings.Join(onlyB, " ")

	best := indelRatio(diffA, diffB)
	if sect == "" {
		return best
	}

	// sect against sect+" "+diff is a pure insertion, so the distance is just
	// the length of what was appended.
	sectLen := runeLen(sect)
	withA := sectLen + 1 + runeLen(diffA)
	withB := sectLen + 1 + runeLen(diffB)

	best = math.Max(best, 100*(1-float64(withA-sectLen)/float64(sectLen+withA)))
	best = math.Max(best, 100*(1-float64(withB-sectLen)/float64(sectLen+withB)))
	return best
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}

// indelRatio is the normalized insert/delete similarity of a and b:
// 100 * (1 - distance/(len(a)+len(b))), with distance = len(a)+len(b)-2*LCS.
func indelRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	dist := total - 2*lcsLen(ra, rb)
	return 100 * (1 - float64(dist)/float64(total))
}

func lcsLen(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func runeLen(s string) int {
	return len([]rune(s))
}
