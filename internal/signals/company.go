package signals

import (
	"regexp"
	"strings"
)

var (
	emailDomainPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@([A-Za-z0-9.-]+)\.[A-Za-z]{2,}`)
	capitalizedPattern = regexp.MustCompile(`\b([A-Z][a-zA-Z]+)\b`)
	labelSeparator     = regexp.MustCompile(`[.\-]`)
)

// InferCompany returns the best-guess organization name for a posting:
// the provided name trimmed, else the first label of the first email domain in
// the description, else its first capitalized word, else "".
//
// An empty result means "no company signal", never an error.
func InferCompany(title, description, provided string) string {
	if p := strings.TrimSpace(provided); p != "" {
		return p
	}

	if m := emailDomainPattern.FindStringSubmatch(description); m != nil {
		domain := strings.ToLower(m[1])
		return labelSeparator.Split(domain, 2)[0]
	}

	if m := capitalizedPattern.FindStringSubmatch(description); m != nil {
		return m[1]
	}

	return ""
}
