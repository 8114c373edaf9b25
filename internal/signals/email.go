package signals

import (
	"regexp"
	"strings"

	"jobmate/verifier-service/internal/model"
)

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)
)

// ExtractEmails returns every email address in text in order of appearance.
// Duplicates are kept.
func ExtractEmails(text string) []string {
	return emailPattern.FindAllString(text, -1)
}

// EmailChecker flags email addresses against the free-provider and
// disposable-service lists.
type EmailChecker struct {
	free       map[string]bool
	disposable []string
}

// NewEmailChecker builds a checker from rules.
func NewEmailChecker(rules Rules) *EmailChecker {
	free := make(map[string]bool, len(rules.FreeProviders))
	for _, d := range rules.FreeProviders {
		free[d] = true
	}
	return &EmailChecker{free: free, disposable: rules.DisposableHints}
}

// Check inspects a single address. claimedCompany may be empty, in which case
// the mismatch check is skipped. An address without "@" yields a signal with
// no domain and no flags.
func (c *EmailChecker) Check(email, claimedCompany string) model.EmailSignal {
	sig := model.EmailSignal{Email: email, Flags: []model.EmailFlag{}}

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return sig
	}
	domain := strings.ToLower(email[at+1:])
	sig.Domain = domain
	if domain == "" {
		return sig
	}

	if c.free[domain] {
		sig.Flags = append(sig.Flags, model.FlagFreeDomain)
	}

	for _, hint := range c.disposable {
		if strings.Contains(domain, hint) {
			sig.Flags = append(sig.Flags, model.FlagDisposableLike)
			break
		}
	}

	if claimedCompany != "" {
		company := alphanumeric(claimedCompany)
		firstLabel := alphanumeric(strings.SplitN(domain, ".", 2)[0])
		if company != "" && !strings.Contains(firstLabel, company) {
			sig.Flags = append(sig.Flags, model.FlagCompanyDomainMismatch)
		}
	}

	return sig
}

// CheckAll runs Check over each address, preserving order.
func (c *EmailChecker) CheckAll(emails []string, claimedCompany string) []model.EmailSignal {
	out := make([]model.EmailSignal, 0, len(emails))
	for _, e := range emails {
		out = append(out, c.Check(e, claimedCompany))
	}
	return out
}

func alphanumeric(s string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "")
}
