// Package model defines shared data structures for the verifier service.
package model

import "encoding/json"

// MaxTitleLen bounds the title in runes. Every index candidate is compared
// against it with a quadratic similarity.
const MaxTitleLen = 300

// JobPosting is the raw input supplied by a caller. Company and Location are
// optional and may be empty.
type JobPosting struct {
	Title       string `json:"title" validate:"required,max=300"`
	Description string `json:"description" validate:"required"`
	Company     string `json:"company,omitempty"`
	Location    string `json:"location,omitempty"`
}

// EmailFlag names one heuristic that fired for an email address.
type EmailFlag string

const (
	FlagFreeDomain            EmailFlag = "free_domain"
	FlagDisposableLike        EmailFlag = "disposable_like"
	FlagCompanyDomainMismatch EmailFlag = "company_domain_mismatch"
)

// EmailSignal is the outcome of checking one email address found in a
// posting. Flags are always in free_domain, disposable_like,
// company_domain_mismatch order.
type EmailSignal struct {
	Email  string      `json:"email"`
	Domain string      `json:"domain"`
	Flags  []EmailFlag `json:"flags"`
}

// Has reports whether f is among the signal's flags.
func (s EmailSignal) Has(f EmailFlag) bool {
	for _, got := range s.Flags {
		if got == f {
			return true
		}
	}
	return false
}

// SampleJob is a public index listing that corroborated the posting.
type SampleJob struct {
	Title   string `json:"title"`
	Company string `json:"company"`
	URL     string `json:"url"`
	Source  string `json:"source"`
}

// IndexMatch is the result of cross-referencing a posting against the public
// job index. Sample is the first qualifying listing seen, not the best one.
type IndexMatch struct {
	Found      bool       `json:"found"`
	MatchCount int        `json:"match_count"`
	Sample     *SampleJob `json:"sample"`
	Note       string     `json:"note,omitempty"`
}

// VerificationBundle groups every independent signal gathered for a posting.
type VerificationBundle struct {
	Index       IndexMatch    `json:"index"`
	Emails      []EmailSignal `json:"emails"`
	KeywordHits []string      `json:"keyword_hits"`
}

// MarshalBinary lets the bundle be stored directly in Redis.
func (b VerificationBundle) MarshalBinary() ([]byte, error) {
	return json.Marshal(b)
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (b *VerificationBundle) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, b)
}

// ConfidenceResult is the fused fake/real split. RealPct + FakePct is 100
// within one decimal of rounding.
type ConfidenceResult struct {
	RealPct float64  `json:"real_pct"`
	FakePct float64  `json:"fake_pct"`
	Reasons []string `json:"reasons"`
}

// AnalysisResult is the JSON shape returned to HTTP and gRPC callers.
type AnalysisResult struct {
	RealPct      float64            `json:"real_pct"`
	FakePct      float64            `json:"fake_pct"`
	Verdict      string             `json:"verdict"`
	Reasons      []string           `json:"reasons"`
	ModelRealPct float64            `json:"model_real_pct"`
	ModelFakePct float64            `json:"model_fake_pct"`
	Verification VerificationBundle `json:"verification"`
}
