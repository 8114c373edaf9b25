// Package fusion combines the classifier's fake probability with the
// corroborating signals into one fake/real split and a reason trail.
//
// The combination is an ordered fold of adjustments over the model score:
//
//	index corroboration  ×0.80
//	per email, per flag  +0.10 free / +0.20 disposable / +0.15 mismatch
//	keyword hits         +min(0.25, 0.05·n), once
//
// Every additive step is capped at 1. The discount is applied first.
package fusion

import (
	"fmt"
	"math"
	"strings"

	"jobmate/verifier-service/internal/model"
)

const (
	IndexDiscount      = 0.80
	FreeDomainPenalty  = 0.10
	DisposablePenalty  = 0.20
	MismatchPenalty    = 0.15
	KeywordPenaltyEach = 0.05
	KeywordPenaltyCap  = 0.25
	MaxReasonKeywords  = 5
	FakeThresholdPct   = 50.0
	ReasonIndexFound   = "Found on public job index (Adzuna)"
	VerdictFake        = "fake"
	VerdictReal        = "real"
)

// Adjustment is one step of the fold.
type Adjustment struct {
	Reason string
	Apply  func(score float64) float64
}

// Adjustments lists the steps that fire for the given signals, in the order
// they must be applied.
func Adjustments(indexFound bool, emails []model.EmailSignal, keywordHits []string) []Adjustment {
	var adj []Adjustment

	if indexFound {
		adj = append(adj, Adjustment{
			Reason: ReasonIndexFound,
			Apply:  func(s float64) float64 { return s * IndexDiscount },
		})
	}

	for _, e := range emails {
		if e.Has(model.FlagFreeDomain) {
			adj = append(adj, penalty(FreeDomainPenalty, "Free email domain: "+e.Domain))
		}
		if e.Has(model.FlagDisposableLike) {
			adj = append(adj, penalty(DisposablePenalty, "Disposable-like email: "+e.Domain))
		}
		if e.Has(model.FlagCompanyDomainMismatch) {
			adj = append(adj, penalty(MismatchPenalty, "Email domain does not match company: "+e.Domain))
		}
	}

	if len(keywordHits) > 0 {
		bump := math.Min(KeywordPenaltyCap, KeywordPenaltyEach*float64(len(keywordHits)))
		shown := keywordHits
		if len(shown) > MaxReasonKeywords {
			shown = shown[:MaxReasonKeywords]
		}
		adj = append(adj, penalty(bump, "Suspicious phrases: "+strings.Join(shown, ", ")))
	}

	return adj
}

func penalty(amount float64, reason string) Adjustment {
	return Adjustment{
		Reason: reason,
		Apply:  func(s float64) float64 { return math.Min(1, s+amount) },
	}
}

// Fuse folds the adjustments over modelFakeProb and converts the result to
// percentages rounded to one decimal. modelFakeProb outside [0,1] is clamped;
// NaN is treated as 0.
func Fuse(modelFakeProb float64, indexFound bool, emails []model.EmailSignal, keywordHits []string) model.ConfidenceResult {
	score := clamp01(modelFakeProb)
	reasons := []string{}

	for _, a := range Adjustments(indexFound, emails, keywordHits) {
		score = a.Apply(score)
		reasons = append(reasons, a.Reason)
	}

	return model.ConfidenceResult{
		FakePct: Pct(score),
		RealPct: Pct(1 - score),
		Reasons: reasons,
	}
}

// Pct converts a probability to a percentage with one decimal.
func Pct(p float64) float64 {
	return math.Round(p*1000) / 10
}

// Verdict is "fake" when fakePct is at least 50, otherwise "real".
func Verdict(fakePct float64) string {
	if fakePct >= FakeThresholdPct {
		return VerdictFake
	}
	return VerdictReal
}

func clamp01(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// String renders a result for logs.
func String(r model.ConfidenceResult) string {
	return fmt.Sprintf("fake=%.1f%% real=%.1f%% reasons=%d", r.FakePct, r.RealPct, len(r.Reasons))
}
