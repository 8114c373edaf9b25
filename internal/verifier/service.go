// Package verifier contains the analyze-job use case. It is transport-agnostic:
// used by the HTTP handler in this package and by the gRPC server
// (grpcserver package).
package verifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobmate/verifier-service/internal/apperr"
	"jobmate/verifier-service/internal/cache"
	"jobmate/verifier-service/internal/classifier"
	"jobmate/verifier-service/internal/fusion"
	"jobmate/verifier-service/internal/logger"
	"jobmate/verifier-service/internal/model"
	"jobmate/verifier-service/internal/signals"
	"jobmate/verifier-service/internal/textmatch"
)

var tracer = otel.Tracer("jobmate/verifier-service/verifier")

// IndexSearcher cross-references a posting against a public job index.
type IndexSearcher interface {
	Search(ctx context.Context, title, company, location string) model.IndexMatch
}

// Deps are the collaborators of a Service. Cache and Publisher are optional.
type Deps struct {
	Scorer    classifier.Scorer
	Index     IndexSearcher
	Rules     signals.Rules
	Cache     cache.Cache
	CacheTTL  time.Duration // 0 disables memoization
	Publisher Publisher
	Logger    *zap.Logger
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service scores a posting with the classifier and fuses the score with the
// corroborating signals.
type Service struct {
	scorer    classifier.Scorer
	index     IndexSearcher
	emails    *signals.EmailChecker
	keywords  *signals.KeywordScanner
	cache     cache.Cache
	cacheTTL  time.Duration
	publisher Publisher
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewService returns a configured Service.
func NewService(d Deps) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		scorer:    d.Scorer,
		index:     d.Index,
		emails:    signals.NewEmailChecker(d.Rules),
		keywords:  signals.NewKeywordScanner(d.Rules),
		cache:     d.Cache,
		cacheTTL:  d.CacheTTL,
		publisher: d.Publisher,
		validate:  v,
		logger:    logger.OrNop(d.Logger).Named("verifier"),
	}
}

// ─── Business logic ───────────────────────────────────────────────────────────

// Analyze classifies p and explains the verdict. Blank title or description is
// an INVALID_INPUT error; a failing classifier is UNAVAILABLE. Signal
// gathering never fails the request.
func (s *Service) Analyze(ctx context.Context, p model.JobPosting) (*model.AnalysisResult, error) {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	if err := s.validate.Struct(p); err != nil {
		return nil, invalidPosting(err)
	}

	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = WithRequestID(ctx, requestID)
	}

	ctx, span := tracer.Start(ctx, "verifier.Analyze")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", requestID))

	var (
		modelFake float64
		bundle    model.VerificationBundle
	)

	// The bundle runs on ctx, not the group context, so a classifier failure
	// cannot cut the index search short and leave a degraded bundle memoized.
	var g errgroup.Group
	g.Go(func() error {
		prob, err := s.scorer.Score(ctx, textmatch.CleanText(p.Title+" "+p.Description))
		if err != nil {
			return apperr.Unavailable("classifier unavailable", err)
		}
		modelFake = prob
		return nil
	})
	g.Go(func() error {
		bundle = s.Bundle(ctx, p)
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		s.logger.Warn("analysis failed", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}

	conf := fusion.Fuse(modelFake, bundle.Index.Found, bundle.Emails, bundle.KeywordHits)
	res := &model.AnalysisResult{
		RealPct:      conf.RealPct,
		FakePct:      conf.FakePct,
		Verdict:      fusion.Verdict(conf.FakePct),
		Reasons:      conf.Reasons,
		ModelRealPct: fusion.Pct(1 - modelFake),
		ModelFakePct: fusion.Pct(modelFake),
		Verification: bundle,
	}

	span.SetAttributes(
		attribute.String("analysis.verdict", res.Verdict),
		attribute.Float64("analysis.fake_pct", res.FakePct),
	)
	s.logger.Info("job analyzed",
		zap.String("request_id", requestID),
		zap.String("verdict", res.Verdict),
		zap.String("result", fusion.String(conf)))

	s.publish(ctx, requestID, res)
	return res, nil
}

// Bundle gathers the corroborating signals for p, consulting the memo cache
// first. Company inference runs before the index search and the email check;
// the index search overlaps with the local checks.
// A bundle built after ctx was cancelled is returned but not memoized.
func (s *Service) Bundle(ctx context.Context, p model.JobPosting) model.VerificationBundle {
	key := BundleKey(p)
	if b, ok := s.cached(ctx, key); ok {
		return b
	}

	company := signals.InferCompany(p.Title, p.Description, p.Company)

	indexCh := make(chan model.IndexMatch, 1)
	go func() {
		indexCh <- s.index.Search(ctx, p.Title, company, p.Location)
	}()

	emails := s.emails.CheckAll(signals.ExtractEmails(p.Description), company)
	hits := s.keywords.Scan(p.Title + " " + p.Description)

	b := model.VerificationBundle{
		Index:       <-indexCh,
		Emails:      emails,
		KeywordHits: hits,
	}
	// A cancelled request may have cut index pages short; never memoize that.
	if ctx.Err() == nil {
		s.store(ctx, key, b)
	}
	return b
}

// BundleKey is the memo key for p: hex SHA-256 over the four input fields.
func BundleKey(p model.JobPosting) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{p.Title, p.Description, p.Company, p.Location}, "\x00")))
	return hex.EncodeToString(sum[:])
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Service) memoEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}

func (s *Service) cached(ctx context.Context, key string) (model.VerificationBundle, bool) {
	var b model.VerificationBundle
	if !s.memoEnabled() {
		return b, false
	}
	err := s.cache.Get(ctx, key, &b)
	switch {
	case err == nil:
		return b, true
	case !errors.Is(err, cache.ErrNotFound):
		s.logger.Warn("cache read failed, recomputing bundle", zap.Error(err))
	}
	return model.VerificationBundle{}, false
}

func (s *Service) store(ctx context.Context, key string, b model.VerificationBundle) {
	if !s.memoEnabled() {
		return
	}
	if err := s.cache.Set(ctx, key, b, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.Error(err))
	}
}

// publish emits EVENT_JOB_ANALYZED (non-fatal).
func (s *Service) publish(ctx context.Context, requestID string, res *model.AnalysisResult) {
	if s.publisher == nil {
		return
	}
	ev := AnalyzedEvent{
		Type:       EventJobAnalyzed,
		RequestID:  requestID,
		Verdict:    res.Verdict,
		FakePct:    res.FakePct,
		IndexFound: res.Verification.Index.Found,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish "+EventJobAnalyzed+" failed", zap.Error(err))
	}
}

func invalidPosting(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "max" {
			return apperr.Invalid(fe.Field()+" must be at most "+fe.Param()+" characters", err)
		}
		return apperr.Invalid(fe.Field()+" is required", err)
	}
	return apperr.Invalid("invalid job posting", err)
}
