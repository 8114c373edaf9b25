package jobindex

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobmate/verifier-service/internal/logger"
	"jobmate/verifier-service/internal/model"
	"jobmate/verifier-service/internal/textmatch"
)

const (
	// A listing corroborates a posting when both similarities reach these.
	TitleThreshold   = 75
	CompanyThreshold = 70

	DefaultPages       = 2
	DefaultPageTimeout = 8 * time.Second

	SourceAdzuna   = "adzuna"
	NoteMissingKey = "missing adzuna keys"
)

var tracer = otel.Tracer("jobmate/verifier-service/jobindex")

// PageFetcher is the slice of AdzunaFetcher the cross-referencer needs.
type PageFetcher interface {
	Configured() bool
	FetchPage(ctx context.Context, jobTitle, location string, page int) ([]Listing, error)
}

// CrossReferencer decides whether a posting is independently listed on the
// public index.
type CrossReferencer struct {
	fetcher     PageFetcher
	pages       int
	pageTimeout time.Duration
	logger      *zap.Logger
}

// NewCrossReferencer returns a CrossReferencer querying pages result pages,
// each bounded by pageTimeout. Non-positive values use the defaults.
func NewCrossReferencer(fetcher PageFetcher, pages int, pageTimeout time.Duration, log *zap.Logger) *CrossReferencer {
	if pages <= 0 {
		pages = DefaultPages
	}
	if pageTimeout <= 0 {
		pageTimeout = DefaultPageTimeout
	}
	return &CrossReferencer{
		fetcher:     fetcher,
		pages:       pages,
		pageTimeout: pageTimeout,
		logger:      logger.OrNop(log).Named("jobindex"),
	}
}

type pageResult struct {
	matches int
	first   *model.SampleJob
}

// Search looks title up across every configured page and counts listings whose
// title and company are similar enough. An empty company is never penalized.
//
// Missing credentials return an empty match with a note. A page that fails
// for any reason contributes nothing; Search itself never fails. Matches are
// summed across pages without de-duplication.
func (c *CrossReferencer) Search(ctx context.Context, title, company, location string) model.IndexMatch {
	if !c.fetcher.Configured() {
		c.logger.Info("index credentials not configured, skipping cross-reference")
		return model.IndexMatch{Note: NoteMissingKey}
	}

	ctx, span := tracer.Start(ctx, "jobindex.Search")
	defer span.End()

	results := make([]pageResult, c.pages)

	var g errgroup.Group
	for i := 0; i < c.pages; i++ {
		page := i + 1
		g.Go(func() error {
			results[page-1] = c.searchPage(ctx, title, company, location, page)
			return nil // best-effort: a failed page never cancels its siblings
		})
	}
	_ = g.Wait()

	var out model.IndexMatch
	for _, r := range results {
		out.MatchCount += r.matches
		if out.Sample == nil && r.first != nil {
			out.Sample = r.first
		}
	}
	out.Found = out.MatchCount > 0

	span.SetAttributes(
		attribute.Int("index.match_count", out.MatchCount),
		attribute.Bool("index.found", out.Found),
	)
	return out
}

func (c *CrossReferencer) searchPage(ctx context.Context, title, company, location string, page int) pageResult {
	ctx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "jobindex.FetchPage")
	defer span.End()
	span.SetAttributes(attribute.Int("index.page", page))

	listings, err := c.fetcher.FetchPage(ctx, title, location, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "page fetch failed")
		c.logger.Warn("index page failed, counting it as zero matches",
			zap.Int("page", page),
			zap.Error(err))
		return pageResult{}
	}

	var r pageResult
	for _, l := range listings {
		if !Matches(title, company, l) {
			continue
		}
		r.matches++
		if r.first == nil {
			r.first = &model.SampleJob{
				Title:   l.Title,
				Company: l.Company,
				URL:     l.RedirectURL,
				Source:  SourceAdzuna,
			}
		}
	}
	return r
}

// Matches reports whether listing l corroborates a posting with the given
// title and company.
func Matches(title, company string, l Listing) bool {
	if textmatch.Similarity(title, l.Title) < TitleThreshold {
		return false
	}
	if textmatch.Normalize(company) == "" {
		return true
	}
	return textmatch.Similarity(company, l.Company) >= CompanyThreshold
}
