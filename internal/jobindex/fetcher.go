// Package jobindex cross-references postings against the Adzuna public job
// index.
package jobindex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL        = "https://api.adzuna.com/v1/api/jobs"
	DefaultCountry        = "us"
	DefaultResultsPerPage = 50
	httpTimeout           = 15 * time.Second
	userAgent             = "jobmate-verifier/1.0"
)

// Listing is one job returned by the index.
type Listing struct {
	Title       string
	Company     string
	RedirectURL string
}

// FetcherConfig configures an AdzunaFetcher. Zero values fall back to the
// package defaults; a zero RatePerSec disables rate limiting.
type FetcherConfig struct {
	AppID          string
	AppKey         string
	Country        string
	BaseURL        string
	ResultsPerPage int
	RatePerSec     float64
	Burst          int
}

// AdzunaFetcher fetches single search result pages from the Adzuna API.
// Outbound requests share one token bucket.
type AdzunaFetcher struct {
	appID          string
	appKey         string
	country        string
	baseURL        string
	resultsPerPage int
	client         *http.Client
	limiter        *rate.Limiter
}

// NewAdzunaFetcher constructs a fetcher with a shared HTTP client.
func NewAdzunaFetcher(cfg FetcherConfig) *AdzunaFetcher {
	f := &AdzunaFetcher{
		appID:          cfg.AppID,
		appKey:         cfg.AppKey,
		country:        cfg.Country,
		baseURL:        cfg.BaseURL,
		resultsPerPage: cfg.ResultsPerPage,
		client:         &http.Client{Timeout: httpTimeout},
	}
	if f.country == "" {
		f.country = DefaultCountry
	}
	if f.baseURL == "" {
		f.baseURL = DefaultBaseURL
	}
	if f.resultsPerPage <= 0 {
		f.resultsPerPage = DefaultResultsPerPage
	}
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return f
}

// Configured reports whether both credentials are set.
func (f *AdzunaFetcher) Configured() bool {
	return f.appID != "" && f.appKey != ""
}

// adzunaResponse mirrors the parts of the Adzuna search response we read.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
}

type adzunaResult struct {
	Title       string        `json:"title"`
	Company     adzunaCompany `json:"company"`
	RedirectURL string        `json:"redirect_url"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

// FetchPage retrieves one page of results for jobTitle at location; an empty
// location searches everywhere. Non-200 responses and undecodable bodies are
// errors.
func (f *AdzunaFetcher) FetchPage(ctx context.Context, jobTitle, location string, page int) ([]Listing, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	endpoint := fmt.Sprintf("%s/%s/search/%d", f.baseURL, f.country, page)

	params := url.Values{}
	params.Set("app_id", f.appID)
	params.Set("app_key", f.appKey)
	params.Set("results_per_page", strconv.Itoa(f.resultsPerPage))
	params.Set("what", jobTitle)
	params.Set("where", location)
	params.Set("content-type", "application/json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adzuna returned %d", resp.StatusCode)
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	listings := make([]Listing, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		listings = append(listings, Listing{
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			RedirectURL: r.RedirectURL,
		})
	}
	return listings, nil
}
