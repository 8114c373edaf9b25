package jobindex_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"jobmate/verifier-service/internal/jobindex"
)

const page1 = `{"results":[
  {"title":"Chef","company":{"display_name":"Acme"},"redirect_url":"https://ex/chef"},
  {"title":"Backend Engineer","company":{"display_name":"Globex"},"redirect_url":"https://ex/globex"},
  {"title":"Backend Engineer","company":{"display_name":"Acme Inc"},"redirect_url":"https://ex/1"},
  {"title":"backend  ENGINEER","company":{"display_name":"ACME"},"redirect_url":"https://ex/2"}
]}`

const page2 = `{"results":[
  {"title":"Senior Backend Engineer","company":{"display_name":"Acme"},"redirect_url":"https://ex/3"},
  {"title":"Backend Engineer","company":null,"redirect_url":"https://ex/4"}
]}`

// fakeIndex serves canned bodies keyed by page number; a missing page
// answers 500.
func fakeIndex(t *testing.T, pages map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		page := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		body, ok := pages[page]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if body == "SLOW" {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newFetcher(baseURL string) *jobindex.AdzunaFetcher {
	return jobindex.NewAdzunaFetcher(jobindex.FetcherConfig{
		AppID:   "id",
		AppKey:  "key",
		BaseURL: baseURL,
	})
}

// ── Degraded mode ──────────────────────────────────────────────────────────

func TestSearch_MissingCredentials(t *testing.T) {
	srv, hits := fakeIndex(t, map[string]string{"1": page1})
	for _, cfg := range []jobindex.FetcherConfig{
		{BaseURL: srv.URL},
		{AppID: "id", BaseURL: srv.URL},
		{AppKey: "key", BaseURL: srv.URL},
	} {
		xref := jobindex.NewCrossReferencer(jobindex.NewAdzunaFetcher(cfg), 2, 0, nil)
		got := xref.Search(context.Background(), "Backend Engineer", "Acme", "")
		if got.Found || got.MatchCount != 0 || got.Sample != nil {
			t.Errorf("degraded Search = %+v, want empty match", got)
		}
		if got.Note != jobindex.NoteMissingKey {
			t.Errorf("Note = %q, want %q", got.Note, jobindex.NoteMissingKey)
		}
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("index called %d times in degraded mode, want 0", n)
	}
}

// ── Matching across pages ──────────────────────────────────────────────────

func TestSearch_AccumulatesAcrossPages(t *testing.T) {
	srv, _ := fakeIndex(t, map[string]string{"1": page1, "2": page2})
	xref := jobindex.NewCrossReferencer(newFetcher(srv.URL), 2, time.Second, nil)

	got := xref.Search(context.Background(), "Backend Engineer", "Acme", "Austin")
	if !got.Found {
		t.Fatal("Found = false, want true")
	}
	if got.MatchCount != 3 {
		t.Errorf("MatchCount = %d, want 3", got.MatchCount)
	}
	if got.Sample == nil || got.Sample.URL != "https://ex/1" {
		t.Fatalf("Sample = %+v, want first page-1 match", got.Sample)
	}
	if got.Sample.Company != "Acme Inc" || got.Sample.Source != "adzuna" {
		t.Errorf("Sample = %+v", got.Sample)
	}
	if got.Note != "" {
		t.Errorf("Note = %q, want empty", got.Note)
	}
}

func TestSearch_EmptyCompanyNotPenalized(t *testing.T) {
	srv, _ := fakeIndex(t, map[string]string{"1": page1, "2": page2})
	xref := jobindex.NewCrossReferencer(newFetcher(srv.URL), 2, time.Second, nil)

	got := xref.Search(context.Background(), "Backend Engineer", "", "")
	// every Backend Engineer listing counts when no company is known
	if got.MatchCount != 5 {
		t.Errorf("MatchCount = %d, want 5", got.MatchCount)
	}
	if got.Sample == nil || got.Sample.URL != "https://ex/globex" {
		t.Errorf("Sample = %+v, want the globex listing", got.Sample)
	}
}

func TestSearch_NoMatches(t *testing.T) {
	srv, _ := fakeIndex(t, map[string]string{"1": page1, "2": page2})
	xref := jobindex.NewCrossReferencer(newFetcher(srv.URL), 2, time.Second, nil)

	got := xref.Search(context.Background(), "Registered Nurse", "Acme", "")
	if got.Found || got.MatchCount != 0 || got.Sample != nil {
		t.Errorf("Search = %+v, want no match", got)
	}
}

// ── Per-page failure isolation ─────────────────────────────────────────────

func TestSearch_FailedPageContributesZero(t *testing.T) {
	srv, _ := fakeIndex(t, map[string]string{"2": page2}) // page 1 → 500
	xref := jobindex.NewCrossReferencer(newFetcher(srv.URL), 2, time.Second, nil)

	got := xref.Search(context.Background(), "Backend Engineer", "Acme", "")
	if got.MatchCount != 1 {
		t.Errorf("MatchCount = %d, want 1", got.MatchCount)
	}
	if got.Sample == nil || got.Sample.URL != "https://ex/3" {
		t.Errorf("Sample = %+v, want page-2 match", got.Sample)
	}
}

func TestSearch_MalformedPayload(t *testing.T) {
	srv, _ := fakeIndex(t, map[string]string{"1": `{"results": [`, "2": page2})
	xref := jobindex.NewCrossReferencer(newFetcher(srv.URL), 2, time.Second, nil)

	got := xref.Search(context.Background(), "Backend Engineer", "Acme", "")
	if got.MatchCount != 1 {
		t.Errorf("MatchCount = %d, want 1", got.MatchCount)
	}
}

func TestSearch_PageTimeout(t *testing.T) {
	srv, _ := fakeIndex(t, map[string]string{"1": "SLOW", "2": page2})
	xref := jobindex.NewCrossReferencer(newFetcher(srv.URL), 2, 100*time.Millisecond, nil)

	start := time.Now()
	got := xref.Search(context.Background(), "Backend Engineer", "Acme", "")
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Search took %v, slow page should time out", elapsed)
	}
	if got.MatchCount != 1 {
		t.Errorf("MatchCount = %d, want 1", got.MatchCount)
	}
}

func TestSearch_AllPagesFail(t *testing.T) {
	srv, _ := fakeIndex(t, map[string]string{})
	xref := jobindex.NewCrossReferencer(newFetcher(srv.URL), 3, time.Second, nil)

	got := xref.Search(context.Background(), "Backend Engineer", "Acme", "")
	if got.Found || got.MatchCount != 0 || got.Sample != nil || got.Note != "" {
		t.Errorf("Search = %+v, want empty result without note", got)
	}
}

// ── Request shape ──────────────────────────────────────────────────────────

func TestFetchPage_RequestParameters(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer srv.Close()

	f := jobindex.NewAdzunaFetcher(jobindex.FetcherConfig{
		AppID: "id", AppKey: "key", Country: "gb", BaseURL: srv.URL, ResultsPerPage: 20,
	})
	listings, err := f.FetchPage(context.Background(), "Data Analyst", "", 2)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("listings = %v, want none", listings)
	}
	if gotPath != "/gb/search/2" {
		t.Errorf("path = %q, want /gb/search/2", gotPath)
	}
	want := map[string]string{
		"app_id": "id", "app_key": "key", "what": "Data Analyst",
		"where": "", "results_per_page": "20", "content-type": "application/json",
	}
	for k, v := range want {
		vals, ok := gotQuery[k]
		if !ok || vals[0] != v {
			t.Errorf("query %s = %v, want %q", k, vals, v)
		}
	}
}

func TestFetchPage_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := newFetcher(srv.URL).FetchPage(context.Background(), "x", "", 1); err == nil {
		t.Error("FetchPage on 401 expected error, got nil")
	}
}

// ── Matches ────────────────────────────────────────────────────────────────

func TestMatches(t *testing.T) {
	cases := []struct {
		title, company string
		l              jobindex.Listing
		want           bool
	}{
		{"Backend Engineer", "Acme", jobindex.Listing{Title: "Backend Engineer", Company: "Acme Inc"}, true},
		{"Backend Engineer", "Acme", jobindex.Listing{Title: "Backend Engineer", Company: "Globex"}, false},
		{"Backend Engineer", "Acme", jobindex.Listing{Title: "Pastry Chef", Company: "Acme"}, false},
		{"Backend Engineer", "", jobindex.Listing{Title: "Backend Engineer", Company: ""}, true},
		{"Backend Engineer", "  ", jobindex.Listing{Title: "Engineer Backend", Company: "Anyone"}, true},
		{"Backend Engineer", "Acme", jobindex.Listing{Title: "Backend Engineer", Company: ""}, false},
	}
	for _, c := range cases {
		if got := jobindex.Matches(c.title, c.company, c.l); got != c.want {
			t.Errorf("Matches(%q, %q, %+v) = %v, want %v", c.title, c.company, c.l, got, c.want)
		}
	}
}
