package config_test

import (
	"os"
	"testing"
	"time"

	"jobmate/verifier-service/internal/config"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a case.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"VERIFIER_PORT", "VERIFIER_GRPC_PORT", "APP_ENV", "CLASSIFIER_URL", "CLASSIFIER_TIMEOUT",
		"ADZUNA_APP_ID", "ADZUNA_APP_KEY", "ADZUNA_COUNTRY", "ADZUNA_BASE_URL", "ADZUNA_PAGES",
		"ADZUNA_RESULTS_PER_PAGE", "ADZUNA_PAGE_TIMEOUT", "ADZUNA_RATE_PER_SEC", "REDIS_URL",
		"CACHE_TTL", "CACHE_SWEEP_SPEC", "SIGNAL_RULES_FILE", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLASSIFIER_URL", "http://classifier:8000/score")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.GRPCPort != "9090" || cfg.AppEnv != "production" {
		t.Errorf("ports/env = %s %s %s", cfg.Port, cfg.GRPCPort, cfg.AppEnv)
	}
	if cfg.ClassifierTimeout != 5*time.Second || cfg.AdzunaPageTimeout != 8*time.Second {
		t.Errorf("timeouts = %v %v", cfg.ClassifierTimeout, cfg.AdzunaPageTimeout)
	}
	if cfg.AdzunaCountry != "us" || cfg.AdzunaPages != 2 || cfg.AdzunaResultsPerPage != 50 {
		t.Errorf("adzuna = %s %d %d", cfg.AdzunaCountry, cfg.AdzunaPages, cfg.AdzunaResultsPerPage)
	}
	if cfg.AdzunaRatePerSec != 5 || cfg.CacheTTL != 10*time.Minute || cfg.CacheSweepSpec != "@every 1m" {
		t.Errorf("rate/cache = %v %v %q", cfg.AdzunaRatePerSec, cfg.CacheTTL, cfg.CacheSweepSpec)
	}
	if cfg.AdzunaConfigured() {
		t.Error("AdzunaConfigured = true with no credentials")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLASSIFIER_URL", "http://c")
	t.Setenv("ADZUNA_APP_ID", "id")
	t.Setenv("ADZUNA_APP_KEY", "key")
	t.Setenv("ADZUNA_PAGES", "4")
	t.Setenv("CACHE_TTL", "0")
	t.Setenv("ADZUNA_RATE_PER_SEC", "0.5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.AdzunaConfigured() {
		t.Error("AdzunaConfigured = false with both credentials")
	}
	if cfg.AdzunaPages != 4 || cfg.CacheTTL != 0 || cfg.AdzunaRatePerSec != 0.5 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name, key, value string
	}{
		{"missing classifier", "CLASSIFIER_URL", ""},
		{"pages not int", "ADZUNA_PAGES", "two"},
		{"pages zero", "ADZUNA_PAGES", "0"},
		{"results negative", "ADZUNA_RESULTS_PER_PAGE", "-5"},
		{"timeout garbage", "CLASSIFIER_TIMEOUT", "soon"},
		{"timeout zero", "ADZUNA_PAGE_TIMEOUT", "0s"},
		{"ttl negative", "CACHE_TTL", "-1m"},
		{"rate negative", "ADZUNA_RATE_PER_SEC", "-1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CLASSIFIER_URL", "http://c")
			t.Setenv(c.key, c.value)
			if _, err := config.Load(); err == nil {
				t.Errorf("Load with %s=%q expected error, got nil", c.key, c.value)
			}
		})
	}
}
