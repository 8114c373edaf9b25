// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing or malformed, Load errors.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the verifier service.
type Config struct {
	Port     string
	GRPCPort string
	AppEnv   string

	ClassifierURL     string
	ClassifierTimeout time.Duration

	// Either credential empty puts the cross-referencer in degraded mode.
	AdzunaAppID          string
	AdzunaAppKey         string
	AdzunaCountry        string // e.g. "us", "gb", "fr"
	AdzunaBaseURL        string
	AdzunaPages          int
	AdzunaResultsPerPage int
	AdzunaPageTimeout    time.Duration
	AdzunaRatePerSec     float64

	RedisURL       string // empty: in-memory cache, no events
	CacheTTL       time.Duration
	CacheSweepSpec string

	SignalRulesFile string
	OTLPEndpoint    string
}

// Load reads an optional .env file, then the environment, and returns a
// validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	classifierURL := os.Getenv("CLASSIFIER_URL")
	if classifierURL == "" {
		return nil, fmt.Errorf("CLASSIFIER_URL is required")
	}

	cfg := &Config{
		Port:            getenv("VERIFIER_PORT", "8080"),
		GRPCPort:        getenv("VERIFIER_GRPC_PORT", "9090"),
		AppEnv:          getenv("APP_ENV", "production"),
		ClassifierURL:   classifierURL,
		AdzunaAppID:     os.Getenv("ADZUNA_APP_ID"),
		AdzunaAppKey:    os.Getenv("ADZUNA_APP_KEY"),
		AdzunaCountry:   getenv("ADZUNA_COUNTRY", "us"),
		AdzunaBaseURL:   getenv("ADZUNA_BASE_URL", "https://api.adzuna.com/v1/api/jobs"),
		RedisURL:        os.Getenv("REDIS_URL"),
		CacheSweepSpec:  getenv("CACHE_SWEEP_SPEC", "@every 1m"),
		SignalRulesFile: os.Getenv("SIGNAL_RULES_FILE"),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.ClassifierTimeout, err = duration("CLASSIFIER_TIMEOUT", 5*time.Second, false); err != nil {
		return nil, err
	}
	if cfg.AdzunaPageTimeout, err = duration("ADZUNA_PAGE_TIMEOUT", 8*time.Second, false); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = duration("CACHE_TTL", 10*time.Minute, true); err != nil {
		return nil, err
	}
	if cfg.AdzunaPages, err = positiveInt("ADZUNA_PAGES", 2); err != nil {
		return nil, err
	}
	if cfg.AdzunaResultsPerPage, err = positiveInt("ADZUNA_RESULTS_PER_PAGE", 50); err != nil {
		return nil, err
	}

	cfg.AdzunaRatePerSec = 5
	if s := os.Getenv("ADZUNA_RATE_PER_SEC"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("ADZUNA_RATE_PER_SEC must be a non-negative number, got %q", s)
		}
		cfg.AdzunaRatePerSec = v
	}

	return cfg, nil
}

// AdzunaConfigured reports whether both index credentials are present.
func (c *Config) AdzunaConfigured() bool {
	return c.AdzunaAppID != "" && c.AdzunaAppKey != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func positiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, s)
	}
	return v, nil
}

func duration(key string, def time.Duration, allowZero bool) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil || v < 0 || (v == 0 && !allowZero) {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, s)
	}
	return v, nil
}
