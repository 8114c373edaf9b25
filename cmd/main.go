// jobmate-verifier-service
//
// Scores job postings as likely fake or real:
//   - text classifier collaborator → base fake probability
//   - Adzuna cross-reference, email-domain and scam-phrase signals
//   - deterministic fusion into a real/fake split with reasons
//
// Serves POST /analyze-job over HTTP and jobcheck.v1.Verifier over gRPC.
// Publishes EVENT_JOB_ANALYZED to Redis when REDIS_URL is set.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"jobmate/verifier-service/internal/cache"
	"jobmate/verifier-service/internal/classifier"
	"jobmate/verifier-service/internal/config"
	"jobmate/verifier-service/internal/db"
	"jobmate/verifier-service/internal/grpcserver"
	"jobmate/verifier-service/internal/jobindex"
	"jobmate/verifier-service/internal/logger"
	"jobmate/verifier-service/internal/scheduler"
	"jobmate/verifier-service/internal/signals"
	"jobmate/verifier-service/internal/telemetry"
	"jobmate/verifier-service/internal/verifier"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[verifier-service] Fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Tracing ──────────────────────────────────────────────────────────────
	shutdownTracer, err := telemetry.InitTracer(ctx, verifier.ServiceName, version, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdownTracer(sctx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	// ── Signal rules ─────────────────────────────────────────────────────────
	rules, err := signals.LoadRules(cfg.SignalRulesFile)
	if err != nil {
		return fmt.Errorf("signal rules: %w", err)
	}

	// ── Cache + events ───────────────────────────────────────────────────────
	var (
		memo      cache.Cache
		publisher verifier.Publisher
	)
	if cfg.RedisURL != "" {
		log.Info("connecting to Redis")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		memo = cache.NewRedis(rdb, "verifier:bundle:")
		publisher = verifier.NewRedisPublisher(rdb)
		log.Info("Redis connected")
	} else {
		mem := cache.NewMemory()
		sweeper := scheduler.NewSweeper(mem, cfg.CacheSweepSpec, log)
		if err := sweeper.Start(); err != nil {
			return fmt.Errorf("cache sweeper: %w", err)
		}
		defer sweeper.Stop()
		memo = mem
	}
	defer memo.Close()

	// ── Collaborators ────────────────────────────────────────────────────────
	fetcher := jobindex.NewAdzunaFetcher(jobindex.FetcherConfig{
		AppID:          cfg.AdzunaAppID,
		AppKey:         cfg.AdzunaAppKey,
		Country:        cfg.AdzunaCountry,
		BaseURL:        cfg.AdzunaBaseURL,
		ResultsPerPage: cfg.AdzunaResultsPerPage,
		RatePerSec:     cfg.AdzunaRatePerSec,
		Burst:          cfg.AdzunaPages,
	})
	if !cfg.AdzunaConfigured() {
		log.Warn("ADZUNA_APP_ID/ADZUNA_APP_KEY not set, index cross-reference disabled")
	}

	svc := verifier.NewService(verifier.Deps{
		Scorer:    classifier.NewHTTPClient(cfg.ClassifierURL, cfg.ClassifierTimeout),
		Index:     jobindex.NewCrossReferencer(fetcher, cfg.AdzunaPages, cfg.AdzunaPageTimeout, log),
		Rules:     rules,
		Cache:     memo,
		CacheTTL:  cfg.CacheTTL,
		Publisher: publisher,
		Logger:    log,
	})

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	verifier.NewHandler(svc, version, log).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// ── gRPC server ──────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	gs := grpcserver.NewGRPCServer(log)
	hs := grpcserver.Register(gs, grpcserver.NewServer(svc))

	errCh := make(chan error, 2)
	go func() {
		log.Info("HTTP listening", zap.String("version", version), zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Info("gRPC listening", zap.String("port", cfg.GRPCPort))
		if err := gs.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case runErr = <-errCh:
	}

	log.Info("shutting down")
	hs.Shutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown error", zap.Error(err))
	}
	gs.GracefulStop()
	log.Info("stopped")
	return runErr
}
