package verifier

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobmate/verifier-service/internal/apperr"
	"jobmate/verifier-service/internal/logger"
	"jobmate/verifier-service/internal/model"
)

const (
	ServiceName     = "verifier-service"
	HeaderRequestID = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

// Analyzer is the use case the handler exposes.
type Analyzer interface {
	Analyze(ctx context.Context, p model.JobPosting) (*model.AnalysisResult, error)
}

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	svc     Analyzer
	version string
	logger  *zap.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc Analyzer, version string, log *zap.Logger) *Handler {
	return &Handler{svc: svc, version: version, logger: logger.OrNop(log).Named("http")}
}

// RegisterRoutes mounts all verifier-service routes on mux:
//
//	GET  /health       → liveness
//	POST /analyze-job  → classify a posting and explain the verdict
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.health)
	mux.HandleFunc("/analyze-job", h.analyzeJob)
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jsonOK(w, map[string]string{
		"status":  "ok",
		"service": ServiceName,
		"version": h.version,
	})
}

func (h *Handler) analyzeJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := r.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(HeaderRequestID, requestID)

	var body model.JobPosting
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "body must be a JSON object with title and description", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Analyze(WithRequestID(r.Context(), requestID), body)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			h.logger.Error("analyze-job failed", zap.String("request_id", requestID), zap.Error(err))
		}
		jsonError(w, apperr.MessageOf(err), code)
		return
	}

	jsonOK(w, res)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
