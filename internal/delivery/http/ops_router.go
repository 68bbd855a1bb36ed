package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"kotvukai/internal/domain"
	"kotvukai/internal/logger"
	"kotvukai/internal/utils"
)

// Pinger is anything whose health can be probed
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsConfig holds dependencies of the operator endpoints
type OpsConfig struct {
	DB        Pinger
	Signals   SignalStore
	Refresh   func(ctx context.Context) error
	Analyzed  func() int
	Scheduled func() int
}

// NewOpsRouter builds the internal operator router served on its own port
func NewOpsRouter(cfg OpsConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth(cfg))
	r.Post("/chart/refresh", handleChartRefresh(cfg.Refresh))
	r.Get("/signals/recent", handleRecentSignals(cfg.Signals))
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn(context.Background(), "Failed to encode ops response", "error", err)
	}
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "KotvukAI ops endpoint",
		"version": "0.1.0",
		"endpoints": map[string]string{
			"health":         "GET /health",
			"chart_refresh":  "POST /chart/refresh",
			"recent_signals": "GET /signals/recent",
		},
	})
}

func handleHealth(cfg OpsConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "healthy"
		status := http.StatusOK
		if cfg.DB == nil {
			dbStatus = "unconfigured"
		} else if err := cfg.DB.Ping(ctx); err != nil {
			dbStatus = "unhealthy"
			status = http.StatusServiceUnavailable
		}

		body := map[string]interface{}{
			"status":    "healthy",
			"service":   "kotvukai-ops",
			"database":  dbStatus,
			"timestamp": utils.FormatDisplay(utils.Now()),
		}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if cfg.Analyzed != nil {
			body["analyses"] = cfg.Analyzed()
		}
		if cfg.Scheduled != nil {
			body["poll_jobs"] = cfg.Scheduled()
		}
		writeJSON(w, status, body)
	}
}

func handleChartRefresh(refresh func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if refresh == nil {
			writeJSON(w, http.StatusNotImplemented, map[string]string{"status": "error", "message": "chart refresh unavailable"})
			return
		}
		if err := refresh(r.Context()); err != nil {
			logger.Warn(r.Context(), "Manual chart refresh failed", "error", err)
			writeJSON(w, http.StatusConflict, map[string]string{"status": "error", "message": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
	}
}

func handleRecentSignals(signals SignalStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := signals.ListRecent(ctx, domain.DefaultRecentSignals)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
			return
		}
		if list == nil {
			list = []*domain.SignalRecord{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"signals": list})
	}
}
