package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	mid "github.com/frumelad/bom-explode/internal/middleware"
	"github.com/frumelad/bom-explode/internal/service"
	"github.com/frumelad/bom-explode/internal/store"
	authpkg "github.com/frumelad/bom-explode/pkg/auth"
)

// ReportService renders stored results.
type ReportService interface {
	ProductReport(ctx context.Context, productKey string) (string, error)
	FullReport(ctx context.Context, now time.Time) (string, error)
	Invalidate()
}

// RunService triggers a batch explosion.
type RunService interface {
	Run(ctx context.Context) (service.Summary, error)
}

// Handler groups dependencies for route handlers.
type Handler struct {
	auth    authpkg.Authenticator
	reports ReportService
	runner  RunService
	log     *zap.Logger
	now     func() time.Time
}

// NewRouter wires the HTTP API.
func NewRouter(a authpkg.Authenticator, reports ReportService, runner RunService, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{auth: a, reports: reports, runner: runner, log: log, now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mid.Logger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(mid.RequireAuth(h.auth))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Get("/reports", h.fullReport)
			r.Get("/reports/{productKey}", h.productReport)
		})

		r.Group(func(r chi.Router) {
			r.Use(mid.RequireRole("admin"))
			r.Post("/runs", h.startRun)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) fullReport(w http.ResponseWriter, r *http.Request) {
	out, err := h.reports.FullReport(r.Context(), h.now())
	if err != nil {
		h.log.Error("full report", zap.Error(err))
		http.Error(w, "report failed", http.StatusInternalServerError)
		return
	}
	writeText(w, out)
}

func (h *Handler) productReport(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "productKey")
	out, err := h.reports.ProductReport(r.Context(), key)
	if errors.Is(err, store.ErrNoData) {
		http.Error(w, "no data for product", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("product report", zap.String("product", key), zap.Error(err))
		http.Error(w, "report failed", http.StatusInternalServerError)
		return
	}
	writeText(w, out)
}

// startRun blocks until the run finishes; runs outlive the request context.
func (h *Handler) startRun(w http.ResponseWriter, r *http.Request) {
	h.log.Info("run requested", zap.String("user", mid.UserID(r.Context())))
	sum, err := h.runner.Run(context.WithoutCancel(r.Context()))
	if errors.Is(err, service.ErrRunInProgress) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	// stored results may have changed even when the run failed
	h.reports.Invalidate()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(body))
}
