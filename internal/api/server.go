// Package api exposes the admin HTTP surface: health, metrics, review
// queue operations and scheduler introspection.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"jobradar/internal/approval"
	"jobradar/internal/publisher"
	"jobradar/internal/registry"
	"jobradar/internal/scheduler"
	"jobradar/internal/telemetry"
)

// Server bundles the handlers over the pipeline's components.
type Server struct {
	registry  *registry.Registry
	batch     *scheduler.Batch
	workflow  *approval.Workflow
	publisher *publisher.Publisher
}

// NewServer wires the admin API. The publisher may be nil when no catalog
// is configured; the publish endpoint then reports 503.
func NewServer(reg *registry.Registry, batch *scheduler.Batch, wf *approval.Workflow, pub *publisher.Publisher) *Server {
	return &Server{registry: reg, batch: batch, workflow: wf, publisher: pub}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route("/reviews", func(r chi.Router) {
		r.Get("/pending", s.handlePending)
		r.Post("/decide", s.handleDecide)
		r.Get("/stats", s.handleStats)
	})

	r.Get("/schedule/next", s.handleNextFirings)
	r.Route("/profiles", func(r chi.Router) {
		r.Get("/", s.handleListProfiles)
		r.Post("/", s.handleAddProfile)
		r.Get("/regions", s.handleRegionalSummary)
	})
	r.Post("/publish", s.handlePublish)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "jobradar"})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	items, err := s.workflow.ListPending(r.Context(), limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs      []string `json:"ids"`
		Outcome  string   `json:"outcome"`
		Reviewer string   `json:"reviewer"`
		Reason   string   `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.IDs) == 0 {
		jsonError(w, http.StatusBadRequest, "ids is required")
		return
	}
	if req.Reviewer == "" {
		req.Reviewer = "admin"
	}

	moved, err := s.workflow.DecideBatch(r.Context(), req.IDs, req.Outcome, req.Reviewer, req.Reason)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"decided": moved, "skipped": len(req.IDs) - moved})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.workflow.QueueStats(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	telemetry.PendingReviews.Set(float64(stats.Pending))
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleNextFirings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"firings": s.batch.NextFirings(time.Now())})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"profiles": s.registry.Profiles()})
}

func (s *Server) handleAddProfile(w http.ResponseWriter, r *http.Request) {
	var p registry.SearchProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.registry.AddProfile(p)
	if err != nil {
		var cfgErr *registry.ConfigurationError
		if errors.As(err, &cfgErr) {
			jsonError(w, http.StatusBadRequest, cfgErr.Msg)
			return
		}
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// New profiles may introduce new schedule strings.
	if err := s.batch.Configure(); err != nil {
		slog.Warn("reconfigure after profile add failed", "err", err)
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleRegionalSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"regions": s.registry.RegionalSummary()})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		jsonError(w, http.StatusServiceUnavailable, "catalog not configured")
		return
	}

	limit := queryInt(r, "limit", 20)
	autoApprove := r.URL.Query().Get("approve") != "false"

	items, err := s.workflow.ApprovedForPublish(r.Context(), limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.publisher.Publish(r.Context(), items, autoApprove))
}

func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "err", err)
	}
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
