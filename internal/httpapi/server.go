// Package httpapi serves the management REST API: sources and topics CRUD,
// detected videos, manual parse trigger, health, and Prometheus metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/config"
	"github.com/puwka/trand/internal/model"
	"github.com/puwka/trand/internal/store"
	"github.com/puwka/trand/internal/worker"
)

// Server is the management API server.
type Server struct {
	store  store.Store
	worker *worker.Worker
	cfg    config.Config
	http   *http.Server
}

// New builds the server with all routes registered.
func New(st store.Store, w *worker.Worker, cfg config.Config) *Server {
	s := &Server{store: st, worker: w, cfg: cfg}

	r := mux.NewRouter()
	r.Use(logMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/sources", s.handleListSources).Methods(http.MethodGet)
	r.HandleFunc("/sources", s.handleCreateSource).Methods(http.MethodPost)
	r.HandleFunc("/sources/{id}", s.handleUpdateSource).Methods(http.MethodPatch)
	r.HandleFunc("/sources/{id}", s.handleDeleteSource).Methods(http.MethodDelete)

	r.HandleFunc("/topics", s.handleListTopics).Methods(http.MethodGet)
	r.HandleFunc("/topics", s.handleCreateTopic).Methods(http.MethodPost)
	r.HandleFunc("/topics/{id}", s.handleUpdateTopic).Methods(http.MethodPatch)
	r.HandleFunc("/topics/{id}", s.handleDeleteTopic).Methods(http.MethodDelete)

	r.HandleFunc("/videos", s.handleListVideos(true)).Methods(http.MethodGet)
	r.HandleFunc("/videos/all", s.handleListVideos(false)).Methods(http.MethodGet)
	r.HandleFunc("/videos/{id}", s.handleDeleteVideo).Methods(http.MethodDelete)

	r.HandleFunc("/parse-now", s.handleParseNow).Methods(http.MethodPost)
	r.HandleFunc("/parse-now/status", s.handleParseStatus).Methods(http.MethodGet)

	r.HandleFunc("/config/status", s.handleConfigStatus).Methods(http.MethodGet)
	r.HandleFunc("/config/parser", s.handleConfigParser).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // parse-now runs a full cycle
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.http.Addr).Msg("http api listening")
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.ListSources(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

type sourceRequest struct {
	Platform *string `json:"platform"`
	URL      *string `json:"url"`
	Status   *string `json:"status"`
}

func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "invalid body"})
		return
	}
	if req.Platform == nil || req.URL == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "platform and url are required"})
		return
	}
	status := model.SourceActive
	if req.Status != nil {
		status = *req.Status
	}
	src, err := s.store.CreateSource(r.Context(), *req.Platform, *req.URL, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func (s *Server) handleUpdateSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "invalid body"})
		return
	}
	if req.Platform == nil && req.URL == nil && req.Status == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "no fields to update"})
		return
	}
	src, err := s.store.UpdateSource(r.Context(), mux.Vars(r)["id"], req.Platform, req.URL, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSource(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.store.ListTopics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

type topicRequest struct {
	Keyword     *string `json:"keyword"`
	Description *string `json:"description"`
}

func (s *Server) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "invalid body"})
		return
	}
	if req.Keyword == nil || *req.Keyword == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "keyword is required"})
		return
	}
	desc := ""
	if req.Description != nil {
		desc = *req.Description
	}
	topic, err := s.store.CreateTopic(r.Context(), *req.Keyword, desc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (s *Server) handleUpdateTopic(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "invalid body"})
		return
	}
	if req.Keyword == nil && req.Description == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "no fields to update"})
		return
	}
	topic, err := s.store.UpdateTopic(r.Context(), mux.Vars(r)["id"], req.Keyword, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (s *Server) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTopic(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleListVideos(viralOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos, err := s.store.ListVideos(r.Context(), viralOnly)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, videos)
	}
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteVideo(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleParseStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"running": s.worker.ParsingInProgress()})
}

type parseNowResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	model.CycleStats
}

func (s *Server) handleParseNow(w http.ResponseWriter, r *http.Request) {
	stats, err := s.worker.RunCycle(r.Context())
	if err != nil {
		if errors.Is(err, worker.ErrCycleRunning) {
			writeJSON(w, http.StatusConflict, parseNowResponse{OK: false, Message: "parsing already running"})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parseNowResponse{
		OK:         stats.ErrorMessage == "",
		Message:    parseNowMessage(r.Context(), s.store, stats),
		CycleStats: stats,
	})
}

func parseNowMessage(ctx context.Context, st store.Store, stats model.CycleStats) string {
	if stats.ErrorMessage != "" {
		return stats.ErrorMessage
	}
	topics, err := st.ListTopics(ctx)
	if err == nil && len(topics) == 0 {
		return "add at least one topic in settings"
	}
	sources, err := st.ListSources(ctx)
	if err == nil {
		active := 0
		for _, s := range sources {
			if s.Status == model.SourceActive {
				active++
			}
		}
		if active == 0 {
			return "add at least one active source in settings"
		}
	}
	if stats.Processed == 0 && stats.Skipped == 0 && stats.Errors == 0 {
		return "no videos found, check source URL formats and that the channels publish shorts"
	}

	msg := fmt.Sprintf("processed: %d, viral: %d", stats.Processed, stats.Viral)
	if stats.RejectedFilter > 0 {
		msg += fmt.Sprintf(", filtered: %d", stats.RejectedFilter)
	}
	if stats.Skipped > 0 {
		msg += fmt.Sprintf(", skipped (already saved): %d", stats.Skipped)
	}
	if stats.Errors > 0 {
		msg += fmt.Sprintf(", errors: %d", stats.Errors)
	}
	return msg
}

func (s *Server) handleConfigStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"youtube": s.cfg.YouTubeAPIKey != "",
		"apify":   s.cfg.UseApify && s.cfg.ApifyToken != "",
		"llm":     s.cfg.OpenAIAPIKey != "",
		"dry_run": s.cfg.DryRun,
		"debug":   s.cfg.Debug,
	})
}

func (s *Server) handleConfigParser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"max_results_per_platform": s.cfg.Fetch.MaxResults,
		"request_timeout":          int(s.cfg.Fetch.Timeout.Seconds()),
		"retry_count":              s.cfg.Fetch.RetryCount,
		"apify_timeout_secs":       int(s.cfg.ApifyTimeout.Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	log.Error().Err(err).Msg("request failed")
	writeJSON(w, status, map[string]any{"detail": err.Error()})
}
