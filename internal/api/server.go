// Package api exposes the discovery orchestrator over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/jobs"
	"github.com/AnshulAlgoS/AtenFlux/internal/storage"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxBodyBytes     = 1 << 16
)

// JobRunner is the part of the orchestrator the API drives.
type JobRunner interface {
	Submit(ctx context.Context, outlet string, maxAuthors int) (string, error)
	Status(ctx context.Context, id string) (*types.DiscoveryJob, error)
	Cancel(ctx context.Context, id string) error
	RunQuick(ctx context.Context, outlet string, maxAuthors int) (*jobs.Result, error)
}

// Server provides a REST API for submitting and polling discovery jobs.
type Server struct {
	mux     *http.ServeMux
	srv     *http.Server
	port    int
	runner  JobRunner
	store   storage.ProfileStore
	metrics http.Handler
	logger  *slog.Logger
}

// NewServer creates a new API server. metrics may be nil to disable the
// metrics endpoint.
func NewServer(cfg *config.Config, runner JobRunner, store storage.ProfileStore, metrics http.Handler, logger *slog.Logger) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		port:    cfg.API.Port,
		runner:  runner,
		store:   store,
		logger:  logger.With("component", "api_server"),
		metrics: metrics,
	}
	s.registerRoutes(cfg.Metrics)
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }

// Start starts the API server in the background.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) registerRoutes(mc config.MetricsConfig) {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Jobs
	s.mux.HandleFunc("POST /api/jobs", s.handleCreateJob)
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("DELETE /api/jobs/{id}", s.handleCancelJob)
	s.mux.HandleFunc("POST /api/discover/quick", s.handleQuick)

	// Profiles
	s.mux.HandleFunc("GET /api/profiles", s.handleListProfiles)

	if mc.Enabled && s.metrics != nil {
		s.mux.Handle("GET "+mc.Path, s.metrics)
	}
}

type discoverRequest struct {
	Outlet     string `json:"outlet"`
	MaxAuthors int    `json:"maxAuthors"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (discoverRequest, bool) {
	var body discoverRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid JSON")
		return body, false
	}
	return body, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
		"storage": s.store.Name(),
	})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decode(w, r)
	if !ok {
		return
	}
	id, err := s.runner.Submit(r.Context(), body.Outlet, body.MaxAuthors)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]string{"jobId": id})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.runner.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.runner.Cancel(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]string{"jobId": id, "status": "cancelling"})
}

func (s *Server) handleQuick(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decode(w, r)
	if !ok {
		return
	}
	res, err := s.runner.RunQuick(r.Context(), body.Outlet, body.MaxAuthors)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	q := storage.ProfileQuery{
		Outlet: r.URL.Query().Get("outlet"),
		SortBy: storage.SortRecent,
		Limit:  defaultListLimit,
	}
	switch sort := storage.SortField(r.URL.Query().Get("sort")); sort {
	case "", storage.SortRecent:
	case storage.SortArticles:
		q.SortBy = sort
	default:
		s.jsonError(w, http.StatusBadRequest, "sort must be recent or articles")
		return
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.jsonError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		q.Limit = min(n, maxListLimit)
	}

	profiles, err := s.store.ListProfiles(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	total, err := s.store.CountProfiles(r.Context(), q.Outlet)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"total":    total,
		"profiles": profiles,
	})
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var stage *types.StageError
	switch {
	case errors.Is(err, types.ErrInvalidOutlet):
		s.jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrJobNotFound):
		s.jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, jobs.ErrTerminal):
		s.jsonError(w, http.StatusConflict, err.Error())
	case errors.As(err, &stage):
		s.jsonError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.jsonError(w, http.StatusGatewayTimeout, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, msg string) {
	s.jsonResponse(w, status, map[string]string{"error": msg})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("response write failed", "error", err)
	}
}
