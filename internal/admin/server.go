// Package admin exposes the simulation service over HTTP.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"robofleet-sim/internal/config"
	"robofleet-sim/internal/scenario"
	"robofleet-sim/internal/sim"
	"robofleet-sim/internal/telemetry"
)

// Server serves the admin API for a simulation service.
type Server struct {
	svc       *sim.Service
	stream    http.Handler
	metrics   http.Handler
	log       *slog.Logger
	accessLog io.Writer
}

// Option customizes a Server.
type Option func(*Server)

// WithStream mounts a websocket handler at /stream.
func WithStream(h http.Handler) Option { return func(s *Server) { s.stream = h } }

// WithMetricsHandler mounts a Prometheus handler at /metrics.
func WithMetricsHandler(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.log = l } }

// WithAccessLog sets where request logs go. Defaults to STDOUT.
func WithAccessLog(w io.Writer) Option { return func(s *Server) { s.accessLog = w } }

// NewServer creates an admin server for svc.
func NewServer(svc *sim.Service, opts ...Option) *Server {
	s := &Server{svc: svc, log: slog.Default(), accessLog: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the API routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/robots", s.handleRobots).Methods(http.MethodGet)
	r.HandleFunc("/robots/{id}", s.handleRobot).Methods(http.MethodGet)
	r.HandleFunc("/robots/{id}/failures", s.handleInjectFailure).Methods(http.MethodPost)
	r.HandleFunc("/fleets/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/scenarios", s.handleScenarios).Methods(http.MethodGet)
	r.HandleFunc("/scenarios", s.handleCreateScenario).Methods(http.MethodPost)
	r.HandleFunc("/scenarios/{fleet}", s.handleScenario).Methods(http.MethodGet)
	r.HandleFunc("/scenarios/{fleet}", s.handleStopScenario).Methods(http.MethodDelete)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/config", s.handleUpdateConfig).Methods(http.MethodPatch)
	r.HandleFunc("/start", s.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/stop", s.handleStop).Methods(http.MethodPost)
	if s.stream != nil {
		r.Handle("/stream", s.stream)
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
	return r
}

// Handler wraps the router with CORS and access logging.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.LoggingHandler(s.accessLog, cors(s.Router()))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("admin API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("admin API shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	robots := s.svc.Robots()
	if fleet := r.URL.Query().Get("fleet"); fleet != "" {
		filtered := robots[:0]
		for _, st := range robots {
			if st.FleetID == fleet {
				filtered = append(filtered, st)
			}
		}
		robots = filtered
	}
	writeJSON(w, http.StatusOK, robots)
}

func (s *Server) handleRobot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	st, ok := s.svc.Robot(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("robot %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type failureRequest struct {
	Type telemetry.FailureType `json:"type"`
}

func (s *Server) handleInjectFailure(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req failureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Type == "" {
		writeError(w, http.StatusBadRequest, "body must be {\"type\": FAILURE_TYPE}")
		return
	}
	switch err := s.svc.InjectFailure(id, req.Type); {
	case errors.Is(err, telemetry.ErrUnknownFailure):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	st, _ := s.svc.Robot(id)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Health())
}

func (s *Server) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Scenarios())
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	fleet := mux.Vars(r)["fleet"]
	cfg, ok := s.svc.Scenario(fleet)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no scenario for fleet %q", fleet))
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var spec config.FleetSpec
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid scenario request: "+err.Error())
		return
	}
	cfg, err := s.svc.InitializeFleet(spec)
	switch {
	case errors.Is(err, sim.ErrInvalidFleet), errors.Is(err, scenario.ErrNoRobots), errors.Is(err, scenario.ErrUnknownScenario):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (s *Server) handleStopScenario(w http.ResponseWriter, r *http.Request) {
	fleet := mux.Vars(r)["fleet"]
	if !s.svc.StopScenario(fleet) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no scenario for fleet %q", fleet))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Stats())
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid config patch: "+err.Error())
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.svc.UpdateConfig(patch))
}

func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	s.svc.Start()
	writeJSON(w, http.StatusOK, s.svc.Stats())
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.svc.Stop()
	writeJSON(w, http.StatusOK, s.svc.Stats())
}
