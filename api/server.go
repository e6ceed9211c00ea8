// Package api provides the HTTP API server for the network graph builder.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/fabiosv/aws-resources-mapper/db"
	"github.com/fabiosv/aws-resources-mapper/decision/inventory"
	"github.com/fabiosv/aws-resources-mapper/decision/netgraph"
	"github.com/fabiosv/aws-resources-mapper/pkg/api"
	"github.com/fabiosv/aws-resources-mapper/pkg/metrics"
	"github.com/fabiosv/aws-resources-mapper/pkg/platform"
)

// Server is the HTTP API server
type Server struct {
	httpServer *http.Server
	router     chi.Router
	store      db.GraphStore
	metrics    *metrics.Registry
	logger     zerolog.Logger
	config     *Config
	startTime  time.Time
}

// Config holds server configuration
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
	APIKey         string
	Version        string

	// Graph holds the build defaults; query parameters override them per request.
	Graph platform.GraphConfig
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxRequestSize: 50 * 1024 * 1024, // 50MB
		Version:        "dev",
	}
}

// NewServer creates a new API server. store may be nil, in which case
// persist requests are rejected.
func NewServer(config *Config, store db.GraphStore, reg *metrics.Registry, logger zerolog.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	s := &Server{
		store:     store,
		metrics:   reg,
		logger:    logger,
		config:    config,
		startTime: time.Now(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(platform.APIKeyMiddleware(s.config.APIKey))
		r.Post("/graph", s.handleGraph)
	})

	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) newHTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
}

func (s *Server) listen() error {
	s.logger.Info().
		Int("port", s.config.Port).
		Str("version", s.config.Version).
		Msg("Starting network graph API server")
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown serves until SIGINT, SIGTERM or ctx is done,
// then drains in-flight requests.
func (s *Server) StartWithGracefulShutdown(ctx context.Context) error {
	s.httpServer = s.newHTTPServer()

	errChan := make(chan error, 1)
	go func() {
		if err := s.listen(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		return err
	case <-quit:
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "netmap",
		"uptime":  time.Since(s.startTime).String(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"version": s.config.Version,
		"service": "netmap",
	})
}

// handleGraph builds a graph from the posted inventory document.
//
// Query parameters: network_id, tagged, extended, include_network_node,
// canonicalize_symmetric, persist.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts, err := s.graphOptions(q)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.jsonError(w, http.StatusRequestEntityTooLarge, "invalid_request", err.Error())
			return
		}
		s.jsonError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if len(body) == 0 {
		s.jsonError(w, http.StatusBadRequest, "invalid_request", "inventory document is required")
		return
	}

	doc, err := inventory.ParseDocument(body)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid_inventory", err.Error())
		return
	}
	doc.NetworkID = q.Get("network_id")

	// One builder per request; builds never share state.
	builder := netgraph.NewGraphBuilder().
		WithLogger(s.logger).
		WithMetrics(s.metrics).
		WithExtendedCategories(opts.extended).
		WithNetworkNode(opts.includeNetworkNode).
		WithSymmetricCanonicalization(opts.canonicalize)

	result, err := builder.Build(doc)
	if err != nil {
		s.jsonError(w, http.StatusUnprocessableEntity, "build_failed", err.Error())
		return
	}

	resp := api.GraphResponse{
		BuildID:   result.BuildID.String(),
		NetworkID: result.Graph.NetworkID,
		Graph:     result.Graph,
		Summary:   result.Graph.Summary(),
		Warnings:  result.APIWarnings(),
	}
	if opts.tagged {
		resp.Graph = result.Graph.Tagged()
	}

	if opts.persist {
		if s.store == nil {
			s.jsonError(w, http.StatusServiceUnavailable, "store_unavailable", "no graph store configured")
			return
		}
		location, err := s.store.Save(r.Context(), result.Graph)
		if err != nil {
			s.logger.Error().Err(err).Str("build_id", resp.BuildID).Msg("Failed to persist graph")
			s.jsonError(w, http.StatusInternalServerError, "persist_failed", err.Error())
			return
		}
		resp.Location = location
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

type graphOptions struct {
	tagged             bool
	extended           bool
	includeNetworkNode bool
	canonicalize       bool
	persist            bool
}

func (s *Server) graphOptions(q map[string][]string) (graphOptions, error) {
	opts := graphOptions{
		extended:           s.config.Graph.Extended,
		includeNetworkNode: s.config.Graph.IncludeNetworkNode,
		canonicalize:       s.config.Graph.CanonicalizeSymmetric,
	}

	flags := []struct {
		name   string
		target *bool
	}{
		{"tagged", &opts.tagged},
		{"extended", &opts.extended},
		{"include_network_node", &opts.includeNetworkNode},
		{"canonicalize_symmetric", &opts.canonicalize},
		{"persist", &opts.persist},
	}
	for _, f := range flags {
		values, ok := q[f.name]
		if !ok || len(values) == 0 || values[0] == "" {
			continue
		}
		v, err := strconv.ParseBool(values[0])
		if err != nil {
			return opts, fmt.Errorf("%s must be a boolean, got %q", f.name, values[0])
		}
		*f.target = v
	}
	return opts, nil
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, code, message string) {
	s.jsonResponse(w, status, api.ErrorResponse{
		Error:   code,
		Message: message,
	})
}
