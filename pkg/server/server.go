// Package server exposes the execution core over HTTP: execute/validate a
// diagram inline, and save/list/load/delete named diagrams against a
// DiagramRepositoryPort. Routes, a middleware chain, and graceful shutdown
// sit in front of the token-scheduled engine.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dipeo/execengine/pkg/compiler"
	"github.com/dipeo/execengine/pkg/config"
	"github.com/dipeo/execengine/pkg/conversation"
	"github.com/dipeo/execengine/pkg/engine"
	"github.com/dipeo/execengine/pkg/eventbus"
	"github.com/dipeo/execengine/pkg/handlers"
	"github.com/dipeo/execengine/pkg/health"
	"github.com/dipeo/execengine/pkg/logging"
	"github.com/dipeo/execengine/pkg/observer"
	"github.com/dipeo/execengine/pkg/ports"
	"github.com/dipeo/execengine/pkg/telemetry"
	"github.com/dipeo/execengine/pkg/types"
)

// Config holds server configuration.
type Config struct {
	Address            string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	EnableCORS         bool
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Address:            ":8080",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024,
		EnableCORS:         true,
	}
}

// Server is the HTTP API server fronting the execution core.
type Server struct {
	config     Config
	httpServer *http.Server

	healthChecker *health.Checker
	telemetry     *telemetry.Provider
	logger        *logging.Logger
	bus           *eventbus.Bus

	engineConfig  config.Config
	registry      *handlers.Registry
	portBundle    handlers.PortBundle
	conversations *conversation.Store
	diagramRepo   ports.DiagramRepositoryPort
}

// Deps bundles the collaborators New needs beyond the two Configs: the
// handler registry, the port adapters every node kind may call, a
// conversation store for PersonJob memory, and the repository SubDiagram
// nodes (and the save/list/load/delete routes) resolve names through.
// StreamingRouter is optional: when set, every execution's events are
// also republished on it for a remote transport to fan out, alongside
// the always-on in-process MetricsObserver.
type Deps struct {
	Registry        *handlers.Registry
	Ports           handlers.PortBundle
	Conversations   *conversation.Store
	DiagramRepo     ports.DiagramRepositoryPort
	StreamingRouter ports.MessageRouterPort
}

// New creates a new server instance.
func New(cfg Config, engineConfig config.Config, deps Deps) (*Server, error) {
	logger := logging.New(engineConfig.ToLoggingConfig())

	telemetryProvider, err := telemetry.NewProvider(context.Background(), telemetry.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("server: create telemetry provider: %w", err)
	}

	healthChecker := health.NewChecker("dipeo-execution-core", "0.1.0")
	if deps.DiagramRepo != nil {
		healthChecker.RegisterCheck("diagram_repository", health.CheckDiagramRepository(deps.DiagramRepo), 5*time.Second, true)
	}
	if deps.StreamingRouter != nil {
		healthChecker.RegisterCheck("streaming_router", health.CheckStreamingRouter(deps.StreamingRouter), 5*time.Second, false)
	}

	bus := eventbus.New(logger)
	metricsCh := bus.Subscribe("metrics", eventbus.ClassStreaming)
	go observer.NewMetricsObserver(telemetryProvider).Run(context.Background(), metricsCh)

	if deps.StreamingRouter != nil {
		streamCh := bus.Subscribe("stream", eventbus.ClassStreaming)
		go observer.NewStreamingObserver(deps.StreamingRouter, "dipeo:events").Run(context.Background(), streamCh)
	}

	s := &Server{
		config:        cfg,
		healthChecker: healthChecker,
		telemetry:     telemetryProvider,
		logger:        logger,
		bus:           bus,
		engineConfig:  engineConfig,
		registry:      deps.Registry,
		portBundle:    deps.Ports,
		conversations: deps.Conversations,
		diagramRepo:   deps.DiagramRepo,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.middlewareChain(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.healthChecker.HTTPHandler())
	mux.HandleFunc("/health/live", s.healthChecker.LivenessHandler())
	mux.HandleFunc("/health/ready", s.healthChecker.ReadinessHandler())
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/v1/diagram/execute", s.handleExecute)
	mux.HandleFunc("/api/v1/diagram/validate", s.handleValidate)
	mux.HandleFunc("/api/v1/diagram/save", s.handleSave)
	mux.HandleFunc("/api/v1/diagram/list", s.handleList)
	mux.HandleFunc("/api/v1/diagram/load/", s.handleLoad)
	mux.HandleFunc("/api/v1/diagram/delete/", s.handleDelete)
	mux.HandleFunc("/api/v1/diagram/execute/", s.handleExecuteByName)
}

func (s *Server) middlewareChain(handler http.Handler) http.Handler {
	if s.config.EnableCORS {
		handler = s.corsMiddleware(handler)
	}
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	return handler
}

// executeRequest is the body accepted by /diagram/execute.
type executeRequest struct {
	Diagram types.Diagram  `json:"diagram"`
	Options types.Options  `json:"options"`
}

type executeResponse struct {
	Success       bool                       `json:"success"`
	ExecutionID   string                     `json:"execution_id,omitempty"`
	Status        string                     `json:"status,omitempty"`
	Outputs       map[string]interface{}     `json:"outputs,omitempty"`
	Error         string                     `json:"error,omitempty"`
	ExecutionTime string                     `json:"execution_time,omitempty"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req executeRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, "failed to decode request body", http.StatusBadRequest, err)
		return
	}

	s.runDiagram(w, r, req.Diagram, req.Options)
}

func (s *Server) handleExecuteByName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/diagram/execute/")
	if name == "" {
		http.Error(w, "diagram name is required", http.StatusBadRequest)
		return
	}

	var opts types.Options
	if r.ContentLength > 0 {
		if err := s.decodeBody(w, r, &opts); err != nil {
			s.writeError(w, "failed to decode request body", http.StatusBadRequest, err)
			return
		}
	}

	d, err := s.diagramRepo.Load(r.Context(), name)
	if err != nil {
		s.writeError(w, fmt.Sprintf("failed to load diagram %q", name), http.StatusNotFound, err)
		return
	}
	s.runDiagram(w, r, d, opts)
}

func (s *Server) runDiagram(w http.ResponseWriter, r *http.Request, d types.Diagram, opts types.Options) {
	compiled, err := compiler.Compile(d)
	if err != nil {
		s.writeError(w, "failed to compile diagram", http.StatusBadRequest, err)
		return
	}

	eng := engine.New(compiled, s.registry,
		engine.WithConfig(s.engineConfig),
		engine.WithPorts(s.portBundle),
		engine.WithConversations(s.conversations),
		engine.WithLogger(s.logger),
		engine.WithEventBus(s.bus),
		engine.WithDiagramRepository(s.diagramRepo),
	)

	start := time.Now()
	result, err := eng.Run(r.Context(), opts)
	duration := time.Since(start)

	s.telemetry.RecordExecution(r.Context(), result.ExecutionID, duration, err == nil, len(result.Outputs))

	resp := executeResponse{
		Success:       err == nil,
		ExecutionID:   result.ExecutionID,
		Status:        string(result.Status),
		ExecutionTime: duration.String(),
	}
	if err != nil {
		resp.Error = result.Error
		s.writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	outputs := make(map[string]interface{}, len(result.Outputs))
	for id, env := range result.Outputs {
		obj, err := env.Object()
		if err != nil {
			outputs[string(id)] = nil
			continue
		}
		outputs[string(id)] = obj
	}
	resp.Outputs = outputs
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var d types.Diagram
	if err := s.decodeBody(w, r, &d); err != nil {
		s.writeError(w, "failed to decode request body", http.StatusBadRequest, err)
		return
	}

	if _, err := compiler.Compile(d); err != nil {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"valid": false, "error": err.Error()})
		return
	}
	for _, node := range d.Nodes {
		if err := s.registry.Validate(node); err != nil {
			s.writeJSON(w, http.StatusOK, map[string]interface{}{"valid": false, "error": err.Error()})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"valid": true})
}

type saveRequest struct {
	Name    string        `json:"name"`
	Diagram types.Diagram `json:"diagram"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req saveRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, "failed to decode request body", http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if _, err := compiler.Compile(req.Diagram); err != nil {
		s.writeError(w, "diagram failed validation", http.StatusBadRequest, err)
		return
	}
	if err := s.diagramRepo.Save(r.Context(), req.Name, req.Diagram); err != nil {
		s.writeError(w, "failed to save diagram", http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "name": req.Name})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	names, err := s.diagramRepo.List(r.Context())
	if err != nil {
		s.writeError(w, "failed to list diagrams", http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"diagrams": names})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/diagram/load/")
	if name == "" {
		http.Error(w, "diagram name is required", http.StatusBadRequest)
		return
	}
	d, err := s.diagramRepo.Load(r.Context(), name)
	if err != nil {
		s.writeError(w, fmt.Sprintf("failed to load diagram %q", name), http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/diagram/delete/")
	if name == "" {
		http.Error(w, "diagram name is required", http.StatusBadRequest)
		return
	}
	if err := s.diagramRepo.Delete(r.Context(), name); err != nil {
		s.writeError(w, fmt.Sprintf("failed to delete diagram %q", name), http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int, err error) {
	s.logger.WithError(err).WithField("status_code", statusCode).Error(message)
	s.writeJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
		"details": err.Error(),
	})
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.WithField("address", s.config.Address).Info("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and its telemetry provider.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown http server: %w", err)
	}
	s.bus.Close()
	if err := s.telemetry.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown telemetry: %w", err)
	}
	s.logger.Info("server shutdown complete")
	return nil
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.logger.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": rw.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}).Info("http request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.WithField("error", fmt.Sprintf("%v", err)).
					WithField("path", r.URL.Path).
					Error("panic recovered")
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
