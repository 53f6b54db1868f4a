// Package http exposes agents over a small JSON API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/catena"
	"github.com/aretw0/catena/internal/presentation/graph"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
)

// MaxRequestBytes bounds the size of a request body.
const MaxRequestBytes = 1 << 20

// Factory builds a fresh agent for each request. The options it receives
// must be applied after the factory's own.
type Factory func(opts ...catena.Option) (*catena.Agent, error)

// RunRequest is the body of POST /run.
type RunRequest struct {
	Request   string         `json:"request"`
	UserID    string         `json:"user_id,omitempty"`
	Locale    string         `json:"locale,omitempty"`
	Channel   domain.Channel `json:"channel,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Telemetry bool           `json:"telemetry,omitempty"`
}

// RunResponse is the body returned by POST /run.
type RunResponse struct {
	Status string `json:"status"`
	domain.Snapshot
}

// Server serves the agents built by a Factory.
type Server struct {
	factory Factory
	streams *StreamManager
	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStreams publishes run events through sm instead of a private manager,
// so that the caller can close the streams on shutdown.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// NewHandler creates the HTTP handler:
//
//	POST /run          run a fresh agent with the request
//	GET  /graph        Mermaid diagram of the chain (?format=json for links)
//	GET  /events       node events of every run (SSE)
//	GET  /healthz      liveness
//	GET  /openapi.yaml the API document (api/openapi.yaml)
//	GET  /swagger      Swagger UI for the document
//
// Requests to documented paths are validated against the document first.
// It panics if the embedded document is invalid.
func NewHandler(factory Factory, opts ...Option) http.Handler {
	s := &Server{
		factory: factory,
		streams: NewStreamManager(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := GetSwagger()
	if err != nil {
		panic(err)
	}
	validate, err := requestValidator(doc, s.logger)
	if err != nil {
		panic(fmt.Errorf("openapi router: %w", err))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	r.Use(validate)

	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/swagger", s.GetSwaggerUI)
	r.Post("/run", s.Run)
	r.Get("/graph", s.GetGraph)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/healthz", s.GetHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run handles the POST /run request. The body has already been checked
// against the RunRequest schema.
func (s *Server) Run(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Run: Invalid request body", "err", err)
		return
	}

	agent, err := s.factory(catena.WithLifecycleHooks(s.streams.Hooks()))
	if err != nil {
		http.Error(w, fmt.Sprintf("Agent error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Run: factory failed", "err", err)
		return
	}

	channel := body.Channel
	if channel == "" {
		channel = domain.ChannelAPI
	}
	patch := &domain.Context{
		User: &domain.User{
			Request: body.Request,
			ID:      body.UserID,
			Locale:  body.Locale,
			Channel: channel,
		},
		Workflow: &domain.Workflow{Tags: body.Tags},
	}
	if body.Telemetry {
		patch.Telemetry = domain.NewTelemetry()
	}

	rc, err := agent.Run(r.Context(), patch)
	if err != nil {
		status := statusOf(err)
		http.Error(w, err.Error(), status)
		s.logger.Warn("Run rejected", "err", err, "status", status)
		return
	}

	writeJSON(w, s.logger, RunResponse{
		Status:   observability.Outcome(rc.Error),
		Snapshot: domain.NewSnapshot(rc),
	})
}

func statusOf(err error) int {
	var cerr *domain.ConfigurationError
	switch {
	case errors.As(err, &cerr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRunInProgress):
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

// LinkView is the JSON form of a chain node.
type LinkView struct {
	ID           string `json:"id"`
	Next         string `json:"next,omitempty"`
	ErrorHandler string `json:"error_handler,omitempty"`
}

// GetGraph handles the GET /graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	agent, err := s.factory()
	if err != nil {
		http.Error(w, fmt.Sprintf("Agent error: %v", err), http.StatusInternalServerError)
		s.logger.Error("GetGraph: factory failed", "err", err)
		return
	}

	format := "mermaid"
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format parameter: %v", err), http.StatusBadRequest)
		return
	}

	if format == "json" {
		links := agent.Graph().Nodes()
		views := make([]LinkView, 0, len(links))
		for _, l := range links {
			views = append(views, LinkView{ID: l.ID(), Next: l.Next().ID(), ErrorHandler: l.ErrorHandler().ID()})
		}
		writeJSON(w, s.logger, views)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(agent.Graph(), graph.Options{
		Root:     agent.Root(),
		Fallback: agent.ErrorHandler(),
	}))
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok", "version": catena.Version})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
