// Package http exposes the compiler as a REST service for the web editor.
package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/disbotter/disbotter/internal/compiler"
	"github.com/disbotter/disbotter/internal/logging"
	"github.com/disbotter/disbotter/internal/metrics"
	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/disbotter/disbotter/pkg/ports"
	"github.com/disbotter/disbotter/pkg/registry"
)

// MaxBodyBytes bounds the size of a compile request.
const MaxBodyBytes = 8 << 20

// DefaultLockTTL bounds how long a crashed server holds a compile lock.
const DefaultLockTTL = 30 * time.Second

// Generator defines what the service needs from the compiler.
type Generator interface {
	Compile(ctx context.Context, project *domain.Project) (*domain.Program, error)
	Declarations() []registry.Declaration
}

// Server serves compile requests.
type Server struct {
	gen     Generator
	store   ports.ProgramStore
	locker  ports.Locker
	metrics *metrics.Collector
	logger  *slog.Logger
	lockTTL time.Duration
	version string
	parser  *compiler.Parser
}

// Option configures a Server.
type Option func(*Server)

// WithStore caches successful compiles in store.
func WithStore(store ports.ProgramStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithLocker serializes identical compile requests through locker.
func WithLocker(locker ports.Locker, ttl time.Duration) Option {
	return func(s *Server) {
		s.locker = locker
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the version reported on /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates a server over gen.
func NewServer(gen Generator, opts ...Option) *Server {
	s := &Server{
		gen:     gen,
		logger:  logging.NewNop(),
		lockTTL: DefaultLockTTL,
		version: "unknown",
		parser:  compiler.NewParser(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates the HTTP handler for gen.
func NewHandler(gen Generator, opts ...Option) http.Handler {
	return NewServer(gen, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/ping", s.Ping)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/nodes", s.GetNodes)
	r.Post("/compile", s.Compile)

	return enableCORS(r)
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

// Ping handles GET /ping.
func (s *Server) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong"))
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "disbotter",
		"version": s.version,
	})
}

// GetNodes handles GET /nodes with the editor declarations of every template.
func (s *Server) GetNodes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.gen.Declarations())
}

// CompileRequest is the body of POST /compile.
type CompileRequest struct {
	Project json.RawMessage `json:"project"`
}

// CompileResponse is returned by POST /compile.
type CompileResponse struct {
	Files  []domain.File `json:"files"`
	Source string        `json:"source"`
	Cached bool          `json:"cached,omitempty"`
	Errors []UnitError   `json:"errors,omitempty"`
}

// UnitError describes one command that failed to compile.
type UnitError struct {
	Command  string `json:"command,omitempty"`
	Kind     string `json:"kind"`
	NodeID   string `json:"node_id,omitempty"`
	NodeType string `json:"node_type,omitempty"`
	Port     string `json:"port,omitempty"`
	Message  string `json:"message"`
}

// Compile handles POST /compile.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	var body CompileRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Compile: invalid request body", "error", err)
		return
	}
	if len(body.Project) == 0 || string(body.Project) == "null" {
		http.Error(w, "Missing project data", http.StatusBadRequest)
		return
	}

	project, err := s.parser.ParseProject(body.Project)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid project: %v", err), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	key := cacheKey(body.Project)

	if program, ok := s.cached(ctx, key); ok {
		s.writeProgram(w, http.StatusOK, program, true, nil)
		return
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, key, s.lockTTL)
		if err != nil {
			http.Error(w, "Compile lock unavailable", http.StatusServiceUnavailable)
			s.logger.Error("Compile: lock failed", "key", key, "error", err)
			return
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("Compile: unlock failed", "key", key, "error", err)
			}
		}()

		// A request holding the lock before us may have filled the cache.
		if program, ok := s.cached(ctx, key); ok {
			s.writeProgram(w, http.StatusOK, program, true, nil)
			return
		}
	}

	program, err := s.gen.Compile(ctx, project)
	if err != nil {
		var perr *domain.ProjectError
		if errors.As(err, &perr) {
			s.writeProgram(w, http.StatusUnprocessableEntity, program, false, unitErrors(perr))
			return
		}
		http.Error(w, fmt.Sprintf("Failed to compile project: %v", err), http.StatusInternalServerError)
		s.logger.Error("Compile failed", "error", err)
		return
	}

	if s.store != nil {
		if err := s.store.Save(ctx, key, program); err != nil {
			s.logger.Warn("Compile: cache save failed", "key", key, "error", err)
		}
	}
	s.writeProgram(w, http.StatusOK, program, false, nil)
}

func (s *Server) cached(ctx context.Context, key string) (*domain.Program, bool) {
	if s.store == nil {
		return nil, false
	}
	program, err := s.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrProgramNotFound) {
			s.logger.Warn("Compile: cache lookup failed", "key", key, "error", err)
		}
		if s.metrics != nil {
			s.metrics.CacheHit(false)
		}
		return nil, false
	}
	if s.metrics != nil {
		s.metrics.CacheHit(true)
	}
	return program, true
}

func cacheKey(project []byte) string {
	sum := sha256.Sum256(project)
	return hex.EncodeToString(sum[:])
}

func unitErrors(perr *domain.ProjectError) []UnitError {
	out := make([]UnitError, 0, len(perr.Units))
	for _, u := range perr.Units {
		ue := UnitError{
			Command:  u.Command,
			Kind:     u.Kind.Error(),
			NodeID:   u.NodeID,
			NodeType: u.NodeType,
			Message:  u.Error(),
		}
		if u.Port != nil {
			ue.Port = u.Port.String()
		}
		out = append(out, ue)
	}
	return out
}

func (s *Server) writeProgram(w http.ResponseWriter, status int, program *domain.Program, cached bool, errs []UnitError) {
	resp := CompileResponse{
		Files:  []domain.File{},
		Cached: cached,
		Errors: errs,
	}
	if program != nil {
		if files := program.Files(); len(files) > 0 {
			resp.Files = files
		}
		resp.Source = program.ExportString()
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
