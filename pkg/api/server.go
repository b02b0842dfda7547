// Package api serves workflow lists, metadata and layouts over HTTP.
//
// Routes:
//
//	POST   /api/connect                                  {mongoUri, dbName} -> {success, workflows}
//	POST   /api/meta_nodes                               {mongoUri, dbName, nodes} -> {success, nodes}
//	POST   /api/session                                  connect and persist a session
//	DELETE /api/session/{id}
//	GET    /api/session/{id}/workflows
//	GET    /api/session/{id}/workflows/{wid}/layout      ?strategy=&direction=&selected=&refresh=
//	GET    /api/session/{id}/workflows/{wid}/svg         same query as layout
//	GET    /healthz
//
// Every JSON answer carries "success". Failures answer
// {"success": false, "error": "...", "code": "..."} with the status from
// errors.HTTPStatus. Other paths serve the UI bundle when one is configured,
// falling back to index.html.
package api

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/session"
	"github.com/matzehuels/flowlens/pkg/store"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = ":4000"

	// DefaultConnectRate and DefaultConnectBurst bound how often clients
	// may make the server dial a database.
	DefaultConnectRate  = 5
	DefaultConnectBurst = 10
)

// Config wires a Server.
type Config struct {
	Runner   *pipeline.Runner
	Dial     store.Dialer
	Sessions session.Store
	Logger   *log.Logger

	// Static is the UI bundle directory. Empty disables it.
	Static string
	// SessionTTL bounds the life of sessions created by POST /api/session.
	SessionTTL time.Duration

	Strategy  string
	Direction string
	Layout    layout.Options

	// ConnectRate limits connect, meta_nodes and session creation per
	// second across all clients. Zero means DefaultConnectRate.
	ConnectRate  rate.Limit
	ConnectBurst int
}

// Server is the HTTP API. Store connections are pooled per connection
// target and database.
type Server struct {
	cfg    Config
	logger *log.Logger

	connects *rate.Limiter

	mu     sync.Mutex
	stores map[cache.Conn]store.Store
}

// New creates a server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, logger)
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewMemoryStore()
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = session.DefaultTTL
	}
	if cfg.ConnectRate == 0 {
		cfg.ConnectRate = DefaultConnectRate
	}
	if cfg.ConnectBurst == 0 {
		cfg.ConnectBurst = DefaultConnectBurst
	}
	return &Server{
		cfg:      cfg,
		logger:   logger.WithPrefix("api"),
		connects: rate.NewLimiter(cfg.ConnectRate, cfg.ConnectBurst),
		stores:   make(map[cache.Conn]store.Store),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/connect", s.limitConnects(s.connect))
		r.Post("/meta_nodes", s.limitConnects(s.metaNodes))

		r.Post("/session", s.limitConnects(s.createSession))
		r.Route("/session/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.deleteSession)
			r.Get("/workflows", s.listWorkflows)
			r.Get("/workflows/{workflowID}/layout", s.workflowLayout)
			r.Get("/workflows/{workflowID}/svg", s.workflowSVG)
		})
		r.NotFound(s.apiNotFound)
	})

	if s.cfg.Static != "" {
		r.NotFound(spa(s.cfg.Static))
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close releases pooled store connections.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for conn, st := range s.stores {
		if err := st.Close(); err != nil && first == nil {
			first = err
		}
		delete(s.stores, conn)
	}
	return first
}

// storeFor returns the pooled store for a connection, dialing on first use.
func (s *Server) storeFor(ctx context.Context, uri, dbName string) (store.Store, error) {
	conn := cache.Conn{URI: uri, Database: dbName}
	s.mu.Lock()
	st, ok := s.stores[conn]
	s.mu.Unlock()
	if ok {
		return st, nil
	}

	st, err := s.cfg.Dial(ctx, uri, dbName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.stores[conn]; ok {
		_ = st.Close()
		return existing, nil
	}
	s.stores[conn] = st
	return st, nil
}

// evict drops a pooled store after a transport failure so the next request
// dials again.
func (s *Server) evict(uri, dbName string) {
	conn := cache.Conn{URI: uri, Database: dbName}
	s.mu.Lock()
	st, ok := s.stores[conn]
	delete(s.stores, conn)
	s.mu.Unlock()
	if ok {
		_ = st.Close()
	}
}
