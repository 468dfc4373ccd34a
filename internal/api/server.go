package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tripalhq/tripal/internal/agent"
	"github.com/tripalhq/tripal/internal/log"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8000"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to keep slow-loris clients
	// from pinning connections.
	ReadHeaderTimeout = 10 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second

	// SessionIdleTTL is how long an untouched conversation keeps its
	// in-memory history. SSE clients that never DELETE their session are
	// reclaimed by this; WebSocket sessions are removed on disconnect.
	SessionIdleTTL = 30 * time.Minute

	// sessionSweepInterval is how often idle sessions are reclaimed.
	sessionSweepInterval = time.Minute
)

// ServerConfig contains the collaborators of the HTTP server.
type ServerConfig struct {
	Sessions *agent.Sessions // required
	Store    tokenStore      // required
	Logger   log.Logger      // required
}

func (cfg ServerConfig) validate() error {
	if cfg.Sessions == nil {
		return errors.New("sessions manager is required")
	}
	if cfg.Store == nil {
		return errors.New("session store is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Server is the HTTP server for the planner's transport.
type Server struct {
	mux      *http.ServeMux
	sessions *agent.Sessions
	logger   log.Logger
}

// NewServer creates the server with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	sh := &sessionHandler{store: cfg.Store, sessions: cfg.Sessions, logger: cfg.Logger}
	ch := &chatHandler{sessions: cfg.Sessions, logger: cfg.Logger}
	ws := newWSHandler(cfg.Sessions, cfg.Logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", liveness)
	mux.HandleFunc("GET /ready", readiness(cfg.Store, cfg.Logger))
	mux.HandleFunc("POST /api/sessions", sh.create)
	mux.HandleFunc("DELETE /api/sessions/{token}", sh.remove)
	mux.HandleFunc("POST /api/chat", ch.stream)
	mux.HandleFunc("GET /api/ws/{token}", ws.serve)

	return &Server{mux: mux, sessions: cfg.Sessions, logger: cfg.Logger}, nil
}

// Handler returns the server's handler with the middleware stack applied.
// Order: recovery → logging → routes.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	)
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		IdleTimeout:       IdleTimeout,
		// No global write timeout: SSE responses stay open for the
		// whole turn.
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	go s.sweepIdleSessions(ctx)

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// sweepIdleSessions reclaims idle conversation histories until ctx is
// cancelled.
func (s *Server) sweepIdleSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.PruneIdle(SessionIdleTTL); n > 0 {
				s.logger.Debug("pruned idle sessions", "count", n)
			}
		}
	}
}
