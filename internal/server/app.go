package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundchat/internal/collection"
	"github.com/desertthunder/soundchat/internal/services"
	"github.com/desertthunder/soundchat/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Deps are the collaborators the HTTP API serves from.
//
// A nil Catalog or Auth is replaced with [services.Unconfigured].
type Deps struct {
	Store   *collection.Store
	Catalog services.Catalog
	Auth    services.Authorizer
	Users   UserStore
}

// Server is the HTTP API: a [Router] with every handler registered, plus its listener lifecycle.
type Server struct {
	cfg    shared.ServerConfig
	router Router
	logger *log.Logger
}

// New builds the router for deps. Middleware order: request id, logging, panic recovery, CORS.
func New(cfg shared.ServerConfig, deps Deps, logger *log.Logger) *Server {
	if deps.Catalog == nil {
		deps.Catalog = services.Unconfigured{}
	}
	if deps.Auth == nil {
		deps.Auth = services.Unconfigured{}
	}

	router := NewChiRouter()
	router.Use(
		RequestID(),
		RequestLogger(logger),
		Recoverer(logger),
		CORS(cfg.AllowedOrigins),
	)

	router.Handler(NewHealthHandler(deps.Store))
	router.Handler(NewPlaylistHandler(deps.Store, logger))
	router.Handler(NewCatalogHandler(deps.Catalog, logger))
	router.Handler(NewAuthHandler(deps.Auth, deps.Users, logger))

	return &Server{cfg: cfg, router: router, logger: logger}
}

// Handler returns the fully wired [http.Handler].
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
//
// In-flight requests get [shared.ServerConfig.ShutdownTimeout] to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
		defer cancel()

		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
