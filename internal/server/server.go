package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/daycare-hub/apiserver/config"
	"github.com/daycare-hub/apiserver/internal/db"
	"github.com/daycare-hub/apiserver/internal/events"
	"github.com/daycare-hub/apiserver/internal/handlers"
	"github.com/daycare-hub/apiserver/internal/httpx"
	"github.com/daycare-hub/apiserver/internal/logging"
	"github.com/daycare-hub/apiserver/internal/metrics"
	"github.com/daycare-hub/apiserver/internal/mq"
	"github.com/daycare-hub/apiserver/internal/password"
	"github.com/daycare-hub/apiserver/internal/services"
	"github.com/daycare-hub/apiserver/internal/store"
	"github.com/daycare-hub/apiserver/internal/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server, router and the resources they hold.
type Server struct {
	httpServer    *http.Server
	router        *chi.Mux
	db            *sql.DB
	queue         *mq.MQ
	logger        *slog.Logger
	shutdownGrace time.Duration
}

// Dependencies are the collaborators the router needs. Queue may be nil, in
// which case account events are not published.
type Dependencies struct {
	Accounts services.AccountRepository
	Queue    events.Queue
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// New opens the configured stores and builds a ready-to-run Server.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		dbConn   *sql.DB
		accounts services.AccountRepository
	)
	switch cfg.Database.Driver {
	case config.DatabaseDriverMemory:
		logger.Warn("using in-memory account store; accounts are lost on restart")
		accounts = store.NewMemoryAccountRepository()
	default:
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		dbConn = conn
		accounts = store.NewAccountRepository(conn)
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		if dbConn != nil {
			_ = dbConn.Close()
		}
		return nil, err
	}

	deps := Dependencies{
		Accounts: accounts,
		Metrics:  metrics.New(),
		Logger:   logger,
	}
	if queue != nil {
		deps.Queue = queue
	}

	router, err := NewRouter(cfg, deps)
	if err != nil {
		if dbConn != nil {
			_ = dbConn.Close()
		}
		if queue != nil {
			_ = queue.Close()
		}
		return nil, err
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		httpServer:    httpServer,
		router:        router,
		db:            dbConn,
		queue:         queue,
		logger:        logger,
		shutdownGrace: cfg.ShutdownGracePeriod,
	}, nil
}

// NewRouter wires services and handlers onto a chi router.
func NewRouter(cfg config.Config, deps Dependencies) (*chi.Mux, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	hasher := password.NewBcryptHasher(
		cfg.Auth.BcryptCost,
		cfg.Auth.HashConcurrency,
		password.WithObserver(m.ObservePasswordHash),
	)

	authOpts := []services.AuthOption{services.WithAuthRecorder(m)}
	if deps.Queue != nil {
		authOpts = append(authOpts, services.WithEventPublisher(events.NewPublisher(deps.Queue, cfg.MQ.Channel)))
	}
	if cfg.Auth.AdminKey == "" {
		logger.Info("ADMIN_KEY not set; privileged self-registration is disabled")
	}

	authService := services.NewAuthService(deps.Accounts, hasher, issuer, cfg.Auth.AdminKey, authOpts...)
	accountService := services.NewAccountService(deps.Accounts)
	gate := handlers.NewGate(issuer, m)
	throttle := httpx.RateLimitByIP(httpx.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.AuthRequestsPerMinute,
		Window:            time.Minute,
		Burst:             cfg.RateLimit.AuthBurst,
	})
	devMode := cfg.DevMode()

	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RealIP,
		logging.HTTPMiddleware(logger),
		m.HTTPMiddleware,
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Method(http.MethodGet, "/metrics", m.Handler())
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, gate, throttle, devMode)
	})
	router.Route("/accounts", func(r chi.Router) {
		handlers.AccountRouter(r, accountService, gate, devMode)
	})

	return router, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.closeResources()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "grace", s.shutdownGrace)
	return s.Shutdown(context.WithoutCancel(ctx))
}

// Shutdown drains in-flight requests within the grace period and releases
// the database and queue.
func (s *Server) Shutdown(ctx context.Context) error {
	grace := s.shutdownGrace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.closeResources()
	return err
}

func (s *Server) closeResources() {
	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			s.logger.Warn("close queue", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("close database", "error", err)
		}
	}
}
