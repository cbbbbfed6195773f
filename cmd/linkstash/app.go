package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nkiryanov/linkstash/internal/clock"
	"github.com/nkiryanov/linkstash/internal/db"
	"github.com/nkiryanov/linkstash/internal/handlers"
	"github.com/nkiryanov/linkstash/internal/handlers/middleware"
	"github.com/nkiryanov/linkstash/internal/logger"
	"github.com/nkiryanov/linkstash/internal/repository/postgres"
	"github.com/nkiryanov/linkstash/internal/service/auth"
	"github.com/nkiryanov/linkstash/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/linkstash/internal/service/link"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)
	clk := clock.System()

	// Initialize services
	// Every constructor refuses to start on incomplete config (weak secret,
	// bad totp window) rather than run insecurely
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:     c.SecretKey,
		SessionTTL:    c.SessionTTL,
		RememberMeTTL: c.RememberMeTTL,
	}, storage.TokenAllowlist(), clk)
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	totpVerifier, err := auth.NewTotpVerifier(c.TotpWindow, clk)
	if err != nil {
		return nil, fmt.Errorf("error while creating totp verifier. Err: %w", err)
	}

	rateLimiter, err := auth.NewRateLimiter(auth.RateLimiterConfig{
		UsernameThreshold: c.UsernameThreshold,
		IPThreshold:       c.IPThreshold,
		Window:            time.Duration(c.WindowMinutes) * time.Minute,
	}, storage.LoginAttempt(), clk)
	if err != nil {
		return nil, fmt.Errorf("error while creating rate limiter. Err: %w", err)
	}

	authService, err := auth.NewService(
		auth.Config{MinPasswordLength: c.MinPasswordLength},
		tokenManager,
		totpVerifier,
		rateLimiter,
		storage.User(),
	)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	linkService := link.NewService(storage.Link())

	// Initialize handlers
	authHandler := handlers.NewAuth(authService, l, clk, c.TrustProxy)
	linkHandler := handlers.NewLink(linkService, l)

	mux := handlers.NewRouter(
		authHandler,
		linkHandler,
		middleware.Authenticate(authService),
		l,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
