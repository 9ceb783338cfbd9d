package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	authService       driving.AuthService
	oauthService      driving.OAuthService
	connectionService driving.ConnectionService
	mailService       driving.MailService

	// Infrastructure
	db          Pinger // database health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
	Logger  *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8000,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	oauthService driving.OAuthService,
	connectionService driving.ConnectionService,
	mailService driving.MailService,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:            http.NewServeMux(),
		version:           cfg.Version,
		logger:            logger,
		authService:       authService,
		oauthService:      oauthService,
		connectionService: connectionService,
		mailService:       mailService,
		db:                db,
		redisClient:       redisClient,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Create middleware
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health and observability endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.Handle("GET /metrics", promhttp.Handler())
	s.router.HandleFunc("GET /openapi.json", s.handleOpenAPI)

	// Authorization flow
	s.router.Handle("POST /api/v1/auth/url",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleBeginAuth)))
	// Callback is public - receives redirects from the provider
	s.router.HandleFunc("GET /oauth/callback", s.handleOAuthCallback)

	// Connection endpoints (authenticated)
	s.router.Handle("GET /api/v1/connections",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListConnections)))
	s.router.Handle("GET /api/v1/connections/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetConnection)))
	s.router.Handle("DELETE /api/v1/connections/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleRemoveConnection)))
	s.router.Handle("GET /api/v1/connections/{id}/status",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleConnectionStatus)))
	s.router.Handle("POST /api/v1/connections/{id}/disconnect",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDisconnect)))

	// Mailbox endpoints (authenticated)
	s.router.Handle("GET /api/v1/connections/{id}/profile",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetProfile)))
	s.router.Handle("GET /api/v1/connections/{id}/labels",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListLabels)))
	s.router.Handle("GET /api/v1/connections/{id}/messages",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListMessages)))
	s.router.Handle("POST /api/v1/connections/{id}/messages",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSendMessage)))
	s.router.Handle("GET /api/v1/connections/{id}/messages/{mid}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetMessage)))
	s.router.Handle("POST /api/v1/connections/{id}/messages/{mid}/modify",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleModifyMessage)))

	// Request logging and panic recovery wrap every route.
	logging := NewLoggingMiddleware(s.logger)
	recovery := NewRecoveryMiddleware(s.logger)
	s.httpServer.Handler = logging.Handler(recovery.Handler(s.router))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-stop
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
