package main

// @title           MailBridge Core API
// @version         1.0
// @description     Multi-tenant Gmail OAuth 2.0 connection service: authorization flows, encrypted token lifecycle and mailbox access for an embedding application.

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/custodia-labs/mailbridge-core/docs" // swagger document, served on /openapi.json
	"github.com/custodia-labs/mailbridge-core/internal/adapters/driven/aead"
	"github.com/custodia-labs/mailbridge-core/internal/adapters/driven/auth"
	"github.com/custodia-labs/mailbridge-core/internal/adapters/driven/gmail"
	"github.com/custodia-labs/mailbridge-core/internal/adapters/driven/google"
	"github.com/custodia-labs/mailbridge-core/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/mailbridge-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/mailbridge-core/internal/adapters/driven/sqlite"
	"github.com/custodia-labs/mailbridge-core/internal/adapters/driving/http"
	"github.com/custodia-labs/mailbridge-core/internal/config"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driving"
	"github.com/custodia-labs/mailbridge-core/internal/core/services"
	"github.com/custodia-labs/mailbridge-core/internal/worker"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("mailbridge-core %s starting in %s mode", version, cfg.RunMode)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// ===== Token cipher =====
	// Fails fast on a malformed key so a misconfigured instance never
	// stores tokens it cannot read back.
	cipher, err := aead.NewCipher(cfg.TokenEncryptionKey, aead.Algorithm(cfg.TokenCipherAlgorithm))
	if err != nil {
		log.Fatalf("Failed to create token cipher: %v", err)
	}

	// ===== Database =====
	var (
		userStore       driven.UserStore
		connectionStore driven.ConnectionStore
		stateStore      driven.StateStore
		distributedLock driven.DistributedLock
		dbPinger        http.Pinger
	)

	switch cfg.Database.Backend {
	case config.BackendPostgres:
		log.Println("Connecting to PostgreSQL...")
		db, err := postgres.Connect(ctx, postgres.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Initialize schema (idempotent)
		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		log.Println("PostgreSQL connected and schema initialized")

		userStore = postgres.NewUserStore(db)
		connectionStore = postgres.NewConnectionStore(db)
		stateStore = postgres.NewStateStore(db)
		distributedLock = postgres.NewAdvisoryLock(db)
		dbPinger = db

	case config.BackendSQLite:
		log.Println("Opening SQLite database...")
		db, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		log.Println("SQLite opened and schema initialized")

		userStore = sqlite.NewUserStore(db)
		connectionStore = sqlite.NewConnectionStore(db)
		stateStore = sqlite.NewStateStore(db)
		dbPinger = db
	}

	// ===== Redis (optional) =====
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== State store (Redis if available, otherwise the SQL backend) =====
	if redisClient != nil {
		stateStore = redisadapter.NewStateStore(redisClient)
		log.Println("Using Redis state store")
	}

	// ===== Distributed lock (Redis if available, otherwise PostgreSQL advisory locks) =====
	var redisHealth http.Pinger
	if redisClient != nil {
		distributedLock = redisadapter.NewLock(redisClient)
		redisHealth = &redisPinger{client: redisClient}
		log.Println("Using Redis distributed lock")
	} else if distributedLock != nil {
		log.Println("Using PostgreSQL advisory lock")
	} else {
		log.Println("No distributed lock available, sweeps assume a single instance")
	}

	// ===== Driven adapters (infrastructure) =====
	authAdapter := auth.NewAdapter(cfg.JWTSecret)
	providerClient := google.NewClient(google.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
	})
	gmailClient := gmail.NewClient(gmail.Config{})

	// ===== Services (core business logic) =====
	authService := services.NewAuthService(authAdapter)
	oauthService := services.NewOAuthService(services.OAuthServiceConfig{
		Users:       userStore,
		States:      stateStore,
		Connections: connectionStore,
		Provider:    providerClient,
		Cipher:      cipher,
		RedirectURI: cfg.OAuth.RedirectURI,
		StateTTL:    cfg.OAuth.StateTTL,
		Scopes:      cfg.OAuth.Scopes,
	})
	tokenService := services.NewTokenService(services.TokenServiceConfig{
		Connections:   connectionStore,
		Provider:      providerClient,
		Cipher:        cipher,
		RefreshBuffer: cfg.OAuth.RefreshBuffer,
	})
	connectionService := services.NewConnectionService(services.ConnectionServiceConfig{
		Users:       userStore,
		Connections: connectionStore,
		Tokens:      tokenService,
	})
	mailService := services.NewMailService(services.MailServiceConfig{
		Tokens: tokenService,
		Gmail:  gmailClient,
	})

	switch cfg.RunMode {
	case config.ModeAPI:
		// API-only mode: HTTP server, no maintenance worker
		runAPI(cfg, authService, oauthService, connectionService, mailService, dbPinger, redisHealth)

	case config.ModeWorker:
		// Worker-only mode: maintenance sweeps, no HTTP server
		runWorkerMode(ctx, cfg, stateStore, tokenService, distributedLock)

	case config.ModeAll:
		// Combined mode: run both API and worker
		go runWorkerMode(ctx, cfg, stateStore, tokenService, distributedLock)
		runAPI(cfg, authService, oauthService, connectionService, mailService, dbPinger, redisHealth)
	}
}

func runAPI(
	cfg *config.Config,
	authService driving.AuthService,
	oauthService driving.OAuthService,
	connectionService driving.ConnectionService,
	mailService driving.MailService,
	db http.Pinger,
	redisClient http.Pinger,
) {
	httpCfg := http.Config{
		Host:    cfg.Host,
		Port:    cfg.Port,
		Version: version,
	}

	server := http.NewServer(
		httpCfg,
		authService,
		oauthService,
		connectionService,
		mailService,
		db,
		redisClient,
	)

	log.Printf("API server starting on :%d", cfg.Port)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// runWorkerMode starts the maintenance worker: it purges expired
// authorization states and proactively refreshes expiring tokens.
func runWorkerMode(
	ctx context.Context,
	cfg *config.Config,
	stateStore driven.StateStore,
	tokenService driving.TokenService,
	lock driven.DistributedLock,
) {
	log.Println("Starting worker mode...")

	w := worker.NewWorker(worker.WorkerConfig{
		States:        stateStore,
		Tokens:        tokenService,
		Lock:          lock,
		Logger:        slog.Default(),
		SweepInterval: cfg.Worker.SweepInterval,
		RefreshWindow: cfg.Worker.RefreshWindow,
		RefreshLimit:  cfg.Worker.RefreshLimit,
		LockRequired:  cfg.Worker.LockRequired,
	})

	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Println("Worker started, sweeping on schedule")

	// Wait for context cancellation
	<-ctx.Done()

	// Graceful shutdown
	log.Println("Stopping worker...")
	w.Stop()
	log.Println("Worker stopped")
}

// redisPinger adapts the go-redis client to the server's health Pinger.
type redisPinger struct {
	client *redis.Client
}

func (p *redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
