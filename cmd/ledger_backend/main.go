package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/ledger_core/internal/adapters/database/memory"
	"github.com/SscSPs/ledger_core/internal/adapters/database/mongo"
	"github.com/SscSPs/ledger_core/internal/adapters/database/pgsql"
	"github.com/SscSPs/ledger_core/internal/adapters/messaging"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/core/services"
	"github.com/SscSPs/ledger_core/internal/handlers"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/SscSPs/ledger_core/pkg/config"
	"github.com/SscSPs/ledger_core/pkg/database"
	"github.com/SscSPs/ledger_core/pkg/logger"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 15 * time.Second

// ledgerPublisher is what main needs from an event publisher.
type ledgerPublisher interface {
	portssvc.LedgerEventPublisher
	Close() error
}

// @title Ledger Core API
// @version 1.0
// @description Double-entry posting, reversal, payment allocation and audit trail.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ServiceKey
// @in header
// @name x-api-key

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)

	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	repos, closeStore, err := setupStore(appCtx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize ledger store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	if cfg.AuditStore == config.AuditStoreMongo {
		auditRepo, disconnect, err := setupMongoAudit(appCtx, cfg, log)
		if err != nil {
			log.Error("Failed to initialize mongo audit store", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer disconnect()
		repos.AuditRepo = auditRepo
	}
	log.Info("Audit store ready", slog.String("connection", repos.AuditRepo.ConnectionName()))

	publisher, err := setupPublisher(cfg, log)
	if err != nil {
		log.Error("Failed to initialize event publisher", slog.String("error", err.Error()))
		os.Exit(1)
	}

	container, audit, err := services.NewServiceContainer(cfg, repos, publisher)
	if err != nil {
		log.Error("Failed to build services", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(log), gin.Recovery())
	if err := r.SetTrustedProxies(nil); err != nil {
		log.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := handlers.RegisterRoutes(r, cfg, container); err != nil {
		log.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Server starting", slog.String("port", cfg.Port), slog.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", slog.String("error", err.Error()))
		exitCode = 1
	}

	cancelAppCtx()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", slog.String("error", err.Error()))
	}
	// Drain queued audit writes before the store closes
	audit.Shutdown()
	if err := publisher.Close(); err != nil {
		log.Error("Error closing event publisher", slog.String("error", err.Error()))
	}
	log.Info("Shutdown complete")

	if exitCode != 0 {
		closeStore()
		os.Exit(exitCode)
	}
}

// setupStore opens the configured ledger store and returns its repositories with a
// close function.
func setupStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("Using in-memory ledger store; data is lost on restart")
		return memory.NewStore().Provider(), func() {}, nil
	}

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Ping:     cfg.EnableDBCheck,
	})
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	log.Info("Database connection pool established.")

	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		pool.Close()
		return portsrepo.RepositoryProvider{}, nil, err
	}
	return pgsql.NewRepositoryProvider(pool), pool.Close, nil
}

func setupMongoAudit(ctx context.Context, cfg *config.Config, log *slog.Logger) (*mongo.AuditRepository, func(), error) {
	client, err := database.NewMongoClient(ctx, cfg.MongoURI, 10*time.Second)
	if err != nil {
		return nil, nil, err
	}
	disconnect := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error("Error disconnecting mongo client", slog.String("error", err.Error()))
		}
	}

	db := client.Database(cfg.MongoDatabase)
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		disconnect()
		return nil, nil, err
	}
	return mongo.NewAuditRepository(log, db), disconnect, nil
}

func setupPublisher(cfg *config.Config, log *slog.Logger) (ledgerPublisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("No Kafka brokers configured; ledger events are not published")
		return messaging.NoopPublisher{}, nil
	}
	publisher, err := messaging.NewKafkaPublisher(log, cfg.KafkaBrokers, cfg.KafkaLedgerTopic, cfg.KafkaWriteTimeout)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}
