package setup

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/clawtake/clawtake/internal/database"
	"github.com/clawtake/clawtake/internal/database/migrations"
	"github.com/clawtake/clawtake/internal/redis"
	"github.com/clawtake/clawtake/internal/setup/config"
	"github.com/clawtake/clawtake/internal/setup/telemetry"
	"github.com/redis/rueidis"
	"github.com/uptrace/bun/migrate"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.uber.org/zap"
)

// ErrPendingMigrations is returned when the schema is behind and migrating was declined.
var ErrPendingMigrations = errors.New("database migrations are pending")

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config        *config.Config     // Application configuration
	Logger        *zap.Logger        // Main application logger
	DBLogger      *zap.Logger        // Database-specific logger
	DB            database.Client    // Database connection pool
	RedisManager  *redis.Manager     // Redis connection manager
	RatelimitDB   rueidis.Client     // Redis client for rate limit counters
	LogManager    *telemetry.Manager // Log management system
	tracingActive bool
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string) (*App, error) {
	// Load app configuration
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded configuration", zap.String("dir", configDir))

	// Traces are exported only when a DSN is configured
	tracingActive := configureTracing(&cfg.Common.Telemetry, serviceType, logger)

	// Redis manager provides connection pools for various subsystems
	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	// A missing Redis degrades rate limiting to per-process buckets
	ratelimitDB, err := redisManager.GetClient(redis.RatelimitDBIndex)
	if err != nil {
		logger.Warn("Redis unavailable, rate limits are per process", zap.Error(err))
		ratelimitDB = nil
	}

	db, err := checkAndRunMigrations(ctx, cfg, dbLogger)
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	// Bundle all initialized components
	return &App{
		Config:        cfg,
		Logger:        logger,
		DBLogger:      dbLogger.Named("database"),
		DB:            db,
		RedisManager:  redisManager,
		RatelimitDB:   ratelimitDB,
		LogManager:    logManager,
		tracingActive: tracingActive,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(ctx context.Context) {
	// Flush pending spans before the connections they describe go away
	if s.tracingActive {
		if err := uptrace.Shutdown(ctx); err != nil {
			s.Logger.Error("Failed to flush traces", zap.Error(err))
		}
	}

	// Close database connections
	if err := s.DB.Close(); err != nil {
		s.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	// Close Redis connections last as other components might need it during cleanup
	s.RedisManager.Close()

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}
}

// configureTracing installs the Uptrace exporter as the global tracer provider.
func configureTracing(cfg *config.Telemetry, serviceType telemetry.ServiceType, logger *zap.Logger) bool {
	if cfg.UptraceDSN == "" {
		return false
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName("clawtake-"+serviceType.String()),
		uptrace.WithServiceVersion(config.RepositoryVersion),
		uptrace.WithDeploymentEnvironment(cfg.Environment),
	)

	logger.Info("Tracing enabled", zap.String("environment", cfg.Environment))

	return true
}

// checkAndRunMigrations connects to the database and makes sure the schema is current.
// Pending migrations are applied when auto_migrate is set, otherwise the operator is asked.
func checkAndRunMigrations(ctx context.Context, cfg *config.Config, dbLogger *zap.Logger) (database.Client, error) {
	if cfg.Common.PostgreSQL.AutoMigrate {
		return database.NewConnection(ctx, cfg, dbLogger, true)
	}

	db, err := database.NewConnection(ctx, cfg, dbLogger, false)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(db.DB(), migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	unapplied := ms.Unapplied()
	if len(unapplied) == 0 {
		return db, nil
	}

	log.Printf("%d database migrations are pending. Would you like to run them now? (y/N)", len(unapplied))

	var response string

	_, _ = fmt.Scanln(&response)

	if response != "y" && response != "Y" {
		db.Close()
		return nil, fmt.Errorf("%w: run `db migrate` or set postgresql.auto_migrate", ErrPendingMigrations)
	}

	if err := database.Migrate(ctx, db.DB(), dbLogger); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
