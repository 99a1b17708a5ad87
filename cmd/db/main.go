package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"

	"github.com/clawtake/clawtake/cmd/db/commands"
	"github.com/clawtake/clawtake/internal/database"
	"github.com/clawtake/clawtake/internal/database/migrations"
	"github.com/clawtake/clawtake/internal/setup/config"
	"github.com/clawtake/clawtake/internal/setup/telemetry"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogDir specifies where database tool log files are stored.
const LogDir = "logs/db_logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	deps, err := setupDependencies()
	if err != nil {
		return fmt.Errorf("failed to setup dependencies: %w", err)
	}
	defer deps.DB.Close()
	defer deps.Logger.Sync() //nolint:errcheck // -

	app := &cli.Command{
		Name:  "db",
		Usage: "ClawTake database management tool",
		Commands: slices.Concat(
			commands.MigrationCommands(deps),
			commands.MaintenanceCommands(deps),
		),
	}

	return app.Run(context.Background(), os.Args)
}

// setupDependencies connects to the database and prepares the migrator.
func setupDependencies() (*commands.CLIDependencies, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	fileLogger, _, err := telemetry.NewManager(telemetry.ServiceMigrate, LogDir, &cfg.Common.Debug).GetLoggers()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	console, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("failed to create console logger: %w", err)
	}

	// Mirror to the terminal
	logger := fileLogger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, console.Core())
	}))

	// Migrations are always explicit here
	db, err := database.NewConnection(context.Background(), cfg, logger, false)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &commands.CLIDependencies{
		DB:       db,
		Migrator: migrate.NewMigrator(db.DB(), migrations.Migrations),
		Logger:   logger,
	}, nil
}
