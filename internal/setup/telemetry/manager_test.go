package telemetry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/clawtake/clawtake/internal/setup/config"
	"github.com/clawtake/clawtake/internal/setup/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggers(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()

	// Three stale sessions, only the newest should survive alongside the new one
	for _, name := range []string{"2024-01-01_00-00-00", "2024-01-02_00-00-00", "2024-01-03_00-00-00"} {
		require.NoError(t, os.MkdirAll(filepath.Join(logDir, name), 0o755))
	}

	manager := telemetry.NewManager(telemetry.ServiceAPI, logDir, &config.Debug{
		LogLevel:      "debug",
		MaxLogsToKeep: 2,
		MaxLogLines:   100,
	})

	mainLogger, dbLogger, err := manager.GetLoggers()
	require.NoError(t, err)

	mainLogger.Info("hello")
	dbLogger.Debug("query")
	_ = mainLogger.Sync()
	_ = dbLogger.Sync()

	sessionDir := manager.GetCurrentSessionDir()
	assert.FileExists(t, filepath.Join(sessionDir, "main.log"))
	assert.FileExists(t, filepath.Join(sessionDir, "database.log"))

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.NoDirExists(t, filepath.Join(logDir, "2024-01-01_00-00-00"))
	assert.DirExists(t, filepath.Join(logDir, "2024-01-03_00-00-00"))
}

func TestGetLoggersInvalidLevel(t *testing.T) {
	t.Parallel()

	manager := telemetry.NewManager(telemetry.ServiceMigrate, t.TempDir(), &config.Debug{
		LogLevel:      "loud",
		MaxLogsToKeep: 1,
		MaxLogLines:   10,
	})

	_, _, err := manager.GetLoggers()
	require.Error(t, err)
}
