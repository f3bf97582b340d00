package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/internal/iocache"
	"github.com/huangsam/gitfixes/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackend reads the history backend from config. Empty means disabled.
func historyBackend() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(viper.GetString("history-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	connStr := viper.GetString("history-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
func historySetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackend()
	if err != nil {
		return err
	}

	// No resolution cache for history commands
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historyMigrateSetup loads the backend without opening the store, so that
// migrations can run on a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackend()
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyCmd focused on run history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage fixes run history and exports",
	Long: `Manage the record of past fixes runs.

When --history-backend is set every fixes run stores its parameters,
totals and matches, so that reports can be compared over time.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show history statistics
  export  - Export runs and matches to Parquet
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  gitfixes history status --history-backend sqlite
  gitfixes history export --history-backend sqlite --output-file runs`,
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs and matches",
	Long: `Delete every stored run and match.

WARNING: This action cannot be undone. Consider exporting data first.`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		iocache.CloseStores()
		if err := iocache.ClearHistory(cfg.HistoryBackend, iocache.GetHistoryDBFilePath(), cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history statistics and connection details",
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", errors.New("history tracking is not enabled; set --history-backend"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports the run history to Parquet.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs and matches to Parquet files",
	Long: `Write <output-file>.runs.parquet and <output-file>.matches.parquet for
analysis with tools such as DuckDB or pandas.

Examples:
  gitfixes history export --history-backend sqlite --output-file fixes-history`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExportHistory(os.Stdout, iocache.Manager.GetHistoryStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyMigrateCmd runs the history schema migrations.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run history database schema migrations",
	Long: `Apply or roll back the history schema migrations.

Examples:
  # Migrate to the latest version
  gitfixes history migrate --history-backend sqlite

  # Roll back everything
  gitfixes history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.MigrateHistory(os.Stdout, cfg.HistoryBackend, cfg.HistoryDBConnect, viper.GetInt("target-version")); err != nil {
			contract.LogFatal("Failed to migrate history", err)
		}
	},
}
