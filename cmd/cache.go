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

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// No history tracking for cache commands
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands skip sharedSetup so they work outside a Git repository.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the revision resolution cache",
	Long: `Manage the cache of abbreviated commit ids resolved to full ids.

Resolving every id mentioned in a commit message is the slowest part of a
fixes run, so results are remembered between runs.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached resolutions",
	Long: `Delete all cached resolutions from the configured backend.

Use this after history was rewritten or when switching repositories that
share abbreviated ids.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  gitfixes cache clear
  GITFIXES_CACHE_BACKEND=mysql GITFIXES_CACHE_DB_CONNECT="..." gitfixes cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		iocache.CloseStores()
		if err := iocache.ClearCache(cfg.CacheBackend, iocache.GetDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the backend, entry count, entry timestamps and size of the
resolution cache.

Examples:
  gitfixes cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetResolveStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", errors.New("no cache backend configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
