package contract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/gitfixes/schema"
)

// Default values for configuration.
const (
	DefaultRevision   = "HEAD"
	DefaultSeriesFile = "series.conf"
	DefaultWhoLimit   = 10
	MaxWhoLimit       = 1000
)

// ResolveCacheTTL is how long a cached token resolution stays valid.
const ResolveCacheTTL = 7 * 24 * time.Hour

// Git config keys consulted when the matching flag is empty.
const (
	GitConfigUserEmail = "user.email"
	GitConfigFixesFile = "fixes.file"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// WhoDatabaseRaw is one named path-ownership database from the YAML config file.
type WhoDatabaseRaw struct {
	PathMap string   `mapstructure:"pathmap"`
	Ignore  []string `mapstructure:"ignore"`
}

// WhoRawInput holds the who settings from the YAML config file.
type WhoRawInput struct {
	Databases map[string]WhoDatabaseRaw `mapstructure:"databases"`
}

// Config holds the runtime configuration for all commands.
// This struct remains the "final, validated" config.
type Config struct {
	RepoPath string
	Revision string
	Paths    []string

	KnownDB        string   // Primary known-commit database (required by fixes)
	Blacklists     []string // Files of excluded commit ids
	PathBlacklists []string // Files of excluded path prefixes
	Domains        []string // Organisation email domains for attribution
	Committer      string   // Owner substring filter
	ShowAll        bool     // Disable the committer filter
	Reverse        bool     // Walk oldest first
	Grouping       bool     // Group matches by owner
	MatchAll       bool     // Consider references outside "Fixes:" lines
	Stats          bool

	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	WhoPathMap  string
	WhoIgnore   []string
	WhoDatabase string
	WhoLimit    int

	SeriesFile   string
	SeriesBase   string
	SeriesOut    string
	SeriesAppend bool
	SeriesStdout bool

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// These are set manually from positional args, so no tag
	Revision string
	Paths    []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Repo             string `mapstructure:"repo"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	Domains          string `mapstructure:"domains"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Fields from fixesCmd.Flags() ---
	File          string `mapstructure:"file"`
	Blacklist     string `mapstructure:"blacklist"`
	PathBlacklist string `mapstructure:"path-blacklist"`
	Committer     string `mapstructure:"committer"`
	All           bool   `mapstructure:"all"`
	Reverse       bool   `mapstructure:"reverse"`
	NoGrouping    bool   `mapstructure:"no-grouping"`
	MatchAll      bool   `mapstructure:"match-all"`
	Stats         bool   `mapstructure:"stats"`

	// --- Fields from whoCmd.Flags() ---
	PathMap  string `mapstructure:"pathmap"`
	Ignore   string `mapstructure:"ignore"`
	Database string `mapstructure:"database"`
	Limit    int    `mapstructure:"limit"`

	// --- Fields from seriesCmd.Flags() ---
	SeriesFile string `mapstructure:"series-file"`
	Base       string `mapstructure:"base"`
	SeriesOut  string `mapstructure:"series-out"`
	Append     bool   `mapstructure:"append"`
	Stdout     bool   `mapstructure:"stdout"`

	// --- Settings only available from the config file ---
	Who WhoRawInput `mapstructure:"who"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Paths = slices.Clone(c.Paths)
	clone.Blacklists = slices.Clone(c.Blacklists)
	clone.PathBlacklists = slices.Clone(c.PathBlacklists)
	clone.Domains = slices.Clone(c.Domains)
	clone.WhoIgnore = slices.Clone(c.WhoIgnore)
	return &clone
}

// Params returns the run parameters recorded alongside a fixes run.
func (c *Config) Params() map[string]any {
	return map[string]any{
		"repo":      c.RepoPath,
		"revision":  c.Revision,
		"paths":     c.Paths,
		"file":      c.KnownDB,
		"committer": c.Committer,
		"all":       c.ShowAll,
		"reverse":   c.Reverse,
		"grouping":  c.Grouping,
		"match_all": c.MatchAll,
	}
}

// ValidateFixes checks the settings that only the fixes pipeline requires.
func (c *Config) ValidateFixes() error {
	if c.KnownDB == "" {
		return fmt.Errorf("no known-commit database configured. Pass --file or set git config %s", GitConfigFixesFile)
	}
	if c.Output == schema.ParquetOut && c.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	return nil
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := resolveGitPath(ctx, cfg, client, input); err != nil {
		return err
	}
	if err := applyGitDefaults(ctx, cfg, client); err != nil {
		return err
	}
	return resolveWhoDatabase(ctx, cfg, client, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Cache and history must not share one SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.Revision = strings.TrimSpace(input.Revision)
	if cfg.Revision == "" {
		cfg.Revision = DefaultRevision
	}
	cfg.Paths = input.Paths
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.KnownDB = ExpandHome(strings.TrimSpace(input.File))
	cfg.Blacklists = expandAll(SplitList(input.Blacklist))
	cfg.PathBlacklists = expandAll(SplitList(input.PathBlacklist))
	cfg.Domains = SplitList(input.Domains)
	cfg.Committer = strings.TrimSpace(input.Committer)
	cfg.ShowAll = input.All
	cfg.Reverse = input.Reverse
	cfg.Grouping = !input.NoGrouping
	cfg.MatchAll = input.MatchAll
	cfg.Stats = input.Stats
	cfg.SeriesBase = strings.TrimSpace(input.Base)
	cfg.SeriesOut = input.SeriesOut
	cfg.SeriesAppend = input.Append
	cfg.SeriesStdout = input.Stdout
	cfg.SeriesFile = strings.TrimSpace(input.SeriesFile)
	if cfg.SeriesFile == "" {
		cfg.SeriesFile = DefaultSeriesFile
	}

	// Parse color flag
	colorStr := input.Color
	if colorStr == "" {
		colorStr = "yes"
	}
	colors, err := ParseBoolString(colorStr)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, list, csv, json, parquet", input.Output)
	}

	// --- 2. Who Limit Validation ---
	if input.Limit < 0 || input.Limit > MaxWhoLimit {
		return fmt.Errorf("limit must be between 0 and %d (received %d)", MaxWhoLimit, input.Limit)
	}
	cfg.WhoLimit = input.Limit

	return nil
}

// resolveGitPath resolves the Git repository root from the --repo flag.
func resolveGitPath(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	searchPath := input.Repo
	if searchPath == "" {
		searchPath = "."
	}
	absSearchPath, err := filepath.Abs(ExpandHome(searchPath))
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	if info, statErr := os.Stat(absSearchPath); statErr == nil && !info.IsDir() {
		absSearchPath = filepath.Dir(absSearchPath)
	}

	gitRoot, err := client.GetRepoRoot(ctx, absSearchPath)
	if err != nil {
		return err
	}
	cfg.RepoPath = gitRoot
	return nil
}

// applyGitDefaults fills empty settings from git config, mirroring what a
// maintainer already has configured for the repository.
func applyGitDefaults(ctx context.Context, cfg *Config, client GitClient) error {
	if cfg.Committer == "" && !cfg.ShowAll {
		email, err := client.GetConfigValue(ctx, cfg.RepoPath, GitConfigUserEmail)
		if err != nil {
			return fmt.Errorf("read git config %s: %w", GitConfigUserEmail, err)
		}
		cfg.Committer = email
	}
	if cfg.KnownDB == "" {
		file, err := client.GetConfigValue(ctx, cfg.RepoPath, GitConfigFixesFile)
		if err != nil {
			return fmt.Errorf("read git config %s: %w", GitConfigFixesFile, err)
		}
		cfg.KnownDB = ExpandHome(file)
	}
	return nil
}

// resolveWhoDatabase picks the path map and ignore list for the who command.
// Explicit flags win, then a named database from the config file, then git config.
func resolveWhoDatabase(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	cfg.WhoDatabase = strings.TrimSpace(input.Database)
	cfg.WhoPathMap = ExpandHome(strings.TrimSpace(input.PathMap))
	cfg.WhoIgnore = SplitList(input.Ignore)

	if cfg.WhoDatabase == "" {
		return nil
	}

	if db, ok := input.Who.Databases[cfg.WhoDatabase]; ok {
		if cfg.WhoPathMap == "" {
			cfg.WhoPathMap = ExpandHome(db.PathMap)
		}
		if len(cfg.WhoIgnore) == 0 {
			cfg.WhoIgnore = db.Ignore
		}
	}

	if cfg.WhoPathMap == "" {
		key := fmt.Sprintf("fixes.%s.pathmap", cfg.WhoDatabase)
		value, err := client.GetConfigValue(ctx, cfg.RepoPath, key)
		if err != nil {
			return fmt.Errorf("read git config %s: %w", key, err)
		}
		cfg.WhoPathMap = ExpandHome(value)
	}
	if len(cfg.WhoIgnore) == 0 {
		key := fmt.Sprintf("fixes.%s.ignore", cfg.WhoDatabase)
		value, err := client.GetConfigValue(ctx, cfg.RepoPath, key)
		if err != nil {
			return fmt.Errorf("read git config %s: %w", key, err)
		}
		if value != "" {
			cfg.WhoIgnore = []string{value}
		}
	}

	if cfg.WhoPathMap == "" {
		return fmt.Errorf("database %q has no path map configured", cfg.WhoDatabase)
	}
	cfg.WhoIgnore = expandAll(cfg.WhoIgnore)
	return nil
}

func expandAll(paths []string) []string {
	for i, p := range paths {
		paths[i] = ExpandHome(p)
	}
	return paths
}
