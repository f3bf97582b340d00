package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/internal/iocache"
	"github.com/huangsam/gitfixes/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// gitClient is the repository collaborator shared by all commands.
var gitClient contract.GitClient = contract.NewLocalGitClient()

// cacheManager is the global store manager instance.
var cacheManager contract.CacheManager

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "gitfixes",
	Short: "Find the commits that fix commits you care about.",
	Long: `gitfixes walks a Git history, extracts the commit ids referenced by each
commit message and reports the commits that fix entries of a known-commit
database, grouped by the owner who should handle them.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigFile()

	// Set environment variable prefix
	viper.SetEnvPrefix("GITFIXES")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("reverse", true)
	viper.SetDefault("limit", contract.DefaultWhoLimit)
	viper.SetDefault("series-file", contract.DefaultSeriesFile)
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("history-backend", "")
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("color", "yes")
}

// setConfigFile points Viper at --config or at .gitfixes.yaml in . or $HOME.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".gitfixes") // Name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// loadConfigFile reads the config file; a missing file is fine.
func loadConfigFile() error {
	setConfigFile()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// argsAssigner moves positional arguments into the raw input.
type argsAssigner func(in *contract.ConfigRawInput, args []string)

// revisionAndPaths takes [REVISION [PATH...]].
func revisionAndPaths(in *contract.ConfigRawInput, args []string) {
	in.Revision, in.Paths = "", nil
	if len(args) > 0 {
		in.Revision = args[0]
		in.Paths = args[1:]
	}
}

// targetsOnly takes [PATH|REVISION...].
func targetsOnly(in *contract.ConfigRawInput, args []string) {
	in.Revision, in.Paths = "", args
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(ctx context.Context, args []string, assign argsAssigner) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	if assign != nil {
		assign(input, args)
	}

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(ctx, cfg, gitClient, input); err != nil {
		return err
	}

	// 5. Initialize stores with validated config
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize stores: %w", err)
	}
	return nil
}

// setupWith returns a PreRunE running sharedSetup with the given argument handling.
func setupWith(assign argsAssigner) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, args, assign)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetCacheManager sets the global cache manager.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}
