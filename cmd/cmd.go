// Package cmd defines the command-line interface for gitfixes.
package cmd

import (
	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(fixesCmd)
	rootCmd.AddCommand(whoCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("repo", "r", "", "Path to the Git repository (defaults to the current directory)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or list or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("domains", "", "Comma-separated organisation email domains used for attribution")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Resolution cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (a SQLite file must differ from the cache file)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of fixesCmd to Viper
	fixesCmd.Flags().StringP("file", "f", "", "Known-commit database (defaults to git config fixes.file)")
	fixesCmd.Flags().StringP("blacklist", "b", "", "Comma-separated files of commit ids never to report")
	fixesCmd.Flags().String("path-blacklist", "", "Comma-separated files of path prefixes to ignore")
	fixesCmd.Flags().StringP("committer", "c", "", "Only report fixes whose owner contains this string (defaults to git config user.email)")
	fixesCmd.Flags().BoolP("all", "a", false, "Report fixes for every owner")
	fixesCmd.Flags().Bool("reverse", true, "Walk oldest commits first")
	fixesCmd.Flags().Bool("no-grouping", false, "Print matches without owner groups")
	fixesCmd.Flags().BoolP("match-all", "m", false, "Also consider commit ids outside Fixes: lines")
	fixesCmd.Flags().BoolP("stats", "s", false, "Print the number of walked commits and matches")
	if err := viper.BindPFlags(fixesCmd.Flags()); err != nil {
		contract.LogFatal("Error binding fixes flags", err)
	}

	// Bind all flags of whoCmd to Viper
	whoCmd.Flags().StringP("pathmap", "p", "", "Path map file (path;name:count;... per line)")
	whoCmd.Flags().StringP("ignore", "i", "", "Comma-separated names, or files of names, to leave out if possible")
	whoCmd.Flags().StringP("database", "d", "", "Named database (who.databases.<name> or git config fixes.<name>.*)")
	whoCmd.Flags().IntP("limit", "l", contract.DefaultWhoLimit, "Number of people to display (0 = all)")
	if err := viper.BindPFlags(whoCmd.Flags()); err != nil {
		contract.LogFatal("Error binding who flags", err)
	}

	// Bind all flags of seriesCmd to Viper
	seriesCmd.Flags().String("series-file", contract.DefaultSeriesFile, "Series file at the revision")
	seriesCmd.Flags().String("base", "", "Only list commits absent from this revision")
	seriesCmd.Flags().StringP("series-out", "o", "", "Output file (defaults to <branch>.list)")
	seriesCmd.Flags().Bool("append", false, "Append to the output file")
	seriesCmd.Flags().Bool("stdout", false, "Write to stdout instead of a file")
	if err := viper.BindPFlags(seriesCmd.Flags()); err != nil {
		contract.LogFatal("Error binding series flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
