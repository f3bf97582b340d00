package cmd

import (
	"github.com/huangsam/gitfixes/core"
	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/spf13/cobra"
)

// fixesCmd reports the commits that fix known commits.
var fixesCmd = &cobra.Command{
	Use:   "fixes [REVISION [PATH...]]",
	Short: "Report commits that fix commits of a known-commit database",
	Long: `Walk REVISION (default HEAD, or a range A..B or A...B) and report every
commit whose message references a commit of the known-commit database,
grouped by owner. Fixes that were later reverted are not reported.

With PATH arguments only commits touching those paths are considered.

Examples:
  # Fixes for my commits since the last release
  gitfixes fixes -f ~/fixes.list v6.1..HEAD

  # Everybody's fixes, including mentions outside Fixes: lines
  gitfixes fixes --all --match-all v6.1..v6.2 drivers/net`,
	Args:    cobra.ArbitraryArgs,
	PreRunE: setupWith(revisionAndPaths),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFixes(rootCtx, cfg, gitClient, cacheManager); err != nil {
			contract.LogFatal("Cannot run fixes", err)
		}
	},
}
