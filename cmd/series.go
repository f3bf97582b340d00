package cmd

import (
	"github.com/huangsam/gitfixes/core"
	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/spf13/cobra"
)

// seriesCmd builds a known-commit database from a patch series branch.
var seriesCmd = &cobra.Command{
	Use:   "series [BRANCH]",
	Short: "Build a known-commit database from a patch series",
	Long: `Read the series file of BRANCH (default HEAD), collect the upstream ids
of every listed patch and write them as id,owner,path records.

Examples:
  # Writes SLE15-SP6.list
  gitfixes series --domains suse.com,suse.de origin/SLE15-SP6

  # Only the patches not yet in the base branch
  gitfixes series --base origin/SLE15-SP5 --stdout origin/SLE15-SP6`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: setupWith(revisionAndPaths),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSeries(rootCtx, cfg, gitClient, cacheManager); err != nil {
			contract.LogFatal("Cannot build series database", err)
		}
	},
}
