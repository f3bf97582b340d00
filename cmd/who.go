package cmd

import (
	"github.com/huangsam/gitfixes/core"
	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/spf13/cobra"
)

// whoCmd ranks the people who touched paths.
var whoCmd = &cobra.Command{
	Use:   "who PATH|REVISION...",
	Short: "Rank the people who historically changed paths",
	Long: `Look up each PATH, or the paths changed by each REVISION, in a path map
and rank the people who touched them most.

Examples:
  gitfixes who -p ~/kernel.pathmap drivers/net/ethernet/intel/e1000e/netdev.c
  gitfixes who -d kernel HEAD~3 --ignore me@example.com`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: setupWith(targetsOnly),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteWho(rootCtx, cfg, gitClient, cacheManager); err != nil {
			contract.LogFatal("Cannot run who", err)
		}
	},
}
