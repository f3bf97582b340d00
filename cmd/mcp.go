package cmd

import (
	"github.com/huangsam/gitfixes/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the gitfixes MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents find fixes, rank path owners and list series commits.`,
	PreRunE: func(_ *cobra.Command, args []string) error {
		// Positional arguments are meaningless here; tools carry their own.
		return sharedSetup(rootCtx, args, nil)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, gitClient, cacheManager)
	},
}
