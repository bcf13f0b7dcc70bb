package cmd

import (
	"github.com/huangsam/flowtrack/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the flowtrack MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents classify URLs,
compute and simulate flow scores, and query stored activity events.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
