package commands

import (
	"jira-extract/internal/mcp"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the issue search as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := loadClient()
		if err != nil {
			return err
		}
		return mcp.NewServer(client).Serve(cmd.Context())
	},
}
