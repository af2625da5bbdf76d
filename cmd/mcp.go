package cmd

import (
	"github.com/spf13/cobra"

	trackermcp "github.com/zako-ac/issuetracker/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an assistant list, file and triage issues directly.
Configure it with:

  {
    "mcpServers": {
      "zit": { "command": "zit", "args": ["mcp"] }
    }
  }

Available tools: tracker_list_issues, tracker_create_issue,
tracker_update_status, tracker_is_admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		srv := trackermcp.NewServer(s, getAdmins(), buildVersion)
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
