package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zako-ac/issuetracker/internal/output"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Inspect the admin allow-list",
	Long:  "Inspect the admin allow-list configured through ADMIN_IDS.",
}

var adminCheckCmd = &cobra.Command{
	Use:   "check <user-id>",
	Short: "Report whether a chat identity is an admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminCheckRun(args[0])
	},
}

var adminListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List configured admin identities",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminListRun()
	},
}

func init() {
	adminCmd.AddCommand(adminCheckCmd)
	adminCmd.AddCommand(adminListCmd)
	rootCmd.AddCommand(adminCmd)
}

func adminCheckRun(userID string) error {
	fmt.Fprintln(ui.Out, output.YesNo(getAdmins().IsAdmin(userID)))
	return nil
}

func adminListRun() error {
	ids := getAdmins().IDs()
	if len(ids) == 0 {
		ui.Info("No admins configured (set ADMIN_IDS).")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(ui.Out, id)
	}
	return nil
}
