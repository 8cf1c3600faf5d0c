package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/propcord/internal/ui"
)

var resolveCmd = &cobra.Command{
	Use:     "resolve <notion-user-id>",
	Short:   "Show the chat mention a user resolves to",
	GroupID: "identity",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := apiClient.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		if resp.Handle == "" {
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMuted("no mapping for "+resp.NotionUserID))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMention(resp.Mention))
		return nil
	},
}
