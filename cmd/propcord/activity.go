package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/propcord/internal/presence"
	"github.com/alfredjeanlab/propcord/internal/ui"
)

var activityCmd = &cobra.Command{
	Use:     "activity",
	Short:   "Show who has been rendering pages",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		within, _ := cmd.Flags().GetDuration("within")
		actors, err := apiClient.Activity(cmd.Context(), within)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), actors)
		}
		printActivity(cmd.OutOrStdout(), actors)
		return nil
	},
}

func printActivity(w io.Writer, actors []presence.Entry) {
	if len(actors) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("no recent activity"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTOR\tRENDERS\tLAST PAGE\tIDLE")
	for _, a := range actors {
		idle := (time.Duration(a.IdleSecs) * time.Second).Round(time.Second).String()
		if a.Idle {
			idle += " (idle)"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", a.Actor, a.RenderCount, a.LastPageID, idle)
	}
	tw.Flush()
}

func init() {
	activityCmd.Flags().Duration("within", 0, "only actors active within this window (0 for all)")
}
