package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/propcord/internal/ui"
)

type healthReport struct {
	Status    string `json:"status"`
	Transport string `json:"transport"`
	LatencyMS int64  `json:"latency_ms"`
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Ping the server over the selected transport",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		start := time.Now()
		status, err := renderClient.Health(ctx)
		if err != nil {
			return fmt.Errorf("%s health check: %w", transport, err)
		}
		report := healthReport{Status: status, Transport: transport, LatencyMS: time.Since(start).Milliseconds()}

		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", report.Status, ui.RenderMuted(report.Transport),
				ui.RenderMuted(fmt.Sprintf("%dms", report.LatencyMS)))
		}
		if status != "ok" {
			return fmt.Errorf("server unhealthy: %s", status)
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().Duration("timeout", 5*time.Second, "give up after this long")
}
