package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/propcord/internal/client"
	"github.com/alfredjeanlab/propcord/internal/ui"
)

var (
	serverAddr string
	httpURL    string
	transport  string
	token      string
	jsonOutput bool
	actor      string

	// renderClient speaks the selected transport; apiClient always speaks
	// HTTP because mapping and render-log routes exist only there.
	renderClient client.RenderClient
	apiClient    *client.HTTPClient
)

func defaultActor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		if name := strings.TrimSpace(string(out)); name != "" {
			return name
		}
	}
	return os.Getenv("USER")
}

func defaultHTTPURL() string {
	if s := os.Getenv("PROPCORD_HTTP_URL"); s != "" {
		return s
	}
	if r, ok := activeRemote(); ok && r.URL != "" {
		return r.URL
	}
	return "http://localhost:8080"
}

func defaultServer() string {
	if s := os.Getenv("PROPCORD_SERVER"); s != "" {
		return s
	}
	if r, ok := activeRemote(); ok && r.GRPCAddr != "" {
		return r.GRPCAddr
	}
	return "localhost:9090"
}

func defaultToken() string {
	if s := os.Getenv("PROPCORD_TOKEN"); s != "" {
		return s
	}
	if r, ok := activeRemote(); ok {
		return r.Token
	}
	return ""
}

// skipClient replaces the root's PersistentPreRunE on commands that work
// without a server connection.
func skipClient(*cobra.Command, []string) error { return nil }

var rootCmd = &cobra.Command{
	Use:           "propcord <command>",
	Short:         "Render document-database properties as chat messages",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		apiClient = client.NewHTTPClient(httpURL, token)
		apiClient.Actor = actor
		switch transport {
		case "http":
			renderClient = apiClient
		case "grpc":
			c, err := client.NewGRPCClient(serverAddr, token)
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			c.Actor = actor
			renderClient = c
		default:
			return fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if renderClient != nil {
			renderClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", defaultServer(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "http", "transport protocol (http or grpc)")
	rootCmd.PersistentFlags().StringVar(&token, "token", defaultToken(), "bearer token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor recorded on page renders")

	rootCmd.AddGroup(
		&cobra.Group{ID: "render", Title: "Rendering:"},
		&cobra.Group{ID: "identity", Title: "Identity:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Rendering
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(renderFileCmd)
	rootCmd.AddCommand(rendersCmd)
	rootCmd.AddCommand(watchCmd)

	// Identity
	rootCmd.AddCommand(mappingCmd)
	rootCmd.AddCommand(resolveCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if !ui.ShouldUseColor() {
		ui.ForceNoColor()
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("Error: "+err.Error()))
		os.Exit(1)
	}
}
