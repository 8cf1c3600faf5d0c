package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/propcord/internal/client"
	"github.com/alfredjeanlab/propcord/internal/config"
	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/store/postgres"
	mapsync "github.com/alfredjeanlab/propcord/internal/sync"
)

var mappingCmd = &cobra.Command{
	Use:     "mapping",
	Short:   "Manage user-to-chat-handle mappings",
	GroupID: "identity",
}

var mappingSetCmd = &cobra.Command{
	Use:   "set <notion-user-id> <discord-id>",
	Short: "Create or replace a mapping",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := model.ValidateDiscordID(args[1]); err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		m, err := apiClient.SetMapping(cmd.Context(), args[0], &client.SetMappingRequest{DiscordID: args[1], DisplayName: name})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), m)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "mapped %s -> %s\n", m.NotionUserID, m.DiscordID)
		return nil
	},
}

var mappingGetCmd = &cobra.Command{
	Use:   "get <notion-user-id>",
	Short: "Show a mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := apiClient.GetMapping(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), m)
		}
		printMapping(cmd.OutOrStdout(), m)
		return nil
	},
}

var mappingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all mappings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ms, err := apiClient.ListMappings(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), ms)
		}
		printMappingTable(cmd.OutOrStdout(), ms)
		return nil
	},
}

var mappingDeleteCmd = &cobra.Command{
	Use:   "delete <notion-user-id>",
	Short: "Remove a mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient.DeleteMapping(cmd.Context(), args[0]); err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
				return fmt.Errorf("no mapping for %s", args[0])
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted mapping for %s\n", args[0])
		return nil
	},
}

// openStore connects directly to the configured database.
func openStore() (*postgres.PostgresStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("PROPCORD_DATABASE_URL is required")
	}
	return postgres.New(cfg.DatabaseURL)
}

var mappingExportCmd = &cobra.Command{
	Use:               "export [path]",
	Short:             "Write all mappings as JSONL (stdout by default)",
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		w := cmd.OutOrStdout()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return mapsync.ExportJSONL(cmd.Context(), s, w)
	},
}

var mappingImportCmd = &cobra.Command{
	Use:               "import <path|->",
	Short:             "Restore mappings from a JSONL export",
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		r := cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		n, err := mapsync.ImportJSONL(cmd.Context(), s, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d mappings\n", n)
		return nil
	},
}

func init() {
	mappingSetCmd.Flags().String("name", "", "display name")

	mappingCmd.AddCommand(mappingSetCmd)
	mappingCmd.AddCommand(mappingGetCmd)
	mappingCmd.AddCommand(mappingListCmd)
	mappingCmd.AddCommand(mappingDeleteCmd)
	mappingCmd.AddCommand(mappingExportCmd)
	mappingCmd.AddCommand(mappingImportCmd)
}
