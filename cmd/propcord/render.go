package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/propcord/internal/client"
	"github.com/alfredjeanlab/propcord/internal/config"
	"github.com/alfredjeanlab/propcord/internal/identity"
	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/render"
	"github.com/alfredjeanlab/propcord/internal/store"
	"github.com/alfredjeanlab/propcord/internal/store/postgres"
)

var renderCmd = &cobra.Command{
	Use:     "render <page-id>",
	Short:   "Render every property of a page",
	GroupID: "render",
	Args:    cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if local, _ := cmd.Flags().GetBool("local"); local {
			return nil
		}
		return rootCmd.PersistentPreRunE(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		var page *client.RenderedPage
		var err error
		if local, _ := cmd.Flags().GetBool("local"); local {
			page, err = renderLocal(ctx, args[0])
		} else {
			page, err = renderClient.RenderPage(ctx, args[0])
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), page)
		}
		printFields(cmd.OutOrStdout(), page.Fields)
		return nil
	},
}

// renderLocal renders a page in-process with the configured API token and
// resolvers. Stored mappings are consulted when a database is configured.
func renderLocal(ctx context.Context, pageID string) (*client.RenderedPage, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	nc := newNotionClient(cfg)
	if nc == nil {
		return nil, errors.New("PROPCORD_NOTION_TOKEN is required for --local")
	}

	var s store.Store
	if cfg.DatabaseURL != "" {
		ps, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer ps.Close()
		s = ps
	}
	resolver := buildResolver(cfg, s, nc, logger)

	p, err := nc.RetrievePage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("retrieve page: %w", err)
	}
	fields, err := render.RenderPage(ctx, resolver.Resolve, p)
	if err != nil {
		return nil, err
	}
	return &client.RenderedPage{PageID: pageID, Fields: fields, Text: render.FormatFields(fields)}, nil
}

var renderFileCmd = &cobra.Command{
	Use:               "render-file <path|->",
	Short:             "Render a property or page JSON document offline",
	GroupID:           "render",
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		mappings, _ := cmd.Flags().GetStringToString("map")
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		fields, err := renderDocument(cmd.Context(), data, fileResolver(cfg, mappings, logger).Resolve)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), fields)
		}
		printFields(cmd.OutOrStdout(), fields)
		return nil
	},
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// staticResolver maps user ids to handles from a fixed table.
func staticResolver(m map[string]string) identity.Resolver {
	return identity.ResolverFunc(func(_ context.Context, id string) (string, error) {
		return m[id], nil
	})
}

// fileResolver consults the --map table first, then the member database when
// one is configured. With neither, every user renders unresolved.
func fileResolver(cfg *config.Config, mappings map[string]string, logger *slog.Logger) identity.Resolver {
	return identity.Chain(staticResolver(mappings), buildResolver(cfg, nil, newNotionClient(cfg), logger))
}

// renderDocument renders data as a page when it has a "properties" member
// and as a single property otherwise. A single property is returned as one
// field named by its id, if present.
func renderDocument(ctx context.Context, data []byte, resolve render.ResolveFunc) ([]model.Field, error) {
	var probe struct {
		ID         string          `json:"id"`
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("input must be a JSON object: %w", err)
	}

	if len(probe.Properties) > 0 && !bytes.Equal(probe.Properties, []byte("null")) {
		var page model.Page
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, err
		}
		return render.RenderPage(ctx, resolve, &page)
	}

	p, err := model.DecodeProperty(data)
	if err != nil {
		return nil, err
	}
	text, err := render.Render(ctx, resolve, p)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(probe.ID)
	if name == "" {
		name = p.PropertyType().String()
	}
	return []model.Field{{Name: name, Type: p.PropertyType(), Text: text}}, nil
}

var rendersCmd = &cobra.Command{
	Use:     "renders <page-id>",
	Short:   "List recent renders of a page",
	GroupID: "render",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		recs, err := apiClient.ListRenders(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), recs)
		}
		printRenderList(cmd.OutOrStdout(), recs)
		return nil
	},
}

func init() {
	renderCmd.Flags().Bool("local", false, "render in-process instead of through the server")
	renderFileCmd.Flags().StringToString("map", nil, "static user-id=handle mappings")
	rendersCmd.Flags().Int("limit", 0, "maximum records (server default when 0)")
}
