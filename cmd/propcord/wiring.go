package main

import (
	"log/slog"

	"github.com/alfredjeanlab/propcord/internal/config"
	"github.com/alfredjeanlab/propcord/internal/identity"
	"github.com/alfredjeanlab/propcord/internal/notion"
	"github.com/alfredjeanlab/propcord/internal/server"
	"github.com/alfredjeanlab/propcord/internal/store"
)

// newNotionClient returns nil when no API token is configured.
func newNotionClient(cfg *config.Config) *notion.Client {
	if cfg.NotionToken == "" {
		return nil
	}
	return notion.NewClient(cfg.NotionToken, notion.WithBaseURL(cfg.NotionBaseURL))
}

// pageFetcher converts a possibly nil client to the server's interface
// without producing a non-nil interface around a nil pointer.
func pageFetcher(nc *notion.Client) server.PageFetcher {
	if nc == nil {
		return nil
	}
	return nc
}

// buildResolver chains the configured identity sources: stored mappings
// first, then the member database. Either may be absent.
func buildResolver(cfg *config.Config, s store.Store, nc *notion.Client, logger *slog.Logger) identity.Resolver {
	var resolvers []identity.Resolver
	if s != nil {
		resolvers = append(resolvers, identity.NewStoreResolver(s, logger))
	}
	if nc != nil && cfg.MemberDatabaseID != "" {
		resolvers = append(resolvers, identity.NewNotionResolver(nc, cfg.MemberDatabaseID,
			identity.WithMemberProperty(cfg.MemberProperty),
			identity.WithHandleProperty(cfg.HandleProperty),
			identity.WithLogger(logger),
		))
	}
	return identity.Chain(resolvers...)
}
