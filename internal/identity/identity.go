// Package identity maps document-database users to chat handles.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/notion"
	"github.com/alfredjeanlab/propcord/internal/store"
)

// Default property names on the member database.
const (
	DefaultMemberProperty = "ユーザー"
	DefaultHandleProperty = "Discord ID"
)

// Resolver looks up the chat handle for a document-database user id. An empty
// handle with a nil error means the user has no mapping. The method value
// r.Resolve satisfies render.ResolveFunc.
type Resolver interface {
	Resolve(ctx context.Context, notionUserID string) (string, error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(ctx context.Context, notionUserID string) (string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, notionUserID string) (string, error) {
	return f(ctx, notionUserID)
}

// DatabaseQuerier is the subset of the notion client used by NotionResolver.
type DatabaseQuerier interface {
	QueryDatabase(ctx context.Context, databaseID string, req *notion.QueryRequest) (*notion.QueryResponse, error)
}

// NotionResolver resolves handles from a member database in which each page
// has a people property naming the user and a rich text property holding the
// handle.
type NotionResolver struct {
	querier        DatabaseQuerier
	databaseID     string
	memberProperty string
	handleProperty string
	logger         *slog.Logger
}

// NotionOption configures a NotionResolver.
type NotionOption func(*NotionResolver)

// WithMemberProperty sets the people property used to filter the database.
func WithMemberProperty(name string) NotionOption {
	return func(r *NotionResolver) {
		if name != "" {
			r.memberProperty = name
		}
	}
}

// WithHandleProperty sets the rich text property holding the handle.
func WithHandleProperty(name string) NotionOption {
	return func(r *NotionResolver) {
		if name != "" {
			r.handleProperty = name
		}
	}
}

// WithLogger sets the logger used for data-quality warnings.
func WithLogger(logger *slog.Logger) NotionOption {
	return func(r *NotionResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewNotionResolver creates a resolver over the given member database.
func NewNotionResolver(querier DatabaseQuerier, databaseID string, opts ...NotionOption) *NotionResolver {
	r := &NotionResolver{
		querier:        querier,
		databaseID:     databaseID,
		memberProperty: DefaultMemberProperty,
		handleProperty: DefaultHandleProperty,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve queries the member database for the page whose member property
// contains notionUserID and returns its handle. Zero or ambiguous matches and
// malformed member data are logged and treated as no mapping; transport
// errors are returned.
func (r *NotionResolver) Resolve(ctx context.Context, notionUserID string) (string, error) {
	resp, err := r.querier.QueryDatabase(ctx, r.databaseID, &notion.QueryRequest{
		PageSize: 2,
		Filter: &notion.Filter{
			Property: r.memberProperty,
			People:   &notion.PeopleFilter{Contains: notionUserID},
		},
	})
	if err != nil {
		return "", fmt.Errorf("query member database: %w", err)
	}

	if n := len(resp.Results); n != 1 {
		r.logger.Warn("expected 1 member page", "notion_user_id", notionUserID, "got", n)
		return "", nil
	}

	page := resp.Results[0]
	if page == nil || page.Object != "page" || page.Properties == nil {
		return "", nil
	}

	prop, ok := page.Properties[r.handleProperty]
	if !ok {
		return "", nil
	}
	text, ok := prop.(model.RichText)
	if !ok {
		r.logger.Warn("handle property is not rich_text",
			"property", r.handleProperty, "type", prop.PropertyType().String())
		return "", nil
	}
	if len(text.Runs) == 0 || text.Runs[0].PlainText == "" {
		return "", nil
	}

	handle := text.Runs[0].PlainText
	if err := model.ValidateDiscordID(handle); err != nil {
		r.logger.Warn("invalid handle in member database",
			"notion_user_id", notionUserID, "reason", reasons(err))
		return "", nil
	}
	return handle, nil
}

// StoreResolver resolves handles from the mapping store.
type StoreResolver struct {
	store  store.Store
	logger *slog.Logger
}

// NewStoreResolver creates a resolver backed by s.
func NewStoreResolver(s store.Store, logger *slog.Logger) *StoreResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreResolver{store: s, logger: logger}
}

// Resolve returns the stored handle for notionUserID, or "" when none is stored.
func (r *StoreResolver) Resolve(ctx context.Context, notionUserID string) (string, error) {
	m, err := r.store.GetMapping(ctx, notionUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get mapping: %w", err)
	}
	if err := model.ValidateDiscordID(m.DiscordID); err != nil {
		r.logger.Warn("invalid stored handle",
			"notion_user_id", notionUserID, "reason", reasons(err))
		return "", nil
	}
	return m.DiscordID, nil
}

// chain tries each resolver in turn.
type chain []Resolver

// Chain returns a Resolver that returns the first non-empty handle produced by
// resolvers, in order. The first error stops the chain.
func Chain(resolvers ...Resolver) Resolver {
	var c chain
	for _, r := range resolvers {
		if r != nil {
			c = append(c, r)
		}
	}
	return c
}

func (c chain) Resolve(ctx context.Context, notionUserID string) (string, error) {
	for _, r := range c {
		handle, err := r.Resolve(ctx, notionUserID)
		if err != nil {
			return "", err
		}
		if handle != "" {
			return handle, nil
		}
	}
	return "", nil
}

func reasons(err error) string {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return strings.Join(ve.Messages(), ", ")
	}
	return err.Error()
}
