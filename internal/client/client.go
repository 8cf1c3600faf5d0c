// Package client provides a transport-agnostic interface for the propcord
// service, with HTTP/JSON and gRPC implementations.
package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/presence"
	"github.com/alfredjeanlab/propcord/internal/render"
)

// RenderClient is what the CLI uses to render through a propcord server. Both
// HTTPClient and GRPCClient implement it.
type RenderClient interface {
	RenderProperty(ctx context.Context, property json.RawMessage) (string, error)
	RenderPage(ctx context.Context, pageID string) (*RenderedPage, error)
	Health(ctx context.Context) (string, error)
	Close() error
}

// MappingClient manages identity mappings and the render log. Only the HTTP
// transport exposes these routes.
type MappingClient interface {
	SetMapping(ctx context.Context, notionUserID string, req *SetMappingRequest) (*model.Mapping, error)
	GetMapping(ctx context.Context, notionUserID string) (*model.Mapping, error)
	ListMappings(ctx context.Context) ([]*model.Mapping, error)
	DeleteMapping(ctx context.Context, notionUserID string) error
	Resolve(ctx context.Context, notionUserID string) (*ResolveResponse, error)
	ListRenders(ctx context.Context, pageID string, limit int) ([]*model.RenderRecord, error)
	Activity(ctx context.Context, within time.Duration) ([]presence.Entry, error)
}

// RenderedPage is a page rendered by the server. ID and Actor are empty when
// the transport does not report them.
type RenderedPage struct {
	ID     string        `json:"id,omitempty"`
	PageID string        `json:"page_id"`
	Actor  string        `json:"actor,omitempty"`
	Fields []model.Field `json:"fields"`
	Text   string        `json:"text"`
}

// SetMappingRequest is the body of PUT /v1/mappings/{notion_user_id}.
type SetMappingRequest struct {
	DiscordID   string `json:"discord_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// ResolveResponse reports the chat handle mapped to a user, if any.
type ResolveResponse struct {
	NotionUserID string `json:"notion_user_id"`
	Handle       string `json:"handle"`
	Mention      string `json:"mention,omitempty"`
}

// Event is one server-sent event from /v1/events/stream.
type Event struct {
	ID    string
	Topic string
	Data  json.RawMessage
}

// fieldsText lays fields out the way the server does for its text member.
func fieldsText(fields []model.Field) string {
	return render.FormatFields(fields)
}
