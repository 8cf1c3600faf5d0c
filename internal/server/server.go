package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alfredjeanlab/propcord/internal/events"
	"github.com/alfredjeanlab/propcord/internal/identity"
	"github.com/alfredjeanlab/propcord/internal/idgen"
	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/notion"
	"github.com/alfredjeanlab/propcord/internal/presence"
	"github.com/alfredjeanlab/propcord/internal/render"
	"github.com/alfredjeanlab/propcord/internal/store"
	"google.golang.org/grpc/codes"
)

// PageFetcher retrieves a page with its typed properties.
type PageFetcher interface {
	RetrievePage(ctx context.Context, pageID string) (*model.Page, error)
}

// errPagesUnavailable is returned by page routes when no PageFetcher is configured.
var errPagesUnavailable = errors.New("page fetching is not configured")

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// upstreamError wraps a failure of an external dependency (identity lookup
// or page fetch). Transport layers map it to 502 / Unavailable.
type upstreamError struct {
	op  string
	err error
}

func (e *upstreamError) Error() string { return e.op + ": " + e.err.Error() }
func (e *upstreamError) Unwrap() error { return e.err }

// RenderServer renders properties and pages and manages identity mappings.
// Both the HTTP and gRPC transports delegate to it.
type RenderServer struct {
	store     store.Store
	publisher events.Publisher
	pages     PageFetcher
	resolver  identity.Resolver
	logger    *slog.Logger
	sseHub    *sseHub
	presence  *presence.Tracker
}

// NewRenderServer returns a RenderServer. pages and resolver may be nil: page
// routes then report 503 and rendering runs without mentions.
func NewRenderServer(s store.Store, p events.Publisher, pages PageFetcher, resolver identity.Resolver, logger *slog.Logger) *RenderServer {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RenderServer{
		store:     s,
		publisher: p,
		pages:     pages,
		resolver:  resolver,
		logger:    logger,
		sseHub:    newSSEHub(),
		presence:  presence.New(),
	}
}

// Presence returns the tracker of actors rendering through this server.
func (s *RenderServer) Presence() *presence.Tracker { return s.presence }

// resolve adapts the configured resolver to render.ResolveFunc, tagging its
// failures as upstream errors.
func (s *RenderServer) resolve(ctx context.Context, notionUserID string) (string, error) {
	if s.resolver == nil {
		return "", nil
	}
	handle, err := s.resolver.Resolve(ctx, notionUserID)
	if err != nil {
		return "", &upstreamError{op: "resolve " + notionUserID, err: err}
	}
	return handle, nil
}

// publish emits an event on the bus and to SSE clients. Failures are logged
// and never reach the caller.
func (s *RenderServer) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
	s.broadcastEvent(topic, event)
}

// RenderProperty decodes one property object and renders it.
func (s *RenderServer) RenderProperty(ctx context.Context, raw []byte) (model.Property, string, error) {
	p, err := model.DecodeProperty(raw)
	if err != nil {
		return nil, "", inputError(fmt.Sprintf("invalid property: %v", err))
	}
	text, err := render.Render(ctx, s.resolve, p)
	if err != nil {
		return nil, "", err
	}
	return p, text, nil
}

// RenderPage fetches a page, renders every property, and records the result.
// Recording and publishing are best-effort.
func (s *RenderServer) RenderPage(ctx context.Context, pageID, actor string) (*model.RenderRecord, error) {
	if pageID == "" {
		return nil, inputError("page id is required")
	}
	if s.pages == nil {
		return nil, errPagesUnavailable
	}
	page, err := s.pages.RetrievePage(ctx, pageID)
	if err != nil {
		return nil, &upstreamError{op: "retrieve page " + pageID, err: err}
	}

	fields, err := render.RenderPage(ctx, s.resolve, page)
	if err != nil {
		return nil, err
	}

	id, err := idgen.NewRenderID()
	if err != nil {
		return nil, err
	}
	rec := &model.RenderRecord{
		ID:        id,
		PageID:    pageID,
		Actor:     actor,
		Fields:    fields,
		CreatedAt: time.Now().UTC(),
	}
	s.presence.RecordRender(actor, pageID)
	if err := s.store.RecordRender(ctx, rec); err != nil {
		s.logger.Warn("failed to record render", "page_id", pageID, "err", err)
	}
	s.publish(ctx, events.TopicPageRendered, events.PageRendered{Record: rec})
	return rec, nil
}

// SetMapping validates and stores a mapping, then announces it.
func (s *RenderServer) SetMapping(ctx context.Context, m *model.Mapping) error {
	if err := model.ValidateMapping(m); err != nil {
		return err
	}
	if err := s.store.SetMapping(ctx, m); err != nil {
		return err
	}
	s.publish(ctx, events.TopicMappingSet, events.MappingSet{Mapping: m})
	return nil
}

// DeleteMapping removes a mapping, then announces it.
func (s *RenderServer) DeleteMapping(ctx context.Context, notionUserID string) error {
	if err := s.store.DeleteMapping(ctx, notionUserID); err != nil {
		return err
	}
	s.publish(ctx, events.TopicMappingDeleted, events.MappingDeleted{NotionUserID: notionUserID})
	return nil
}

// Resolve looks up the handle for a user through the configured resolver.
func (s *RenderServer) Resolve(ctx context.Context, notionUserID string) (string, error) {
	return s.resolve(ctx, notionUserID)
}

// classify maps an error to its HTTP status and gRPC code.
func classify(err error) (int, codes.Code) {
	var (
		ie  inputError
		ve  *model.ValidationError
		api *notion.APIError
		ue  *upstreamError
	)
	switch {
	case errors.As(err, &ie), errors.As(err, &ve):
		return http.StatusBadRequest, codes.InvalidArgument
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, codes.NotFound
	case errors.As(err, &api) && api.StatusCode == http.StatusNotFound:
		return http.StatusNotFound, codes.NotFound
	case errors.As(err, &ue):
		return http.StatusBadGateway, codes.Unavailable
	case errors.Is(err, errPagesUnavailable):
		return http.StatusServiceUnavailable, codes.Unimplemented
	case errors.Is(err, context.Canceled):
		return 499, codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codes.DeadlineExceeded
	}
	return http.StatusInternalServerError, codes.Internal
}

// broadcastEvent fans an event out to connected SSE clients.
func (s *RenderServer) broadcastEvent(topic string, event any) {
	if s.sseHub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event for SSE broadcast", "topic", topic, "err", err)
		return
	}
	s.sseHub.broadcast(topic, payload)
}
