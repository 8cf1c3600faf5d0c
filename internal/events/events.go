// Package events carries render and mapping notifications over the event bus.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/propcord/internal/model"
)

// Event topic constants
const (
	TopicPageRendered   = "propcord.page.rendered"
	TopicMappingSet     = "propcord.mapping.set"
	TopicMappingDeleted = "propcord.mapping.deleted"

	// TopicAll matches every propcord topic.
	TopicAll = "propcord.>"
)

// PageRendered is emitted after a page render is recorded.
type PageRendered struct {
	Record *model.RenderRecord `json:"record"`
}

// MappingSet is emitted when a mapping is created or replaced.
type MappingSet struct {
	Mapping *model.Mapping `json:"mapping"`
}

// MappingDeleted is emitted when a mapping is removed.
type MappingDeleted struct {
	NotionUserID string `json:"notion_user_id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Decode unmarshals a payload received on topic into its event type.
func Decode(topic string, data []byte) (any, error) {
	var ev any
	switch topic {
	case TopicPageRendered:
		ev = &PageRendered{}
	case TopicMappingSet:
		ev = &MappingSet{}
	case TopicMappingDeleted:
		ev = &MappingDeleted{}
	default:
		return nil, fmt.Errorf("unknown topic %q", topic)
	}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("decoding %s event: %w", topic, err)
	}
	return ev, nil
}
