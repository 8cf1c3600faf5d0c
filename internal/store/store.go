package store

import (
	"context"

	"github.com/alfredjeanlab/propcord/internal/model"
)

// Store defines the persistence interface for identity mappings and the
// render audit log. Lookups of missing rows return sql.ErrNoRows.
type Store interface {
	// Mappings
	SetMapping(ctx context.Context, m *model.Mapping) error
	GetMapping(ctx context.Context, notionUserID string) (*model.Mapping, error)
	ListMappings(ctx context.Context) ([]*model.Mapping, error)
	DeleteMapping(ctx context.Context, notionUserID string) error

	// Render records
	RecordRender(ctx context.Context, r *model.RenderRecord) error
	ListRenders(ctx context.Context, pageID string, limit int) ([]*model.RenderRecord, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
