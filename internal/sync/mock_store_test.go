package sync

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/store"
)

// mockStore is a minimal in-memory store for sync tests.
type mockStore struct {
	mappings map[string]*model.Mapping
	listErr  error
}

var _ store.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{mappings: make(map[string]*model.Mapping)}
}

func (m *mockStore) SetMapping(_ context.Context, mp *model.Mapping) error {
	if err := model.ValidateMapping(mp); err != nil {
		return err
	}
	cp := *mp
	m.mappings[mp.NotionUserID] = &cp
	return nil
}

func (m *mockStore) GetMapping(_ context.Context, id string) (*model.Mapping, error) {
	mp, ok := m.mappings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return mp, nil
}

// ListMappings returns mappings in reverse id order so callers that rely on
// sorting have to do it themselves.
func (m *mockStore) ListMappings(context.Context) ([]*model.Mapping, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*model.Mapping, 0, len(m.mappings))
	for _, mp := range m.mappings {
		out = append(out, mp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NotionUserID > out[j].NotionUserID })
	return out, nil
}

func (m *mockStore) DeleteMapping(_ context.Context, id string) error {
	if _, ok := m.mappings[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.mappings, id)
	return nil
}

func (m *mockStore) RecordRender(context.Context, *model.RenderRecord) error {
	return errors.New("not implemented")
}

func (m *mockStore) ListRenders(context.Context, string, int) ([]*model.RenderRecord, error) {
	return nil, errors.New("not implemented")
}

// RunInTransaction stages writes on a copy and applies them only on success.
func (m *mockStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	staged := newMockStore()
	for k, v := range m.mappings {
		staged.mappings[k] = v
	}
	if err := fn(staged); err != nil {
		return err
	}
	m.mappings = staged.mappings
	return nil
}

func (m *mockStore) Close() error { return nil }
