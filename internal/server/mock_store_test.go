package server

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/store"
)

// mockStore is an in-memory store.Store for handler tests.
type mockStore struct {
	mu       sync.Mutex
	mappings map[string]*model.Mapping
	renders  []*model.RenderRecord

	// recordErr, when non-nil, is returned by RecordRender.
	recordErr error
	// listErr, when non-nil, is returned by the List methods.
	listErr error
}

var _ store.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{mappings: make(map[string]*model.Mapping)}
}

func (m *mockStore) SetMapping(_ context.Context, mp *model.Mapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if prev, ok := m.mappings[mp.NotionUserID]; ok {
		mp.CreatedAt = prev.CreatedAt
	} else {
		mp.CreatedAt = now
	}
	mp.UpdatedAt = now
	clone := *mp
	m.mappings[mp.NotionUserID] = &clone
	return nil
}

func (m *mockStore) GetMapping(_ context.Context, id string) (*model.Mapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mp, ok := m.mappings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *mp
	return &clone, nil
}

func (m *mockStore) ListMappings(context.Context) ([]*model.Mapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Mapping
	for _, mp := range m.mappings {
		clone := *mp
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NotionUserID < out[j].NotionUserID })
	return out, nil
}

func (m *mockStore) DeleteMapping(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.mappings[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.mappings, id)
	return nil
}

func (m *mockStore) RecordRender(_ context.Context, r *model.RenderRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.renders = append(m.renders, r)
	return nil
}

func (m *mockStore) ListRenders(_ context.Context, pageID string, limit int) ([]*model.RenderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*model.RenderRecord
	for i := len(m.renders) - 1; i >= 0 && len(out) < limit; i-- {
		if m.renders[i].PageID == pageID {
			out = append(out, m.renders[i])
		}
	}
	return out, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

// fakePages serves canned pages by id.
type fakePages struct {
	pages map[string]*model.Page
	err   error
}

func (f *fakePages) RetrievePage(_ context.Context, id string) (*model.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.pages[id]
	if !ok {
		return nil, errors.New("no such page")
	}
	return p, nil
}

// recordingPublisher captures published topics.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}
