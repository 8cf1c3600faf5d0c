package identity

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/notion"
	"github.com/alfredjeanlab/propcord/internal/store"
)

// fakeQuerier returns a canned response decoded from JSON.
type fakeQuerier struct {
	body string
	err  error
	got  *notion.QueryRequest
	db   string
}

func (f *fakeQuerier) QueryDatabase(_ context.Context, databaseID string, req *notion.QueryRequest) (*notion.QueryResponse, error) {
	f.db = databaseID
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	var resp notion.QueryResponse
	if err := json.Unmarshal([]byte(f.body), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func newLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func memberPage(handleProp string) string {
	return `{"object":"page","id":"m1","properties":{"Discord ID":` + handleProp + `}}`
}

func TestNotionResolver(t *testing.T) {
	for _, tc := range []struct {
		name     string
		body     string
		want     string
		wantWarn string
	}{
		{
			name: "Found",
			body: `{"results":[` + memberPage(`{"type":"rich_text","rich_text":[{"plain_text":"123456789012345678"}]}`) + `]}`,
			want: "123456789012345678",
		},
		{
			name:     "NoResults",
			body:     `{"results":[]}`,
			wantWarn: "expected 1 member page",
		},
		{
			name: "TwoResultsIsNoMapping",
			body: `{"results":[` +
				memberPage(`{"type":"rich_text","rich_text":[{"plain_text":"123456789012345678"}]}`) + `,` +
				memberPage(`{"type":"rich_text","rich_text":[{"plain_text":"223456789012345678"}]}`) + `]}`,
			wantWarn: "expected 1 member page",
		},
		{
			name: "NotAPage",
			body: `{"results":[{"object":"database","id":"d1","properties":{}}]}`,
		},
		{
			name: "MissingHandleProperty",
			body: `{"results":[{"object":"page","id":"m1","properties":{}}]}`,
		},
		{
			name:     "HandleNotRichText",
			body:     `{"results":[` + memberPage(`{"type":"number","number":123456789012345678}`) + `]}`,
			wantWarn: "handle property is not rich_text",
		},
		{
			name: "EmptyRichText",
			body: `{"results":[` + memberPage(`{"type":"rich_text","rich_text":[]}`) + `]}`,
		},
		{
			name:     "InvalidHandle",
			body:     `{"results":[` + memberPage(`{"type":"rich_text","rich_text":[{"plain_text":"alice#1234"}]}`) + `]}`,
			wantWarn: "must contain only digits",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			logger, buf := newLogger()
			q := &fakeQuerier{body: tc.body}
			r := NewNotionResolver(q, "members", WithLogger(logger))

			got, err := r.Resolve(context.Background(), "u1")
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tc.want {
				t.Errorf("Resolve = %q, want %q", got, tc.want)
			}
			if tc.wantWarn == "" && buf.Len() > 0 {
				t.Errorf("unexpected log output: %s", buf.String())
			}
			if tc.wantWarn != "" && !strings.Contains(buf.String(), tc.wantWarn) {
				t.Errorf("log output %q does not contain %q", buf.String(), tc.wantWarn)
			}
		})
	}
}

func TestNotionResolver_Query(t *testing.T) {
	q := &fakeQuerier{body: `{"results":[]}`}
	logger, _ := newLogger()
	r := NewNotionResolver(q, "members", WithLogger(logger), WithMemberProperty("Member"), WithHandleProperty("Handle"))
	if _, err := r.Resolve(context.Background(), "u1"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if q.db != "members" {
		t.Errorf("database = %q", q.db)
	}
	if q.got.PageSize != 2 || q.got.Filter.Property != "Member" || q.got.Filter.People.Contains != "u1" {
		t.Errorf("unexpected query %+v", q.got)
	}
}

func TestNotionResolver_DefaultProperties(t *testing.T) {
	q := &fakeQuerier{body: `{"results":[]}`}
	logger, _ := newLogger()
	r := NewNotionResolver(q, "members", WithLogger(logger), WithMemberProperty(""))
	if _, err := r.Resolve(context.Background(), "u1"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if q.got.Filter.Property != DefaultMemberProperty {
		t.Errorf("member property = %q, want %q", q.got.Filter.Property, DefaultMemberProperty)
	}
}

func TestNotionResolver_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	r := NewNotionResolver(&fakeQuerier{err: boom}, "members")
	if _, err := r.Resolve(context.Background(), "u1"); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}

// mockStore implements store.Store with only GetMapping wired.
type mockStore struct {
	store.Store
	mappings map[string]*model.Mapping
	err      error
}

func (m *mockStore) GetMapping(_ context.Context, id string) (*model.Mapping, error) {
	if m.err != nil {
		return nil, m.err
	}
	mp, ok := m.mappings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return mp, nil
}

func TestStoreResolver(t *testing.T) {
	s := &mockStore{mappings: map[string]*model.Mapping{
		"u1":  {NotionUserID: "u1", DiscordID: "123456789012345678"},
		"bad": {NotionUserID: "bad", DiscordID: "12"},
	}}
	logger, buf := newLogger()
	r := NewStoreResolver(s, logger)

	for _, tc := range []struct {
		id   string
		want string
	}{
		{"u1", "123456789012345678"},
		{"missing", ""},
		{"bad", ""},
	} {
		got, err := r.Resolve(context.Background(), tc.id)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tc.id, err)
		}
		if got != tc.want {
			t.Errorf("Resolve(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}
	if !strings.Contains(buf.String(), "invalid stored handle") {
		t.Errorf("expected warning for invalid stored handle, got %q", buf.String())
	}
}

func TestStoreResolver_Error(t *testing.T) {
	boom := errors.New("db down")
	r := NewStoreResolver(&mockStore{err: boom}, nil)
	if _, err := r.Resolve(context.Background(), "u1"); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}

func TestChain(t *testing.T) {
	var calls []string
	named := func(name, handle string, err error) Resolver {
		return ResolverFunc(func(context.Context, string) (string, error) {
			calls = append(calls, name)
			return handle, err
		})
	}
	boom := errors.New("boom")

	for _, tc := range []struct {
		name      string
		resolvers []Resolver
		want      string
		wantErr   error
		wantCalls []string
	}{
		{"FirstWins", []Resolver{named("a", "1", nil), named("b", "2", nil)}, "1", nil, []string{"a"}},
		{"FallsThrough", []Resolver{named("a", "", nil), named("b", "2", nil)}, "2", nil, []string{"a", "b"}},
		{"AllMiss", []Resolver{named("a", "", nil), named("b", "", nil)}, "", nil, []string{"a", "b"}},
		{"ErrorStops", []Resolver{named("a", "", boom), named("b", "2", nil)}, "", boom, []string{"a"}},
		{"SkipsNil", []Resolver{nil, named("b", "2", nil)}, "2", nil, []string{"b"}},
		{"Empty", nil, "", nil, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			calls = nil
			got, err := Chain(tc.resolvers...).Resolve(context.Background(), "u1")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("Resolve = %q, want %q", got, tc.want)
			}
			if strings.Join(calls, ",") != strings.Join(tc.wantCalls, ",") {
				t.Errorf("calls = %v, want %v", calls, tc.wantCalls)
			}
		})
	}
}

func TestChain_AmbiguousMemberFallsThrough(t *testing.T) {
	logger, buf := newLogger()
	ambiguous := &fakeQuerier{body: `{"results":[` +
		memberPage(`{"type":"rich_text","rich_text":[{"plain_text":"123456789012345678"}]}`) + `,` +
		memberPage(`{"type":"rich_text","rich_text":[{"plain_text":"223456789012345678"}]}`) + `]}`}
	fallback := ResolverFunc(func(context.Context, string) (string, error) {
		return "323456789012345678", nil
	})

	got, err := Chain(NewNotionResolver(ambiguous, "members", WithLogger(logger)), fallback).Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "323456789012345678" {
		t.Errorf("Resolve = %q, want fallback handle", got)
	}
	if !strings.Contains(buf.String(), "expected 1 member page") {
		t.Errorf("expected ambiguity warning, got %q", buf.String())
	}
}
