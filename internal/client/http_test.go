package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	// captured from the request
	method      string
	path        string
	rawPath     string
	query       string
	body        string
	contentType string
	auth        string
	actor       string

	// canned response
	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.rawPath = r.URL.RawPath
	h.query = r.URL.RawQuery
	h.contentType = r.Header.Get("Content-Type")
	h.auth = r.Header.Get("Authorization")
	h.actor = r.Header.Get(actorHeader)
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with the given handler.
func newTestClient(t *testing.T, h http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", "secret")
}

func TestHTTPClient_RenderProperty(t *testing.T) {
	h := &testHandler{responseBody: `{"type":"checkbox","text":"✅"}`}
	c := newTestClient(t, h)

	text, err := c.RenderProperty(context.Background(), json.RawMessage(`{"type":"checkbox","checkbox":true}`))
	if err != nil {
		t.Fatalf("RenderProperty() error = %v", err)
	}
	if text != "✅" {
		t.Errorf("text = %q", text)
	}
	if h.method != http.MethodPost || h.path != "/v1/render" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.body != `{"type":"checkbox","checkbox":true}` {
		t.Errorf("body = %s, want the property passed through unchanged", h.body)
	}
	if h.contentType != "application/json" {
		t.Errorf("content-type = %q", h.contentType)
	}
	if h.auth != "Bearer secret" {
		t.Errorf("authorization = %q", h.auth)
	}
}

func TestHTTPClient_RenderPage(t *testing.T) {
	h := &testHandler{responseBody: `{
		"id": "rn-abc",
		"page_id": "page/1",
		"actor": "ci",
		"fields": [{"name": "Done", "type": "checkbox", "text": "✅"}],
		"created_at": "2026-01-15T10:00:00Z",
		"text": "**Done**: ✅"
	}`}
	c := newTestClient(t, h)
	c.Actor = "ci"

	page, err := c.RenderPage(context.Background(), "page/1")
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	if h.rawPath != "/v1/pages/page%2F1/render" {
		t.Errorf("raw path = %q, want escaped page id", h.rawPath)
	}
	if h.actor != "ci" {
		t.Errorf("actor header = %q", h.actor)
	}
	if page.ID != "rn-abc" || page.Text != "**Done**: ✅" || len(page.Fields) != 1 || page.Fields[0].Type != "checkbox" {
		t.Errorf("page = %+v", page)
	}
}

func TestHTTPClient_ListRenders(t *testing.T) {
	h := &testHandler{responseBody: `{"renders":[{"id":"rn-1","page_id":"p1","fields":[],"created_at":"2026-01-15T10:00:00Z"}]}`}
	c := newTestClient(t, h)

	recs, err := c.ListRenders(context.Background(), "p1", 5)
	if err != nil {
		t.Fatalf("ListRenders() error = %v", err)
	}
	if h.path != "/v1/pages/p1/renders" || h.query != "limit=5" {
		t.Errorf("request = %s?%s", h.path, h.query)
	}
	if len(recs) != 1 || recs[0].ID != "rn-1" {
		t.Errorf("records = %+v", recs)
	}
	if want := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC); !recs[0].CreatedAt.Equal(want) {
		t.Errorf("created_at = %v", recs[0].CreatedAt)
	}

	if _, err := c.ListRenders(context.Background(), "p1", 0); err != nil {
		t.Fatalf("ListRenders() error = %v", err)
	}
	if h.query != "" {
		t.Errorf("zero limit should send no query, got %q", h.query)
	}
}

func TestHTTPClient_Mappings(t *testing.T) {
	h := &testHandler{responseBody: `{"notion_user_id":"u1","discord_id":"123456789012345678","display_name":"Alice","created_at":"2026-01-15T10:00:00Z","updated_at":"2026-01-15T10:00:00Z"}`}
	c := newTestClient(t, h)
	ctx := context.Background()

	m, err := c.SetMapping(ctx, "u1", &SetMappingRequest{DiscordID: "123456789012345678", DisplayName: "Alice"})
	if err != nil {
		t.Fatalf("SetMapping() error = %v", err)
	}
	if h.method != http.MethodPut || h.path != "/v1/mappings/u1" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(h.body), &body); err != nil {
		t.Fatalf("unmarshaling request body: %v", err)
	}
	if body["discord_id"] != "123456789012345678" || body["display_name"] != "Alice" {
		t.Errorf("body = %v", body)
	}
	if m.DiscordID != "123456789012345678" {
		t.Errorf("mapping = %+v", m)
	}

	if _, err := c.GetMapping(ctx, "u1"); err != nil {
		t.Fatalf("GetMapping() error = %v", err)
	}
	if h.method != http.MethodGet || h.path != "/v1/mappings/u1" {
		t.Errorf("request = %s %s", h.method, h.path)
	}

	h.responseBody = `{"mappings":[{"notion_user_id":"u1","discord_id":"123456789012345678"},{"notion_user_id":"u2","discord_id":"223456789012345678"}]}`
	list, err := c.ListMappings(ctx)
	if err != nil {
		t.Fatalf("ListMappings() error = %v", err)
	}
	if len(list) != 2 || list[1].NotionUserID != "u2" {
		t.Errorf("list = %+v", list)
	}

	h.statusCode, h.responseBody = http.StatusNoContent, ""
	if err := c.DeleteMapping(ctx, "u1"); err != nil {
		t.Fatalf("DeleteMapping() error = %v", err)
	}
	if h.method != http.MethodDelete {
		t.Errorf("method = %s", h.method)
	}
}

func TestHTTPClient_Resolve(t *testing.T) {
	h := &testHandler{responseBody: `{"notion_user_id":"u1","handle":"123456789012345678","mention":"<@123456789012345678>"}`}
	c := newTestClient(t, h)

	resp, err := c.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if h.path != "/v1/resolve/u1" || resp.Mention != "<@123456789012345678>" {
		t.Errorf("path=%s resp=%+v", h.path, resp)
	}
}

func TestHTTPClient_Activity(t *testing.T) {
	h := &testHandler{responseBody: `{"actors":[{"actor":"ci-bot","last_page_id":"page-1","render_count":3}]}`}
	c := newTestClient(t, h)

	actors, err := c.Activity(context.Background(), 90*time.Minute)
	if err != nil {
		t.Fatalf("Activity() error = %v", err)
	}
	if h.path != "/v1/activity" || h.query != "within=1h30m0s" {
		t.Errorf("request = %s?%s", h.path, h.query)
	}
	if len(actors) != 1 || actors[0].Actor != "ci-bot" || actors[0].RenderCount != 3 {
		t.Errorf("actors = %+v", actors)
	}
}

func TestHTTPClient_Health(t *testing.T) {
	h := &testHandler{responseBody: `{"status":"ok"}`}
	c := newTestClient(t, h)

	status, err := c.Health(context.Background())
	if err != nil || status != "ok" {
		t.Fatalf("Health() = %q, %v", status, err)
	}
}

func TestHTTPClient_Errors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"JSONError", http.StatusNotFound, `{"error":"mapping not found"}`, "mapping not found"},
		{"PlainError", http.StatusBadGateway, "upstream down\n", "upstream down"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, &testHandler{statusCode: tc.status, responseBody: tc.body})
			_, err := c.GetMapping(context.Background(), "u1")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tc.status || apiErr.Message != tc.wantMsg {
				t.Errorf("APIError = %+v", apiErr)
			}
		})
	}
}

func TestHTTPClient_BadResponse(t *testing.T) {
	c := newTestClient(t, &testHandler{responseBody: `not json`})
	if _, err := c.Health(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}
