package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/presence"
)

// actorHeader mirrors the server's audit header.
const actorHeader = "X-Propcord-Actor"

// HTTPClient implements RenderClient and MappingClient over the HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client

	// Actor, when set, is recorded on page renders.
	Actor string
}

var (
	_ RenderClient  = (*HTTPClient)(nil)
	_ MappingClient = (*HTTPClient)(nil)
)

// NewHTTPClient creates a client targeting baseURL (e.g.
// "http://localhost:8080"). When token is non-empty an Authorization header
// is sent on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Rendering ---

func (c *HTTPClient) RenderProperty(ctx context.Context, property json.RawMessage) (string, error) {
	var resp struct {
		Text string `json:"text"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/render", property, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (c *HTTPClient) RenderPage(ctx context.Context, pageID string) (*RenderedPage, error) {
	var page RenderedPage
	if err := c.doJSON(ctx, http.MethodGet, "/v1/pages/"+url.PathEscape(pageID)+"/render", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *HTTPClient) ListRenders(ctx context.Context, pageID string, limit int) ([]*model.RenderRecord, error) {
	path := "/v1/pages/" + url.PathEscape(pageID) + "/renders"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Renders []*model.RenderRecord `json:"renders"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Renders, nil
}

// --- Mappings ---

func (c *HTTPClient) SetMapping(ctx context.Context, notionUserID string, req *SetMappingRequest) (*model.Mapping, error) {
	var m model.Mapping
	if err := c.doJSON(ctx, http.MethodPut, "/v1/mappings/"+url.PathEscape(notionUserID), req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *HTTPClient) GetMapping(ctx context.Context, notionUserID string) (*model.Mapping, error) {
	var m model.Mapping
	if err := c.doJSON(ctx, http.MethodGet, "/v1/mappings/"+url.PathEscape(notionUserID), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *HTTPClient) ListMappings(ctx context.Context) ([]*model.Mapping, error) {
	var resp struct {
		Mappings []*model.Mapping `json:"mappings"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/mappings", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Mappings, nil
}

func (c *HTTPClient) DeleteMapping(ctx context.Context, notionUserID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/mappings/"+url.PathEscape(notionUserID), nil, nil)
}

func (c *HTTPClient) Resolve(ctx context.Context, notionUserID string) (*ResolveResponse, error) {
	var resp ResolveResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/resolve/"+url.PathEscape(notionUserID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Activity lists actors that rendered pages within the given window; zero
// lists every tracked actor.
func (c *HTTPClient) Activity(ctx context.Context, within time.Duration) ([]presence.Entry, error) {
	path := "/v1/activity"
	if within > 0 {
		path += "?within=" + url.QueryEscape(within.String())
	}
	var resp struct {
		Actors []presence.Entry `json:"actors"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Actors, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- Events ---

// StreamEvents subscribes to the server's event stream. topics are NATS-style
// patterns; none means all topics. When lastEventID is set the server first
// replays what it still holds after that id. The channel closes when ctx is
// done or the server ends the stream.
func (c *HTTPClient) StreamEvents(ctx context.Context, topics []string, lastEventID string) (<-chan Event, error) {
	path := "/v1/events/stream"
	if len(topics) > 0 {
		path += "?topics=" + url.QueryEscape(strings.Join(topics, ","))
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, apiError(resp.StatusCode, body)
	}

	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		readEvents(ctx, resp.Body, ch)
	}()
	return ch, nil
}

// readEvents parses an SSE stream into ch. Comment lines are skipped; an
// event is emitted at each blank line that follows event or data fields.
func readEvents(ctx context.Context, r io.Reader, ch chan<- Event) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var cur Event
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if cur.Topic != "" || len(data) > 0 {
				cur.Data = json.RawMessage(strings.Join(data, "\n"))
				select {
				case ch <- cur:
				case <-ctx.Done():
					return
				}
			}
			cur, data = Event{}, nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			cur.ID = value
		case "event":
			cur.Topic = value
		case "data":
			data = append(data, value)
		}
	}
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func apiError(status int, body []byte) *APIError {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &APIError{StatusCode: status, Message: errResp.Error}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.Actor != "" {
		req.Header.Set(actorHeader, c.Actor)
	}
	return req, nil
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
// A json.RawMessage body is sent as-is.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, ok := body.(json.RawMessage)
		if !ok {
			var err error
			if data, err = json.Marshal(body); err != nil {
				return fmt.Errorf("marshaling request body: %w", err)
			}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
