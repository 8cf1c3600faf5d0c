package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// sseHistorySize is how many recent events are replayed to clients that
	// reconnect with Last-Event-ID.
	sseHistorySize = 256

	sseClientBuffer      = 32
	sseKeepaliveInterval = 20 * time.Second
)

type sseEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

// sseHub fans published events out to /v1/events/stream clients and keeps a
// bounded history for replay.
type sseHub struct {
	mu      sync.Mutex
	seq     uint64
	history []sseEvent // oldest first, at most sseHistorySize entries
	clients map[*sseClient]struct{}
}

type sseClient struct {
	patterns []string
	ch       chan sseEvent
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*sseClient]struct{})}
}

// broadcast assigns the next sequence number to an event, appends it to the
// history and hands it to matching clients. Slow clients miss events rather
// than stall the publisher.
func (h *sseHub) broadcast(topic string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	evt := sseEvent{ID: h.seq, Topic: topic, Data: payload}
	if len(h.history) == sseHistorySize {
		copy(h.history, h.history[1:])
		h.history = h.history[:sseHistorySize-1]
	}
	h.history = append(h.history, evt)

	for c := range h.clients {
		if !c.wants(topic) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
		}
	}
}

func (h *sseHub) subscribe(patterns []string) *sseClient {
	c := &sseClient{patterns: patterns, ch: make(chan sseEvent, sseClientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// since returns the retained events newer than lastID, oldest first.
func (h *sseHub) since(lastID uint64) []sseEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []sseEvent
	for _, evt := range h.history {
		if evt.ID > lastID {
			out = append(out, evt)
		}
	}
	return out
}

func (c *sseClient) wants(topic string) bool {
	if len(c.patterns) == 0 {
		return true
	}
	for _, p := range c.patterns {
		if matchTopicPattern(p, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern reports whether a dot-separated topic matches pattern,
// using NATS wildcard rules: "*" matches one segment, a trailing ">" matches
// one or more.
func matchTopicPattern(pattern, topic string) bool {
	pat := strings.Split(pattern, ".")
	top := strings.Split(topic, ".")
	for i, seg := range pat {
		if seg == ">" && i == len(pat)-1 {
			return len(top) > i
		}
		if i >= len(top) || (seg != "*" && seg != top[i]) {
			return false
		}
	}
	return len(pat) == len(top)
}

// parseTopics splits a comma-separated ?topics= value.
func parseTopics(q string) []string {
	var out []string
	for _, t := range strings.Split(q, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// handleEventStream handles GET /v1/events/stream.
func (s *RenderServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	client := s.sseHub.subscribe(parseTopics(r.URL.Query().Get("topics")))
	defer s.sseHub.unsubscribe(client)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	s.sseHub.stream(r.Context(), w, flusher, client, r.Header.Get("Last-Event-ID"))
}

// stream replays history newer than lastEventID, then forwards live events
// until ctx ends. The client is subscribed before the replay, so an event
// can be both replayed and queued; anything at or below the last written ID
// is skipped.
func (h *sseHub) stream(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, client *sseClient, lastEventID string) {
	var sent uint64
	if lastEventID != "" {
		if lastID, err := strconv.ParseUint(lastEventID, 10, 64); err == nil {
			for _, evt := range h.since(lastID) {
				if client.wants(evt.Topic) {
					writeSSEEvent(w, evt)
				}
				sent = evt.ID
			}
		}
	}
	flusher.Flush()

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-client.ch:
			if evt.ID <= sent {
				continue
			}
			sent = evt.ID
			writeSSEEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, evt sseEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}
