package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// ActorHeader names the caller recorded on page renders.
const ActorHeader = "X-Propcord-Actor"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *RenderServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/render", s.handleRenderProperty)
	mux.HandleFunc("GET /v1/pages/{id}/render", s.handleRenderPage)
	mux.HandleFunc("GET /v1/pages/{id}/renders", s.handleListRenders)
	mux.HandleFunc("PUT /v1/mappings/{notion_user_id}", s.handleSetMapping)
	mux.HandleFunc("GET /v1/mappings/{notion_user_id}", s.handleGetMapping)
	mux.HandleFunc("DELETE /v1/mappings/{notion_user_id}", s.handleDeleteMapping)
	mux.HandleFunc("GET /v1/mappings", s.handleListMappings)
	mux.HandleFunc("GET /v1/resolve/{notion_user_id}", s.handleResolve)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/activity", s.handleActivity)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return RequestLogger(s.logger, AuthMiddleware(authToken, mux))
}

// handleHealth handles GET /v1/health.
func (s *RenderServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleActivity handles GET /v1/activity. The optional "within" query
// parameter is a Go duration limiting how far back actors are listed.
func (s *RenderServer) handleActivity(w http.ResponseWriter, r *http.Request) {
	var within time.Duration
	if v := r.URL.Query().Get("within"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "invalid within duration: "+v)
			return
		}
		within = d
	}
	writeJSON(w, http.StatusOK, map[string]any{"actors": s.presence.Roster(within)})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps err to a status code and writes it. Server-side
// failures are logged.
func (s *RenderServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeError(w, status, err.Error())
}
