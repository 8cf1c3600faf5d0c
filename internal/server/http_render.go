package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/render"
)

// renderPropertyResponse is the JSON body returned by POST /v1/render.
type renderPropertyResponse struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// renderPageResponse is the JSON body returned by GET /v1/pages/{id}/render.
type renderPageResponse struct {
	*model.RenderRecord
	Text string `json:"text"`
}

// handleRenderProperty handles POST /v1/render. The body is one property object.
func (s *RenderServer) handleRenderProperty(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	p, text, err := s.RenderProperty(r.Context(), body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, renderPropertyResponse{Type: p.PropertyType().String(), Text: text})
}

// handleRenderPage handles GET /v1/pages/{id}/render.
func (s *RenderServer) handleRenderPage(w http.ResponseWriter, r *http.Request) {
	rec, err := s.RenderPage(r.Context(), r.PathValue("id"), r.Header.Get(ActorHeader))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, renderPageResponse{RenderRecord: rec, Text: render.FormatFields(rec.Fields)})
}

// handleListRenders handles GET /v1/pages/{id}/renders?limit=N.
func (s *RenderServer) handleListRenders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := s.store.ListRenders(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list renders")
		return
	}
	if records == nil {
		records = []*model.RenderRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"renders": records})
}
