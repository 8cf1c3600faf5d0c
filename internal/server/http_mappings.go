package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/render"
)

// setMappingRequest is the JSON body for PUT /v1/mappings/{notion_user_id}.
type setMappingRequest struct {
	DiscordID   string `json:"discord_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// resolveResponse is the JSON body returned by GET /v1/resolve/{notion_user_id}.
type resolveResponse struct {
	NotionUserID string `json:"notion_user_id"`
	Handle       string `json:"handle"`
	Mention      string `json:"mention,omitempty"`
}

// handleSetMapping handles PUT /v1/mappings/{notion_user_id}.
func (s *RenderServer) handleSetMapping(w http.ResponseWriter, r *http.Request) {
	var req setMappingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	m := &model.Mapping{
		NotionUserID: r.PathValue("notion_user_id"),
		DiscordID:    req.DiscordID,
		DisplayName:  req.DisplayName,
	}
	if err := s.SetMapping(r.Context(), m); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// handleGetMapping handles GET /v1/mappings/{notion_user_id}.
func (s *RenderServer) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMapping(r.Context(), r.PathValue("notion_user_id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "mapping not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get mapping")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// handleListMappings handles GET /v1/mappings.
func (s *RenderServer) handleListMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := s.store.ListMappings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list mappings")
		return
	}
	if mappings == nil {
		mappings = []*model.Mapping{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"mappings": mappings})
}

// handleDeleteMapping handles DELETE /v1/mappings/{notion_user_id}.
func (s *RenderServer) handleDeleteMapping(w http.ResponseWriter, r *http.Request) {
	err := s.DeleteMapping(r.Context(), r.PathValue("notion_user_id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "mapping not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete mapping")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleResolve handles GET /v1/resolve/{notion_user_id}.
func (s *RenderServer) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("notion_user_id")
	handle, err := s.Resolve(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := resolveResponse{NotionUserID: id, Handle: handle}
	if handle != "" {
		resp.Mention = render.Mention(handle)
	}
	writeJSON(w, http.StatusOK, resp)
}
