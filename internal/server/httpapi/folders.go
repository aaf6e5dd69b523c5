package httpapi

import (
	"net/http"
	"net/url"

	"github.com/arcanadev/arcana/internal/server/models"
)

func (s *Server) handleFolders(w http.ResponseWriter, r *http.Request, ownerID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		s.listFolders(w, r, ownerID)
	case len(rest) == 0 && r.Method == http.MethodPost:
		s.createFolder(w, r, ownerID)
	case len(rest) == 1 && r.Method == http.MethodPatch:
		s.renameFolder(w, r, ownerID, rest[0])
	case len(rest) == 1 && r.Method == http.MethodDelete:
		s.deleteFolder(w, r, ownerID, rest[0])
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	}
}

func (s *Server) listFolders(w http.ResponseWriter, r *http.Request, ownerID string) {
	list, err := s.folders.ListByOwner(r.Context(), ownerID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	out := make([]folderPayload, 0, len(list))
	for _, f := range list {
		out = append(out, folderToPayload(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createFolder(w http.ResponseWriter, r *http.Request, ownerID string) {
	var body folderPayload
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}

	folder, err := s.folders.Create(r.Context(), &models.Folder{
		OwnerID:   ownerID,
		Name:      body.Name,
		LocalID:   body.LocalID,
		CreatedAt: parseCreatedAt(body.CreatedAt),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, folderToPayload(*folder))
}

func (s *Server) renameFolder(w http.ResponseWriter, r *http.Request, ownerID, rawID string) {
	id, err := url.PathUnescape(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid folder id")
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil || body.Name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}

	folder, err := s.folders.Rename(r.Context(), ownerID, id, body.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, folderToPayload(*folder))
}

func (s *Server) deleteFolder(w http.ResponseWriter, r *http.Request, ownerID, rawID string) {
	id, err := url.PathUnescape(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid folder id")
		return
	}
	if err := s.folders.Delete(r.Context(), ownerID, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
