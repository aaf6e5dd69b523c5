package httpapi

import (
	"net/http"
	"net/url"

	"github.com/arcanadev/arcana/internal/server/models"
	"github.com/arcanadev/arcana/internal/server/repositories/readings"
)

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request, ownerID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		s.listReadings(w, r, ownerID)
	case len(rest) == 0 && r.Method == http.MethodPost:
		s.createReading(w, r, ownerID)
	case len(rest) == 0 && r.Method == http.MethodDelete:
		s.deleteReadingsByFolder(w, r, ownerID)
	case len(rest) == 1 && r.Method == http.MethodPatch:
		s.updateReading(w, r, ownerID, rest[0])
	case len(rest) == 1 && r.Method == http.MethodDelete:
		s.deleteReading(w, r, ownerID, rest[0])
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	}
}

func (s *Server) listReadings(w http.ResponseWriter, r *http.Request, ownerID string) {
	list, err := s.readings.ListByOwner(r.Context(), ownerID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	out := make([]readingPayload, 0, len(list))
	for _, reading := range list {
		out = append(out, readingToPayload(reading))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createReading(w http.ResponseWriter, r *http.Request, ownerID string) {
	var body readingPayload
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	spreads := body.Spreads
	if len(spreads) == 0 {
		spreads = []byte("[]")
	}

	reading, err := s.readings.Create(r.Context(), &models.Reading{
		OwnerID:     ownerID,
		FolderID:    body.FolderID,
		Title:       body.Title,
		Spreads:     spreads,
		Reflection:  body.Reflection,
		ReadingDate: body.ReadingDate,
		LocalID:     body.LocalID,
		CreatedAt:   parseCreatedAt(body.CreatedAt),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, readingToPayload(*reading))
}

func (s *Server) updateReading(w http.ResponseWriter, r *http.Request, ownerID, rawID string) {
	id, err := url.PathUnescape(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid reading id")
		return
	}

	var body readingPatchPayload
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	reading, err := s.readings.Update(r.Context(), ownerID, id, readings.Patch{
		Title:       body.Title,
		Spreads:     body.Spreads,
		Reflection:  body.Reflection,
		ReadingDate: body.ReadingDate,
		FolderID:    body.FolderID,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, readingToPayload(*reading))
}

func (s *Server) deleteReading(w http.ResponseWriter, r *http.Request, ownerID, rawID string) {
	id, err := url.PathUnescape(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid reading id")
		return
	}
	if err := s.readings.Delete(r.Context(), ownerID, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteReadingsByFolder handles the bulk delete used by the client's
// folder-delete cascade.
func (s *Server) deleteReadingsByFolder(w http.ResponseWriter, r *http.Request, ownerID string) {
	folderID := r.URL.Query().Get("folder_id")
	if folderID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "folder_id is required")
		return
	}
	if err := s.readings.DeleteByFolder(r.Context(), ownerID, folderID); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
