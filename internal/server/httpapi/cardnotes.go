package httpapi

import (
	"net/http"
	"net/url"

	"github.com/arcanadev/arcana/internal/server/models"
)

func (s *Server) handleCardNotes(w http.ResponseWriter, r *http.Request, ownerID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		s.listCardNotes(w, r, ownerID)
	case len(rest) == 1 && r.Method == http.MethodPut:
		s.upsertCardNote(w, r, ownerID, rest[0])
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	}
}

func (s *Server) listCardNotes(w http.ResponseWriter, r *http.Request, ownerID string) {
	list, err := s.cardNotes.ListByOwner(r.Context(), ownerID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	out := make([]cardNotePayload, 0, len(list))
	for _, n := range list {
		out = append(out, cardNotePayload{CardID: n.CardID, Notes: n.Notes})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) upsertCardNote(w http.ResponseWriter, r *http.Request, ownerID, rawCardID string) {
	cardID, err := url.PathUnescape(rawCardID)
	if err != nil || cardID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid card id")
		return
	}

	var body struct {
		Notes string `json:"notes"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	if err := s.cardNotes.Upsert(r.Context(), &models.CardNote{
		OwnerID: ownerID,
		CardID:  cardID,
		Notes:   body.Notes,
	}); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cardNotePayload{CardID: cardID, Notes: body.Notes})
}
