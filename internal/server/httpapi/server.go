// Package httpapi exposes the record store over HTTP. Routing is a plain
// ServeHTTP dispatch; every journal route is scoped by an owner resolved
// from the request: a Bearer access token (user scope) or the X-Device-Id
// header (anonymous device scope).
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/arcanadev/arcana/internal/common"
	"github.com/arcanadev/arcana/internal/logging"
	"github.com/arcanadev/arcana/internal/server/repositories/cardnotes"
	"github.com/arcanadev/arcana/internal/server/repositories/folders"
	"github.com/arcanadev/arcana/internal/server/repositories/readings"
	"github.com/arcanadev/arcana/internal/server/services"
)

// UsersService is the authentication surface the API needs. Implemented
// by services.UsersService; tests can provide a stub.
type UsersService interface {
	Register(ctx context.Context, email, password string) (*services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	ParseAccessToken(token string) (string, error)
}

type Server struct {
	users     UsersService
	folders   folders.Repository
	readings  readings.Repository
	cardNotes cardnotes.Repository
	log       logging.Logger
}

func NewServer(users UsersService, fr folders.Repository, rr readings.Repository, cn cardnotes.Repository, log logging.Logger) *Server {
	return &Server{users: users, folders: fr, readings: rr, cardNotes: cn, log: log}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	if strings.HasPrefix(r.URL.Path, "/v1/auth/") {
		s.handleAuth(w, r)
		return
	}

	ownerID, err := s.ownerFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] != "v1" {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
		return
	}

	switch parts[1] {
	case "folders":
		s.handleFolders(w, r, ownerID, parts[2:])
	case "readings":
		s.handleReadings(w, r, ownerID, parts[2:])
	case "card-notes":
		s.handleCardNotes(w, r, ownerID, parts[2:])
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	}
}

// ownerFromRequest resolves the identity a journal request is scoped by.
// A Bearer token wins over a device header when both are present.
func (s *Server) ownerFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get(common.AccessTokenHeaderName); header != "" {
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			return "", common.ErrUnauthorized
		}
		userID, err := s.users.ParseAccessToken(token)
		if err != nil {
			return "", err
		}
		return "user:" + userID, nil
	}

	if deviceID := r.Header.Get(common.DeviceIDHeaderName); deviceID != "" {
		return "device:" + deviceID, nil
	}

	return "", common.ErrUnauthorized
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

// respondError maps domain errors onto the wire error shape.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "record not found")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(w, http.StatusUnauthorized, "refresh_token_expired", "refresh token expired")
	case errors.Is(err, common.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	default:
		s.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
