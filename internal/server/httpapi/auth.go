package httpapi

import (
	"net/http"

	"github.com/arcanadev/arcana/internal/server/services"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPairPayload struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func tokenPairToPayload(p *services.TokenPair) tokenPairPayload {
	return tokenPairPayload{
		UserID:       p.UserID,
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
	}
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}

	switch r.URL.Path {
	case "/v1/auth/register", "/v1/auth/login":
		var creds credentialsPayload
		if err := decodeBody(r, &creds); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
			return
		}
		if creds.Email == "" || creds.Password == "" {
			writeError(w, http.StatusBadRequest, "bad_request", "email and password are required")
			return
		}

		var (
			pair *services.TokenPair
			err  error
		)
		if r.URL.Path == "/v1/auth/register" {
			pair, err = s.users.Register(r.Context(), creds.Email, creds.Password)
		} else {
			pair, err = s.users.Login(r.Context(), creds.Email, creds.Password)
		}
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenPairToPayload(pair))

	case "/v1/auth/refresh":
		var body refreshPayload
		if err := decodeBody(r, &body); err != nil || body.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "bad_request", "refresh_token is required")
			return
		}
		pair, err := s.users.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenPairToPayload(pair))

	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	}
}
