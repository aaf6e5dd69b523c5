package remote

import (
	"context"
	"net/http"
)

// TokenPair is the result of a successful register, login, or refresh.
type TokenPair struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthClient talks to the account endpoints. These calls carry no owner
// scope; they produce the tokens user-scoped calls are made with.
type AuthClient struct {
	c *Client
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *AuthClient) Register(ctx context.Context, email, password string) (TokenPair, error) {
	var out TokenPair
	err := a.c.doPublic(ctx, http.MethodPost, "/v1/auth/register", credentialsRequest{Email: email, Password: password}, &out)
	return out, err
}

func (a *AuthClient) Login(ctx context.Context, email, password string) (TokenPair, error) {
	var out TokenPair
	err := a.c.doPublic(ctx, http.MethodPost, "/v1/auth/login", credentialsRequest{Email: email, Password: password}, &out)
	return out, err
}

func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	var out TokenPair
	body := map[string]string{"refresh_token": refreshToken}
	err := a.c.doPublic(ctx, http.MethodPost, "/v1/auth/refresh", body, &out)
	return out, err
}
