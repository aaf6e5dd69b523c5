// Package auth keeps the client's account session: it signs a user in or
// up against the record store, persists the issued token pair in local
// metadata, and serves access tokens back to the API client, refreshing
// them when a call comes back unauthorized.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/arcanadev/arcana/internal/client/remote"
	"github.com/arcanadev/arcana/internal/client/store"
	"github.com/arcanadev/arcana/internal/common"
	"github.com/arcanadev/arcana/internal/logging"
)

type Service struct {
	st  *store.Store
	api *remote.AuthClient
	log logging.Logger

	mu      sync.Mutex
	session remote.TokenPair
}

func NewService(st *store.Store, api *remote.AuthClient, log logging.Logger) *Service {
	return &Service{st: st, api: api, log: log}
}

// Restore loads a persisted session, if any. Returns the signed-in user id
// or "" when the device has no session.
func (s *Service) Restore(ctx context.Context) (string, error) {
	userID, err := s.st.GetMeta(ctx, store.MetaUserID)
	if err != nil {
		return "", err
	}
	if len(userID) == 0 {
		return "", nil
	}
	access, err := s.st.GetMeta(ctx, store.MetaAccessToken)
	if err != nil {
		return "", err
	}
	refresh, err := s.st.GetMeta(ctx, store.MetaRefreshToken)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.session = remote.TokenPair{
		UserID:       string(userID),
		AccessToken:  string(access),
		RefreshToken: string(refresh),
	}
	s.mu.Unlock()
	return string(userID), nil
}

func (s *Service) Register(ctx context.Context, email, password string) (string, error) {
	pair, err := s.api.Register(ctx, email, password)
	if err != nil {
		return "", err
	}
	return pair.UserID, s.storeSession(ctx, pair)
}

func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	pair, err := s.api.Login(ctx, email, password)
	if err != nil {
		return "", err
	}
	return pair.UserID, s.storeSession(ctx, pair)
}

// Logout drops the session from memory and local metadata. The journal
// data itself stays; only the identity is forgotten.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.session = remote.TokenPair{}
	s.mu.Unlock()

	for _, key := range []string{store.MetaUserID, store.MetaAccessToken, store.MetaRefreshToken} {
		if err := s.st.DeleteMeta(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// UserID returns the signed-in user id, or "" when signed out.
func (s *Service) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.UserID
}

// AccessToken implements remote.TokenProvider.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	token := s.session.AccessToken
	s.mu.Unlock()
	if token == "" {
		return "", common.ErrUnauthorized
	}
	return token, nil
}

// RefreshSession exchanges the stored refresh token for a new pair. Called
// by the host when a user-scoped request comes back unauthorized.
func (s *Service) RefreshSession(ctx context.Context) error {
	s.mu.Lock()
	refresh := s.session.RefreshToken
	s.mu.Unlock()
	if refresh == "" {
		return common.ErrUnauthorized
	}

	pair, err := s.api.Refresh(ctx, refresh)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			s.log.Warn(ctx, "refresh token rejected, signing out")
			return errors.Join(common.ErrRefreshTokenExpired, s.Logout(ctx))
		}
		return err
	}
	return s.storeSession(ctx, pair)
}

func (s *Service) storeSession(ctx context.Context, pair remote.TokenPair) error {
	s.mu.Lock()
	s.session = pair
	s.mu.Unlock()

	if err := s.st.SetMeta(ctx, store.MetaUserID, []byte(pair.UserID)); err != nil {
		return err
	}
	if err := s.st.SetMeta(ctx, store.MetaAccessToken, []byte(pair.AccessToken)); err != nil {
		return err
	}
	return s.st.SetMeta(ctx, store.MetaRefreshToken, []byte(pair.RefreshToken))
}
