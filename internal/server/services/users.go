package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arcanadev/arcana/internal/common"
	"github.com/arcanadev/arcana/internal/dbx"
	"github.com/arcanadev/arcana/internal/server/auth"
	"github.com/arcanadev/arcana/internal/server/config"
	"github.com/arcanadev/arcana/internal/server/models"
	"github.com/arcanadev/arcana/internal/server/repositories/refreshtokens"
	"github.com/arcanadev/arcana/internal/server/repositories/users"
)

type TokenPair struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

type UsersService struct {
	db                           *sql.DB
	repo                         users.Repository
	refreshTokens                func(dbx.DBTX) refreshtokens.Repository
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUsersService wires the service over db. refreshTokens builds a
// refresh-token repository bound to the given handle, so rotation can run
// on a transaction while everything else runs on the pool directly.
func NewUsersService(db *sql.DB, repo users.Repository, refreshTokens func(dbx.DBTX) refreshtokens.Repository, cfg *config.Config) *UsersService {
	return &UsersService{
		db:                           db,
		repo:                         repo,
		refreshTokens:                refreshTokens,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

func (s *UsersService) Register(ctx context.Context, email, password string) (*TokenPair, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrInternal
	}

	user, err := s.repo.Create(ctx, &models.User{Email: email, PasswordHash: hash})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.issueTokens(ctx, s.refreshTokens(s.db), user.ID)
}

func (s *UsersService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, common.ErrInternal
	}
	if !ok {
		return nil, common.ErrUnauthorized
	}

	return s.issueTokens(ctx, s.refreshTokens(s.db), user.ID)
}

// Refresh rotates a refresh token: the presented token is retired and a
// fresh pair is issued, both inside one transaction so a failure leaves
// the presented token usable. An unknown or expired token is unauthorized.
func (s *UsersService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.refreshTokens(s.db)

	stored, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}

	if time.Now().After(stored.Expires) {
		_ = repo.Delete(ctx, refreshToken)
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := s.refreshTokens(tx)
		if err := txRepo.Delete(ctx, refreshToken); err != nil {
			return err
		}
		pair, err = s.issueTokens(ctx, txRepo, stored.UserID)
		return err
	})
	if err != nil {
		return nil, common.ErrInternal
	}
	return pair, nil
}

// ParseAccessToken validates an access token and returns the user id it
// was issued for.
func (s *UsersService) ParseAccessToken(token string) (string, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return "", common.ErrUnauthorized
	}
	return userID, nil
}

func (s *UsersService) issueTokens(ctx context.Context, repo refreshtokens.Repository, userID string) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrInternal
	}

	if err := repo.Create(ctx, userID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrInternal
	}

	return &TokenPair{UserID: userID, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
