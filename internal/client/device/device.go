// Package device manages the stable anonymous device identity used as the
// owner scope before a user signs in.
package device

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/arcanadev/arcana/internal/client/store"
)

// ID returns the persisted device token, generating and storing a new one
// on first use. The token is stable across restarts.
func ID(ctx context.Context, s *store.Store) (string, error) {
	v, err := s.GetMeta(ctx, store.MetaDeviceID)
	if err != nil {
		return "", fmt.Errorf("device id read error: %w", err)
	}
	if len(v) > 0 {
		return string(v), nil
	}

	id := uuid.NewString()
	if err := s.SetMeta(ctx, store.MetaDeviceID, []byte(id)); err != nil {
		return "", fmt.Errorf("device id save error: %w", err)
	}
	return id, nil
}
