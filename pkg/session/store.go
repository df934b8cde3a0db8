package session

import (
	"context"
	"errors"

	"catalog-service/internal/model"
)

// ErrNotFound is returned when the registry has no live entry for a session id
var ErrNotFound = errors.New("session not found")

// Store is the server-side session registry
type Store interface {
	Create(ctx context.Context, s *model.Session) error
	// Lookup returns the session or ErrNotFound when it is unknown, revoked or expired
	Lookup(ctx context.Context, id string) (*model.Session, error)
	Revoke(ctx context.Context, id string) error
}
