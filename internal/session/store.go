package session

import (
	"context"
	"errors"
)

var ErrDraftNotFound = errors.New("draft not found")

// Store keeps drafts between requests. Get returns ErrDraftNotFound for
// unknown or expired ids.
type Store interface {
	Create(ctx context.Context, d *Draft) error
	Get(ctx context.Context, id string) (*Draft, error)
	Save(ctx context.Context, d *Draft) error
	Delete(ctx context.Context, id string) error
}
