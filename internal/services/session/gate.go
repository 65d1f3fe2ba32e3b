package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/curaious/folio/internal/storage"
)

// ErrLocked is returned by callers that require an authenticated gate.
var ErrLocked = errors.New("admin session is locked")

const authenticatedValue = "true"

// Gate is the persisted "is authenticated" flag guarding the admin session.
// It records the outcome of an external identity check and performs none
// itself.
type Gate struct {
	storage storage.Storage
	key     string
}

func NewGate(st storage.Storage) *Gate {
	return &Gate{storage: st, key: storage.KeyAuthenticated}
}

// Authenticated reports whether the flag is set. Read failures count as
// locked.
func (g *Gate) Authenticated(ctx context.Context) bool {
	v, err := g.storage.Get(ctx, g.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Unable to read admin session flag", slog.Any("error", err))
		}
		return false
	}
	return string(v) == authenticatedValue
}

// Require returns ErrLocked unless the gate is open.
func (g *Gate) Require(ctx context.Context) error {
	if !g.Authenticated(ctx) {
		return ErrLocked
	}
	return nil
}

func (g *Gate) Login(ctx context.Context) error {
	if err := g.storage.Set(ctx, g.key, []byte(authenticatedValue)); err != nil {
		return fmt.Errorf("failed to open admin session: %w", err)
	}
	return nil
}

// Logout clears the flag and returns the gate to the locked state.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.storage.Delete(ctx, g.key); err != nil {
		return fmt.Errorf("failed to close admin session: %w", err)
	}
	return nil
}
