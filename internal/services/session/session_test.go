package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/folio/internal/storage"
)

func TestGate_LoginLogout(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	g := NewGate(st)

	assert.False(t, g.Authenticated(ctx))
	assert.ErrorIs(t, g.Require(ctx), ErrLocked)

	require.NoError(t, g.Login(ctx))
	assert.True(t, g.Authenticated(ctx))
	assert.NoError(t, g.Require(ctx))

	// the flag is persisted, so a fresh gate over the same storage agrees
	assert.True(t, NewGate(st).Authenticated(ctx))

	require.NoError(t, g.Logout(ctx))
	assert.False(t, g.Authenticated(ctx))
	require.NoError(t, g.Logout(ctx))
}

func TestGate_OnlyExactFlagUnlocks(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	require.NoError(t, st.Set(ctx, storage.KeyAuthenticated, []byte("yes")))

	assert.False(t, NewGate(st).Authenticated(ctx))
}

func TestTokens_IssueVerify(t *testing.T) {
	tokens, err := NewTokens("s3cret", time.Hour)
	require.NoError(t, err)

	signed, expiresAt, err := tokens.Issue("owner")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "owner", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestTokens_Rejects(t *testing.T) {
	tokens, err := NewTokens("s3cret", time.Hour)
	require.NoError(t, err)
	signed, _, err := tokens.Issue("owner")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokens("other", time.Hour)
		require.NoError(t, err)
		_, err = other.Verify(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := &Tokens{secret: tokens.secret, ttl: time.Hour, now: func() time.Time { return time.Now().Add(2 * time.Hour) }}
		_, err := later.Verify(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokens_RequiresSecret(t *testing.T) {
	_, err := NewTokens("", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)

	tokens, err := NewTokens("x", 0)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, tokens.ttl)
}
