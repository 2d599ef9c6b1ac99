package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/staff-portal/internal/domain/auth"
	"github.com/target/staff-portal/internal/ports"
)

func TestMockAuthProvider_BeginIsDeterministic(t *testing.T) {
	provider := NewMockAuthProvider()
	ctx := context.Background()
	in := ports.BeginInput{RedirectURL: "http://localhost:8080/auth/callback"}

	url, state, nonce, err := provider.Begin(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", url)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	_, state2, nonce2, err := provider.Begin(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockAuthProvider_ExchangeRefreshesExpiry(t *testing.T) {
	provider := NewMockAuthProvider()
	id, err := provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c"})
	require.NoError(t, err)
	assert.Equal(t, "mock.user@example.com", id.Email)
	assert.False(t, id.ExpiresAt.IsZero())
}

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.Error(t, store.Save(ctx, domainauth.Session{}))
	require.NoError(t, store.Save(ctx, domainauth.Session{ID: "s1", Email: "a@example.com"}))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryLoginLimiter(t *testing.T) {
	l := NewMemoryLoginLimiter(2)
	ctx := context.Background()

	ok, _, _ := l.Allowed(ctx, "a")
	assert.True(t, ok)
	_ = l.RecordFailure(ctx, "a")
	_ = l.RecordFailure(ctx, "a")
	ok, wait, _ := l.Allowed(ctx, "a")
	assert.False(t, ok)
	assert.Positive(t, wait)

	_ = l.Reset(ctx, "a")
	assert.Zero(t, l.Failures("a"))
}

func TestPlainHasher(t *testing.T) {
	h := PlainHasher{}
	enc, err := h.Hash("Secret1!")
	require.NoError(t, err)

	ok, err := h.Verify("Secret1!", enc)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("nope", enc)
	require.NoError(t, err)
	assert.False(t, ok)
}
