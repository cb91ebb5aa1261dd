package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)
	assert.NotContains(t, hash, "Secret123")

	ok, err := h.Verify(ctx, "Secret123", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(ctx, "Secret124", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	again, err := h.Hash(ctx, "Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes must be salted")
}

func TestBcryptHasherMalformedHash(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	_, err = h.Verify(context.Background(), "x", "not-a-hash")
	assert.Error(t, err)
}

func TestNewBcryptHasherCostRange(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost-1, 1)
	assert.Error(t, err)
	_, err = NewBcryptHasher(bcrypt.MaxCost+1, 1)
	assert.Error(t, err)

	h, err := NewBcryptHasher(bcrypt.DefaultCost, 0)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}

func TestBcryptHasherHonoursContext(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	// Occupy the only slot.
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = h.Hash(ctx, "Secret123")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateSessionToken(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		token, err := GenerateSessionToken()
		require.NoError(t, err)
		assert.Len(t, token, 43)
		assert.False(t, seen[token], "duplicate token")
		seen[token] = true
	}
}
