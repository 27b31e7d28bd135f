package password

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.NotContains(t, hash, "secret1")

	ok, err := h.Verify(ctx, "secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(ctx, "secret2", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, 1)
	a, err := h.Hash(context.Background(), "same")
	require.NoError(t, err)
	b, err := h.Hash(context.Background(), "same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEmptyPlaintextStillHashes(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, 1)
	hash, err := h.Hash(context.Background(), "")
	require.NoError(t, err)

	ok, err := h.Verify(context.Background(), "", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyMalformedHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, 1)
	ok, err := h.Verify(context.Background(), "secret1", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestCostFallback(t *testing.T) {
	h := NewBcryptHasher(1, 1)
	assert.Equal(t, DefaultCost, h.cost)

	h = NewBcryptHasher(bcrypt.MinCost, 0)
	assert.Equal(t, bcrypt.MinCost, h.cost)
}

func TestHashHonoursContextWhileWaiting(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, 1)
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Hash(ctx, "secret1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = h.Verify(ctx, "secret1", "$2a$04$abc")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestObserver(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	h := NewBcryptHasher(bcrypt.MinCost, 1, WithObserver(func(op string, elapsed time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		seen[op]++
	}))

	hash, err := h.Hash(context.Background(), "x")
	require.NoError(t, err)
	_, err = h.Verify(context.Background(), "x", hash)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{OpHash: 1, OpVerify: 1}, seen)
}
