// Package password hashes and verifies account passwords with bcrypt.
package password

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost is the bcrypt work factor used outside of tests.
const DefaultCost = 10

const (
	OpHash   = "hash"
	OpVerify = "verify"
)

// Observer receives the wall time of each bcrypt operation.
type Observer func(op string, elapsed time.Duration)

// Hasher wraps bcrypt with a bound on how many derivations run at once.
// bcrypt is CPU-bound; without the bound a burst of signups can starve every
// other request on the host.
type Hasher struct {
	cost     int
	sem      *semaphore.Weighted
	observer Observer
}

type Option func(*Hasher)

// WithObserver reports operation durations, typically to a histogram.
func WithObserver(observer Observer) Option {
	return func(h *Hasher) {
		h.observer = observer
	}
}

// NewBcryptHasher builds a Hasher. A cost below bcrypt.MinCost falls back to
// DefaultCost; a non-positive concurrency uses GOMAXPROCS.
func NewBcryptHasher(cost, concurrency int, opts ...Option) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	if concurrency < 1 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	h := &Hasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(concurrency)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash derives a salted bcrypt hash of plain. An empty plain still hashes.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	start := time.Now()
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	h.observe(OpHash, start)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plain matches hash. A mismatch is (false, nil); an
// error means the hash could not be checked at all.
func (h *Hasher) Verify(ctx context.Context, plain, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	start := time.Now()
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	h.observe(OpVerify, start)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("verify password: %w", err)
	}
}

func (h *Hasher) observe(op string, start time.Time) {
	if h.observer != nil {
		h.observer(op, time.Since(start))
	}
}
