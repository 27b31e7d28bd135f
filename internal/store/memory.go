package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/daycare-hub/apiserver/types"
	"github.com/google/uuid"
)

// MemoryAccountRepository keeps accounts in process memory. It honours the
// same uniqueness and lookup rules as the Postgres repository and is used for
// local runs and tests.
type MemoryAccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]types.Account
	byEmail map[string]string
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byID:    make(map[string]types.Account),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryAccountRepository) GetByID(_ context.Context, id string) (types.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return types.Account{}, ErrNotFound
	}
	return account, nil
}

func (r *MemoryAccountRepository) GetByEmail(_ context.Context, email string) (types.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[types.NormalizeEmail(email)]
	if !ok {
		return types.Account{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryAccountRepository) Create(_ context.Context, account types.Account) (types.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := types.NormalizeEmail(account.Email)
	if _, exists := r.byEmail[key]; exists {
		return types.Account{}, ErrConflict
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if _, exists := r.byID[account.ID]; exists {
		return types.Account{}, ErrConflict
	}

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	r.byID[account.ID] = account
	r.byEmail[key] = account.ID
	return account, nil
}

func (r *MemoryAccountRepository) List(_ context.Context, offset, limit int) ([]types.Account, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	r.mu.RLock()
	all := make([]types.Account, 0, len(r.byID))
	for _, account := range r.byID {
		all = append(all, account)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []types.Account{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *MemoryAccountRepository) Update(_ context.Context, account types.Account) (types.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[account.ID]
	if !ok {
		return types.Account{}, ErrNotFound
	}
	existing.Name = account.Name
	existing.Role = account.Role
	existing.UpdatedAt = time.Now().UTC()
	r.byID[existing.ID] = existing
	return existing, nil
}
