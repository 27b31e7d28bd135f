package services

import (
	"context"
	"errors"
	"strings"

	"github.com/daycare-hub/apiserver/internal/store"
	"github.com/daycare-hub/apiserver/types"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// AccountUpdate carries the fields an administrator may change. Nil fields
// are left as they are.
type AccountUpdate struct {
	Name *string
	Role *string
}

// AccountService encapsulates the account directory use-cases.
type AccountService struct {
	repo AccountRepository
}

func NewAccountService(repo AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

// List returns one page of accounts and the total count. page starts at 1.
func (s *AccountService) List(ctx context.Context, page, limit int) ([]types.Account, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	accounts, total, err := s.repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, UnexpectedError("failed to list accounts", err)
	}
	return accounts, total, nil
}

func (s *AccountService) Update(ctx context.Context, id string, update AccountUpdate) (types.Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Account{}, NotFoundError(msgAccountNotFound, err)
		}
		return types.Account{}, UnexpectedError("failed to load account", err)
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return types.Account{}, ValidationError("name must not be empty")
		}
		account.Name = name
	}
	if update.Role != nil {
		role, err := types.ParseRole(*update.Role)
		if err != nil {
			return types.Account{}, ValidationError(msgInvalidRole)
		}
		account.Role = role
	}

	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Account{}, NotFoundError(msgAccountNotFound, err)
		}
		return types.Account{}, UnexpectedError("failed to update account", err)
	}
	return updated, nil
}
