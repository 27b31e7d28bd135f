package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/daycare-hub/apiserver/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// AccountRepository handles persistence for accounts in Postgres.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (types.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Account{}, ErrNotFound
	}

	const query = `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM accounts
		WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail looks an account up by email, ignoring case.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	const query = `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM accounts
		WHERE LOWER(email) = LOWER($1)`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

// Create inserts a new account. A duplicate email yields ErrConflict, whether
// or not the caller checked for it beforehand.
func (r *AccountRepository) Create(ctx context.Context, account types.Account) (types.Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	const query = `
		INSERT INTO accounts (id, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Account{}, ErrConflict
		}
		return types.Account{}, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) List(ctx context.Context, offset, limit int) ([]types.Account, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM accounts`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	const listQuery = `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM accounts
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	accounts := make([]types.Account, 0, limit)
	for rows.Next() {
		var account types.Account
		var role string
		if err := rows.Scan(
			&account.ID,
			&account.Name,
			&account.Email,
			&account.PasswordHash,
			&role,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		account.Role = types.Role(role)
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return accounts, total, nil
}

// Update persists name and role changes. Email and password hash are not
// touched here.
func (r *AccountRepository) Update(ctx context.Context, account types.Account) (types.Account, error) {
	if _, err := uuid.Parse(account.ID); err != nil {
		return types.Account{}, ErrNotFound
	}
	account.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE accounts
		SET name = $1,
			role = $2,
			updated_at = $3
		WHERE id = $4
		RETURNING email, password_hash, created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		account.Name,
		string(account.Role),
		account.UpdatedAt,
		account.ID,
	).Scan(&account.Email, &account.PasswordHash, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func scanAccount(row *sql.Row) (types.Account, error) {
	var account types.Account
	var role string
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&role,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, fmt.Errorf("db error: %w", err)
	}
	account.Role = types.Role(role)
	return account, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
