package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Goldbar97/Account/internal/domain"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		pool: pool,
	}
}

const accountColumns = `account_number, user_id, status, balance, created_at, updated_at`

// GetByNumber retrieves an account by its account number.
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = $1
	`

	return r.scanAccount(ctx, query, number)
}

// Lock acquires a pessimistic lock on the account for the duration of the transaction.
// This method MUST be called within a transaction context.
// Uses SELECT ... FOR UPDATE to lock the row, so concurrent operations
// against the same account are serialized while different accounts proceed
// independently.
func (r *AccountRepository) Lock(ctx context.Context, number string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = $1
		FOR UPDATE
	`

	return r.scanAccount(ctx, query, number)
}

// AdjustBalance atomically applies delta to the account balance and returns
// the new balance. The balance CHECK constraint backstops the non-negative
// invariant; the service validates sufficient funds before calling this.
func (r *AccountRepository) AdjustBalance(ctx context.Context, number string, delta int64) (int64, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2,
		    updated_at = NOW()
		WHERE account_number = $1
		RETURNING balance
	`

	var newBalance int64

	var row pgx.Row
	if tx := getTx(ctx); tx != nil {
		row = tx.QueryRow(ctx, query, number, delta)
	} else {
		row = r.pool.QueryRow(ctx, query, number, delta)
	}

	if err := row.Scan(&newBalance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrAccountNotFound
		}
		return 0, fmt.Errorf("failed to adjust balance: %w", err)
	}

	return newBalance, nil
}

// scanAccount runs a single-row account query against the transaction if one
// is present in the context, otherwise against the pool.
func (r *AccountRepository) scanAccount(ctx context.Context, query string, args ...any) (*domain.Account, error) {
	var account domain.Account
	var status string

	var row pgx.Row
	if tx := getTx(ctx); tx != nil {
		row = tx.QueryRow(ctx, query, args...)
	} else {
		row = r.pool.QueryRow(ctx, query, args...)
	}

	err := row.Scan(
		&account.Number,
		&account.UserID,
		&status,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account.Status = domain.AccountStatus(status)
	return &account, nil
}
