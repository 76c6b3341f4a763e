package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Goldbar97/Account/internal/domain"
)

// TransactionRepository implements domain.TransactionRepository using
// PostgreSQL. The transactions table is append-only: records are inserted
// once and never updated or deleted.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{
		pool: pool,
	}
}

const transactionColumns = `transaction_id, type, result, account_number, amount,
	       balance_snapshot, related_transaction_id, transacted_at`

// Append persists a new transaction record.
func (r *TransactionRepository) Append(ctx context.Context, record *domain.Transaction) error {
	query := `
		INSERT INTO transactions (
			transaction_id, type, result, account_number,
			amount, balance_snapshot, related_transaction_id, transacted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	related := sql.NullString{String: record.RelatedTransactionID, Valid: record.RelatedTransactionID != ""}

	var err error
	if tx := getTx(ctx); tx != nil {
		_, err = tx.Exec(ctx, query,
			record.TransactionID,
			string(record.Type),
			string(record.Result),
			record.AccountNumber,
			record.Amount,
			record.BalanceSnapshot,
			related,
			record.TransactedAt,
		)
	} else {
		_, err = r.pool.Exec(ctx, query,
			record.TransactionID,
			string(record.Type),
			string(record.Result),
			record.AccountNumber,
			record.Amount,
			record.BalanceSnapshot,
			related,
			record.TransactedAt,
		)
	}

	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves a transaction by its unique token.
func (r *TransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE transaction_id = $1
	`

	record, err := r.scanTransaction(ctx, query, transactionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return record, nil
}

// FindCancellation retrieves the successful CANCEL record reversing the given
// transaction. Returns nil if the transaction was never cancelled.
func (r *TransactionRepository) FindCancellation(ctx context.Context, originalTransactionID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE related_transaction_id = $1
		  AND type = 'CANCEL'
		  AND result = 'SUCCESS'
	`

	record, err := r.scanTransaction(ctx, query, originalTransactionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Never cancelled
		}
		return nil, fmt.Errorf("failed to find cancellation: %w", err)
	}

	return record, nil
}

// scanTransaction runs a single-row transaction query against the transaction
// in the context if one is present, otherwise against the pool.
func (r *TransactionRepository) scanTransaction(ctx context.Context, query string, args ...any) (*domain.Transaction, error) {
	var record domain.Transaction
	var txType, result string
	var related sql.NullString

	var row pgx.Row
	if tx := getTx(ctx); tx != nil {
		row = tx.QueryRow(ctx, query, args...)
	} else {
		row = r.pool.QueryRow(ctx, query, args...)
	}

	err := row.Scan(
		&record.TransactionID,
		&txType,
		&result,
		&record.AccountNumber,
		&record.Amount,
		&record.BalanceSnapshot,
		&related,
		&record.TransactedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Type = domain.TransactionType(txType)
	record.Result = domain.TransactionResult(result)
	record.RelatedTransactionID = related.String
	return &record, nil
}
