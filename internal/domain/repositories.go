package domain

import "context"

// UserRepository defines the interface for user data access operations.
// Users are read-only collaborators of the balance engine.
type UserRepository interface {
	// GetByID retrieves a user by its unique identifier.
	// Returns ErrUserNotFound if the user doesn't exist.
	GetByID(ctx context.Context, id int64) (*User, error)
}

// AccountRepository defines the interface for account data access operations.
// This follows the Repository pattern to abstract data persistence logic.
type AccountRepository interface {
	// GetByNumber retrieves an account by its account number.
	// Returns ErrAccountNotFound if the account doesn't exist.
	GetByNumber(ctx context.Context, number string) (*Account, error)

	// Lock acquires a database lock on the account for the duration of the transaction.
	// This serializes concurrent balance operations against the same account.
	// Must be called within a transaction context.
	Lock(ctx context.Context, number string) (*Account, error)

	// AdjustBalance atomically applies delta (negative for use, positive for
	// cancel) to the account balance and returns the new balance.
	// Must be called within a transaction context after Lock.
	AdjustBalance(ctx context.Context, number string, delta int64) (int64, error)
}

// TransactionRepository defines the interface for the append-only ledger.
type TransactionRepository interface {
	// Append persists a new transaction record. Records are never updated or
	// deleted once appended.
	Append(ctx context.Context, tx *Transaction) error

	// GetByTransactionID retrieves a transaction by its unique token.
	// Returns ErrTransactionNotFound if no such record exists.
	GetByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)

	// FindCancellation retrieves the successful CANCEL record that reverses
	// the transaction with the given ID. Returns nil if it was never cancelled.
	FindCancellation(ctx context.Context, originalTransactionID string) (*Transaction, error)
}

// TransactionManager defines the interface for managing database transactions.
// This abstraction allows the service layer to keep the balance mutation and
// the ledger append in one atomic unit of work without being coupled to a
// specific database implementation.
type TransactionManager interface {
	// WithTransaction executes the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// Otherwise, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
