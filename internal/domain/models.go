package domain

import "time"

// User represents an account holder.
// Users are provisioned externally and are immutable from this service's point of view.
type User struct {
	ID        int64     // Unique identifier of the user
	Name      string    // Display name of the user
	CreatedAt time.Time // Timestamp when the user was created
}

// AccountStatus represents the possible states of an account.
type AccountStatus string

const (
	// AccountStatusActive indicates the account accepts balance operations
	AccountStatusActive AccountStatus = "ACTIVE"

	// AccountStatusClosed indicates the account no longer accepts balance operations
	AccountStatusClosed AccountStatus = "CLOSED"
)

// Account represents a bank account owned by a single user.
// The balance is an integer in the smallest currency unit and never goes negative.
// Only the BalanceService mutates it, through AccountRepository.AdjustBalance.
type Account struct {
	Number    string        // Stable account number, unique across the system
	UserID    int64         // ID of the owning user
	Status    AccountStatus // Current account status
	Balance   int64         // Current balance in the smallest currency unit
	CreatedAt time.Time     // Timestamp when the account was created
	UpdatedAt time.Time     // Timestamp of the last account update
}

// TransactionType represents the kind of balance operation.
type TransactionType string

const (
	// TransactionTypeUse is a debit reducing the account balance
	TransactionTypeUse TransactionType = "USE"

	// TransactionTypeCancel is a credit reversing a prior successful use
	TransactionTypeCancel TransactionType = "CANCEL"
)

// TransactionResult represents the outcome of a balance operation attempt.
type TransactionResult string

const (
	// TransactionResultSuccess indicates the balance was mutated
	TransactionResultSuccess TransactionResult = "SUCCESS"

	// TransactionResultFail indicates the attempt was rejected and the balance unchanged
	TransactionResultFail TransactionResult = "FAIL"
)

// Transaction is one immutable entry in the append-only ledger.
// Every attempt produces exactly one record, rejected attempts included.
type Transaction struct {
	TransactionID string            // Opaque unique token identifying this record
	Type          TransactionType   // USE or CANCEL
	Result        TransactionResult // SUCCESS or FAIL
	AccountNumber string            // Number of the account the attempt targeted
	Amount        int64             // Requested amount, always positive
	// BalanceSnapshot is the account balance after the mutation for SUCCESS
	// records, or the balance observed at failure time for FAIL records.
	BalanceSnapshot int64
	// RelatedTransactionID links a CANCEL record back to the USE transaction
	// it reverses. Empty for USE records.
	RelatedTransactionID string
	TransactedAt         time.Time // Timestamp when the record was written
}
