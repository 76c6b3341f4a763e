package domain

import "time"

// cancelWindow is how long after a successful use the transaction remains
// cancellable. Anything older is rejected with TRANSACTION_TOO_OLD.
const cancelWindow = 365 * 24 * time.Hour

// validateUse checks the use-balance rules in order: ownership, account
// status, sufficient funds. Pure predicate logic, no side effects; the first
// violated rule wins.
func validateUse(user *User, account *Account, amount int64) error {
	if user.ID != account.UserID {
		return ErrUserAccountMismatch
	}

	if account.Status != AccountStatusActive {
		return ErrAccountInactive
	}

	if account.Balance < amount {
		return ErrInsufficientBalance
	}

	return nil
}

// validateCancel checks the cancel-balance rules in order: account linkage,
// amount equality, cancellability of the original record, recency window.
// The already-cancelled check needs a ledger lookup and stays in the service.
func validateCancel(original *Transaction, account *Account, amount int64, now time.Time) error {
	if original.AccountNumber != account.Number {
		return ErrTransactionAccountMismatch
	}

	if original.Amount != amount {
		return ErrCancelAmountMismatch
	}

	if original.Type != TransactionTypeUse || original.Result != TransactionResultSuccess {
		return ErrTransactionNotCancellable
	}

	if now.Sub(original.TransactedAt) > cancelWindow {
		return ErrTransactionTooOld
	}

	return nil
}
