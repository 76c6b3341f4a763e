package domain

import "errors"

// ErrorCode is the machine-readable identifier of a domain rule violation.
type ErrorCode string

const (
	CodeUserNotFound                ErrorCode = "USER_NOT_FOUND"
	CodeAccountNotFound             ErrorCode = "ACCOUNT_NOT_FOUND"
	CodeTransactionNotFound         ErrorCode = "TRANSACTION_NOT_FOUND"
	CodeUserAccountMismatch         ErrorCode = "USER_ACCOUNT_MISMATCH"
	CodeAccountInactive             ErrorCode = "ACCOUNT_INACTIVE"
	CodeInsufficientBalance         ErrorCode = "INSUFFICIENT_BALANCE"
	CodeTransactionAccountMismatch  ErrorCode = "TRANSACTION_ACCOUNT_MISMATCH"
	CodeCancelAmountMismatch        ErrorCode = "CANCEL_AMOUNT_MISMATCH"
	CodeTransactionAlreadyCancelled ErrorCode = "TRANSACTION_ALREADY_CANCELLED"
	CodeTransactionNotCancellable   ErrorCode = "TRANSACTION_NOT_CANCELLABLE"
	CodeTransactionTooOld           ErrorCode = "TRANSACTION_TOO_OLD"
	CodeInvalidAmount               ErrorCode = "INVALID_AMOUNT"
)

// Error is a domain rule violation carrying a machine-readable code and a
// human-readable message. Infrastructure failures are plain wrapped errors,
// never *Error.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// ErrUserNotFound is returned when the requesting user doesn't exist
	ErrUserNotFound = &Error{Code: CodeUserNotFound, Message: "user not found"}

	// ErrAccountNotFound is returned when the account doesn't exist
	ErrAccountNotFound = &Error{Code: CodeAccountNotFound, Message: "account not found"}

	// ErrTransactionNotFound is returned when the referenced transaction doesn't exist
	ErrTransactionNotFound = &Error{Code: CodeTransactionNotFound, Message: "transaction not found"}

	// ErrUserAccountMismatch is returned when the account isn't owned by the requesting user
	ErrUserAccountMismatch = &Error{Code: CodeUserAccountMismatch, Message: "account is not owned by the requesting user"}

	// ErrAccountInactive is returned when the account is not ACTIVE
	ErrAccountInactive = &Error{Code: CodeAccountInactive, Message: "account is not active"}

	// ErrInsufficientBalance is returned when the balance is smaller than the requested amount
	ErrInsufficientBalance = &Error{Code: CodeInsufficientBalance, Message: "amount exceeds account balance"}

	// ErrTransactionAccountMismatch is returned when the transaction belongs to a different account
	ErrTransactionAccountMismatch = &Error{Code: CodeTransactionAccountMismatch, Message: "transaction does not belong to the given account"}

	// ErrCancelAmountMismatch is returned when the cancel amount differs from the original amount
	ErrCancelAmountMismatch = &Error{Code: CodeCancelAmountMismatch, Message: "cancel amount must equal the original transaction amount"}

	// ErrTransactionAlreadyCancelled is returned when the transaction was cancelled before
	ErrTransactionAlreadyCancelled = &Error{Code: CodeTransactionAlreadyCancelled, Message: "transaction has already been cancelled"}

	// ErrTransactionNotCancellable is returned when the transaction is not a successful use
	ErrTransactionNotCancellable = &Error{Code: CodeTransactionNotCancellable, Message: "only successful use transactions can be cancelled"}

	// ErrTransactionTooOld is returned when the transaction is outside the cancellation window
	ErrTransactionTooOld = &Error{Code: CodeTransactionTooOld, Message: "transaction is too old to cancel"}

	// ErrInvalidAmount is returned when the requested amount is not positive
	ErrInvalidAmount = &Error{Code: CodeInvalidAmount, Message: "amount must be positive"}
)

// IsDomainError reports whether err is a domain rule violation, as opposed to
// an infrastructure failure. Callers use this to decide whether a rejected
// attempt should still be recorded in the ledger.
func IsDomainError(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// CodeOf returns the error code carried by err, or the empty string if err is
// not a domain error.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
