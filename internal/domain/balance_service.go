package domain

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventPublisher publishes domain events to external systems (e.g. RabbitMQ).
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, tx *Transaction) error
}

// BalanceService handles the business logic for balance-affecting operations.
// It coordinates validation, balance mutation, and ledger recording, and is
// the only component that writes account balances.
type BalanceService struct {
	userRepo    UserRepository
	accountRepo AccountRepository
	txRepo      TransactionRepository
	txManager   TransactionManager
	// Optional event publisher to emit domain events after a record is committed
	eventPublisher EventPublisher

	// newID and now are injectable for deterministic tests
	newID func() string
	now   func() time.Time
}

// NewBalanceService creates a new instance of BalanceService.
// Pass nil for eventPublisher if no events should be emitted.
func NewBalanceService(
	userRepo UserRepository,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	txManager TransactionManager,
	eventPublisher EventPublisher,
) *BalanceService {
	return &BalanceService{
		userRepo:       userRepo,
		accountRepo:    accountRepo,
		txRepo:         txRepo,
		txManager:      txManager,
		eventPublisher: eventPublisher,
		newID:          newTransactionID,
		now:            time.Now,
	}
}

// newTransactionID generates a collision-resistant opaque transaction token.
func newTransactionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// UseBalance debits amount from the account after validating that the user
// exists, owns the account, the account is active, and the balance suffices.
//
// The balance mutation and the ledger append are executed atomically:
// 1. Resolve the requesting user
// 2. Lock the account row (serializes same-account operations)
// 3. Run the use-balance validation rules, first failure wins
// 4. Subtract amount from the balance
// 5. Append a USE/SUCCESS record with the post-mutation balance
//
// On any rule violation the operation aborts with no mutation and no ledger
// entry; recording the rejected attempt is the caller's job via RecordFailedUse.
func (s *BalanceService) UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var record *Transaction
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		account, err := s.accountRepo.Lock(txCtx, accountNumber)
		if err != nil {
			return err
		}

		if err := validateUse(user, account, amount); err != nil {
			return err
		}

		newBalance, err := s.accountRepo.AdjustBalance(txCtx, accountNumber, -amount)
		if err != nil {
			return fmt.Errorf("failed to adjust balance: %w", err)
		}

		record = s.newRecord(TransactionTypeUse, TransactionResultSuccess, accountNumber, amount, newBalance)
		if err := s.txRepo.Append(txCtx, record); err != nil {
			return fmt.Errorf("failed to append transaction record: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(record)

	return record, nil
}

// RecordFailedUse appends a USE/FAIL record for a rejected use attempt.
// The account is re-resolved and its unchanged balance captured as the
// snapshot. Called by the request layer after UseBalance returns a domain
// error; the original error must still be propagated regardless of what
// happens here.
func (s *BalanceService) RecordFailedUse(ctx context.Context, accountNumber string, amount int64) (*Transaction, error) {
	return s.recordFailed(ctx, TransactionTypeUse, accountNumber, amount)
}

// CancelBalance credits amount back to the account, reversing a prior
// successful use. Mirrors UseBalance structurally:
// 1. Resolve the original transaction
// 2. Lock the account row
// 3. Validate linkage, amount equality, cancellability, and recency
// 4. Reject if the original was already cancelled
// 5. Add amount back to the balance
// 6. Append a CANCEL/SUCCESS record linked to the original
func (s *BalanceService) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var record *Transaction
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		original, err := s.txRepo.GetByTransactionID(txCtx, transactionID)
		if err != nil {
			return err
		}

		account, err := s.accountRepo.Lock(txCtx, accountNumber)
		if err != nil {
			return err
		}

		if err := validateCancel(original, account, amount, s.now()); err != nil {
			return err
		}

		cancellation, err := s.txRepo.FindCancellation(txCtx, original.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to look up prior cancellation: %w", err)
		}
		if cancellation != nil {
			return ErrTransactionAlreadyCancelled
		}

		newBalance, err := s.accountRepo.AdjustBalance(txCtx, accountNumber, amount)
		if err != nil {
			return fmt.Errorf("failed to adjust balance: %w", err)
		}

		record = s.newRecord(TransactionTypeCancel, TransactionResultSuccess, accountNumber, amount, newBalance)
		record.RelatedTransactionID = original.TransactionID
		if err := s.txRepo.Append(txCtx, record); err != nil {
			return fmt.Errorf("failed to append transaction record: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(record)

	return record, nil
}

// RecordFailedCancel appends a CANCEL/FAIL record for a rejected cancel
// attempt, with the unchanged balance as the snapshot.
func (s *BalanceService) RecordFailedCancel(ctx context.Context, accountNumber string, amount int64) (*Transaction, error) {
	return s.recordFailed(ctx, TransactionTypeCancel, accountNumber, amount)
}

// recordFailed re-resolves the account and appends a FAIL record of the given
// type. It is deliberately decoupled from the validating operations so an
// infrastructure error here (e.g. the account vanished between lookups) never
// masks the original failure reason.
func (s *BalanceService) recordFailed(ctx context.Context, txType TransactionType, accountNumber string, amount int64) (*Transaction, error) {
	account, err := s.accountRepo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	record := s.newRecord(txType, TransactionResultFail, accountNumber, amount, account.Balance)
	if err := s.txRepo.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to append transaction record: %w", err)
	}

	s.publish(record)

	return record, nil
}

// newRecord builds a ledger record with a fresh transaction ID and timestamp.
func (s *BalanceService) newRecord(txType TransactionType, result TransactionResult, accountNumber string, amount, balanceSnapshot int64) *Transaction {
	return &Transaction{
		TransactionID:   s.newID(),
		Type:            txType,
		Result:          result,
		AccountNumber:   accountNumber,
		Amount:          amount,
		BalanceSnapshot: balanceSnapshot,
		TransactedAt:    s.now(),
	}
}

// publish emits a transaction.recorded event after the record was committed.
// We publish asynchronously so that transient broker failures don't make an
// already-committed operation appear to fail.
func (s *BalanceService) publish(record *Transaction) {
	if s.eventPublisher == nil || record == nil {
		return
	}

	go func(tx *Transaction) {
		if err := s.eventPublisher.PublishTransactionRecorded(context.Background(), tx); err != nil {
			log.Printf("warning: failed to publish transaction recorded event: %v", err)
		}
	}(record)
}
