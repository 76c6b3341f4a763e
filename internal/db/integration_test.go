package db_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Goldbar97/Account/internal/db"
	"github.com/Goldbar97/Account/internal/domain"
)

// TestBalanceServiceIntegration runs the engine against a real PostgreSQL
// instance: schema setup, a successful use, failure recording, a cancel, and
// a same-account concurrency check over the row lock.
func TestBalanceServiceIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	postgresContainer, dbURL := startPostgresContainer(t, ctx)
	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	}()

	pool, err := db.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	runMigrations(t, ctx, pool)
	seedTestData(t, ctx, pool)

	userRepo := db.NewUserRepository(pool.Pool)
	accountRepo := db.NewAccountRepository(pool.Pool)
	txRepo := db.NewTransactionRepository(pool.Pool)
	txManager := db.NewTransactionManager(pool.Pool)
	service := domain.NewBalanceService(userRepo, accountRepo, txRepo, txManager, nil)

	// Successful use: 10000 - 200 = 9800
	record, err := service.UseBalance(ctx, 1, "1000000012", 200)
	if err != nil {
		t.Fatalf("UseBalance failed: %v", err)
	}
	if record.BalanceSnapshot != 9800 {
		t.Errorf("expected balance snapshot 9800, got %d", record.BalanceSnapshot)
	}

	account, err := accountRepo.GetByNumber(ctx, "1000000012")
	if err != nil {
		t.Fatalf("GetByNumber failed: %v", err)
	}
	if account.Balance != 9800 {
		t.Errorf("expected balance 9800, got %d", account.Balance)
	}

	// The record is durably readable by its token
	stored, err := txRepo.GetByTransactionID(ctx, record.TransactionID)
	if err != nil {
		t.Fatalf("GetByTransactionID failed: %v", err)
	}
	if stored.Type != domain.TransactionTypeUse || stored.Result != domain.TransactionResultSuccess {
		t.Errorf("unexpected stored record: %+v", stored)
	}

	// Rejected use leaves the balance alone; the caller records the failure
	_, err = service.UseBalance(ctx, 1, "1000000012", 100000)
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	failRecord, err := service.RecordFailedUse(ctx, "1000000012", 100000)
	if err != nil {
		t.Fatalf("RecordFailedUse failed: %v", err)
	}
	if failRecord.Result != domain.TransactionResultFail {
		t.Errorf("expected FAIL record, got %s", failRecord.Result)
	}
	if failRecord.BalanceSnapshot != 9800 {
		t.Errorf("expected unchanged snapshot 9800, got %d", failRecord.BalanceSnapshot)
	}

	// Cancel restores the balance and links back to the original
	cancelRecord, err := service.CancelBalance(ctx, record.TransactionID, "1000000012", 200)
	if err != nil {
		t.Fatalf("CancelBalance failed: %v", err)
	}
	if cancelRecord.BalanceSnapshot != 10000 {
		t.Errorf("expected balance snapshot 10000, got %d", cancelRecord.BalanceSnapshot)
	}
	if cancelRecord.RelatedTransactionID != record.TransactionID {
		t.Errorf("expected reverse link to %s, got %s", record.TransactionID, cancelRecord.RelatedTransactionID)
	}

	// Cancelling twice is rejected
	_, err = service.CancelBalance(ctx, record.TransactionID, "1000000012", 200)
	if !errors.Is(err, domain.ErrTransactionAlreadyCancelled) {
		t.Fatalf("expected ErrTransactionAlreadyCancelled, got %v", err)
	}

	t.Run("concurrent same-account uses are serialized", func(t *testing.T) {
		testConcurrentUses(t, ctx, service, accountRepo)
	})
}

// testConcurrentUses fires 10 concurrent uses of 100 against an account
// holding 500. Exactly 5 may succeed and the balance must land on 0, never
// below.
func testConcurrentUses(t *testing.T, ctx context.Context, service *domain.BalanceService, accountRepo *db.AccountRepository) {
	const (
		workers = 10
		amount  = 100
	)

	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.UseBalance(ctx, 2, "2000000034", amount)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, insufficient int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrInsufficientBalance):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if successes != 5 {
		t.Errorf("expected exactly 5 successful uses, got %d", successes)
	}
	if insufficient != 5 {
		t.Errorf("expected 5 insufficient-balance rejections, got %d", insufficient)
	}

	account, err := accountRepo.GetByNumber(ctx, "2000000034")
	if err != nil {
		t.Fatalf("GetByNumber failed: %v", err)
	}
	if account.Balance != 0 {
		t.Errorf("expected final balance 0, got %d", account.Balance)
	}
}

// startPostgresContainer starts a PostgreSQL testcontainer and returns the connection URL.
func startPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get postgres host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get postgres port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	return container, dbURL
}

// runMigrations runs the database migrations.
func runMigrations(t *testing.T, ctx context.Context, pool *db.Pool) {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS accounts (
			account_number VARCHAR(20) PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			status VARCHAR(10) NOT NULL,
			balance BIGINT NOT NULL CHECK (balance >= 0),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id VARCHAR(64) PRIMARY KEY,
			type VARCHAR(10) NOT NULL,
			result VARCHAR(10) NOT NULL,
			account_number VARCHAR(20) NOT NULL REFERENCES accounts(account_number),
			amount BIGINT NOT NULL CHECK (amount > 0),
			balance_snapshot BIGINT NOT NULL,
			related_transaction_id VARCHAR(64),
			transacted_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_account_number ON transactions(account_number);
		CREATE INDEX IF NOT EXISTS idx_transactions_related ON transactions(related_transaction_id);`,
	}

	for i, migration := range migrations {
		if _, err := pool.Pool.Exec(ctx, migration); err != nil {
			t.Fatalf("failed to run migration %d: %v", i+1, err)
		}
	}
}

// seedTestData creates test users and accounts with initial balances.
func seedTestData(t *testing.T, ctx context.Context, pool *db.Pool) {
	users := []struct {
		id   int64
		name string
	}{
		{1, "alice"},
		{2, "bob"},
	}
	for _, u := range users {
		query := `INSERT INTO users (id, name) VALUES ($1, $2)`
		if _, err := pool.Pool.Exec(ctx, query, u.id, u.name); err != nil {
			t.Fatalf("failed to create test user %d: %v", u.id, err)
		}
	}

	accounts := []struct {
		number  string
		userID  int64
		balance int64
	}{
		{"1000000012", 1, 10000},
		{"2000000034", 2, 500},
	}
	for _, acc := range accounts {
		query := `INSERT INTO accounts (account_number, user_id, status, balance)
				  VALUES ($1, $2, 'ACTIVE', $3)`
		if _, err := pool.Pool.Exec(ctx, query, acc.number, acc.userID, acc.balance); err != nil {
			t.Fatalf("failed to create test account %s: %v", acc.number, err)
		}
	}
}
