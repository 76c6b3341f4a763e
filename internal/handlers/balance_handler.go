package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Goldbar97/Account/internal/domain"
)

// BalanceEngine is the slice of the balance service the HTTP layer needs.
type BalanceEngine interface {
	UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.Transaction, error)
	RecordFailedUse(ctx context.Context, accountNumber string, amount int64) (*domain.Transaction, error)
	CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.Transaction, error)
	RecordFailedCancel(ctx context.Context, accountNumber string, amount int64) (*domain.Transaction, error)
}

// TransactionHandler exposes the balance operations over JSON HTTP.
type TransactionHandler struct {
	engine BalanceEngine
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(engine BalanceEngine) *TransactionHandler {
	return &TransactionHandler{
		engine: engine,
	}
}

// Routes returns the router for the transaction endpoints.
func (h *TransactionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/transaction/use", h.UseBalance)
	r.Post("/transaction/cancel", h.CancelBalance)
	return r
}

type useBalanceRequest struct {
	UserID        int64  `json:"userId"`
	AccountNumber string `json:"accountNumber"`
	Amount        int64  `json:"amount"`
}

type cancelBalanceRequest struct {
	TransactionID string `json:"transactionId"`
	AccountNumber string `json:"accountNumber"`
	Amount        int64  `json:"amount"`
}

type transactionResponse struct {
	TransactionID   string `json:"transactionId"`
	AccountNumber   string `json:"accountNumber"`
	Result          string `json:"transactionResult"`
	Amount          int64  `json:"amount"`
	BalanceSnapshot int64  `json:"balanceSnapshot"`
	TransactedAt    string `json:"transactedAt"`
}

type errorResponse struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// UseBalance handles POST /transaction/use.
// On a domain error the rejected attempt is still recorded in the ledger
// before the original error is returned to the client.
func (h *TransactionHandler) UseBalance(w http.ResponseWriter, r *http.Request) {
	var req useBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	record, err := h.engine.UseBalance(r.Context(), req.UserID, req.AccountNumber, req.Amount)
	if err != nil {
		if domain.IsDomainError(err) {
			log.Printf("use balance rejected: %v", err)
			h.recordFailedUse(r.Context(), req.AccountNumber, req.Amount)
		}
		sendDomainError(w, err)
		return
	}

	sendTransactionResponse(w, record)
}

// CancelBalance handles POST /transaction/cancel.
func (h *TransactionHandler) CancelBalance(w http.ResponseWriter, r *http.Request) {
	var req cancelBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	record, err := h.engine.CancelBalance(r.Context(), req.TransactionID, req.AccountNumber, req.Amount)
	if err != nil {
		if domain.IsDomainError(err) {
			log.Printf("cancel balance rejected: %v", err)
			h.recordFailedCancel(r.Context(), req.AccountNumber, req.Amount)
		}
		sendDomainError(w, err)
		return
	}

	sendTransactionResponse(w, record)
}

// recordFailedUse appends a FAIL record for a rejected use attempt.
// Failure recording is best-effort: a secondary error is logged and must not
// suppress the original domain error.
func (h *TransactionHandler) recordFailedUse(ctx context.Context, accountNumber string, amount int64) {
	if _, err := h.engine.RecordFailedUse(ctx, accountNumber, amount); err != nil {
		log.Printf("warning: failed to record rejected use attempt: %v", err)
	}
}

// recordFailedCancel appends a FAIL record for a rejected cancel attempt.
func (h *TransactionHandler) recordFailedCancel(ctx context.Context, accountNumber string, amount int64) {
	if _, err := h.engine.RecordFailedCancel(ctx, accountNumber, amount); err != nil {
		log.Printf("warning: failed to record rejected cancel attempt: %v", err)
	}
}

// sendTransactionResponse writes a transaction record as JSON.
func sendTransactionResponse(w http.ResponseWriter, record *domain.Transaction) {
	resp := transactionResponse{
		TransactionID:   record.TransactionID,
		AccountNumber:   record.AccountNumber,
		Result:          string(record.Result),
		Amount:          record.Amount,
		BalanceSnapshot: record.BalanceSnapshot,
		TransactedAt:    record.TransactedAt.UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// sendDomainError maps a domain error to an HTTP status and error body.
func sendDomainError(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	if code == "" {
		sendErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	status := http.StatusBadRequest
	switch code {
	case domain.CodeUserNotFound, domain.CodeAccountNotFound, domain.CodeTransactionNotFound:
		status = http.StatusNotFound
	}

	sendErrorResponse(w, status, string(code), err.Error())
}

// sendErrorResponse writes a JSON error response.
func sendErrorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{
		ErrorCode:    code,
		ErrorMessage: message,
	})
}
