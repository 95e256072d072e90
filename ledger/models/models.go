package models

import (
	"fmt"
	"time"
)

var ErrInsufficientFunds = fmt.Errorf("insufficient funds")

// Account groups a customer's stored-value instruments. CustomerRef is the
// caller-facing identifier used to resolve the account.
type Account struct {
	ID          string    `json:"id"`
	CustomerRef string    `json:"customerRef"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Instrument is a single-currency stored-value balance. Balances are in
// minor currency units. AvailableBalance excludes held funds.
type Instrument struct {
	ID               string `json:"id"`
	AccountID        string `json:"accountId"`
	Currency         string `json:"currency"`
	AvailableBalance int64  `json:"availableBalance"`
	HoldBalance      int64  `json:"holdBalance"`
}

type TransactionStatus string

const (
	// TransactionStatusPending holds funds until capture or void.
	TransactionStatusPending TransactionStatus = "PENDING"
	// TransactionStatusCommitted is a debit finalized at creation time.
	TransactionStatusCommitted TransactionStatus = "COMMITTED"
	TransactionStatusCaptured  TransactionStatus = "CAPTURED"
	TransactionStatusVoided    TransactionStatus = "VOIDED"
	// TransactionStatusSimulated transactions are never persisted.
	TransactionStatusSimulated TransactionStatus = "SIMULATED"
)

// Transaction is a debit (or its capture/void finalization) on an
// instrument. Value is negative for debits. Capture and void records
// reference the reservation they finalize via ParentID.
type Transaction struct {
	ID             string            `json:"transactionId"`
	InstrumentID   string            `json:"instrumentId"`
	ParentID       string            `json:"parentTransactionId,omitempty"`
	UserSuppliedID string            `json:"userSuppliedId"`
	Value          int64             `json:"value"`
	Currency       string            `json:"currency"`
	Pending        bool              `json:"pending"`
	Status         TransactionStatus `json:"status"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

type CreateAccount struct {
	CustomerRef string `json:"customerRef"`
}

type CreateInstrument struct {
	Currency string `json:"currency"`
	Balance  int64  `json:"balance"`
}

// DebitRequest creates a debit. Value must be negative. Pending debits hold
// funds; non-pending debits commit immediately.
type DebitRequest struct {
	Value          int64          `json:"value"`
	Currency       string         `json:"currency"`
	Pending        bool           `json:"pending"`
	UserSuppliedID string         `json:"userSuppliedId"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// FinalizeRequest captures or voids a pending debit under a new
// user-supplied identifier.
type FinalizeRequest struct {
	UserSuppliedID string         `json:"userSuppliedId"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// SimulateRequest dry-runs a debit. With NSFCheck set an uncoverable value
// is rejected; otherwise the simulated value is clamped to the available
// balance.
type SimulateRequest struct {
	Value          int64          `json:"value"`
	Currency       string         `json:"currency"`
	UserSuppliedID string         `json:"userSuppliedId"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	NSFCheck       bool           `json:"nsfCheck"`
}
