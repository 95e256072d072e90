package models

// SplitTenderCharge is the orchestration result. Either side may be nil
// depending on which backends participated in the split.
type SplitTenderCharge struct {
	LedgerTransaction *LedgerTransaction `json:"ledgerTransaction"`
	CardCharge        *CardCharge        `json:"cardCharge"`
}

// LedgerTransaction is the orchestrator's view of a ledger debit record.
type LedgerTransaction struct {
	TransactionID  string         `json:"transactionId"`
	UserSuppliedID string         `json:"userSuppliedId"`
	Value          int64          `json:"value"`
	Currency       string         `json:"currency"`
	Pending        bool           `json:"pending"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// CardCharge is the card processor's charge record.
type CardCharge struct {
	ID       string         `json:"id"`
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Status   string         `json:"status"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Account is a ledger account resolved from a customer reference.
type Account struct {
	ID          string `json:"id"`
	CustomerRef string `json:"customerRef"`
}

// Instrument is a per-currency stored-value account under an Account.
type Instrument struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	Currency  string `json:"currency"`
}

// DebitParams creates a ledger debit. Value is negative for a debit.
type DebitParams struct {
	Value          int64          `json:"value"`
	Currency       string         `json:"currency"`
	Pending        bool           `json:"pending"`
	UserSuppliedID string         `json:"userSuppliedId"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// FinalizeParams captures or voids a pending ledger debit.
type FinalizeParams struct {
	UserSuppliedID string         `json:"userSuppliedId"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// SimulateParams dry-runs a ledger debit without moving funds.
type SimulateParams struct {
	Value          int64          `json:"value"`
	Currency       string         `json:"currency"`
	UserSuppliedID string         `json:"userSuppliedId"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	NSFCheck       bool           `json:"nsfCheck"`
}

// CardChargeParams is the request to the card processor.
type CardChargeParams struct {
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Source   string         `json:"source,omitempty"`
	Customer string         `json:"customer,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
