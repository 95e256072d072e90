package models

// SplitTenderRequest describes a single charge split between the stored-value
// ledger and the card processor. Amounts are in minor currency units.
type SplitTenderRequest struct {
	// UserSuppliedID is the caller-chosen idempotency key for the whole
	// operation. The ledger capture and void identifiers are derived from it.
	UserSuppliedID string `json:"userSuppliedId"`
	Currency       string `json:"currency"`
	Amount         int64  `json:"amount"`

	// CustomerRef resolves the ledger account. Required whenever the ledger
	// share is non-zero; ignored otherwise.
	CustomerRef string `json:"customerRef,omitempty"`

	// Source is a card token; Customer a stored payment profile. The card
	// processor uses Source when both are set.
	Source   string `json:"source,omitempty"`
	Customer string `json:"customer,omitempty"`

	// Metadata is merged with, never overwritten by, the split-tender
	// annotation keys before being sent to either backend.
	Metadata map[string]any `json:"metadata,omitempty"`

	// NSFCheck applies to simulation only. Unset means true: a ledger share
	// the instrument cannot cover fails the simulation.
	NSFCheck *bool `json:"nsf,omitempty"`
}

// NSFEnabled reports the effective nsf setting, defaulting to true.
func (r *SplitTenderRequest) NSFEnabled() bool {
	return r.NSFCheck == nil || *r.NSFCheck
}
