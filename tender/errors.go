package tender

import "fmt"

// ValidationError rejects a request before any side effect is performed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid split-tender request: " + e.Reason
}

// CompensationError reports that a capture or void failed after the card
// outcome was already known. At this point the two backends disagree and the
// orchestrator does not attempt automatic recovery; the caller must
// reconcile the reservation named by LedgerErr out of band.
type CompensationError struct {
	// Op is the ledger operation that failed: "capture" or "void".
	Op string
	// CardErr is the card processor error that triggered the void, nil when
	// the card charge succeeded and the capture failed.
	CardErr   error
	LedgerErr error
}

func (e *CompensationError) Error() string {
	if e.CardErr != nil {
		return fmt.Sprintf("ledger %s failed after card error (%v): %v", e.Op, e.CardErr, e.LedgerErr)
	}
	return fmt.Sprintf("ledger %s failed after successful card charge: %v", e.Op, e.LedgerErr)
}

func (e *CompensationError) Unwrap() error {
	return e.LedgerErr
}
