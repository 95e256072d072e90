package tender

import "github.com/alovak/splittender/tender/models"

// validate checks the request shape and the share invariants. It runs before
// any network call; a failure here guarantees no side effect was performed.
func validate(req *models.SplitTenderRequest, ledgerShare int64) error {
	switch {
	case req == nil:
		return &ValidationError{Reason: "request not set"}
	case req.UserSuppliedID == "":
		return &ValidationError{Reason: "userSuppliedId not set"}
	case req.Amount <= 0:
		return &ValidationError{Reason: "amount must be greater than zero"}
	case ledgerShare < 0:
		return &ValidationError{Reason: "ledger share must not be negative"}
	case ledgerShare > req.Amount:
		return &ValidationError{Reason: "ledger share greater than total transaction amount"}
	}

	return nil
}
