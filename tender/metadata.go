package tender

// Annotation keys recorded on both backends. Each backend can locate the
// other backend's record from its own stored metadata alone; this is the
// only cross-system audit mechanism the split has.
const (
	metaTotalKey              = "_split_tender_total"
	metaPartnerKey            = "_split_tender_partner"
	metaPartnerTransactionKey = "_split_tender_partner_transaction_id"
)

const (
	partnerLedger = "LEDGER"
	partnerCard   = "CARD"
)

// stitchMetadata merges the caller's annotations with the split-tender keys.
// It always returns a fresh map: caller keys are preserved, system keys win,
// and the caller's map is never mutated.
func stitchMetadata(caller map[string]any, total int64, partner string) map[string]any {
	merged := make(map[string]any, len(caller)+3)
	for k, v := range caller {
		merged[k] = v
	}
	merged[metaTotalKey] = total
	merged[metaPartnerKey] = partner

	return merged
}

// stitchPartnerTransaction additionally records the partner backend's
// transaction identifier. The ledger side gets this only at capture/void
// time, once the card charge id is known; the card side gets it up front
// with the reservation id (or "" when no ledger participated).
func stitchPartnerTransaction(caller map[string]any, total int64, partner, partnerTransactionID string) map[string]any {
	merged := stitchMetadata(caller, total, partner)
	merged[metaPartnerTransactionKey] = partnerTransactionID

	return merged
}
