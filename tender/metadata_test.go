package tender

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStitchMetadataPreservesCallerKeys(t *testing.T) {
	caller := map[string]any{"destination": "test"}

	merged := stitchMetadata(caller, 1000, partnerCard)

	require.Equal(t, "test", merged["destination"])
	require.Equal(t, int64(1000), merged[metaTotalKey])
	require.Equal(t, "CARD", merged[metaPartnerKey])
	require.NotContains(t, merged, metaPartnerTransactionKey)
}

func TestStitchMetadataSystemKeysWin(t *testing.T) {
	caller := map[string]any{
		metaTotalKey:   "sneaky",
		metaPartnerKey: "sneaky",
	}

	merged := stitchPartnerTransaction(caller, 500, partnerLedger, "txn-1")

	require.Equal(t, int64(500), merged[metaTotalKey])
	require.Equal(t, "LEDGER", merged[metaPartnerKey])
	require.Equal(t, "txn-1", merged[metaPartnerTransactionKey])
}

func TestStitchMetadataNeverMutatesCallerMap(t *testing.T) {
	caller := map[string]any{"k": "v"}

	stitchMetadata(caller, 1000, partnerCard)
	stitchPartnerTransaction(caller, 1000, partnerLedger, "txn-1")

	require.Equal(t, map[string]any{"k": "v"}, caller)
}

func TestStitchMetadataNilCaller(t *testing.T) {
	merged := stitchPartnerTransaction(nil, 100, partnerLedger, "")

	require.Equal(t, int64(100), merged[metaTotalKey])
	require.Equal(t, "", merged[metaPartnerTransactionKey])
}
