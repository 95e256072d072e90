package ledger_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/alovak/splittender/ledger"
	"github.com/alovak/splittender/ledger/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	_ "github.com/lib/pq"
)

// Exercises the Postgres repository end to end. Skips unless DB_DSN is
// provided; the ledger schema (ledger/schema.sql) must be applied.
func TestPGRepositorySplitFlow(t *testing.T) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		t.Skip("DB_DSN not set; skipping DB integration test")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Ping())

	svc := ledger.NewService(ledger.NewPGRepository(db))
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, models.CreateAccount{CustomerRef: "it-" + uuid.New().String()})
	require.NoError(t, err)

	instrument, err := svc.CreateInstrument(ctx, account.ID, models.CreateInstrument{Currency: "USD", Balance: 10_00})
	require.NoError(t, err)

	pending, err := svc.CreateDebit(ctx, instrument.ID, models.DebitRequest{
		Value:          -4_50,
		Currency:       "USD",
		Pending:        true,
		UserSuppliedID: uuid.New().String(),
		Metadata:       map[string]any{"destination": "test"},
	})
	require.NoError(t, err)

	held, err := svc.ResolveInstrument(ctx, account.ID, "USD")
	require.NoError(t, err)
	require.Equal(t, int64(5_50), held.AvailableBalance)
	require.Equal(t, int64(4_50), held.HoldBalance)

	voided, err := svc.VoidDebit(ctx, instrument.ID, pending.ID, models.FinalizeRequest{
		UserSuppliedID: pending.UserSuppliedID + "-void",
	})
	require.NoError(t, err)
	require.Equal(t, models.TransactionStatusVoided, voided.Status)
	require.Equal(t, "test", voided.Metadata["destination"])

	restored, err := svc.ResolveInstrument(ctx, account.ID, "USD")
	require.NoError(t, err)
	require.Equal(t, int64(10_00), restored.AvailableBalance)
	require.Equal(t, int64(0), restored.HoldBalance)
}
