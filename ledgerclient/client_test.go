package ledgerclient_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/alovak/splittender/ledger"
	ledgermodels "github.com/alovak/splittender/ledger/models"
	"github.com/alovak/splittender/ledgerclient"
	"github.com/alovak/splittender/tender/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*ledgerclient.Client, *ledger.Service) {
	t.Helper()

	svc := ledger.NewService(ledger.NewRepository())

	router := chi.NewRouter()
	ledger.NewAPI(svc).AppendRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return ledgerclient.New(srv.URL, nil), svc
}

func setup(t *testing.T, svc *ledger.Service, balance int64) *ledgermodels.Account {
	t.Helper()

	account, err := svc.CreateAccount(context.Background(), ledgermodels.CreateAccount{CustomerRef: "shopper-1"})
	require.NoError(t, err)

	_, err = svc.CreateInstrument(context.Background(), account.ID, ledgermodels.CreateInstrument{
		Currency: "USD",
		Balance:  balance,
	})
	require.NoError(t, err)

	return account
}

func TestResolveAccount(t *testing.T) {
	client, svc := newClient(t)
	created := setup(t, svc, 10_00)

	account, err := client.ResolveAccount(context.Background(), "shopper-1")
	require.NoError(t, err)
	require.Equal(t, created.ID, account.ID)
	require.Equal(t, "shopper-1", account.CustomerRef)

	_, err = client.ResolveAccount(context.Background(), "nobody")
	require.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestResolveAccountInstrument(t *testing.T) {
	client, svc := newClient(t)
	setup(t, svc, 10_00)

	account, err := client.ResolveAccount(context.Background(), "shopper-1")
	require.NoError(t, err)

	instrument, err := client.ResolveAccountInstrument(context.Background(), account, "USD")
	require.NoError(t, err)
	require.NotNil(t, instrument)
	require.Equal(t, account.ID, instrument.AccountID)
	require.Equal(t, "USD", instrument.Currency)

	// No instrument for the currency is not an error.
	missing, err := client.ResolveAccountInstrument(context.Background(), account, "EUR")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestDebitLifecycle(t *testing.T) {
	client, svc := newClient(t)
	setup(t, svc, 10_00)

	ctx := context.Background()

	account, err := client.ResolveAccount(ctx, "shopper-1")
	require.NoError(t, err)
	instrument, err := client.ResolveAccountInstrument(ctx, account, "USD")
	require.NoError(t, err)

	pending, err := client.CreatePendingDebit(ctx, instrument, models.DebitParams{
		Value:          -4_50,
		Currency:       "USD",
		Pending:        true,
		UserSuppliedID: "order-1",
		Metadata:       map[string]any{"destination": "test"},
	})
	require.NoError(t, err)
	require.True(t, pending.Pending)
	require.Equal(t, "test", pending.Metadata["destination"])

	captured, err := client.CaptureDebit(ctx, instrument, pending, models.FinalizeParams{
		UserSuppliedID: "order-1-capture",
	})
	require.NoError(t, err)
	require.Equal(t, int64(-4_50), captured.Value)
	require.Equal(t, "order-1-capture", captured.UserSuppliedID)
}

func TestVoidDebit(t *testing.T) {
	client, svc := newClient(t)
	created := setup(t, svc, 10_00)

	ctx := context.Background()

	account, err := client.ResolveAccount(ctx, "shopper-1")
	require.NoError(t, err)
	instrument, err := client.ResolveAccountInstrument(ctx, account, "USD")
	require.NoError(t, err)

	pending, err := client.CreatePendingDebit(ctx, instrument, models.DebitParams{
		Value:          -4_50,
		Currency:       "USD",
		Pending:        true,
		UserSuppliedID: "order-1",
	})
	require.NoError(t, err)

	_, err = client.VoidDebit(ctx, instrument, pending, models.FinalizeParams{
		UserSuppliedID: "order-1-void",
	})
	require.NoError(t, err)

	restored, err := svc.ResolveInstrument(ctx, created.ID, "USD")
	require.NoError(t, err)
	require.Equal(t, int64(10_00), restored.AvailableBalance)
	require.Equal(t, int64(0), restored.HoldBalance)
}

func TestDebitInsufficientFunds(t *testing.T) {
	client, svc := newClient(t)
	setup(t, svc, 1_00)

	ctx := context.Background()

	account, err := client.ResolveAccount(ctx, "shopper-1")
	require.NoError(t, err)
	instrument, err := client.ResolveAccountInstrument(ctx, account, "USD")
	require.NoError(t, err)

	_, err = client.CreatePendingDebit(ctx, instrument, models.DebitParams{
		Value:          -4_50,
		Currency:       "USD",
		Pending:        true,
		UserSuppliedID: "order-1",
	})
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
}

func TestSimulateDebit(t *testing.T) {
	client, svc := newClient(t)
	setup(t, svc, 10_00)

	ctx := context.Background()

	account, err := client.ResolveAccount(ctx, "shopper-1")
	require.NoError(t, err)
	instrument, err := client.ResolveAccountInstrument(ctx, account, "USD")
	require.NoError(t, err)

	txn, err := client.SimulateDebit(ctx, instrument, models.SimulateParams{
		Value:          -100_00,
		Currency:       "USD",
		UserSuppliedID: "order-1",
		NSFCheck:       false,
	})
	require.NoError(t, err)
	require.Equal(t, int64(-10_00), txn.Value)

	_, err = client.SimulateDebit(ctx, instrument, models.SimulateParams{
		Value:          -100_00,
		Currency:       "USD",
		UserSuppliedID: "order-1",
		NSFCheck:       true,
	})
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
}
