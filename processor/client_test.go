package processor_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/alovak/splittender/processor"
	"github.com/alovak/splittender/tender/models"
	"github.com/stretchr/testify/require"
)

func newSandboxClient(t *testing.T, apiKey string) *processor.Client {
	t.Helper()

	srv := httptest.NewServer(processor.NewSandbox("sk_test").Handler())
	t.Cleanup(srv.Close)

	return processor.New(srv.URL, apiKey, nil)
}

func TestCharge(t *testing.T) {
	client := newSandboxClient(t, "sk_test")

	charge, err := client.Charge(context.Background(), models.CardChargeParams{
		Amount:   5_50,
		Currency: "USD",
		Source:   "tok_visa",
		Metadata: map[string]any{"destination": "test"},
	}, "order-1")
	require.NoError(t, err)

	require.NotEmpty(t, charge.ID)
	require.Equal(t, int64(5_50), charge.Amount)
	require.Equal(t, "succeeded", charge.Status)
	require.Equal(t, "test", charge.Metadata["destination"])
}

func TestChargeDeclined(t *testing.T) {
	client := newSandboxClient(t, "sk_test")

	_, err := client.Charge(context.Background(), models.CardChargeParams{
		Amount:   5_50,
		Currency: "USD",
		Source:   processor.SourceDeclined,
	}, "order-1")

	var apiErr *processor.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 402, apiErr.StatusCode)
	require.Equal(t, "card_declined", apiErr.Code)
}

func TestChargeIdempotentReplay(t *testing.T) {
	client := newSandboxClient(t, "sk_test")

	params := models.CardChargeParams{
		Amount:   5_50,
		Currency: "USD",
		Source:   "tok_visa",
	}

	first, err := client.Charge(context.Background(), params, "order-1")
	require.NoError(t, err)

	second, err := client.Charge(context.Background(), params, "order-1")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	third, err := client.Charge(context.Background(), params, "order-2")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, third.ID)
}

func TestChargeInvalidAPIKey(t *testing.T) {
	client := newSandboxClient(t, "sk_wrong")

	_, err := client.Charge(context.Background(), models.CardChargeParams{
		Amount:   5_50,
		Currency: "USD",
		Source:   "tok_visa",
	}, "order-1")

	var apiErr *processor.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 401, apiErr.StatusCode)
	require.Equal(t, "invalid_api_key", apiErr.Code)
}

func TestChargePrefersSourceOverCustomer(t *testing.T) {
	client := newSandboxClient(t, "sk_test")

	charge, err := client.Charge(context.Background(), models.CardChargeParams{
		Amount:   5_50,
		Currency: "USD",
		Source:   "tok_visa",
		Customer: "cus_1",
	}, "order-1")
	require.NoError(t, err)
	require.Equal(t, "succeeded", charge.Status)

	_, err = client.Charge(context.Background(), models.CardChargeParams{
		Amount:   5_50,
		Currency: "USD",
	}, "order-2")

	var apiErr *processor.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "missing_payment_source", apiErr.Code)
}
