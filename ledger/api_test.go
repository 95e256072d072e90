package ledger_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alovak/splittender/ledger"
	"github.com/alovak/splittender/ledger/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestAPI(t *testing.T) {
	router := chi.NewRouter()

	api := ledger.NewAPI(ledger.NewService(ledger.NewRepository()))
	api.AppendRoutes(router)

	do := func(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(method, path, &buf)
		router.ServeHTTP(w, req)
		return w
	}

	var account models.Account
	t.Run("create account", func(t *testing.T) {
		w := do(t, http.MethodPost, "/accounts", models.CreateAccount{CustomerRef: "shopper-1"})
		require.Equal(t, http.StatusCreated, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &account))
		require.NotEmpty(t, account.ID)
	})

	t.Run("resolve account by customer ref", func(t *testing.T) {
		w := do(t, http.MethodGet, "/accounts/ref/shopper-1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resolved models.Account
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolved))
		require.Equal(t, account.ID, resolved.ID)

		w = do(t, http.MethodGet, "/accounts/ref/nobody", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	var instrument models.Instrument
	t.Run("create instrument", func(t *testing.T) {
		w := do(t, http.MethodPost, "/accounts/"+account.ID+"/instruments", models.CreateInstrument{
			Currency: "USD",
			Balance:  10_00,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &instrument))
		require.Equal(t, int64(10_00), instrument.AvailableBalance)
	})

	var pending models.Transaction
	t.Run("create pending debit", func(t *testing.T) {
		w := do(t, http.MethodPost, "/instruments/"+instrument.ID+"/transactions", models.DebitRequest{
			Value:          -4_50,
			Currency:       "USD",
			Pending:        true,
			UserSuppliedID: "order-1",
			Metadata:       map[string]any{"destination": "test"},
		})
		require.Equal(t, http.StatusCreated, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
		require.Equal(t, models.TransactionStatusPending, pending.Status)
		require.Equal(t, "test", pending.Metadata["destination"])
	})

	t.Run("insufficient funds", func(t *testing.T) {
		w := do(t, http.MethodPost, "/instruments/"+instrument.ID+"/transactions", models.DebitRequest{
			Value:          -100_00,
			Currency:       "USD",
			Pending:        true,
			UserSuppliedID: "order-too-big",
		})
		require.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("capture pending debit", func(t *testing.T) {
		w := do(t, http.MethodPost, "/instruments/"+instrument.ID+"/transactions/"+pending.ID+"/capture", models.FinalizeRequest{
			UserSuppliedID: "order-1-capture",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var captured models.Transaction
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &captured))
		require.Equal(t, models.TransactionStatusCaptured, captured.Status)
		require.Equal(t, pending.ID, captured.ParentID)
	})

	t.Run("simulate debit", func(t *testing.T) {
		w := do(t, http.MethodPost, "/instruments/"+instrument.ID+"/transactions/simulate", models.SimulateRequest{
			Value:          -100_00,
			Currency:       "USD",
			UserSuppliedID: "order-2",
			NSFCheck:       true,
		})
		require.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("list transactions", func(t *testing.T) {
		w := do(t, http.MethodGet, "/instruments/"+instrument.ID+"/transactions", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var transactions []models.Transaction
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &transactions))
		require.Len(t, transactions, 2)
	})
}
