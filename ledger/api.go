package ledger

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alovak/splittender/ledger/models"
	"github.com/go-chi/chi/v5"
)

// API is the HTTP API for the ledger service
type API struct {
	ledger *Service
}

func NewAPI(ledger *Service) *API {
	return &API{
		ledger: ledger,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", a.createAccount)
		r.Get("/ref/{customerRef}", a.resolveAccount)
		r.Route("/{accountID}", func(r chi.Router) {
			r.Post("/instruments", a.createInstrument)
			r.Get("/instruments/{currency}", a.getInstrument)
		})
	})
	r.Route("/instruments/{instrumentID}/transactions", func(r chi.Router) {
		r.Post("/", a.createDebit)
		r.Get("/", a.listTransactions)
		r.Post("/simulate", a.simulateDebit)
		r.Post("/{transactionID}/capture", a.captureDebit)
		r.Post("/{transactionID}/void", a.voidDebit)
	})
}

func (a *API) createAccount(w http.ResponseWriter, r *http.Request) {
	create := models.CreateAccount{}
	if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := a.ledger.CreateAccount(r.Context(), create)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

func (a *API) resolveAccount(w http.ResponseWriter, r *http.Request) {
	customerRef := chi.URLParam(r, "customerRef")

	account, err := a.ledger.ResolveAccount(r.Context(), customerRef)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (a *API) createInstrument(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	create := models.CreateInstrument{}
	if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	instrument, err := a.ledger.CreateInstrument(r.Context(), accountID, create)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, instrument)
}

func (a *API) getInstrument(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	currency := chi.URLParam(r, "currency")

	instrument, err := a.ledger.ResolveInstrument(r.Context(), accountID, currency)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, instrument)
}

func (a *API) createDebit(w http.ResponseWriter, r *http.Request) {
	instrumentID := chi.URLParam(r, "instrumentID")

	debit := models.DebitRequest{}
	if err := json.NewDecoder(r.Body).Decode(&debit); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txn, err := a.ledger.CreateDebit(r.Context(), instrumentID, debit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, txn)
}

func (a *API) simulateDebit(w http.ResponseWriter, r *http.Request) {
	instrumentID := chi.URLParam(r, "instrumentID")

	simulate := models.SimulateRequest{}
	if err := json.NewDecoder(r.Body).Decode(&simulate); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txn, err := a.ledger.SimulateDebit(r.Context(), instrumentID, simulate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txn)
}

func (a *API) captureDebit(w http.ResponseWriter, r *http.Request) {
	a.finalizeDebit(w, r, true)
}

func (a *API) voidDebit(w http.ResponseWriter, r *http.Request) {
	a.finalizeDebit(w, r, false)
}

func (a *API) finalizeDebit(w http.ResponseWriter, r *http.Request, capture bool) {
	instrumentID := chi.URLParam(r, "instrumentID")
	transactionID := chi.URLParam(r, "transactionID")

	finalize := models.FinalizeRequest{}
	if err := json.NewDecoder(r.Body).Decode(&finalize); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var txn *models.Transaction
	var err error
	if capture {
		txn, err = a.ledger.CaptureDebit(r.Context(), instrumentID, transactionID, finalize)
	} else {
		txn, err = a.ledger.VoidDebit(r.Context(), instrumentID, transactionID, finalize)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, txn)
}

func (a *API) listTransactions(w http.ResponseWriter, r *http.Request) {
	instrumentID := chi.URLParam(r, "instrumentID")

	transactions, err := a.ledger.ListTransactions(r.Context(), instrumentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transactions)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
