package tender

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alovak/splittender/processor"
	"github.com/alovak/splittender/tender/models"
	"github.com/go-chi/chi/v5"
)

// API is the HTTP API for split-tender charges
type API struct {
	tender *Service
}

func NewAPI(tender *Service) *API {
	return &API{
		tender: tender,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Route("/split-tender-charges", func(r chi.Router) {
		r.Post("/", a.createCharge)
		r.Post("/simulate", a.simulateCharge)
	})
}

type chargeRequest struct {
	models.SplitTenderRequest
	LedgerShare int64 `json:"ledgerShare"`
}

func (a *API) createCharge(w http.ResponseWriter, r *http.Request) {
	create := chargeRequest{}
	if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := a.tender.CreateCharge(r.Context(), &create.SplitTenderRequest, create.LedgerShare)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (a *API) simulateCharge(w http.ResponseWriter, r *http.Request) {
	simulate := chargeRequest{}
	if err := json.NewDecoder(r.Body).Decode(&simulate); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := a.tender.SimulateCharge(r.Context(), &simulate.SplitTenderRequest, simulate.LedgerShare)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	var compensationErr *CompensationError
	var apiErr *processor.APIError

	switch {
	case errors.As(err, &validationErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrAccountNotFound), errors.Is(err, models.ErrInstrumentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.As(err, &compensationErr):
		// The backends disagree; surface distinctly so the caller can alert.
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &apiErr):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
