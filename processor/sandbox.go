package processor

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SourceDeclined is a magic source token the sandbox always declines.
const SourceDeclined = "tok_chargeDeclined"

// Sandbox is a fake card gateway for tests and local development. It honors
// Idempotency-Key headers and declines SourceDeclined.
type Sandbox struct {
	apiKey string

	mu        sync.Mutex
	byIdemKey map[string]sandboxCharge
}

type sandboxCharge struct {
	ID       string         `json:"id"`
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Status   string         `json:"status"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewSandbox(apiKey string) *Sandbox {
	return &Sandbox{
		apiKey:    apiKey,
		byIdemKey: make(map[string]sandboxCharge),
	}
}

func (s *Sandbox) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/charges", s.createCharge)
	return r
}

func (s *Sandbox) createCharge(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") ||
		strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") != s.apiKey {
		writeGatewayError(w, http.StatusUnauthorized, "invalid_api_key", "Invalid API key provided.")
		return
	}

	var req chargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGatewayError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Amount <= 0 {
		writeGatewayError(w, http.StatusBadRequest, "parameter_invalid_integer", "amount must be a positive integer")
		return
	}
	if req.Source == "" && req.Customer == "" {
		writeGatewayError(w, http.StatusBadRequest, "missing_payment_source", "either source or customer is required")
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")

	s.mu.Lock()
	defer s.mu.Unlock()

	if idemKey != "" {
		if charge, ok := s.byIdemKey[idemKey]; ok {
			writeJSON(w, http.StatusOK, charge)
			return
		}
	}

	if req.Source == SourceDeclined {
		writeGatewayError(w, http.StatusPaymentRequired, "card_declined", "Your card was declined.")
		return
	}

	charge := sandboxCharge{
		ID:       "ch_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Amount:   req.Amount,
		Currency: strings.ToLower(req.Currency),
		Status:   "succeeded",
		Metadata: req.Metadata,
	}
	if idemKey != "" {
		s.byIdemKey[idemKey] = charge
	}

	writeJSON(w, http.StatusCreated, charge)
}

func writeGatewayError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
