// Package processor is the card gateway client. New is the only place that
// handles credentials; the orchestrator receives a ready-made client and
// never sees them.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alovak/splittender/tender/models"
)

type Client struct {
	base string
	key  string
	hc   *http.Client
}

func New(base, apiKey string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: strings.TrimRight(base, "/"), key: apiKey, hc: hc}
}

// APIError is a non-2xx response from the gateway.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("card processor error (status=%d code=%s): %s", e.StatusCode, e.Code, e.Message)
}

// Charge posts a charge to the gateway. The idempotency key is passed
// through on the Idempotency-Key header: a retried call with the same key
// returns the original charge instead of creating a second one. Source is
// used when both a source and a customer are set.
func (c *Client) Charge(ctx context.Context, params models.CardChargeParams, idempotencyKey string) (*models.CardCharge, error) {
	body := chargeRequest{
		Amount:   params.Amount,
		Currency: params.Currency,
		Metadata: params.Metadata,
	}
	if params.Source != "" {
		body.Source = params.Source
	} else {
		body.Customer = params.Customer
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/charges", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("building charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling card processor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, decodeAPIError(resp)
	}

	charge := &models.CardCharge{}
	if err := json.NewDecoder(resp.Body).Decode(charge); err != nil {
		return nil, fmt.Errorf("decoding charge: %w", err)
	}
	return charge, nil
}

type chargeRequest struct {
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Source   string         `json:"source,omitempty"`
	Customer string         `json:"customer,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var wrapper struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Error.Message == "" {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	apiErr := wrapper.Error
	apiErr.StatusCode = resp.StatusCode
	return &apiErr
}
