// Package ledgerclient talks to the ledger service over HTTP and adapts it
// to the tender.Ledger interface.
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alovak/splittender/tender/models"
)

type Client struct {
	Base string
	HTTP *http.Client
}

func New(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: hc}
}

func (c *Client) ResolveAccount(ctx context.Context, customerRef string) (*models.Account, error) {
	target := fmt.Sprintf("%s/accounts/ref/%s", c.Base, url.PathEscape(customerRef))

	account := &models.Account{}
	err := c.get(ctx, target, account, models.ErrAccountNotFound)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (c *Client) ResolveAccountInstrument(ctx context.Context, account *models.Account, currency string) (*models.Instrument, error) {
	target := fmt.Sprintf("%s/accounts/%s/instruments/%s", c.Base, account.ID, url.PathEscape(currency))

	instrument := &models.Instrument{}
	err := c.get(ctx, target, instrument, errNoInstrument)
	if errors.Is(err, errNoInstrument) {
		// The account exists but holds no instrument for this currency.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return instrument, nil
}

func (c *Client) CreatePendingDebit(ctx context.Context, instrument *models.Instrument, params models.DebitParams) (*models.LedgerTransaction, error) {
	target := fmt.Sprintf("%s/instruments/%s/transactions", c.Base, instrument.ID)
	return c.postTransaction(ctx, target, params)
}

func (c *Client) CaptureDebit(ctx context.Context, instrument *models.Instrument, pending *models.LedgerTransaction, params models.FinalizeParams) (*models.LedgerTransaction, error) {
	target := fmt.Sprintf("%s/instruments/%s/transactions/%s/capture", c.Base, instrument.ID, pending.TransactionID)
	return c.postTransaction(ctx, target, params)
}

func (c *Client) VoidDebit(ctx context.Context, instrument *models.Instrument, pending *models.LedgerTransaction, params models.FinalizeParams) (*models.LedgerTransaction, error) {
	target := fmt.Sprintf("%s/instruments/%s/transactions/%s/void", c.Base, instrument.ID, pending.TransactionID)
	return c.postTransaction(ctx, target, params)
}

func (c *Client) SimulateDebit(ctx context.Context, instrument *models.Instrument, params models.SimulateParams) (*models.LedgerTransaction, error) {
	target := fmt.Sprintf("%s/instruments/%s/transactions/simulate", c.Base, instrument.ID)
	return c.postTransaction(ctx, target, params)
}

var errNoInstrument = fmt.Errorf("no instrument")

func (c *Client) get(ctx context.Context, target string, out any, notFound error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("calling ledger: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, notFound); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding ledger response: %w", err)
	}
	return nil
}

func (c *Client) postTransaction(ctx context.Context, target string, body any) (*models.LedgerTransaction, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ledger: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, models.ErrAccountNotFound); err != nil {
		return nil, err
	}

	txn := &models.LedgerTransaction{}
	if err := json.NewDecoder(resp.Body).Decode(txn); err != nil {
		return nil, fmt.Errorf("decoding ledger transaction: %w", err)
	}
	return txn, nil
}

func checkStatus(resp *http.Response, notFound error) error {
	if resp.StatusCode/100 == 2 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	msg := strings.TrimSpace(string(body))

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, notFound)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%s: %w", msg, models.ErrInsufficientFunds)
	default:
		return fmt.Errorf("ledger status=%d body=%s", resp.StatusCode, msg)
	}
}
