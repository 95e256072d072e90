package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alovak/splittender/ledger/models"
	"github.com/jackc/pgconn"
	"github.com/lib/pq"
)

var ErrNotFound = fmt.Errorf("not found")
var ErrConflict = fmt.Errorf("conflict")

// Repository stores accounts, instruments and transactions. It runs either
// in-memory (tests, dev) or on Postgres; the backend is picked at
// construction time.
type Repository struct {
	mu           sync.RWMutex
	accounts     []*models.Account
	instruments  []*models.Instrument
	transactions []*models.Transaction
	bySuppliedID map[string]*models.Transaction

	db *sql.DB
}

func NewRepository() *Repository {
	return &Repository{
		accounts:     make([]*models.Account, 0),
		instruments:  make([]*models.Instrument, 0),
		transactions: make([]*models.Transaction, 0),
		bySuppliedID: make(map[string]*models.Transaction),
	}
}

// NewPGRepository constructs a db-backed repository.
func NewPGRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, a := range r.accounts {
			if a.CustomerRef == account.CustomerRef {
				return fmt.Errorf("customer ref exists: %w", ErrConflict)
			}
		}
		r.accounts = append(r.accounts, account)
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO ledger.accounts(account_id, customer_ref)
        VALUES ($1,$2)
    `, account.ID, account.CustomerRef)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *Repository) GetAccountByCustomerRef(ctx context.Context, customerRef string) (*models.Account, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		for _, a := range r.accounts {
			if a.CustomerRef == customerRef {
				return a, nil
			}
		}
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT account_id, customer_ref, created_at FROM ledger.accounts WHERE customer_ref=$1`, customerRef)
	var a models.Account
	if err := row.Scan(&a.ID, &a.CustomerRef, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repository) CreateInstrument(ctx context.Context, instrument *models.Instrument) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, i := range r.instruments {
			if i.AccountID == instrument.AccountID && i.Currency == instrument.Currency {
				return fmt.Errorf("instrument exists for currency: %w", ErrConflict)
			}
		}
		r.instruments = append(r.instruments, instrument)
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO ledger.instruments(instrument_id, account_id, currency, available_balance, hold_balance)
        VALUES ($1,$2,$3,$4,$5)
    `, instrument.ID, instrument.AccountID, strings.ToUpper(instrument.Currency), instrument.AvailableBalance, instrument.HoldBalance)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *Repository) GetInstrument(ctx context.Context, accountID, currency string) (*models.Instrument, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		for _, i := range r.instruments {
			if i.AccountID == accountID && strings.EqualFold(i.Currency, currency) {
				return i, nil
			}
		}
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
        SELECT instrument_id, account_id, currency, available_balance, hold_balance
          FROM ledger.instruments WHERE account_id=$1 AND currency=$2
    `, accountID, strings.ToUpper(currency))
	return scanInstrument(row)
}

func (r *Repository) GetInstrumentByID(ctx context.Context, instrumentID string) (*models.Instrument, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		for _, i := range r.instruments {
			if i.ID == instrumentID {
				return i, nil
			}
		}
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
        SELECT instrument_id, account_id, currency, available_balance, hold_balance
          FROM ledger.instruments WHERE instrument_id=$1
    `, instrumentID)
	return scanInstrument(row)
}

// CreateDebit atomically checks the available balance, moves funds and
// records the transaction. Pending debits move value into the hold balance;
// non-pending debits commit immediately. A duplicate userSuppliedId on the
// same instrument returns ErrConflict.
func (r *Repository) CreateDebit(ctx context.Context, txn *models.Transaction) error {
	amount := 0 - txn.Value

	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.bySuppliedID[suppliedKey(txn.InstrumentID, txn.UserSuppliedID)]; ok {
			return ErrConflict
		}
		instrument, err := r.findInstrumentLocked(txn.InstrumentID)
		if err != nil {
			return err
		}
		if instrument.AvailableBalance < amount {
			return models.ErrInsufficientFunds
		}
		instrument.AvailableBalance -= amount
		if txn.Pending {
			instrument.HoldBalance += amount
		}
		r.insertTransactionLocked(txn)
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `set local statement_timeout = '3s'`); err != nil {
		return err
	}

	holdDelta := int64(0)
	if txn.Pending {
		holdDelta = amount
	}
	res, err := tx.ExecContext(ctx, `
        UPDATE ledger.instruments
           SET available_balance = available_balance - $2,
               hold_balance      = hold_balance      + $3,
               updated_at        = now()
         WHERE instrument_id=$1 AND available_balance >= $2
    `, txn.InstrumentID, amount, holdDelta)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.ErrInsufficientFunds
	}

	if err := insertTransaction(ctx, tx, txn); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return tx.Commit()
}

// FinalizeDebit captures or voids the pending transaction child.ParentID.
// Capture consumes the hold; void returns the held funds to the available
// balance. The finalization is recorded as a new transaction row and the
// parent transitions to its terminal status.
func (r *Repository) FinalizeDebit(ctx context.Context, child *models.Transaction, capture bool) error {
	parentStatus := models.TransactionStatusVoided
	if capture {
		parentStatus = models.TransactionStatusCaptured
	}

	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.bySuppliedID[suppliedKey(child.InstrumentID, child.UserSuppliedID)]; ok {
			return ErrConflict
		}
		parent, err := r.findTransactionLocked(child.InstrumentID, child.ParentID)
		if err != nil {
			return err
		}
		if parent.Status != models.TransactionStatusPending {
			return fmt.Errorf("transaction %s is not pending: %w", parent.ID, ErrConflict)
		}
		instrument, err := r.findInstrumentLocked(child.InstrumentID)
		if err != nil {
			return err
		}
		amount := 0 - parent.Value
		instrument.HoldBalance -= amount
		if !capture {
			instrument.AvailableBalance += amount
		}
		parent.Status = parentStatus
		child.Value = parent.Value
		r.insertTransactionLocked(child)
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `set local statement_timeout = '3s'`); err != nil {
		return err
	}

	var value int64
	var status string
	err = tx.QueryRowContext(ctx, `
        SELECT value, status FROM ledger.transactions
         WHERE instrument_id=$1 AND tx_id=$2 FOR UPDATE
    `, child.InstrumentID, child.ParentID).Scan(&value, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if status != string(models.TransactionStatusPending) {
		return fmt.Errorf("transaction %s is not pending: %w", child.ParentID, ErrConflict)
	}

	amount := 0 - value
	availableDelta := int64(0)
	if !capture {
		availableDelta = amount
	}
	if _, err := tx.ExecContext(ctx, `
        UPDATE ledger.instruments
           SET hold_balance      = hold_balance - $2,
               available_balance = available_balance + $3,
               updated_at        = now()
         WHERE instrument_id=$1
    `, child.InstrumentID, amount, availableDelta); err != nil {
		return err
	}

	child.Value = value
	if err := insertTransaction(ctx, tx, child); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `
        UPDATE ledger.transactions SET status=$3 WHERE instrument_id=$1 AND tx_id=$2
    `, child.InstrumentID, child.ParentID, string(parentStatus)); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repository) GetTransaction(ctx context.Context, instrumentID, transactionID string) (*models.Transaction, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.findTransactionLocked(instrumentID, transactionID)
	}
	row := r.db.QueryRowContext(ctx, `
        SELECT tx_id, instrument_id, parent_tx_id, user_supplied_id, value, currency, pending, status, metadata, created_at
          FROM ledger.transactions WHERE instrument_id=$1 AND tx_id=$2
    `, instrumentID, transactionID)
	return scanTransaction(row)
}

// FindTransactionBySuppliedID supports idempotent replay of debits.
func (r *Repository) FindTransactionBySuppliedID(ctx context.Context, instrumentID, userSuppliedID string) (*models.Transaction, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		if txn, ok := r.bySuppliedID[suppliedKey(instrumentID, userSuppliedID)]; ok {
			return txn, nil
		}
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
        SELECT tx_id, instrument_id, parent_tx_id, user_supplied_id, value, currency, pending, status, metadata, created_at
          FROM ledger.transactions WHERE instrument_id=$1 AND user_supplied_id=$2
    `, instrumentID, userSuppliedID)
	return scanTransaction(row)
}

// ListTransactions returns all transactions recorded on an instrument.
func (r *Repository) ListTransactions(ctx context.Context, instrumentID string) ([]*models.Transaction, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		var out []*models.Transaction
		for _, t := range r.transactions {
			if t.InstrumentID == instrumentID {
				out = append(out, t)
			}
		}
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT tx_id, instrument_id, parent_tx_id, user_supplied_id, value, currency, pending, status, metadata, created_at
          FROM ledger.transactions WHERE instrument_id=$1 ORDER BY created_at DESC
    `, instrumentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Transaction
	for rows.Next() {
		t, err := scanTransactionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Ping returns DB readiness.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}

func (r *Repository) findInstrumentLocked(instrumentID string) (*models.Instrument, error) {
	for _, i := range r.instruments {
		if i.ID == instrumentID {
			return i, nil
		}
	}
	return nil, ErrNotFound
}

func (r *Repository) findTransactionLocked(instrumentID, transactionID string) (*models.Transaction, error) {
	for _, t := range r.transactions {
		if t.InstrumentID == instrumentID && t.ID == transactionID {
			return t, nil
		}
	}
	return nil, ErrNotFound
}

func (r *Repository) insertTransactionLocked(txn *models.Transaction) {
	r.transactions = append(r.transactions, txn)
	r.bySuppliedID[suppliedKey(txn.InstrumentID, txn.UserSuppliedID)] = txn
}

func suppliedKey(instrumentID, userSuppliedID string) string {
	return instrumentID + "\x00" + userSuppliedID
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstrument(row rowScanner) (*models.Instrument, error) {
	var i models.Instrument
	if err := row.Scan(&i.ID, &i.AccountID, &i.Currency, &i.AvailableBalance, &i.HoldBalance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, txn *models.Transaction) error {
	meta, err := json.Marshal(txn.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	var parent sql.NullString
	if txn.ParentID != "" {
		parent = sql.NullString{String: txn.ParentID, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
        INSERT INTO ledger.transactions(tx_id, instrument_id, parent_tx_id, user_supplied_id, value, currency, pending, status, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, txn.ID, txn.InstrumentID, parent, txn.UserSuppliedID, txn.Value, strings.ToUpper(txn.Currency), txn.Pending, string(txn.Status), meta)
	return err
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	t, err := scanTransactionRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanTransactionRows(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var parent sql.NullString
	var status string
	var meta []byte
	if err := row.Scan(&t.ID, &t.InstrumentID, &parent, &t.UserSuppliedID, &t.Value, &t.Currency, &t.Pending, &status, &meta, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.ParentID = parent.String
	t.Status = models.TransactionStatus(status)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &t.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata: %w", err)
		}
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return true
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		return true
	}
	return false
}
