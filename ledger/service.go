package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alovak/splittender/ledger/models"
	"github.com/google/uuid"
)

var ErrInvalid = fmt.Errorf("invalid request")

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateAccount(ctx context.Context, req models.CreateAccount) (*models.Account, error) {
	if req.CustomerRef == "" {
		return nil, fmt.Errorf("customerRef not set: %w", ErrInvalid)
	}

	account := &models.Account{
		ID:          uuid.New().String(),
		CustomerRef: req.CustomerRef,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	return account, nil
}

func (s *Service) CreateInstrument(ctx context.Context, accountID string, req models.CreateInstrument) (*models.Instrument, error) {
	if req.Currency == "" {
		return nil, fmt.Errorf("currency not set: %w", ErrInvalid)
	}
	if req.Balance < 0 {
		return nil, fmt.Errorf("balance must not be negative: %w", ErrInvalid)
	}

	instrument := &models.Instrument{
		ID:               uuid.New().String(),
		AccountID:        accountID,
		Currency:         strings.ToUpper(req.Currency),
		AvailableBalance: req.Balance,
	}

	err := s.repo.CreateInstrument(ctx, instrument)
	if err != nil {
		return nil, fmt.Errorf("creating instrument: %w", err)
	}

	return instrument, nil
}

func (s *Service) ResolveAccount(ctx context.Context, customerRef string) (*models.Account, error) {
	account, err := s.repo.GetAccountByCustomerRef(ctx, customerRef)
	if err != nil {
		return nil, fmt.Errorf("finding account: %w", err)
	}

	return account, nil
}

func (s *Service) ResolveInstrument(ctx context.Context, accountID, currency string) (*models.Instrument, error) {
	instrument, err := s.repo.GetInstrument(ctx, accountID, currency)
	if err != nil {
		return nil, fmt.Errorf("finding instrument: %w", err)
	}

	return instrument, nil
}

// CreateDebit records a debit on the instrument. Replaying a userSuppliedId
// already recorded on the instrument returns the original transaction
// instead of moving funds twice.
func (s *Service) CreateDebit(ctx context.Context, instrumentID string, req models.DebitRequest) (*models.Transaction, error) {
	if req.UserSuppliedID == "" {
		return nil, fmt.Errorf("userSuppliedId not set: %w", ErrInvalid)
	}
	if req.Value >= 0 {
		return nil, fmt.Errorf("debit value must be negative: %w", ErrInvalid)
	}

	instrument, err := s.repo.GetInstrumentByID(ctx, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("finding instrument: %w", err)
	}
	if !strings.EqualFold(instrument.Currency, req.Currency) {
		return nil, fmt.Errorf("currency mismatch: instrument holds %s: %w", instrument.Currency, ErrInvalid)
	}

	status := models.TransactionStatusCommitted
	if req.Pending {
		status = models.TransactionStatusPending
	}
	txn := &models.Transaction{
		ID:             uuid.New().String(),
		InstrumentID:   instrument.ID,
		UserSuppliedID: req.UserSuppliedID,
		Value:          req.Value,
		Currency:       instrument.Currency,
		Pending:        req.Pending,
		Status:         status,
		Metadata:       req.Metadata,
		CreatedAt:      time.Now().UTC(),
	}

	err = s.repo.CreateDebit(ctx, txn)
	if errors.Is(err, ErrConflict) {
		return s.repo.FindTransactionBySuppliedID(ctx, instrument.ID, req.UserSuppliedID)
	}
	if err != nil {
		return nil, fmt.Errorf("creating debit: %w", err)
	}

	return txn, nil
}

func (s *Service) CaptureDebit(ctx context.Context, instrumentID, transactionID string, req models.FinalizeRequest) (*models.Transaction, error) {
	return s.finalizeDebit(ctx, instrumentID, transactionID, req, true)
}

func (s *Service) VoidDebit(ctx context.Context, instrumentID, transactionID string, req models.FinalizeRequest) (*models.Transaction, error) {
	return s.finalizeDebit(ctx, instrumentID, transactionID, req, false)
}

func (s *Service) finalizeDebit(ctx context.Context, instrumentID, transactionID string, req models.FinalizeRequest, capture bool) (*models.Transaction, error) {
	if req.UserSuppliedID == "" {
		return nil, fmt.Errorf("userSuppliedId not set: %w", ErrInvalid)
	}

	op := "void"
	status := models.TransactionStatusVoided
	if capture {
		op = "capture"
		status = models.TransactionStatusCaptured
	}

	parent, err := s.repo.GetTransaction(ctx, instrumentID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("finding transaction: %w", err)
	}

	child := &models.Transaction{
		ID:             uuid.New().String(),
		InstrumentID:   instrumentID,
		ParentID:       parent.ID,
		UserSuppliedID: req.UserSuppliedID,
		Value:          parent.Value,
		Currency:       parent.Currency,
		Status:         status,
		Metadata:       req.Metadata,
		CreatedAt:      time.Now().UTC(),
	}

	err = s.repo.FinalizeDebit(ctx, child, capture)
	if errors.Is(err, ErrConflict) {
		// Replay of a finalization already recorded under this id.
		if existing, findErr := s.repo.FindTransactionBySuppliedID(ctx, instrumentID, req.UserSuppliedID); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("%s debit: %w", op, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%s debit: %w", op, err)
	}

	return child, nil
}

// SimulateDebit dry-runs a debit without persisting anything. With NSFCheck
// set a value the instrument cannot cover fails with ErrInsufficientFunds;
// without it the returned value is clamped to what the balance covers.
func (s *Service) SimulateDebit(ctx context.Context, instrumentID string, req models.SimulateRequest) (*models.Transaction, error) {
	if req.Value >= 0 {
		return nil, fmt.Errorf("debit value must be negative: %w", ErrInvalid)
	}

	instrument, err := s.repo.GetInstrumentByID(ctx, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("finding instrument: %w", err)
	}
	if !strings.EqualFold(instrument.Currency, req.Currency) {
		return nil, fmt.Errorf("currency mismatch: instrument holds %s: %w", instrument.Currency, ErrInvalid)
	}

	value := req.Value
	if amount := 0 - value; instrument.AvailableBalance < amount {
		if req.NSFCheck {
			return nil, models.ErrInsufficientFunds
		}
		value = 0 - instrument.AvailableBalance
	}

	return &models.Transaction{
		ID:             uuid.New().String(),
		InstrumentID:   instrument.ID,
		UserSuppliedID: req.UserSuppliedID,
		Value:          value,
		Currency:       instrument.Currency,
		Status:         models.TransactionStatusSimulated,
		Metadata:       req.Metadata,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// ListTransactions returns the transactions recorded on an instrument.
func (s *Service) ListTransactions(ctx context.Context, instrumentID string) ([]*models.Transaction, error) {
	transactions, err := s.repo.ListTransactions(ctx, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return transactions, nil
}
