package tender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alovak/splittender/tender/models"
)

// Ledger is the stored-value backend. Debit values are negative; a pending
// debit holds funds until it is captured or voided.
type Ledger interface {
	ResolveAccount(ctx context.Context, customerRef string) (*models.Account, error)
	// ResolveAccountInstrument returns nil when the account has no instrument
	// for the currency.
	ResolveAccountInstrument(ctx context.Context, account *models.Account, currency string) (*models.Instrument, error)
	CreatePendingDebit(ctx context.Context, instrument *models.Instrument, params models.DebitParams) (*models.LedgerTransaction, error)
	CaptureDebit(ctx context.Context, instrument *models.Instrument, pending *models.LedgerTransaction, params models.FinalizeParams) (*models.LedgerTransaction, error)
	VoidDebit(ctx context.Context, instrument *models.Instrument, pending *models.LedgerTransaction, params models.FinalizeParams) (*models.LedgerTransaction, error)
	SimulateDebit(ctx context.Context, instrument *models.Instrument, params models.SimulateParams) (*models.LedgerTransaction, error)
}

// CardProcessor charges a card or stored payment method. Repeated calls with
// the same idempotency key must not produce a second charge.
type CardProcessor interface {
	Charge(ctx context.Context, params models.CardChargeParams, idempotencyKey string) (*models.CardCharge, error)
}

// Service orchestrates a charge split between the ledger and the card
// processor. It holds no mutable state; concurrent calls are independent.
type Service struct {
	ledger Ledger
	cards  CardProcessor
	logger *slog.Logger
}

func NewService(ledger Ledger, cards CardProcessor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		ledger: ledger,
		cards:  cards,
		logger: logger.With(slog.String("component", "tender")),
	}
}

// CreateCharge draws ledgerShare from the customer's ledger instrument and
// charges the remainder to the card processor.
//
// With both shares non-zero the sequence is: create a pending ledger debit,
// charge the card, then capture the debit (card success) or void it (card
// failure, with the card error re-raised). The reservation, capture and void
// use distinct identifiers derived from the request's UserSuppliedID, and
// the card charge uses UserSuppliedID as its idempotency key, so retrying
// the whole call with the same id cannot double-move funds on either side.
func (s *Service) CreateCharge(ctx context.Context, req *models.SplitTenderRequest, ledgerShare int64) (*models.SplitTenderCharge, error) {
	if err := validate(req, ledgerShare); err != nil {
		return nil, err
	}

	cardShare := req.Amount - ledgerShare

	if ledgerShare == 0 {
		charge, err := s.chargeCard(ctx, req, cardShare, "")
		if err != nil {
			return nil, err
		}

		return &models.SplitTenderCharge{CardCharge: charge}, nil
	}

	instrument, err := s.resolveInstrument(ctx, req)
	if err != nil {
		return nil, err
	}

	pending, err := s.ledger.CreatePendingDebit(ctx, instrument, models.DebitParams{
		Value:          0 - ledgerShare,
		Currency:       req.Currency,
		Pending:        cardShare > 0,
		UserSuppliedID: req.UserSuppliedID,
		Metadata:       stitchMetadata(req.Metadata, req.Amount, partnerCard),
	})
	if err != nil {
		return nil, fmt.Errorf("creating ledger reservation: %w", err)
	}

	if cardShare == 0 {
		// The debit was created non-pending and is already committed.
		return &models.SplitTenderCharge{LedgerTransaction: pending}, nil
	}

	charge, err := s.chargeCard(ctx, req, cardShare, pending.TransactionID)
	if err != nil {
		voided, voidErr := s.ledger.VoidDebit(ctx, instrument, pending, models.FinalizeParams{
			UserSuppliedID: req.UserSuppliedID + "-void",
			Metadata:       stitchMetadata(req.Metadata, req.Amount, partnerCard),
		})
		if voidErr != nil {
			s.logger.Error("ledger void failed after card error; reservation left pending",
				slog.String("userSuppliedId", req.UserSuppliedID),
				slog.String("reservationId", pending.TransactionID),
				slog.Any("cardErr", err),
				slog.Any("voidErr", voidErr))

			return nil, &CompensationError{Op: "void", CardErr: err, LedgerErr: voidErr}
		}

		s.logger.Info("voided ledger reservation after card error",
			slog.String("userSuppliedId", req.UserSuppliedID),
			slog.String("voidId", voided.TransactionID))

		return nil, err
	}

	captured, err := s.ledger.CaptureDebit(ctx, instrument, pending, models.FinalizeParams{
		UserSuppliedID: req.UserSuppliedID + "-capture",
		Metadata:       stitchPartnerTransaction(req.Metadata, req.Amount, partnerCard, charge.ID),
	})
	if err != nil {
		s.logger.Error("ledger capture failed after successful card charge",
			slog.String("userSuppliedId", req.UserSuppliedID),
			slog.String("reservationId", pending.TransactionID),
			slog.String("cardChargeId", charge.ID),
			slog.Any("err", err))

		return nil, &CompensationError{Op: "capture", LedgerErr: err}
	}

	return &models.SplitTenderCharge{
		LedgerTransaction: captured,
		CardCharge:        charge,
	}, nil
}

// SimulateCharge runs the ledger-side dry run only: no card call, no funds
// moved. With nsf enabled (the default) an uncoverable ledger share fails
// with the ledger's insufficient-funds error; with nsf disabled the ledger
// reports the value it could cover.
func (s *Service) SimulateCharge(ctx context.Context, req *models.SplitTenderRequest, ledgerShare int64) (*models.SplitTenderCharge, error) {
	if err := validate(req, ledgerShare); err != nil {
		return nil, err
	}

	if ledgerShare == 0 {
		return &models.SplitTenderCharge{}, nil
	}

	instrument, err := s.resolveInstrument(ctx, req)
	if err != nil {
		return nil, err
	}

	simulated, err := s.ledger.SimulateDebit(ctx, instrument, models.SimulateParams{
		Value:          0 - ledgerShare,
		Currency:       req.Currency,
		UserSuppliedID: req.UserSuppliedID,
		Metadata:       stitchMetadata(req.Metadata, req.Amount, partnerCard),
		NSFCheck:       req.NSFEnabled(),
	})
	if err != nil {
		return nil, fmt.Errorf("simulating ledger debit: %w", err)
	}

	return &models.SplitTenderCharge{LedgerTransaction: simulated}, nil
}

func (s *Service) resolveInstrument(ctx context.Context, req *models.SplitTenderRequest) (*models.Instrument, error) {
	account, err := s.ledger.ResolveAccount(ctx, req.CustomerRef)
	if err != nil {
		return nil, fmt.Errorf("resolving ledger account: %w", err)
	}

	instrument, err := s.ledger.ResolveAccountInstrument(ctx, account, req.Currency)
	if err != nil {
		return nil, fmt.Errorf("resolving ledger instrument: %w", err)
	}
	if instrument == nil {
		return nil, fmt.Errorf("no %s instrument for customer %q: %w", req.Currency, req.CustomerRef, models.ErrInstrumentNotFound)
	}

	return instrument, nil
}

func (s *Service) chargeCard(ctx context.Context, req *models.SplitTenderRequest, cardShare int64, reservationID string) (*models.CardCharge, error) {
	charge, err := s.cards.Charge(ctx, models.CardChargeParams{
		Amount:   cardShare,
		Currency: req.Currency,
		Source:   req.Source,
		Customer: req.Customer,
		Metadata: stitchPartnerTransaction(req.Metadata, req.Amount, partnerLedger, reservationID),
	}, req.UserSuppliedID)
	if err != nil {
		return nil, fmt.Errorf("charging card: %w", err)
	}

	return charge, nil
}
