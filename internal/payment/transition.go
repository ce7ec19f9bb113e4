package payment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"paybridge/internal/models"
	"paybridge/internal/repository"
)

// Outcome kinds a verified signal can carry.
const (
	OutcomeSuccess = "Success"
	OutcomeFailure = "Failure"
)

// SuccessStatus is the gateway status code for a completed payment.
const SuccessStatus = "100"

// VerifiedSignal is an authenticated gateway outcome for one payment.
type VerifiedSignal struct {
	Kind   string
	TID    string
	Status string
}

// SignalFromCallback derives the outcome kind from a verified callback.
func SignalFromCallback(p CallbackParams) VerifiedSignal {
	kind := OutcomeFailure
	if p.Status == SuccessStatus {
		kind = OutcomeSuccess
	}
	return VerifiedSignal{Kind: kind, TID: p.TID, Status: p.Status}
}

// Store is the payment resource store the transition mutates.
type Store interface {
	FindByID(ctx context.Context, id string) (*models.PaymentRecord, error)
	AppendTransaction(ctx context.Context, id string, version int64, tx models.Transaction) (*models.PaymentRecord, error)
}

// Transition applies exactly one terminal transaction per payment.
type Transition struct {
	store Store
	log   *zap.Logger
}

func NewTransition(store Store, log *zap.Logger) *Transition {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transition{store: store, log: log}
}

// ApplyOutcome appends one terminal transaction for sig. A payment that
// already has a terminal transaction is returned unchanged. On a version
// conflict the record is re-read and the append retried once.
func (t *Transition) ApplyOutcome(ctx context.Context, paymentID string, sig VerifiedSignal) (*models.PaymentRecord, error) {
	p, err := t.store.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		if p.TerminalTransaction() != nil {
			t.log.Info("payment already terminal, ignoring replay",
				zap.String("payment_id", paymentID),
				zap.String("tid", sig.TID),
			)
			return p, nil
		}

		updated, err := t.store.AppendTransaction(ctx, p.ID, p.Version, transactionFor(p, sig))
		if err == nil {
			t.log.Info("payment transitioned",
				zap.String("payment_id", paymentID),
				zap.String("state", stateFor(sig)),
				zap.Int64("version", updated.Version),
			)
			return updated, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
		if attempt == 1 {
			return nil, fmt.Errorf("apply outcome %s: %w", paymentID, err)
		}

		t.log.Warn("version conflict, retrying once", zap.String("payment_id", paymentID), zap.Int64("version", p.Version))
		p, err = t.store.FindByID(ctx, paymentID)
		if err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("apply outcome %s: %w", paymentID, repository.ErrVersionConflict)
}

func stateFor(sig VerifiedSignal) string {
	if sig.Kind == OutcomeSuccess {
		return models.TransactionSuccess
	}
	return models.TransactionFailure
}

func transactionFor(p *models.PaymentRecord, sig VerifiedSignal) models.Transaction {
	return models.Transaction{
		Type:          models.TransactionAuthorization,
		State:         stateFor(sig),
		Amount:        p.AmountPlanned,
		InteractionID: sig.TID,
	}
}
