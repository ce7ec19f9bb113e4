package repository

import (
	"context"
	"errors"
	"time"

	"paybridge/internal/models"
)

var (
	// ErrRecordNotFound is returned when no payment exists for the requested id.
	ErrRecordNotFound = errors.New("payment record not found")
	// ErrVersionConflict is returned when the stored version moved since it was read.
	ErrVersionConflict = errors.New("payment record version conflict")
	// ErrSessionNotFound is returned for unknown or expired checkout sessions.
	ErrSessionNotFound = errors.New("checkout session not found")
)

// PaymentStore is implemented by the gorm, commercetools and memory backends.
type PaymentStore interface {
	Create(ctx context.Context, p *models.PaymentRecord) error
	FindByID(ctx context.Context, id string) (*models.PaymentRecord, error)
	AppendTransaction(ctx context.Context, id string, version int64, tx models.Transaction) (*models.PaymentRecord, error)
	SetInterfaceID(ctx context.Context, id string, version int64, interfaceID string) (*models.PaymentRecord, error)
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentRecord, error)
}

var (
	_ PaymentStore = (*PaymentRepository)(nil)
	_ PaymentStore = (*MemoryPaymentRepository)(nil)
	_ PaymentStore = (*CommercePaymentRepository)(nil)
)
