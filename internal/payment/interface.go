// Package payment verifies gateway callbacks, applies payment state
// transitions and initiates hosted payments with the gateway.
package payment

import (
	"context"

	"paybridge/internal/models"
)

// PaymentInit describes one hosted payment the gateway should open.
type PaymentInit struct {
	PaymentID      string
	CartID         string
	Method         string
	Amount         models.Money
	ReturnURL      string
	ErrorReturnURL string
}

// PaymentResult contains the result of a payment creation.
type PaymentResult struct {
	RedirectURL string `json:"redirect_url,omitempty"`
	TxnSecret   string `json:"txn_secret,omitempty"`
	TID         string `json:"tid,omitempty"`
}

// Gateway defines the interface for payment gateway implementations.
type Gateway interface {
	// Name returns the gateway identifier.
	Name() string

	// CreatePayment initiates a hosted payment and returns where to send the shopper.
	CreatePayment(ctx context.Context, in PaymentInit) (*PaymentResult, error)
}
