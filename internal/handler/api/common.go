package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"paybridge/internal/models"
)

// PaymentStore is the subset of the payment repository the API needs.
type PaymentStore interface {
	Create(ctx context.Context, p *models.PaymentRecord) error
	FindByID(ctx context.Context, id string) (*models.PaymentRecord, error)
	SetInterfaceID(ctx context.Context, id string, version int64, interfaceID string) (*models.PaymentRecord, error)
}

// CartProvider prices carts and links payments to them.
type CartProvider interface {
	FindCart(ctx context.Context, cartID string) (*models.Cart, error)
	AttachPayment(ctx context.Context, cart *models.Cart, paymentID string) error
}

// Repos bundles the collaborators needed by API handlers.
// Carts may be nil, in which case the request body prices the payment.
type Repos struct {
	Payment PaymentStore
	Carts   CartProvider
}

func errorResponse(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

func referenceError(c echo.Context, code int) error {
	return c.JSON(code, models.PaymentResponse{PaymentReference: "error"})
}

func statusResponse(c echo.Context, code int, status, paymentID string) error {
	return c.JSON(code, models.PaymentStatusResponse{Status: status, PaymentID: paymentID})
}
