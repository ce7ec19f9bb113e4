package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"paybridge/internal/middleware"
	"paybridge/internal/models"
	"paybridge/internal/payment"
	"paybridge/internal/repository"
)

// PaymentHandler serves the storefront payment endpoints.
type PaymentHandler struct {
	repos         *Repos
	gateway       payment.Gateway
	processorBase string
	logger        *zap.Logger
}

func NewPaymentHandler(repos *Repos, gateway payment.Gateway, processorBase string, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{
		repos:         repos,
		gateway:       gateway,
		processorBase: strings.TrimRight(processorBase, "/"),
		logger:        logger,
	}
}

// Create starts a hosted payment for the session's cart.
// POST /payments
func (h *PaymentHandler) Create(c echo.Context) error {
	var req models.PaymentRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if req.PaymentMethod.Type == "" {
		return errorResponse(c, http.StatusBadRequest, "paymentMethod.type is required")
	}

	cartID := middleware.CartID(c)
	if cartID == "" {
		return errorResponse(c, http.StatusUnauthorized, "session has no cart")
	}

	ctx := c.Request().Context()
	cart, err := h.resolveCart(ctx, cartID, req)
	switch {
	case errors.Is(err, payment.ErrInvalidAmount):
		return errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrRecordNotFound):
		return errorResponse(c, http.StatusNotFound, "cart not found")
	case err != nil:
		h.logger.Error("Failed to load cart", zap.String("cart_id", cartID), zap.Error(err))
		return referenceError(c, http.StatusInternalServerError)
	}

	record := &models.PaymentRecord{
		CartID:        cart.ID,
		Method:        req.PaymentMethod.Type,
		InterfaceCode: models.InterfaceCodePending,
		InterfaceText: "Redirect to Novalnet",
		AmountPlanned: cart.TotalPrice,
	}
	if err := h.repos.Payment.Create(ctx, record); err != nil {
		h.logger.Error("Failed to create payment", zap.String("cart_id", cart.ID), zap.Error(err))
		return referenceError(c, http.StatusInternalServerError)
	}

	if h.repos.Carts != nil {
		if err := h.repos.Carts.AttachPayment(ctx, cart, record.ID); err != nil {
			h.logger.Error("Failed to attach payment to cart",
				zap.String("cart_id", cart.ID),
				zap.String("payment_id", record.ID),
				zap.Error(err),
			)
			return referenceError(c, http.StatusInternalServerError)
		}
	}

	result, err := h.gateway.CreatePayment(ctx, payment.PaymentInit{
		PaymentID:      record.ID,
		CartID:         cart.ID,
		Method:         record.Method,
		Amount:         record.AmountPlanned,
		ReturnURL:      h.returnURL("/success", cart.ID, record.ID),
		ErrorReturnURL: h.returnURL("/failure", cart.ID, record.ID),
	})
	if err != nil {
		h.logger.Error("Gateway payment creation failed",
			zap.String("gateway", h.gateway.Name()),
			zap.String("payment_id", record.ID),
			zap.Error(err),
		)
		return referenceError(c, http.StatusBadGateway)
	}

	if result.TxnSecret != "" {
		if _, err := h.repos.Payment.SetInterfaceID(ctx, record.ID, record.Version, result.TxnSecret); err != nil {
			h.logger.Error("Failed to bind gateway transaction to payment", zap.String("payment_id", record.ID), zap.Error(err))
			return referenceError(c, http.StatusInternalServerError)
		}
	}

	if result.RedirectURL == "" {
		h.logger.Warn("Gateway returned no redirect_url", zap.String("payment_id", record.ID))
		return c.JSON(http.StatusOK, models.PaymentResponse{PaymentReference: record.ID, PaymentID: record.ID})
	}

	return c.JSON(http.StatusOK, models.PaymentResponse{
		PaymentReference: result.RedirectURL,
		RedirectURL:      result.RedirectURL,
		PaymentID:        record.ID,
		TxnSecret:        result.TxnSecret,
	})
}

// Status reports whether a payment reached a terminal state. Payments of
// another session's cart are reported as not found.
// GET /payments/status?paymentId=
func (h *PaymentHandler) Status(c echo.Context) error {
	paymentID := c.QueryParam("paymentId")
	if paymentID == "" {
		return statusResponse(c, http.StatusBadRequest, "missing_paymentId", "")
	}

	record, err := h.repos.Payment.FindByID(c.Request().Context(), paymentID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return statusResponse(c, http.StatusNotFound, "not_found", paymentID)
	}
	if err != nil {
		h.logger.Error("Failed to read payment status", zap.String("payment_id", paymentID), zap.Error(err))
		return statusResponse(c, http.StatusInternalServerError, "error", paymentID)
	}
	if record.CartID != "" && record.CartID != middleware.CartID(c) {
		return statusResponse(c, http.StatusNotFound, "not_found", paymentID)
	}

	return statusResponse(c, http.StatusOK, record.Status(), paymentID)
}

// resolveCart prices the cart through the provider, falling back to the
// request amount when there is no provider or the cart carries no total.
func (h *PaymentHandler) resolveCart(ctx context.Context, cartID string, req models.PaymentRequest) (*models.Cart, error) {
	cart := &models.Cart{ID: cartID}
	if h.repos.Carts != nil {
		found, err := h.repos.Carts.FindCart(ctx, cartID)
		if err != nil {
			return nil, err
		}
		cart = found
		if cart.TotalPrice.CentAmount > 0 && cart.TotalPrice.CurrencyCode != "" {
			return cart, nil
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}
	cents, err := payment.ToMinorUnits(req.Amount, currency)
	if err != nil {
		return nil, err
	}
	cart.TotalPrice = models.Money{CentAmount: cents, CurrencyCode: currency}
	return cart, nil
}

func (h *PaymentHandler) returnURL(path, cartID, paymentID string) string {
	q := url.Values{}
	q.Set("cartId", cartID)
	q.Set("paymentId", paymentID)
	return h.processorBase + path + "?" + q.Encode()
}
