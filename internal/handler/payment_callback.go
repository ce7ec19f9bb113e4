package handler

import (
	"context"
	"encoding/json"
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

// CallbackArchive stores verified gateway callbacks.
type CallbackArchive interface {
	Save(ctx context.Context, cb *models.GatewayCallback) error
}

// PaymentCallbackHandler handles gateway return-URL callbacks.
type PaymentCallbackHandler struct {
	verifier   *payment.Verifier
	transition *payment.Transition
	store      payment.Store
	archive    CallbackArchive
	deduper    middleware.CallbackDeduper
	shopURL    string
	logger     *zap.Logger
}

// NewPaymentCallbackHandler creates a new payment callback handler.
// archive and deduper may be nil.
func NewPaymentCallbackHandler(
	verifier *payment.Verifier,
	store payment.Store,
	archive CallbackArchive,
	deduper middleware.CallbackDeduper,
	shopURL string,
	logger *zap.Logger,
) *PaymentCallbackHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentCallbackHandler{
		verifier:   verifier,
		transition: payment.NewTransition(store, logger),
		store:      store,
		archive:    archive,
		deduper:    deduper,
		shopURL:    strings.TrimRight(shopURL, "/"),
		logger:     logger,
	}
}

func callbackParams(c echo.Context) payment.CallbackParams {
	return payment.CallbackParams{
		TID:       c.QueryParam("tid"),
		Status:    c.QueryParam("status"),
		Checksum:  c.QueryParam("checksum"),
		TxnSecret: c.QueryParam("txn_secret"),
		PaymentID: c.QueryParam("paymentId"),
		CartID:    c.QueryParam("cartId"),
	}
}

// ── Success return ───────────────────────────────────────────────────

// Success handles GET /success. The payment is only mutated after the
// checksum verifies.
func (h *PaymentCallbackHandler) Success(c echo.Context) error {
	p := callbackParams(c)
	if err := h.verify(p); err != nil {
		if errors.Is(err, payment.ErrMissingCallbackField) {
			return c.String(http.StatusBadRequest, "Missing required query parameters.")
		}
		return c.String(http.StatusBadRequest, "Checksum verification failed.")
	}

	record, err := h.apply(c.Request().Context(), p, payment.SignalFromCallback(p))
	if err != nil {
		return h.transitionError(c, p, err)
	}
	return c.Redirect(http.StatusFound, h.thankYouURL(record))
}

// ── Failure return ───────────────────────────────────────────────────

// Failure handles GET /failure. A verified callback records the failure,
// anything else only shows the cancellation text.
func (h *PaymentCallbackHandler) Failure(c echo.Context) error {
	p := callbackParams(c)
	if err := h.verify(p); err != nil {
		return c.String(http.StatusOK, "Payment failed or was cancelled.")
	}

	sig := payment.VerifiedSignal{Kind: payment.OutcomeFailure, TID: p.TID, Status: p.Status}
	record, err := h.apply(c.Request().Context(), p, sig)
	if err != nil {
		return h.transitionError(c, p, err)
	}
	return c.Redirect(http.StatusFound, h.thankYouURL(record))
}

func (h *PaymentCallbackHandler) verify(p payment.CallbackParams) error {
	err := h.verifier.VerifyCallback(p)
	if errors.Is(err, payment.ErrChecksumMismatch) {
		h.logger.Warn("Checksum mismatch",
			zap.String("payment_id", p.PaymentID),
			zap.String("tid", p.TID),
			zap.String("expected", truncate(h.verifier.Digest(p.TID, p.TxnSecret, p.Status), 12)),
			zap.String("provided", truncate(p.Checksum, 12)),
		)
	}
	return err
}

// apply ties the callback to its payment, runs the state transition and
// archives the callback once the transition succeeded. A callback already
// seen by the replay barrier short-circuits when the record is terminal.
func (h *PaymentCallbackHandler) apply(ctx context.Context, p payment.CallbackParams, sig payment.VerifiedSignal) (*models.PaymentRecord, error) {
	record, err := h.store.FindByID(ctx, p.PaymentID)
	if err != nil {
		return nil, err
	}
	if err := payment.MatchPayment(record, p); err != nil {
		h.logger.Warn("Callback does not match payment",
			zap.String("payment_id", p.PaymentID),
			zap.String("cart_id", p.CartID),
			zap.String("tid", p.TID),
		)
		return nil, err
	}

	if h.deduper != nil {
		seen, err := h.deduper.Seen(ctx, p.PaymentID, p.TID)
		if err != nil {
			h.logger.Warn("Replay barrier unavailable", zap.Error(err))
		}
		if seen && record.TerminalTransaction() != nil {
			return record, nil
		}
	}

	record, err = h.transition.ApplyOutcome(ctx, p.PaymentID, sig)
	if err != nil {
		return nil, err
	}
	h.archiveCallback(ctx, p)
	return record, nil
}

func (h *PaymentCallbackHandler) archiveCallback(ctx context.Context, p payment.CallbackParams) {
	if h.archive == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"tid":        p.TID,
		"status":     p.Status,
		"checksum":   p.Checksum,
		"txn_secret": p.TxnSecret,
		"paymentId":  p.PaymentID,
		"cartId":     p.CartID,
	})
	cb := &models.GatewayCallback{
		TID:       p.TID,
		PaymentID: p.PaymentID,
		Status:    p.Status,
		Payload:   string(payload),
	}
	if err := h.archive.Save(ctx, cb); err != nil {
		h.logger.Error("Failed to archive gateway callback", zap.String("tid", p.TID), zap.Error(err))
	}
}

func (h *PaymentCallbackHandler) transitionError(c echo.Context, p payment.CallbackParams, err error) error {
	switch {
	case errors.Is(err, repository.ErrRecordNotFound):
		return c.String(http.StatusNotFound, "Payment not found.")
	case errors.Is(err, payment.ErrCallbackMismatch):
		return c.String(http.StatusBadRequest, "Callback does not match payment.")
	case errors.Is(err, repository.ErrVersionConflict):
		h.logger.Warn("Payment modified concurrently", zap.String("payment_id", p.PaymentID), zap.Error(err))
		return c.String(http.StatusConflict, "Payment was modified concurrently.")
	}
	h.logger.Error("Error finalizing payment", zap.String("payment_id", p.PaymentID), zap.Error(err))
	return c.String(http.StatusInternalServerError, "Internal error while finalizing payment")
}

func (h *PaymentCallbackHandler) thankYouURL(record *models.PaymentRecord) string {
	q := url.Values{}
	q.Set("paymentId", record.ID)
	if record.Status() == models.StatusFailure {
		q.Set("status", "failed")
	}
	return h.shopURL + "/thank-you?" + q.Encode()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
