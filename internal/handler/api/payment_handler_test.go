package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paybridge/internal/middleware"
	"paybridge/internal/models"
	"paybridge/internal/payment"
	"paybridge/internal/repository"
)

type fakeGateway struct {
	create func(ctx context.Context, in payment.PaymentInit) (*payment.PaymentResult, error)
	last   payment.PaymentInit
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) CreatePayment(ctx context.Context, in payment.PaymentInit) (*payment.PaymentResult, error) {
	g.last = in
	return g.create(ctx, in)
}

type fakeCarts struct {
	cart     *models.Cart
	err      error
	attached []string
}

func (f *fakeCarts) FindCart(_ context.Context, cartID string) (*models.Cart, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := *f.cart
	c.ID = cartID
	return &c, nil
}

func (f *fakeCarts) AttachPayment(_ context.Context, _ *models.Cart, paymentID string) error {
	f.attached = append(f.attached, paymentID)
	return nil
}

func okGateway() *fakeGateway {
	return &fakeGateway{create: func(context.Context, payment.PaymentInit) (*payment.PaymentResult, error) {
		return &payment.PaymentResult{RedirectURL: "https://paygate.novalnet.de/nn/x", TxnSecret: "S"}, nil
	}}
}

func postPayment(t *testing.T, h *PaymentHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextKeyCartID, "cart-1")
	require.NoError(t, h.Create(c))
	return rec
}

func TestCreate_RequestPricedPayment(t *testing.T) {
	store := repository.NewMemoryPaymentRepository()
	gw := okGateway()
	h := NewPaymentHandler(&Repos{Payment: store}, gw, "https://proc.example/", nil)

	rec := postPayment(t, h, `{"paymentMethod":{"type":"ideal"},"amount":"19.99","currency":"eur"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://paygate.novalnet.de/nn/x", resp.RedirectURL)
	assert.Equal(t, resp.RedirectURL, resp.PaymentReference)
	assert.Equal(t, "S", resp.TxnSecret)

	stored, err := store.FindByID(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.Money{CentAmount: 1999, CurrencyCode: "EUR"}, stored.AmountPlanned)
	assert.Equal(t, models.InterfaceCodePending, stored.InterfaceCode)
	assert.Equal(t, models.StatusPending, stored.Status())
	assert.Equal(t, "S", stored.InterfaceID, "gateway txn_secret is bound to the payment")

	ret, err := url.Parse(gw.last.ReturnURL)
	require.NoError(t, err)
	assert.Equal(t, "/success", ret.Path)
	assert.Equal(t, "proc.example", ret.Host)
	assert.Equal(t, resp.PaymentID, ret.Query().Get("paymentId"))
	assert.Equal(t, "cart-1", ret.Query().Get("cartId"))
	assert.True(t, strings.HasPrefix(gw.last.ErrorReturnURL, "https://proc.example/failure?"))
}

func TestCreate_CartProviderPricesAndAttaches(t *testing.T) {
	store := repository.NewMemoryPaymentRepository()
	carts := &fakeCarts{cart: &models.Cart{Version: 4, TotalPrice: models.Money{CentAmount: 4200, CurrencyCode: "EUR"}}}
	h := NewPaymentHandler(&Repos{Payment: store, Carts: carts}, okGateway(), "https://proc.example", nil)

	rec := postPayment(t, h, `{"paymentMethod":{"type":"card"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{resp.PaymentID}, carts.attached)

	stored, err := store.FindByID(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, int64(4200), stored.AmountPlanned.CentAmount)
}

func TestCreate_GatewayFailureIs502(t *testing.T) {
	gw := &fakeGateway{create: func(context.Context, payment.PaymentInit) (*payment.PaymentResult, error) {
		return nil, errors.New("boom")
	}}
	h := NewPaymentHandler(&Repos{Payment: repository.NewMemoryPaymentRepository()}, gw, "http://localhost", nil)

	rec := postPayment(t, h, `{"paymentMethod":{"type":"ideal"},"amount":"1.00"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"paymentReference":"error"}`, rec.Body.String())
}

func TestCreate_NoRedirectFallsBackToPaymentID(t *testing.T) {
	gw := &fakeGateway{create: func(context.Context, payment.PaymentInit) (*payment.PaymentResult, error) {
		return &payment.PaymentResult{}, nil
	}}
	h := NewPaymentHandler(&Repos{Payment: repository.NewMemoryPaymentRepository()}, gw, "http://localhost", nil)

	rec := postPayment(t, h, `{"paymentMethod":{"type":"ideal"},"amount":"1.00"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.PaymentID)
	assert.Equal(t, resp.PaymentID, resp.PaymentReference)
}

func TestCreate_Validation(t *testing.T) {
	h := NewPaymentHandler(&Repos{Payment: repository.NewMemoryPaymentRepository()}, okGateway(), "http://localhost", nil)

	assert.Equal(t, http.StatusBadRequest, postPayment(t, h, `{"amount":"1.00"}`).Code)
	assert.Equal(t, http.StatusBadRequest, postPayment(t, h, `{"paymentMethod":{"type":"ideal"},"amount":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, postPayment(t, h, `{"paymentMethod":{"type":"ideal"}}`).Code)
}

func TestCreate_UnknownCart(t *testing.T) {
	carts := &fakeCarts{err: repository.ErrRecordNotFound}
	h := NewPaymentHandler(&Repos{Payment: repository.NewMemoryPaymentRepository(), Carts: carts}, okGateway(), "http://localhost", nil)
	assert.Equal(t, http.StatusNotFound, postPayment(t, h, `{"paymentMethod":{"type":"ideal"}}`).Code)
}

func getStatus(t *testing.T, h *PaymentHandler, paymentID string) *httptest.ResponseRecorder {
	return getStatusAs(t, h, "", paymentID)
}

func getStatusAs(t *testing.T, h *PaymentHandler, cartID, paymentID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	target := "/payments/status"
	if paymentID != "" {
		target += "?paymentId=" + paymentID
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec)
	if cartID != "" {
		c.Set(middleware.ContextKeyCartID, cartID)
	}
	require.NoError(t, h.Status(c))
	return rec
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryPaymentRepository()
	h := NewPaymentHandler(&Repos{Payment: store}, okGateway(), "http://localhost", nil)

	p := &models.PaymentRecord{AmountPlanned: models.Money{CentAmount: 100, CurrencyCode: "EUR"}}
	require.NoError(t, store.Create(ctx, p))

	rec := getStatus(t, h, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":"missing_paymentId"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, getStatus(t, h, "nope").Code)

	rec = getStatus(t, h, p.ID)
	assert.JSONEq(t, `{"status":"Pending","paymentId":"`+p.ID+`"}`, rec.Body.String())

	_, err := store.AppendTransaction(ctx, p.ID, p.Version, models.Transaction{
		Type: models.TransactionAuthorization, State: models.TransactionSuccess, InteractionID: "TX1",
	})
	require.NoError(t, err)
	rec = getStatus(t, h, p.ID)
	assert.JSONEq(t, `{"status":"Success","paymentId":"`+p.ID+`"}`, rec.Body.String())
}

func TestStatus_OtherSessionsCartIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryPaymentRepository()
	h := NewPaymentHandler(&Repos{Payment: store}, okGateway(), "http://localhost", nil)

	p := &models.PaymentRecord{CartID: "cart-1"}
	require.NoError(t, store.Create(ctx, p))

	rec := getStatusAs(t, h, "cart-1", p.ID)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = getStatusAs(t, h, "cart-2", p.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":"not_found","paymentId":"`+p.ID+`"}`, rec.Body.String())
}

type unbindableStore struct {
	*repository.MemoryPaymentRepository
}

func (unbindableStore) SetInterfaceID(context.Context, string, int64, string) (*models.PaymentRecord, error) {
	return nil, repository.ErrVersionConflict
}

func TestCreate_BindFailureIs500(t *testing.T) {
	store := unbindableStore{repository.NewMemoryPaymentRepository()}
	h := NewPaymentHandler(&Repos{Payment: store}, okGateway(), "http://localhost", nil)

	rec := postPayment(t, h, `{"paymentMethod":{"type":"ideal"},"amount":"1.00"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"paymentReference":"error"}`, rec.Body.String())
}
