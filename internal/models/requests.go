package models

// Payment outcomes a storefront may request.
const (
	PaymentOutcomeAuthorized = "Authorized"
	PaymentOutcomeRejected   = "Rejected"
)

// Payment method types.
const (
	MethodCard       = "card"
	MethodInvoice    = "invoice"
	MethodPrepayment = "prepayment"
	MethodIdeal      = "ideal"
	MethodSepa       = "sepa"
	MethodCreditCard = "creditcard"
)

// PaymentMethodInfo names the method chosen by the shopper.
type PaymentMethodInfo struct {
	Type        string `json:"type"`
	PoNumber    string `json:"poNumber,omitempty"`
	InvoiceMemo string `json:"invoiceMemo,omitempty"`
}

// PaymentRequest is the body of POST /payments.
// Amount and Currency are only read when the cart provider does not price the cart.
type PaymentRequest struct {
	PaymentMethod  PaymentMethodInfo `json:"paymentMethod"`
	PaymentOutcome string            `json:"paymentOutcome"`
	Amount         string            `json:"amount,omitempty"`
	Currency       string            `json:"currency,omitempty"`
}

// PaymentResponse is returned by POST /payments.
type PaymentResponse struct {
	PaymentReference string `json:"paymentReference"`
	RedirectURL      string `json:"redirectUrl,omitempty"`
	PaymentID        string `json:"paymentId,omitempty"`
	TxnSecret        string `json:"txnSecret,omitempty"`
}

// PaymentStatusResponse is returned by GET /payments/status.
type PaymentStatusResponse struct {
	Status    string `json:"status"`
	PaymentID string `json:"paymentId,omitempty"`
}

// CheckoutConfigResponse is returned by GET /config. It carries the
// client-side checkout settings, never credentials.
type CheckoutConfigResponse struct {
	ProcessorURL     string `json:"processorUrl"`
	Origin           string `json:"origin"`
	AttemptTimeoutMs int64  `json:"attemptTimeoutMs"`
}
