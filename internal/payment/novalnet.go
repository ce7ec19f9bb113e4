package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"paybridge/internal/models"
	"paybridge/internal/pkg/httpclient"
)

var ErrGatewayRejected = errors.New("payment: gateway rejected request")

// NovalnetConfig holds merchant credentials for the payport API.
type NovalnetConfig struct {
	AccessKey  string
	Signature  string
	Tariff     string
	PayportURL string
	TestMode   bool
}

// NovalnetGateway implements the Gateway interface for Novalnet hosted pages.
type NovalnetGateway struct {
	cfg    NovalnetConfig
	client *httpclient.Client
}

func NewNovalnetGateway(cfg NovalnetConfig) *NovalnetGateway {
	return &NovalnetGateway{
		cfg: cfg,
		client: httpclient.New().
			WithTimeout(30*time.Second).
			WithoutRetry().
			WithBreaker("novalnet").
			WithHeader("X-NN-Access-Key", cfg.AccessKey).
			WithHeader("Accept", "application/json"),
	}
}

func (n *NovalnetGateway) Name() string {
	return "novalnet"
}

type novalnetMerchant struct {
	Signature string `json:"signature"`
	Tariff    string `json:"tariff"`
}

type novalnetCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type novalnetTransaction struct {
	TestMode       string `json:"test_mode"`
	PaymentType    string `json:"payment_type"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	ReturnURL      string `json:"return_url"`
	ErrorReturnURL string `json:"error_return_url"`
}

type novalnetCustom struct {
	Input1    string `json:"input1"`
	InputVal1 string `json:"inputval1"`
	Input2    string `json:"input2"`
	InputVal2 string `json:"inputval2"`
}

type novalnetRequest struct {
	Merchant    novalnetMerchant    `json:"merchant"`
	Customer    novalnetCustomer    `json:"customer"`
	Transaction novalnetTransaction `json:"transaction"`
	Custom      novalnetCustom      `json:"custom"`
}

type novalnetResponse struct {
	Result struct {
		StatusCode  json.Number `json:"status_code"`
		Status      string      `json:"status"`
		StatusText  string      `json:"status_text"`
		RedirectURL string      `json:"redirect_url"`
	} `json:"result"`
	Transaction struct {
		TID       json.Number `json:"tid"`
		TxnSecret string      `json:"txn_secret"`
	} `json:"transaction"`
}

// paymentTypes maps checkout methods to payport payment types.
var paymentTypes = map[string]string{
	models.MethodCard:       "CREDITCARD",
	models.MethodCreditCard: "CREDITCARD",
	models.MethodInvoice:    "INVOICE",
	models.MethodPrepayment: "PREPAYMENT",
	models.MethodIdeal:      "IDEAL",
	models.MethodSepa:       "DIRECT_DEBIT_SEPA",
}

// PaymentType returns the payport type for a checkout method, IDEAL by default.
func PaymentType(method string) string {
	if t, ok := paymentTypes[strings.ToLower(method)]; ok {
		return t
	}
	return "IDEAL"
}

func (n *NovalnetGateway) CreatePayment(ctx context.Context, in PaymentInit) (*PaymentResult, error) {
	testMode := "0"
	if n.cfg.TestMode {
		testMode = "1"
	}

	body := novalnetRequest{
		Merchant: novalnetMerchant{Signature: n.cfg.Signature, Tariff: n.cfg.Tariff},
		Customer: novalnetCustomer{FirstName: "Shopper", LastName: "Customer", Email: "customer@example.com"},
		Transaction: novalnetTransaction{
			TestMode:       testMode,
			PaymentType:    PaymentType(in.Method),
			Amount:         strconv.FormatInt(in.Amount.CentAmount, 10),
			Currency:       in.Amount.CurrencyCode,
			ReturnURL:      in.ReturnURL,
			ErrorReturnURL: in.ErrorReturnURL,
		},
		Custom: novalnetCustom{
			Input1:    "cartId",
			InputVal1: in.CartID,
			Input2:    "paymentId",
			InputVal2: in.PaymentID,
		},
	}

	resp, err := n.client.Post(ctx, n.cfg.PayportURL+"/payment", body)
	if err != nil {
		return nil, fmt.Errorf("novalnet create payment failed: %w", err)
	}

	var result novalnetResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("novalnet parse error: %w", err)
	}
	if code := result.Result.StatusCode.String(); code != "" && code != SuccessStatus {
		return nil, fmt.Errorf("%w: %s %s", ErrGatewayRejected, code, result.Result.StatusText)
	}

	return &PaymentResult{
		RedirectURL: result.Result.RedirectURL,
		TxnSecret:   result.Transaction.TxnSecret,
		TID:         result.Transaction.TID.String(),
	}, nil
}
