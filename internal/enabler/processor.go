package enabler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"paybridge/internal/models"
	"paybridge/internal/pkg/httpclient"
)

// Processor is the server side of the checkout.
type Processor interface {
	CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResponse, error)
	PaymentStatus(ctx context.Context, paymentID string) (*models.PaymentStatusResponse, error)
}

// ProcessorClient calls the processor over HTTP with the checkout session.
type ProcessorClient struct {
	baseURL string
	client  *httpclient.Client
}

func NewProcessorClient(baseURL, sessionID string) *ProcessorClient {
	return &ProcessorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: httpclient.New().
			WithTimeout(20*time.Second).
			WithoutRetry().
			WithHeader("X-Session-Id", sessionID).
			WithHeader("Accept", "application/json"),
	}
}

func (p *ProcessorClient) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResponse, error) {
	body, err := p.client.Post(ctx, p.baseURL+"/payments", req)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	var resp models.PaymentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("create payment: decode: %w", err)
	}
	return &resp, nil
}

func (p *ProcessorClient) PaymentStatus(ctx context.Context, paymentID string) (*models.PaymentStatusResponse, error) {
	body, err := p.client.Get(ctx, p.baseURL+"/payments/status?paymentId="+url.QueryEscape(paymentID))
	if err != nil {
		return nil, fmt.Errorf("payment status: %w", err)
	}
	var resp models.PaymentStatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("payment status: decode: %w", err)
	}
	return &resp, nil
}

// CheckoutConfig fetches the checkout settings published by the processor.
func (p *ProcessorClient) CheckoutConfig(ctx context.Context) (*models.CheckoutConfigResponse, error) {
	body, err := p.client.Get(ctx, p.baseURL+"/config")
	if err != nil {
		return nil, fmt.Errorf("checkout config: %w", err)
	}
	var resp models.CheckoutConfigResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("checkout config: decode: %w", err)
	}
	return &resp, nil
}

// PollStatus asks for the payment status until it leaves Pending or the
// attempts run out. The wait doubles after every pending answer.
func PollStatus(ctx context.Context, p Processor, paymentID string, attempts int, backoff time.Duration) (string, error) {
	if attempts <= 0 {
		attempts = 1
	}
	status := models.StatusPending
	for i := 0; i < attempts; i++ {
		resp, err := p.PaymentStatus(ctx, paymentID)
		if err != nil {
			return "", err
		}
		status = resp.Status
		if status != models.StatusPending || i == attempts-1 {
			break
		}

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return status, ctx.Err()
		case <-t.C:
		}
		backoff *= 2
	}
	return status, nil
}
