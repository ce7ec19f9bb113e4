// Package commerce is a small commercetools HTTP API client covering the
// payment and cart resources the processor mutates.
package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"paybridge/internal/pkg/httpclient"
)

var (
	ErrNotFound               = errors.New("commerce: resource not found")
	ErrConcurrentModification = errors.New("commerce: concurrent modification")
)

// Config carries API client credentials.
type Config struct {
	ProjectKey   string
	ClientID     string
	ClientSecret string
	AuthURL      string
	APIURL       string
}

// Client talks to one commercetools project.
type Client struct {
	cfg  Config
	http *httpclient.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
	now      func() time.Time
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: httpclient.New().WithTimeout(15 * time.Second).WithBreaker("commercetools"),
		now:  time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// accessToken runs the client-credentials flow and caches the token until
// one minute before expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExp) {
		return c.token, nil
	}

	req := c.http.Request().
		SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
			"scope":      "manage_project:" + c.cfg.ProjectKey,
		})
	body, err := c.http.Do(ctx, http.MethodPost, c.cfg.AuthURL+"/oauth/token", req)
	if err != nil {
		return "", fmt.Errorf("commerce token: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
		return "", fmt.Errorf("commerce token: invalid response")
	}
	c.token = tr.AccessToken
	c.tokenExp = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req := c.http.Request().SetAuthToken(token).SetHeader("Accept", "application/json")
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	target := c.cfg.APIURL + "/" + url.PathEscape(c.cfg.ProjectKey) + path

	resp, err := c.http.Do(ctx, method, target, req)
	switch {
	case httpclient.IsStatus(err, http.StatusNotFound):
		return ErrNotFound
	case httpclient.IsStatus(err, http.StatusConflict):
		return ErrConcurrentModification
	case err != nil:
		return fmt.Errorf("commerce %s %s: %w", method, path, err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("commerce %s %s: decode: %w", method, path, err)
	}
	return nil
}

// GetPayment fetches a payment by id.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var p Payment
	if err := c.call(ctx, http.MethodGet, "/payments/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment creates a payment from draft.
func (c *Client) CreatePayment(ctx context.Context, draft PaymentDraft) (*Payment, error) {
	var p Payment
	if err := c.call(ctx, http.MethodPost, "/payments", draft, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePayment applies actions against the given version.
// A moved version yields ErrConcurrentModification.
func (c *Client) UpdatePayment(ctx context.Context, id string, version int64, actions ...UpdateAction) (*Payment, error) {
	var p Payment
	body := updateRequest{Version: version, Actions: actions}
	if err := c.call(ctx, http.MethodPost, "/payments/"+url.PathEscape(id), body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// QueryPayments lists payments matching a query predicate, oldest first.
func (c *Client) QueryPayments(ctx context.Context, where string, limit int) ([]Payment, error) {
	q := url.Values{}
	q.Set("where", where)
	q.Set("sort", "createdAt asc")
	q.Set("limit", strconv.Itoa(limit))

	var page PaymentPage
	if err := c.call(ctx, http.MethodGet, "/payments?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// GetCart fetches a cart by id.
func (c *Client) GetCart(ctx context.Context, id string) (*Cart, error) {
	var cart Cart
	if err := c.call(ctx, http.MethodGet, "/carts/"+url.PathEscape(id), nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddPaymentToCart attaches a payment reference to the cart.
func (c *Client) AddPaymentToCart(ctx context.Context, cartID string, version int64, paymentID string) (*Cart, error) {
	var cart Cart
	body := updateRequest{
		Version: version,
		Actions: []UpdateAction{{
			"action":  "addPayment",
			"payment": Reference{TypeID: "payment", ID: paymentID},
		}},
	}
	if err := c.call(ctx, http.MethodPost, "/carts/"+url.PathEscape(cartID), body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}
