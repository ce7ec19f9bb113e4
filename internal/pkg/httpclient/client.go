package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker rejects calls to a failing upstream.
var ErrCircuitOpen = errors.New("httpclient: circuit open")

// StatusError is returned for responses with a 4xx or 5xx status.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client wraps resty for HTTP requests to the gateway and the commerce platform.
type Client struct {
	r       *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// New creates a new HTTP client with sensible defaults.
func New() *Client {
	r := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Client{r: r}
}

// WithTimeout sets a custom timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.r.SetTimeout(d)
	return c
}

// WithoutRetry disables transport retries. Use it for non-idempotent calls.
func (c *Client) WithoutRetry() *Client {
	c.r.SetRetryCount(0)
	return c
}

// WithBaseURL sets the host prefix for relative request paths.
func (c *Client) WithBaseURL(url string) *Client {
	c.r.SetBaseURL(url)
	return c
}

// WithBearerToken sets a bearer token for authentication.
func (c *Client) WithBearerToken(token string) *Client {
	c.r.SetAuthToken(token)
	return c
}

// WithHeader sets a custom header.
func (c *Client) WithHeader(key, value string) *Client {
	c.r.SetHeader(key, value)
	return c
}

// WithBreaker trips after five consecutive upstream failures and stays open for 30s.
// Only transport errors and 5xx responses count as failures.
func (c *Client) WithBreaker(name string) *Client {
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return c
}

// Get sends a GET request and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, url, c.r.R())
}

// Post sends a POST request with JSON body.
func (c *Client) Post(ctx context.Context, url string, body interface{}) ([]byte, error) {
	req := c.r.R().SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	return c.Do(ctx, http.MethodPost, url, req)
}

// PostForm sends a POST request with form data.
func (c *Client) PostForm(ctx context.Context, url string, data map[string]string) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, url, c.r.R().SetFormData(data))
}

// Request returns a new resty Request for chaining.
func (c *Client) Request() *resty.Request {
	return c.r.R()
}

// Do executes a prepared request through the breaker and maps 4xx/5xx
// responses to *StatusError.
func (c *Client) Do(ctx context.Context, method, url string, req *resty.Request) ([]byte, error) {
	call := func() (interface{}, error) {
		resp, err := req.SetContext(ctx).Execute(method, url)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, &StatusError{Method: method, URL: url, Code: resp.StatusCode(), Body: resp.Body()}
		}
		return resp, nil
	}

	var (
		out interface{}
		err error
	)
	if c.breaker != nil {
		out, err = c.breaker.Execute(call)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, c.breaker.Name())
		}
	} else {
		out, err = call()
	}
	if err != nil {
		return nil, err
	}

	resp := out.(*resty.Response)
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, &StatusError{Method: method, URL: url, Code: resp.StatusCode(), Body: resp.Body()}
	}
	return resp.Body(), nil
}
