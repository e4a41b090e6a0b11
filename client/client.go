// Package client provides a Go consumer for the storefront API, including
// a guided checkout flow that walks cart review and confirmation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrUnavailable is returned when the circuit breaker is open or the
// server answered a 5xx that is not a partial-commit report. Callers may
// retry with the same idempotency key.
var ErrUnavailable = errors.New("storefront unavailable")

// APIError carries a decoded error body from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront: %s (%d %s)", e.Message, e.StatusCode, e.Code)
}

// StockShortage reports an insufficient-stock rejection at confirm time.
type StockShortage struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *StockShortage) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// CommitStep mirrors one entry of the server's commit step log.
type CommitStep struct {
	Kind      string `json:"kind"`
	ProductID string `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

// PartialCommit reports a confirm that failed after at least one mutation
// was applied server side. It is terminal: retrying would not undo the
// completed steps, and reconciliation has to happen out of band. Not to
// be confused with ErrUnavailable, which is safe to retry.
type PartialCommit struct {
	Message        string       `json:"error"`
	CompletedSteps []CommitStep `json:"completedSteps"`
}

func (e *PartialCommit) Error() string {
	return fmt.Sprintf("checkout commit failed after %d completed step(s): %s",
		len(e.CompletedSteps), e.Message)
}

type Cart struct {
	UserID string     `json:"userId"`
	Items  []CartItem `json:"items"`
}

type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type ReviewLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type Review struct {
	UserID string       `json:"user_id"`
	Items  []ReviewLine `json:"items"`
	Total  float64      `json:"total"`
}

type Order struct {
	ID     string  `json:"id"`
	UserID string  `json:"userId"`
	Total  float64 `json:"total"`
	Status string  `json:"status"`
}

type ConfirmResult struct {
	Order    Order  `json:"order"`
	Status   string `json:"status"`
	Replayed bool   `json:"replayed"`
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

type Option func(*Client)

// WithHTTPClient replaces the default transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "storefront",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return c
}

func (c *Client) GetCart(ctx context.Context, userID string) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, "/cart/"+userID, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) AddItem(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	body := map[string]interface{}{"productId": productID, "quantity": quantity}
	var cart Cart
	if err := c.do(ctx, http.MethodPost, "/cart/"+userID+"/add", body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	body := map[string]string{"productId": productID}
	var cart Cart
	if err := c.do(ctx, http.MethodPost, "/cart/"+userID+"/remove", body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) ClearCart(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/cart/"+userID, nil, nil)
}

func (c *Client) ReviewCheckout(ctx context.Context, userID string) (*Review, error) {
	var review Review
	if err := c.do(ctx, http.MethodPost, "/checkout/"+userID+"/review", nil, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (c *Client) ConfirmCheckout(ctx context.Context, userID, idempotencyKey string) (*ConfirmResult, error) {
	body := map[string]string{"idempotencyKey": idempotencyKey}
	var result ConfirmResult
	if err := c.do(ctx, http.MethodPost, "/checkout/"+userID+"/confirm", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do issues one request through the breaker and decodes the response into
// out. Server errors are translated into APIError, StockShortage or
// ErrUnavailable before the caller sees them.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			// A partial commit rides on a 5xx but is an application
			// outcome, not an availability signal. It must neither trip
			// the breaker nor be flattened into ErrUnavailable, or the
			// step log is lost and callers retry a terminal condition.
			raw, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr == nil && errorCode(raw) == "partial_commit" {
				resp.Body = io.NopCloser(bytes.NewReader(raw))
				return resp, nil
			}
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error body: %w", err)
	}

	switch errorCode(raw) {
	case "insufficient_stock":
		var shortage StockShortage
		if err := json.Unmarshal(raw, &shortage); err == nil {
			return &shortage
		}
	case "partial_commit":
		var partial PartialCommit
		if err := json.Unmarshal(raw, &partial); err == nil {
			return &partial
		}
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(raw, apiErr); err != nil {
		apiErr.Message = string(raw)
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}

func errorCode(raw []byte) string {
	var probe struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(raw, &probe)
	return probe.Code
}
