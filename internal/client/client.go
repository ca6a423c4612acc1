// Package client talks to the storefront order API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"storefront/internal/domain"
)

// ErrNetwork marks failures to reach the order service, including an open
// circuit breaker.
var ErrNetwork = errors.New("order service unreachable")

// APIError is a non-2xx response from the order service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("order service returned %d", e.Status)
	}
	return fmt.Sprintf("order service returned %d: %s", e.Status, e.Message)
}

type rawResponse struct {
	status int
	body   []byte
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*rawResponse]
	logger  *log.Logger
}

// New returns a Client for baseURL. Five consecutive transport or server
// failures open the breaker for 30 seconds.
func New(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
		Name:        "order-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Printf("client: breaker %s %s -> %s", name, from, to)
		},
	})
	return c
}

func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) OrderHistory(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/history", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	res, err := c.breaker.Execute(func() (*rawResponse, error) {
		return c.roundTrip(ctx, method, path, payload)
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		c.logger.Printf("client: %s %s error=%v", method, path, err)
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	if res.status < 200 || res.status > 299 {
		return decodeAPIError(res)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// roundTrip reports server errors as failures so they count against the
// breaker; client errors pass through as responses.
func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) (*rawResponse, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	res := &rawResponse{status: resp.StatusCode, body: data}
	if resp.StatusCode >= 500 {
		return res, decodeAPIError(res)
	}
	return res, nil
}

func decodeAPIError(res *rawResponse) *APIError {
	apiErr := &APIError{Status: res.status}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(res.body, &body) == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}
