// Package razorpay is a minimal client for the Razorpay Orders API.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/localkart/localkart-api/internal/api/metrics"
	"github.com/localkart/localkart-api/internal/core/domain"
	"github.com/localkart/localkart-api/internal/core/ports"
)

const (
	DefaultBaseURL = "https://api.razorpay.com"
	ordersPath     = "/v1/orders"
	maxErrorBody   = 64 << 10
)

// Config holds the API credentials. KeySecret never leaves the process except
// as HTTP basic auth.
type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
}

type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a client. A nil httpClient uses a dedicated client without
// an overall timeout; callers bound each request with their context.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, http: httpClient}
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder opens an order. It makes a single attempt.
func (c *Client) CreateOrder(ctx context.Context, req ports.GatewayOrderRequest) (*domain.PaymentOrder, error) {
	start := time.Now()
	order, err := c.createOrder(ctx, req)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.GatewayRequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return order, err
}

func (c *Client) createOrder(ctx context.Context, req ports.GatewayOrderRequest) (*domain.PaymentOrder, error) {
	body, err := json.Marshal(orderRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay: encode order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+ordersPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("razorpay: build request: %w", err)
	}
	httpReq.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("razorpay: decode order: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("razorpay: order response without id")
	}

	order := &domain.PaymentOrder{
		ID:       out.ID,
		Amount:   out.Amount,
		Currency: out.Currency,
		Receipt:  out.Receipt,
		Status:   out.Status,
	}
	if out.CreatedAt > 0 {
		order.CreatedAt = time.Unix(out.CreatedAt, 0).UTC()
	}
	return order, nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var e errorResponse
	if json.Unmarshal(raw, &e) == nil && e.Error.Description != "" {
		return fmt.Errorf("razorpay: status %d: %s", resp.StatusCode, e.Error.Description)
	}
	return fmt.Errorf("razorpay: status %d", resp.StatusCode)
}
