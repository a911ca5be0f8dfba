package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/debugly/debugly-backend/pkg/config"
	pkgerrors "github.com/debugly/debugly-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.razorpay.com/v1"
	defaultTimeout             = 10 * time.Second
	responseBodyReadLimit int64 = 2048

	// subscriptionBillingCycles is the number of monthly charges a new
	// subscription is authorized for at checkout.
	subscriptionBillingCycles = 12
)

var errCredentialsRequired = errors.New("razorpay key id and secret are required")

// Client wraps the Razorpay REST APIs used for subscription billing.
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Razorpay client from config.
func NewClient(cfg config.RazorpayConfig, opts ...Option) (*Client, error) {
	if !cfg.Configured() {
		return nil, errCredentialsRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		keyID:      strings.TrimSpace(cfg.KeyID),
		keySecret:  strings.TrimSpace(cfg.KeySecret),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	if trimmed := strings.TrimSpace(cfg.BaseURL); trimmed != "" {
		client.baseURL = trimmed
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Customer is the gateway customer record tied to a user.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Subscription is the gateway subscription record.
type Subscription struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
	ShortURL   string `json:"short_url"`
	TotalCount int    `json:"total_count"`
	PaidCount  int    `json:"paid_count"`
	CurrentEnd int64  `json:"current_end"`
}

// CreateCustomer registers a customer with the gateway. With fail_existing=0
// Razorpay returns the existing customer for a known email instead of erroring.
func (c *Client) CreateCustomer(ctx context.Context, name, email string) (*Customer, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay client not configured")
	}
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}

	payload := map[string]any{
		"name":          name,
		"email":         email,
		"fail_existing": "0",
	}

	var customer Customer
	if err := c.do(ctx, http.MethodPost, "customers", payload, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateSubscription opens a monthly subscription on the provided gateway plan.
func (c *Client) CreateSubscription(ctx context.Context, planID, customerID string) (*Subscription, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay client not configured")
	}
	if strings.TrimSpace(planID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway plan id is required")
	}

	payload := map[string]any{
		"plan_id":         planID,
		"total_count":     subscriptionBillingCycles,
		"quantity":        1,
		"customer_notify": 1,
	}
	if strings.TrimSpace(customerID) != "" {
		payload["customer_id"] = customerID
	}

	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "subscriptions", payload, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetSubscription fetches the current gateway state for a subscription.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay client not configured")
	}
	trimmed := strings.TrimSpace(subscriptionID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}

	var sub Subscription
	path := fmt.Sprintf("subscriptions/%s", url.PathEscape(trimmed))
	if err := c.do(ctx, http.MethodGet, path, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// IsSettled reports whether the gateway considers the subscription paid up.
func (s *Subscription) IsSettled() bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case "active", "authenticated", "completed":
		return true
	default:
		return false
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal razorpay request")
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build razorpay request")
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute razorpay request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "razorpay request failed")
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode razorpay response")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
