package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/storefront-checkout/internal/resilience"
)

const (
	defaultTimeout        = 8 * time.Second
	publishableKeyHeader  = "x-publishable-api-key"
	maxErrorBodyBytes     = 2048
	defaultBreakerMinReqs = 5
)

var (
	// ErrNotConfigured is returned when no backend base URL was provided.
	ErrNotConfigured = errors.New("commerce: backend not configured")
	// ErrNotFound is returned when the backend reports the resource does not exist.
	ErrNotFound = errors.New("commerce: not found")
)

// ClientConfig configures the commerce backend client.
type ClientConfig struct {
	BaseURL        string
	PublishableKey string
	Timeout        time.Duration
	MaxAttempts    int
	Transport      http.RoundTripper
	Logger         zerolog.Logger
}

// Client fetches cart and order snapshots from the commerce backend.
type Client struct {
	baseURL        string
	publishableKey string
	http           resilience.HTTPClient
}

// NewClient constructs a backend client. An empty base URL yields a client
// whose calls return ErrNotConfigured.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 2
	}
	return &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		publishableKey: strings.TrimSpace(cfg.PublishableKey),
		http: resilience.HTTPClient{
			Client:      &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(transport)},
			Breaker:     resilience.NewBreaker(defaultBreakerMinReqs, 0.5, 30*time.Second).WithTarget("commerce").WithLogger(cfg.Logger),
			MaxAttempts: attempts,
			BaseBackoff: 100 * time.Millisecond,
			Jitter:      0.2,
			Timeout:     timeout,
		},
	}
}

// Configured reports whether the client can reach a backend.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// GetCart loads a cart snapshot.
func (c *Client) GetCart(ctx context.Context, id string) (*Cart, error) {
	var payload struct {
		Cart *Cart `json:"cart"`
	}
	if err := c.get(ctx, &payload, "store", "carts", id); err != nil {
		return nil, err
	}
	if payload.Cart == nil {
		return nil, ErrNotFound
	}
	return payload.Cart, nil
}

// GetOrder loads an order snapshot including its payment collections.
func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	var payload struct {
		Order *Order `json:"order"`
	}
	if err := c.get(ctx, &payload, "store", "orders", id); err != nil {
		return nil, err
	}
	if payload.Order == nil {
		return nil, ErrNotFound
	}
	return payload.Order, nil
}

func (c *Client) get(ctx context.Context, dst any, segments ...string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("commerce: empty path segment: %w", ErrNotFound)
		}
	}
	endpoint, err := url.JoinPath(c.baseURL, segments...)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.publishableKey != "" {
		req.Header.Set(publishableKeyHeader, c.publishableKey)
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("commerce: request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("commerce: status %d: %s", resp.StatusCode, drainError(resp.Body))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("commerce: decode response: %w", err)
	}
	return nil
}

func drainError(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	return strings.TrimSpace(string(body))
}
