package paykit

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/paykitio/paykit-go/internal/observability"
)

const (
	requestPaymentPath = "/payment/request-payment"
	widgetStatusPath   = "/widget/payment-status/"

	headerContentType    = "Content-Type"
	headerAuthorization  = "Authorization"
	headerIdempotencyKey = "Idempotency-Key"
	mimeApplicationJSON  = "application/json"

	defaultHTTPTimeout = 30 * time.Second
)

// Client talks to one PayKit API deployment on behalf of one credential.
//
// Each logical caller constructs and owns its client; there is no ambient
// singleton. The API key is treated as an opaque bearer credential attached
// to outgoing requests, never validated or refreshed locally.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
	breaker    *gobreaker.CircuitBreaker

	baseInterval time.Duration
	timeout      time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client. The default client uses a
// 30 second per-request timeout.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used by the client and by pollers it spawns.
// The default is a no-op logger; under normal operation the SDK logs one
// debug record per poll cycle.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithCircuitBreaker wraps every request-payment call in a circuit breaker.
// While the breaker is open, calls fail immediately with a transient
// RequestError, so a completion poller backs off instead of hammering an
// endpoint that keeps failing.
func WithCircuitBreaker(settings gobreaker.Settings) ClientOption {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker(settings)
	}
}

// WithPollInterval sets the default base poll interval for pollers spawned
// by WaitForCompletion. Default: 15 seconds.
func WithPollInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.baseInterval = interval
	}
}

// WithPollTimeout sets the default overall deadline for pollers spawned by
// WaitForCompletion. Default: 5 minutes.
func WithPollTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a client for the payment API at baseURL, authenticating
// with apiKey.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		log:          slog.New(observability.NewNoopHandler()),
		baseInterval: DefaultBaseInterval,
		timeout:      DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WaitForCompletion issues the payment request and polls until settlement, a
// terminal failure, a fatal error, cancellation, or the deadline. See
// Poller.WaitForCompletion for the loop semantics.
func (c *Client) WaitForCompletion(ctx context.Context, req PaymentRequest, opts ...PollOption) PollResult {
	base := []PollOption{
		WithBaseInterval(c.baseInterval),
		WithTimeout(c.timeout),
		WithPollLogger(c.log),
	}

	return NewPoller(c, append(base, opts...)...).WaitForCompletion(ctx, req)
}
