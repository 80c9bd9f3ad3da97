package paykit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Issuer performs exactly one request/response cycle against the payment
// endpoint. Implementations make at most one outbound call per invocation
// and never retry; retry policy belongs entirely to the Poller.
//
// A nil state with a nil error means the server answered through the success
// path but the body carried no interpretable payment state.
type Issuer interface {
	RequestPayment(ctx context.Context, req PaymentRequest) (*PaymentState, error)
}

// IssuerFunc adapts a function to the Issuer interface.
type IssuerFunc func(ctx context.Context, req PaymentRequest) (*PaymentState, error)

// RequestPayment implements Issuer.
func (f IssuerFunc) RequestPayment(ctx context.Context, req PaymentRequest) (*PaymentState, error) {
	return f(ctx, req)
}

// errUpstream marks a 5xx response for circuit breaker bookkeeping.
var errUpstream = errors.New("upstream server error")

// RequestPayment sends one create/advance request to the payment API.
//
// At least one of a reference key or a non-empty asset list must be present;
// otherwise the call fails with ErrInvalidArgument before any network I/O.
// An HTTP 402 response is normalized onto the success path: its body carries
// the same state envelope a 200 does. Any other non-2xx status is returned
// as a *RequestError classified fatal or transient.
func (c *Client) RequestPayment(ctx context.Context, req PaymentRequest) (*PaymentState, error) {
	if req.PaymentReference == "" && len(req.Assets) == 0 {
		return nil, &RequestError{Class: ClassInvalidArgument, Err: ErrInvalidArgument}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &RequestError{Class: ClassInvalidArgument, Err: fmt.Errorf("failed to marshal payment request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+requestPaymentPath, bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Class: ClassInvalidArgument, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set(headerContentType, mimeApplicationJSON)
	if c.apiKey != "" {
		httpReq.Header.Set(headerAuthorization, "Bearer "+c.apiKey)
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set(headerIdempotencyKey, req.IdempotencyKey)
	}

	resp, err := c.do(httpReq)
	if err != nil {
		// Network-level failures and an open breaker are transient.
		return nil, &RequestError{Class: ClassTransient, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Class: ClassTransient, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	out := classifyResponse(resp.StatusCode, respBody)

	c.log.Debug("payment request",
		slog.Int("status", resp.StatusCode),
		slog.Int("outcome", int(out.Kind)),
		slog.String("reference", req.PaymentReference),
	)

	switch out.Kind {
	case OutcomeFatal, OutcomeTransient:
		return nil, out.Err
	default:
		return out.State, nil
	}
}

// do executes the HTTP call, routed through the circuit breaker when one is
// configured. A 5xx response counts as a breaker failure but is still handed
// to the classifier so the poller sees the real status code.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}

	v, err := c.breaker.Execute(func() (interface{}, error) {
		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if resp.StatusCode >= 500 {
			return resp, errUpstream
		}
		return resp, nil
	})

	if err != nil {
		if resp, ok := v.(*http.Response); ok && resp != nil {
			return resp, nil
		}
		return nil, err
	}
	return v.(*http.Response), nil
}
