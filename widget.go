package paykit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultWidgetInterval is the fixed wait between widget status checks.
const DefaultWidgetInterval = 15 * time.Second

// PaymentStatus performs one check against the public widget read endpoint.
// The endpoint is unauthenticated and CORS-open; no bearer credential is
// attached.
func (c *Client) PaymentStatus(ctx context.Context, referenceKey string) (WidgetStatus, error) {
	if referenceKey == "" {
		return WidgetStatus{}, fmt.Errorf("reference key is required")
	}

	endpoint := c.baseURL + widgetStatusPath + url.PathEscape(referenceKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return WidgetStatus{}, fmt.Errorf("failed to create status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return WidgetStatus{}, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return WidgetStatus{}, fmt.Errorf("failed to read status response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return WidgetStatus{}, fmt.Errorf("payment status failed (%d): %s", resp.StatusCode, snippet(body))
	}

	var status WidgetStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return WidgetStatus{}, fmt.Errorf("failed to decode status response: %w", err)
	}

	return status, nil
}

// WatchPaymentStatus polls the widget read endpoint at a fixed interval
// until the payment is paid or has failed, the context is cancelled, or the
// deadline on ctx elapses. interval <= 0 selects DefaultWidgetInterval.
//
// Unlike WaitForCompletion there is no backoff and no fatal/transient split:
// this path talks to a purpose-built, always-available read endpoint, so
// check errors are logged and the next tick simply tries again. A pending
// status keeps the watcher polling.
//
// onChange, if non-nil, runs after every successful check.
func (c *Client) WatchPaymentStatus(ctx context.Context, referenceKey string, interval time.Duration, onChange func(WidgetStatus)) (WidgetStatus, error) {
	if interval <= 0 {
		interval = DefaultWidgetInterval
	}

	var last WidgetStatus

	for {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		status, err := c.PaymentStatus(ctx, referenceKey)
		if err != nil {
			c.log.Debug("widget status check failed", slog.String("reference", referenceKey), slog.Any("error", err))
		} else {
			last = status
			if onChange != nil {
				onChange(status)
			}
			if status.Done() {
				return status, nil
			}
		}

		if !sleep(ctx, interval) {
			return last, ctx.Err()
		}
	}
}
