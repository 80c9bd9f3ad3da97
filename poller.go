package paykit

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/paykitio/paykit-go/internal/observability"
)

const (
	// DefaultBaseInterval is the default wait between polls.
	DefaultBaseInterval = 15 * time.Second
	// DefaultTimeout is the default overall deadline for one completion wait.
	DefaultTimeout = 5 * time.Minute

	// maxBackoffInterval caps transient-failure backoff.
	maxBackoffInterval = 60 * time.Second
	backoffMultiplier  = 1.5
)

// Poller repeatedly invokes an Issuer with a fixed reference key until the
// payment settles, terminally fails, a fatal error is observed, the caller's
// context is cancelled, or the overall deadline elapses.
//
// Polls for a single logical payment are strictly sequential: a new request
// is never issued before the previous response is fully processed. A Poller
// owns no shared mutable state across invocations; run one poller per
// logical payment.
type Poller struct {
	issuer       Issuer
	log          *slog.Logger
	baseInterval time.Duration
	timeout      time.Duration
	onUpdate     []OnUpdateHook
	onError      []OnErrorHook
}

// PollOption configures a Poller.
type PollOption func(*Poller)

// WithBaseInterval sets the base wait between polls. Backoff grows from and
// resets to this value. Default: 15 seconds.
func WithBaseInterval(interval time.Duration) PollOption {
	return func(p *Poller) {
		if interval > 0 {
			p.baseInterval = interval
		}
	}
}

// WithTimeout sets the overall wall-clock deadline, computed once at loop
// entry. Default: 5 minutes.
func WithTimeout(timeout time.Duration) PollOption {
	return func(p *Poller) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithPollLogger sets the poller's logger. Default: no-op.
func WithPollLogger(log *slog.Logger) PollOption {
	return func(p *Poller) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPoller creates a completion poller over the given issuer.
func NewPoller(issuer Issuer, opts ...PollOption) *Poller {
	p := &Poller{
		issuer:       issuer,
		log:          slog.New(observability.NewNoopHandler()),
		baseInterval: DefaultBaseInterval,
		timeout:      DefaultTimeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WaitForCompletion runs the poll loop and returns its structured outcome.
//
// The loop never returns an error: failures are reported through the OnError
// hooks and folded into the PollResult, so a caller who ignores the hooks
// still gets a well-formed final result. Evaluated once per cycle, in order:
//
//  1. Cancellation requested: abort with the last known state.
//  2. One request via the issuer. Fatal errors abort; transient errors grow
//     the wait interval by ×1.5 (rounded up to the millisecond, capped at
//     60s) and keep the last known state unchanged. Successful round trips
//     (402 included) replace the last known state wholesale.
//  3. Terminal status (expired, failed): stop, not paid.
//  4. No reference key in the last response: settled, paid.
//  5. Still pending after a successful round trip: reset the interval to
//     base. Backoff is not sticky once connectivity recovers.
//  6. Deadline passed: abort.
//  7. Sleep the current interval, cancellable mid-sleep, and repeat.
//
// The reference key issued by the first successful request is adopted and
// carried on every subsequent poll; it is immutable for the lifetime of the
// logical payment.
func (p *Poller) WaitForCompletion(ctx context.Context, req PaymentRequest) PollResult {
	var last *PaymentState

	interval := p.baseInterval
	deadline := time.Now().Add(p.timeout)
	reference := req.PaymentReference

	for cycle := 1; ; cycle++ {
		if ctx.Err() != nil {
			return PollResult{Paid: false, Last: last}
		}

		req.PaymentReference = reference

		state, err := p.issuer.RequestPayment(ctx, req)
		if err != nil {
			reqErr := asRequestError(err)
			if reqErr.Fatal() {
				p.notifyError(PollError{Cycle: cycle, Err: reqErr})
				p.log.Debug("poll aborted", slog.Int("cycle", cycle), slog.String("class", string(reqErr.Class)))
				return PollResult{Paid: false, Last: last}
			}

			interval = nextInterval(interval)
			p.notifyError(PollError{Cycle: cycle, Err: reqErr, NextInterval: interval})
			p.log.Debug("poll failed",
				slog.Int("cycle", cycle),
				slog.String("class", string(reqErr.Class)),
				slog.Duration("next_interval", interval),
			)
		} else {
			last = state
			p.notifyUpdate(PollUpdate{Cycle: cycle, State: state})

			if last != nil && last.Status.Terminal() {
				return PollResult{Paid: false, Last: last}
			}
			if last.Settled() {
				return PollResult{Paid: true, Last: last}
			}
			if reference == "" {
				reference = last.ReferenceKey
			}
			interval = p.baseInterval
		}

		if !time.Now().Before(deadline) {
			return PollResult{Paid: false, Last: last}
		}
		if !sleep(ctx, interval) {
			return PollResult{Paid: false, Last: last}
		}
	}
}

func (p *Poller) notifyUpdate(u PollUpdate) {
	for _, hook := range p.onUpdate {
		hook(u)
	}
}

func (p *Poller) notifyError(e PollError) {
	for _, hook := range p.onError {
		hook(e)
	}
}

// asRequestError coerces any issuer error into a RequestError. Unclassified
// errors are treated as transient: an unknown failure is more likely a blip
// than a permanent block.
func asRequestError(err error) *RequestError {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	return &RequestError{Class: ClassTransient, Err: err}
}

// nextInterval grows the wait by the backoff multiplier, rounded up to the
// millisecond and capped at maxBackoffInterval.
func nextInterval(current time.Duration) time.Duration {
	ms := math.Ceil(float64(current.Milliseconds()) * backoffMultiplier)
	next := time.Duration(ms) * time.Millisecond
	if next > maxBackoffInterval {
		next = maxBackoffInterval
	}
	return next
}

// sleep waits for d or until ctx is cancelled. Returns false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
