package paykit

import "time"

// PollUpdate is passed to OnUpdate hooks after every successful round trip,
// including normalized 402 responses. State is the freshly observed payment
// state, or nil when the response body carried no interpretable state.
// Hooks fire exactly once per cycle, in cycle order.
type PollUpdate struct {
	Cycle int
	State *PaymentState
}

// PollError is passed to OnError hooks when a poll cycle fails.
// NextInterval is the backoff the poller will sleep before the next attempt;
// it is zero when the error aborts the loop.
type PollError struct {
	Cycle        int
	Err          *RequestError
	NextInterval time.Duration
}

// OnUpdateHook observes payment state snapshots as the poller sees them.
// Hooks run synchronously inside the poll loop and must not block
// indefinitely; a slow hook directly slows the loop.
type OnUpdateHook func(PollUpdate)

// OnErrorHook observes poll failures. The loop's outcome is unaffected by
// the hook; it is a side channel only.
type OnErrorHook func(PollError)

// WithOnUpdate registers a hook to run after each successful poll cycle.
func WithOnUpdate(hook OnUpdateHook) PollOption {
	return func(p *Poller) {
		p.onUpdate = append(p.onUpdate, hook)
	}
}

// WithOnError registers a hook to run on each failed poll cycle.
func WithOnError(hook OnErrorHook) PollOption {
	return func(p *Poller) {
		p.onError = append(p.onError, hook)
	}
}
