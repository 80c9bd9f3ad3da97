package paykit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedIssuer replays a fixed sequence of responses, then repeats the
// last step for any further calls.
type scriptedIssuer struct {
	calls  int
	seen   []PaymentRequest
	script []func() (*PaymentState, error)
}

func (s *scriptedIssuer) RequestPayment(_ context.Context, req PaymentRequest) (*PaymentState, error) {
	s.seen = append(s.seen, req)
	step := s.calls
	if step >= len(s.script) {
		step = len(s.script) - 1
	}
	s.calls++
	return s.script[step]()
}

func pendingState(ref string) func() (*PaymentState, error) {
	return func() (*PaymentState, error) {
		return &PaymentState{ReferenceKey: ref, Status: StatusPending}, nil
	}
}

func settledState() func() (*PaymentState, error) {
	return func() (*PaymentState, error) {
		return &PaymentState{Status: StatusPaid}, nil
	}
}

func failWith(class ErrorClass, status int) func() (*PaymentState, error) {
	return func() (*PaymentState, error) {
		return nil, &RequestError{Class: class, StatusCode: status, Message: "scripted"}
	}
}

func TestWaitForCompletionSettlesAfterPending(t *testing.T) {
	issuer := &scriptedIssuer{script: []func() (*PaymentState, error){
		pendingState("ref-1"),
		pendingState("ref-1"),
		settledState(),
	}}

	var updates []PollUpdate
	p := NewPoller(issuer,
		WithBaseInterval(20*time.Millisecond),
		WithTimeout(5*time.Second),
		WithOnUpdate(func(u PollUpdate) { updates = append(updates, u) }),
	)

	start := time.Now()
	result := p.WaitForCompletion(context.Background(), PaymentRequest{Assets: []Asset{{ID: "item", Quantity: 1}}})
	elapsed := time.Since(start)

	assert.True(t, result.Paid)
	require.NotNil(t, result.Last)
	assert.Equal(t, StatusPaid, result.Last.Status)
	assert.Equal(t, 3, issuer.calls)

	// Two sleeps at the base interval, so roughly 2x base wall-clock.
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)

	// Exactly one update per successful cycle, in cycle order.
	require.Len(t, updates, 3)
	for i, u := range updates {
		assert.Equal(t, i+1, u.Cycle)
	}
}

func TestWaitForCompletionAdoptsAndPinsReferenceKey(t *testing.T) {
	issuer := &scriptedIssuer{script: []func() (*PaymentState, error){
		pendingState("ref-first"),
		pendingState("ref-other"), // a changed key must not be adopted
		settledState(),
	}}

	p := NewPoller(issuer, WithBaseInterval(time.Millisecond), WithTimeout(time.Second))
	result := p.WaitForCompletion(context.Background(), PaymentRequest{Assets: []Asset{{ID: "item", Quantity: 1}}})

	assert.True(t, result.Paid)
	require.Equal(t, 3, issuer.calls)
	assert.Empty(t, issuer.seen[0].PaymentReference)
	assert.Equal(t, "ref-first", issuer.seen[1].PaymentReference)
	assert.Equal(t, "ref-first", issuer.seen[2].PaymentReference)
}

func TestWaitForCompletionFatalShortCircuit(t *testing.T) {
	issuer := &scriptedIssuer{script: []func() (*PaymentState, error){
		failWith(ClassFatal, 404),
	}}

	var errs []PollError
	p := NewPoller(issuer,
		WithBaseInterval(time.Millisecond),
		WithTimeout(time.Hour), // the fatal error must win over any timeout
		WithOnError(func(e PollError) { errs = append(errs, e) }),
	)

	result := p.WaitForCompletion(context.Background(), PaymentRequest{PaymentReference: "ref"})

	assert.False(t, result.Paid)
	assert.Nil(t, result.Last)
	assert.Equal(t, 1, issuer.calls)
	require.Len(t, errs, 1)
	assert.Equal(t, ClassFatal, errs[0].Err.Class)
	assert.Zero(t, errs[0].NextInterval)
}

func TestWaitForCompletionTransientThenSettled(t *testing.T) {
	base := 20 * time.Millisecond
	issuer := &scriptedIssuer{script: []func() (*PaymentState, error){
		failWith(ClassTransient, 500),
		settledState(),
	}}

	var errs []PollError
	p := NewPoller(issuer,
		WithBaseInterval(base),
		WithTimeout(5*time.Second),
		WithOnError(func(e PollError) { errs = append(errs, e) }),
	)

	start := time.Now()
	result := p.WaitForCompletion(context.Background(), PaymentRequest{PaymentReference: "ref"})
	elapsed := time.Since(start)

	assert.True(t, result.Paid)
	assert.Equal(t, 2, issuer.calls)

	// The single sleep between the two calls is the backed-off interval.
	require.Len(t, errs, 1)
	assert.Equal(t, 30*time.Millisecond, errs[0].NextInterval)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestWaitForCompletionBackoffResetsAfterSuccess(t *testing.T) {
	base := 10 * time.Millisecond
	issuer := &scriptedIssuer{script: []func() (*PaymentState, error){
		failWith(ClassTransient, 503),
		failWith(ClassTransient, 503),
		pendingState("ref-1"),
		failWith(ClassTransient, 503),
		settledState(),
	}}

	var intervals []time.Duration
	p := NewPoller(issuer,
		WithBaseInterval(base),
		WithTimeout(5*time.Second),
		WithOnError(func(e PollError) { intervals = append(intervals, e.NextInterval) }),
	)

	result := p.WaitForCompletion(context.Background(), PaymentRequest{PaymentReference: "ref"})

	assert.True(t, result.Paid)
	require.Len(t, intervals, 3)
	assert.Equal(t, 15*time.Millisecond, intervals[0])
	assert.Equal(t, 23*time.Millisecond, intervals[1]) // ceil(22.5)
	// The pending round trip reset backoff to base before the third failure.
	assert.Equal(t, 15*time.Millisecond, intervals[2])
}

func TestWaitForCompletionTerminalStatusShortCircuit(t *testing.T) {
	for _, status := range []PaymentStatus{StatusExpired, StatusFailed} {
		issuer := &scriptedIssuer{script: []func() (*PaymentState, error){
			func() (*PaymentState, error) {
				return &PaymentState{ReferenceKey: "ref", Status: status}, nil
			},
		}}

		p := NewPoller(issuer, WithBaseInterval(time.Millisecond), WithTimeout(time.Second))
		result := p.WaitForCompletion(context.Background(), PaymentRequest{PaymentReference: "ref"})

		assert.False(t, result.Paid, "status %s", status)
		require.NotNil(t, result.Last)
		assert.Equal(t, status, result.Last.Status)
		// Ends on the same cycle without an extra poll.
		assert.Equal(t, 1, issuer.calls, "status %s", status)
	}
}

func TestWaitForCompletionSettlementByAbsentReferenceKey(t *testing.T) {
	// Any response without a reference key settles, whatever else it carries.
	issuer := &scriptedIssuer{script: []func() (*PaymentState, error){
		func() (*PaymentState, error) {
			return &PaymentState{Status: StatusConfirmed, PaymentURL: "solana:abc"}, nil
		},
	}}

	p := NewPoller(issuer, WithBaseInterval(time.Millisecond), WithTimeout(time.Second))
	result := p.WaitForCompletion(context.Background(), PaymentRequest{PaymentReference: "ref"})

	assert.True(t, result.Paid)
	assert.Equal(t, 1, issuer.calls)
}

func TestWaitForCompletionNilStateSettles(t *testing.T) {
	// The issuer's "no state" sentinel counts as settlement too.
	issuer := &scriptedIssuer{script: []func() (*PaymentState, error){
		func() (*PaymentState, error) { return nil, nil },
	}}

	p := NewPoller(issuer, WithBaseInterval(time.Millisecond), WithTimeout(time.Second))
	result := p.WaitForCompletion(context.Background(), PaymentRequest{PaymentReference: "ref"})

	assert.True(t, result.Paid)
	assert.Nil(t, result.Last)
}

func TestWaitForCompletionPreCancelledContext(t *testing.T) {
	issuer := &scriptedIssuer{script: []func() (*PaymentState, error){settledState()}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPoller(issuer, WithBaseInterval(time.Millisecond), WithTimeout(time.Second))
	result := p.WaitForCompletion(ctx, PaymentRequest{PaymentReference: "ref"})

	assert.False(t, result.Paid)
	assert.Nil(t, result.Last)
	assert.Equal(t, 0, issuer.calls)
}

func TestWaitForCompletionCancelMidSleep(t *testing.T) {
	issuer := &scriptedIssuer{script: []func() (*PaymentState, error){pendingState("ref")}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	p := NewPoller(issuer, WithBaseInterval(time.Hour), WithTimeout(time.Hour))

	start := time.Now()
	result := p.WaitForCompletion(ctx, PaymentRequest{PaymentReference: "ref"})

	// The in-flight sleep is abandoned promptly rather than run to term.
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, result.Paid)
	require.NotNil(t, result.Last)
	assert.Equal(t, "ref", result.Last.ReferenceKey)
	assert.Equal(t, 1, issuer.calls)
}

func TestWaitForCompletionDeadlineBoundsPollCount(t *testing.T) {
	issuer := &scriptedIssuer{script: []func() (*PaymentState, error){pendingState("ref")}}

	base := 25 * time.Millisecond
	timeout := 200 * time.Millisecond

	p := NewPoller(issuer, WithBaseInterval(base), WithTimeout(timeout))
	result := p.WaitForCompletion(context.Background(), PaymentRequest{PaymentReference: "ref"})

	assert.False(t, result.Paid)
	require.NotNil(t, result.Last)
	assert.Equal(t, StatusPending, result.Last.Status)

	// Never polls out of the loop's budget: at most timeout/base (+1), and
	// the deadline is never overshot by more than one interval.
	assert.GreaterOrEqual(t, issuer.calls, 2)
	assert.LessOrEqual(t, issuer.calls, int(timeout/base)+1)
}

func TestWaitForCompletionUnclassifiedErrorIsTransient(t *testing.T) {
	issuer := &scriptedIssuer{script: []func() (*PaymentState, error){
		func() (*PaymentState, error) { return nil, assert.AnError },
		settledState(),
	}}

	var errs []PollError
	p := NewPoller(issuer,
		WithBaseInterval(time.Millisecond),
		WithTimeout(time.Second),
		WithOnError(func(e PollError) { errs = append(errs, e) }),
	)

	result := p.WaitForCompletion(context.Background(), PaymentRequest{PaymentReference: "ref"})

	assert.True(t, result.Paid)
	assert.Equal(t, 2, issuer.calls)
	require.Len(t, errs, 1)
	assert.Equal(t, ClassTransient, errs[0].Err.Class)
}

func TestNextIntervalMonotonicAndCapped(t *testing.T) {
	interval := 15 * time.Second
	expected := []time.Duration{
		22500 * time.Millisecond,
		33750 * time.Millisecond,
		50625 * time.Millisecond,
		60 * time.Second,
		60 * time.Second,
	}

	for i, want := range expected {
		interval = nextInterval(interval)
		assert.Equal(t, want, interval, "step %d", i)
	}

	// Sub-second intervals round up to the next millisecond.
	assert.Equal(t, 150*time.Millisecond, nextInterval(100*time.Millisecond))
	assert.Equal(t, 338*time.Millisecond, nextInterval(225*time.Millisecond))
}
