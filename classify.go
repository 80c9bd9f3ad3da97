package paykit

import (
	"encoding/json"
	"net/http"
)

// OutcomeKind tags the normalized result of one request/response cycle.
type OutcomeKind int

const (
	// OutcomePending means the server is still awaiting settlement; the
	// state carries a reference key to poll with.
	OutcomePending OutcomeKind = iota
	// OutcomeSettled means the server stopped asking for payment: the
	// response body carried no reference key (or no interpretable state).
	OutcomeSettled
	// OutcomeFatal means the request failed and retrying cannot help.
	OutcomeFatal
	// OutcomeTransient means the request failed but retrying may succeed.
	OutcomeTransient
)

// Outcome is the tagged result of classifying one response. State is set for
// Pending and Settled (nil when the body was uninterpretable), Err for Fatal
// and Transient.
type Outcome struct {
	Kind  OutcomeKind
	State *PaymentState
	Err   *RequestError
}

// classifyResponse normalizes a response from the request-payment endpoint
// into a single consistent shape.
//
// HTTP 402 Payment Required is the server's normal "payment has been
// requested and is awaiting settlement" signal, not an error: it carries the
// same envelope a 200 does and is classified through the identical success
// path. All other non-2xx statuses become Fatal or Transient errors per
// classifyStatus.
func classifyResponse(status int, body []byte) Outcome {
	success := (status >= 200 && status < 300) || status == http.StatusPaymentRequired

	if !success {
		class := classifyStatus(status)
		err := &RequestError{
			Class:      class,
			StatusCode: status,
			Message:    snippet(body),
		}
		if class == ClassFatal {
			return Outcome{Kind: OutcomeFatal, Err: err}
		}
		return Outcome{Kind: OutcomeTransient, Err: err}
	}

	var env stateEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Data == nil {
		// Uninterpretable success body: the "no state" sentinel. With no
		// reference key in sight the server is no longer asking for payment.
		return Outcome{Kind: OutcomeSettled}
	}

	if env.Data.Settled() {
		return Outcome{Kind: OutcomeSettled, State: env.Data}
	}
	return Outcome{Kind: OutcomePending, State: env.Data}
}

// snippet truncates a response body for inclusion in error messages.
func snippet(body []byte) string {
	const max = 256
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
