package paykit

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a payment request carries neither a
// reference key nor a non-empty asset list. The request fails before any
// network call is made.
var ErrInvalidArgument = errors.New("payment request needs a reference key or at least one asset")

// ErrorClass partitions request failures by retry policy.
type ErrorClass string

const (
	// ClassInvalidArgument means the caller's input was rejected locally.
	ClassInvalidArgument ErrorClass = "invalid_argument"
	// ClassFatal means retrying cannot help (bad request, auth, not found).
	ClassFatal ErrorClass = "fatal"
	// ClassTransient means retrying may succeed (rate limit, server error,
	// network blip). Unclassifiable failures land here: an unknown failure
	// is more likely a blip than a permanent block.
	ClassTransient ErrorClass = "transient"
)

// RequestError describes a failed request/response cycle against the payment
// API. StatusCode is zero for failures below the HTTP layer.
type RequestError struct {
	Class      ErrorClass
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("payment request failed (%s): %v", e.Class, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("payment request failed (%s): status %d: %s", e.Class, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("payment request failed (%s): %s", e.Class, e.Message)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error should abort a poll loop rather than be
// retried with backoff.
func (e *RequestError) Fatal() bool {
	return e.Class == ClassFatal || e.Class == ClassInvalidArgument
}

// fatalStatuses are the HTTP statuses for which a retry cannot change the
// outcome. Everything else non-2xx (429, 5xx, unknown) is transient.
var fatalStatuses = map[int]struct{}{
	400: {},
	401: {},
	403: {},
	404: {},
	422: {},
}

// classifyStatus maps a non-success HTTP status to its retry class.
func classifyStatus(status int) ErrorClass {
	if _, ok := fatalStatuses[status]; ok {
		return ClassFatal
	}
	return ClassTransient
}
