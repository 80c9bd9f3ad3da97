package paykit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingEnvelope(ref string) string {
	return `{"data":{"referenceKey":"` + ref + `","paymentUrl":"solana:4Nd1mYvJ6d7VtqQhYdiQSdBwU9YE13z9rbX2VRJnLm1A","totalAmount":"12.50","status":"pending"}}`
}

func TestRequestPaymentInvalidArgument(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")

	state, err := client.RequestPayment(context.Background(), PaymentRequest{})
	require.Error(t, err)
	assert.Nil(t, state)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, ClassInvalidArgument, reqErr.Class)
	assert.True(t, reqErr.Fatal())

	// Fails fast: no network call was made.
	assert.Equal(t, int64(0), calls.Load())
}

func TestRequestPaymentShapesTheWireRequest(t *testing.T) {
	var got struct {
		method string
		path   string
		auth   string
		body   map[string]any
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got.body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(pendingEnvelope("ref-1")))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")

	price, _ := decimal.NewFromString("9.99")
	state, err := client.RequestPayment(context.Background(), PaymentRequest{
		Assets:         []Asset{{Name: "Pro plan", Price: price, Quantity: 2, Description: "monthly"}},
		PaymentLabel:   "ACME",
		GenerateQRCode: true,
	})
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/payment/request-payment", got.path)
	assert.Equal(t, "Bearer sk_test", got.auth)
	assert.Equal(t, "ACME", got.body["paymentLabel"])
	assert.Equal(t, true, got.body["generateQrCode"])
	// Create phase: no reference key on the wire.
	_, hasRef := got.body["paymentReference"]
	assert.False(t, hasRef)
}

func TestRequestPayment402NormalizedToSuccess(t *testing.T) {
	body := pendingEnvelope("ref-402")

	for _, status := range []int{http.StatusOK, http.StatusPaymentRequired} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))

		client := NewClient(srv.URL, "sk_test")
		state, err := client.RequestPayment(context.Background(), PaymentRequest{PaymentReference: "ref-402"})
		srv.Close()

		require.NoError(t, err, "status %d", status)
		require.NotNil(t, state, "status %d", status)
		assert.Equal(t, "ref-402", state.ReferenceKey)
		assert.Equal(t, StatusPending, state.Status)
	}
}

func TestRequestPaymentFatalAndTransientStatuses(t *testing.T) {
	tests := []struct {
		status int
		class  ErrorClass
	}{
		{http.StatusBadRequest, ClassFatal},
		{http.StatusUnauthorized, ClassFatal},
		{http.StatusForbidden, ClassFatal},
		{http.StatusNotFound, ClassFatal},
		{http.StatusUnprocessableEntity, ClassFatal},
		{http.StatusTooManyRequests, ClassTransient},
		{http.StatusInternalServerError, ClassTransient},
		{http.StatusBadGateway, ClassTransient},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", tt.status)
		}))

		client := NewClient(srv.URL, "sk_test")
		state, err := client.RequestPayment(context.Background(), PaymentRequest{PaymentReference: "ref"})
		srv.Close()

		require.Error(t, err, "status %d", tt.status)
		assert.Nil(t, state)

		var reqErr *RequestError
		require.True(t, errors.As(err, &reqErr), "status %d", tt.status)
		assert.Equal(t, tt.class, reqErr.Class, "status %d", tt.status)
		assert.Equal(t, tt.status, reqErr.StatusCode)
	}
}

func TestRequestPaymentUninterpretableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>gateway page</html>"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")
	state, err := client.RequestPayment(context.Background(), PaymentRequest{PaymentReference: "ref"})
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestRequestPaymentNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewClient(srv.URL, "sk_test")
	_, err := client.RequestPayment(context.Background(), PaymentRequest{PaymentReference: "ref"})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, ClassTransient, reqErr.Class)
	assert.Zero(t, reqErr.StatusCode)
}

func TestRequestPaymentCircuitBreaker(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", WithCircuitBreaker(gobreaker.Settings{
		Name:    "payments",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	}))

	// First two calls reach the server and classify as transient 500s.
	for i := 0; i < 2; i++ {
		_, err := client.RequestPayment(context.Background(), PaymentRequest{PaymentReference: "ref"})
		var reqErr *RequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, ClassTransient, reqErr.Class)
		assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	}
	require.Equal(t, int64(2), calls.Load())

	// Breaker is open: the next call fails transiently without network I/O.
	_, err := client.RequestPayment(context.Background(), PaymentRequest{PaymentReference: "ref"})
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, ClassTransient, reqErr.Class)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int64(2), calls.Load())
}
