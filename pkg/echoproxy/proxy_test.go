package echoproxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paykit "github.com/paykitio/paykit-go"
)

func newProxy(t *testing.T, upstream http.HandlerFunc) *echo.Echo {
	t.Helper()

	api := httptest.NewServer(upstream)
	t.Cleanup(api.Close)

	e := echo.New()
	Register(e.Group("/api"), paykit.NewClient(api.URL, "test-key"))
	return e
}

func TestProxyForwardsStatus(t *testing.T) {
	e := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/widget/payment-status/pay_abc", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"paid": true, "status": "paid"}`))
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/payment-status/pay_abc", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var status paykit.WidgetStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Paid)
	assert.Equal(t, "paid", status.Status)
}

func TestProxyIsCORSOpen(t *testing.T) {
	e := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"paid": false, "status": "pending"}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/payment-status/pay_abc", nil)
	req.Header.Set("Origin", "https://store.example")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProxyMapsUpstreamFailureTo502(t *testing.T) {
	e := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/payment-status/pay_abc", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
