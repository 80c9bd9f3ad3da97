package echoproxy

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	paykit "github.com/paykitio/paykit-go"
)

// Register mounts the payment-status proxy on g. The route answers
// GET /payment-status/:referenceKey and is CORS-open, since it is meant to
// be polled from browser widgets on arbitrary storefront pages.
func Register(g *echo.Group, client *paykit.Client) {
	g.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
	}))
	g.GET("/payment-status/:referenceKey", Handler(client))
}

// Handler returns the proxy handler on its own, for callers that manage
// middleware themselves.
func Handler(client *paykit.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		ref := c.Param("referenceKey")
		if ref == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "referenceKey is required")
		}

		status, err := client.PaymentStatus(c.Request().Context(), ref)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, "payment status lookup failed")
		}

		return c.JSON(http.StatusOK, status)
	}
}
