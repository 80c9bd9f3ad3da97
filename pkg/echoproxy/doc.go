// Package echoproxy mounts a payment-status passthrough on an Echo router.
//
// Browser widgets cannot call the payment API directly when it lives on a
// different origin, so storefront backends expose a small same-origin proxy
// for the public status endpoint. This package provides that proxy as an
// Echo handler plus a permissive CORS middleware scoped to it.
//
// # Usage
//
//	e := echo.New()
//	client := paykit.NewClient(apiURL, apiKey)
//	echoproxy.Register(e.Group("/api"), client)
//
// The widget then polls GET /api/payment-status/:referenceKey.
package echoproxy
