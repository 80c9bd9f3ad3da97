// Package paykit is the Go client SDK for the PayKit payment API.
//
// # Overview
//
// PayKit payments are asynchronous: a merchant requests a payment, hands the
// buyer a wallet deep link (optionally rendered as a QR code), and waits for
// on-chain settlement. Settlement can legitimately take anywhere from seconds
// to minutes, so the SDK's central primitive is a bounded, cancellable
// completion poller built on a two-phase request protocol:
//
//  1. The first request describes the assets to purchase and creates the
//     payment. The API answers with HTTP 402 Payment Required carrying a
//     reference key and the payment URL.
//  2. Subsequent requests carry the reference key and check/advance the
//     payment. The API keeps answering 402 while settlement is pending and
//     answers 200 without a reference key once the payment has settled.
//
// HTTP 402 is the normal "awaiting settlement" signal, not an error. The SDK
// normalizes it onto the success path so callers never special-case it.
//
// # Usage
//
// Create a client with your API credential, then wait for completion:
//
//	client := paykit.NewClient("https://api.paykit.dev", apiKey)
//
//	result := client.WaitForCompletion(ctx, paykit.PaymentRequest{
//	    Assets:         []paykit.Asset{{Name: "Pro plan", Price: price, Quantity: 1}},
//	    PaymentLabel:   "ACME Pro",
//	    GenerateQRCode: true,
//	}, paykit.WithOnUpdate(func(u paykit.PollUpdate) {
//	    fmt.Println("status:", u.State.Status)
//	}))
//
//	if result.Paid {
//	    fmt.Println("settled")
//	}
//
// WaitForCompletion never returns an error: all outcomes, including abort and
// timeout, come back as a structured PollResult, and failures are reported
// through the optional OnError hook. Transient failures (429, 5xx, network
// blips) are retried with capped exponential backoff; fatal failures (400,
// 401, 403, 404, 422) abort immediately.
//
// # Widget status checks
//
// Browser checkout widgets poll a purpose-built public read endpoint instead
// of the authenticated request endpoint. PaymentStatus and WatchPaymentStatus
// cover that path: fixed-interval polling with no backoff, stopping once the
// payment is paid or has failed.
package paykit
