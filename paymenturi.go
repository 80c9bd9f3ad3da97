package paykit

import (
	"fmt"
	"net/url"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// paymentURLScheme is the wallet deep-link scheme carried in
// PaymentState.PaymentURL.
const paymentURLScheme = "solana"

// PaymentURL is the parsed form of a wallet deep link: the destination
// address, amount, and correlation references embedded in a payment state's
// PaymentURL field. The SDK treats it as display data; it never signs or
// submits anything.
type PaymentURL struct {
	Recipient  solana.PublicKey
	Amount     decimal.Decimal
	References []solana.PublicKey
	Label      string
	Message    string
}

// ParsePaymentURL parses and validates a wallet deep link of the form
//
//	solana:<recipient>?amount=<decimal>&reference=<pubkey>&label=..&message=..
//
// Recipient and references are validated as base58-encoded public keys.
func ParsePaymentURL(raw string) (*PaymentURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid payment URL: %w", err)
	}
	if u.Scheme != paymentURLScheme {
		return nil, fmt.Errorf("invalid payment URL scheme: %q", u.Scheme)
	}
	if u.Opaque == "" {
		return nil, fmt.Errorf("payment URL has no recipient")
	}

	recipient, err := solana.PublicKeyFromBase58(u.Opaque)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	p := &PaymentURL{Recipient: recipient}

	q := u.Query()

	if amount := q.Get("amount"); amount != "" {
		p.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid payment amount %q: %w", amount, err)
		}
		if p.Amount.IsNegative() {
			return nil, fmt.Errorf("negative payment amount %q", amount)
		}
	}

	for _, ref := range q["reference"] {
		key, err := solana.PublicKeyFromBase58(ref)
		if err != nil {
			return nil, fmt.Errorf("invalid reference %q: %w", ref, err)
		}
		p.References = append(p.References, key)
	}

	p.Label = q.Get("label")
	p.Message = q.Get("message")

	return p, nil
}

// String renders the deep link back into its wire form.
func (p *PaymentURL) String() string {
	q := url.Values{}
	if !p.Amount.IsZero() {
		q.Set("amount", p.Amount.String())
	}
	for _, ref := range p.References {
		q.Add("reference", ref.String())
	}
	if p.Label != "" {
		q.Set("label", p.Label)
	}
	if p.Message != "" {
		q.Set("message", p.Message)
	}

	s := paymentURLScheme + ":" + p.Recipient.String()
	if encoded := q.Encode(); encoded != "" {
		s += "?" + encoded
	}
	return s
}
