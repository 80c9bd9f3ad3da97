package paykit

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle status reported by the payment API.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusPaid      PaymentStatus = "paid"
	StatusConfirmed PaymentStatus = "confirmed"
	StatusExpired   PaymentStatus = "expired"
	StatusFailed    PaymentStatus = "failed"
)

// Terminal reports whether the status is a terminal failure. Once a poll
// observes a terminal status the outcome is immutable and no further polls
// are issued for that reference key.
func (s PaymentStatus) Terminal() bool {
	return s == StatusExpired || s == StatusFailed
}

// Asset is one line item of a payment request. It is either a reference to an
// existing catalogue item (ID + Quantity) or a freeform item priced inline
// (Name, Price, Quantity, Description).
type Asset struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Price       decimal.Decimal `json:"price,omitempty"`
	Quantity    int             `json:"quantity"`
	Description string          `json:"description,omitempty"`
}

// PaymentRequest is the outbound body of POST /payment/request-payment.
//
// The presence of PaymentReference distinguishes the two phases of the
/// protocol: an empty reference creates a new payment, a populated reference
// checks/advances an existing one.
type PaymentRequest struct {
	Assets           []Asset `json:"assets"`
	PaymentReference string  `json:"paymentReference,omitempty"`
	PaymentLabel     string  `json:"paymentLabel,omitempty"`
	GenerateQRCode   bool    `json:"generateQrCode,omitempty"`

	// IdempotencyKey, when set, is attached as an Idempotency-Key header so
	// the server can deduplicate retried create requests. It is not part of
	// the JSON body. See the extensions/idempotency package.
	IdempotencyKey string `json:"-"`
}

// PaymentState is one observed snapshot of a payment, produced fresh on each
// poll response. Absence of ReferenceKey is the settlement signal: the server
// stopped asking for payment.
type PaymentState struct {
	ReferenceKey string          `json:"referenceKey,omitempty"`
	PaymentURL   string          `json:"paymentUrl,omitempty"`
	QRCode       string          `json:"qrCode,omitempty"`
	TotalAmount  decimal.Decimal `json:"totalAmount,omitempty"`
	ExpiresAt    time.Time       `json:"expiresAt,omitzero"`
	Status       PaymentStatus   `json:"status,omitempty"`
}

// Settled reports whether the state signals settlement. A state with a
// populated reference key is never considered settled.
func (s *PaymentState) Settled() bool {
	return s == nil || s.ReferenceKey == ""
}

// stateEnvelope is the wire envelope carried by both 200 and 402 responses.
type stateEnvelope struct {
	Data *PaymentState `json:"data"`
}

// PollResult is the final outcome of a completion poll. Last is the last
// known payment state, which may be nil if no poll ever produced one.
type PollResult struct {
	Paid bool
	Last *PaymentState
}

// WidgetStatus is the body of the public widget read endpoint
// GET /widget/payment-status/{referenceKey}.
type WidgetStatus struct {
	Paid   bool   `json:"paid"`
	Status string `json:"status,omitempty"`
}

// Done reports whether widget polling should stop: the payment is either
// settled or has terminally failed. A pending status keeps the watcher
// polling, matching the completion poller's semantics.
func (w WidgetStatus) Done() bool {
	return w.Paid || w.Status == string(StatusFailed)
}
