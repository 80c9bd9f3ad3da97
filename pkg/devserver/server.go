// Package devserver is an in-memory mock of the PayKit payment API for local
// development and integration testing.
//
// It implements the two-phase request protocol of the real API: the first
// request creates a payment and answers HTTP 402 with a reference key;
// subsequent requests carrying the key keep answering 402 until the payment
// settles, after which the response is a 200 whose body omits the reference
// key. Settlement is driven either by the WithSettleAfter option (settle
// after N polls) or explicitly through the admin endpoints.
package devserver

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	paykit "github.com/paykitio/paykit-go"
)

// defaultRecipient is the destination address embedded in generated payment
// URLs. It is a well-known mint address, fine for display-only dev flows.
const defaultRecipient = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

const defaultExpiry = 10 * time.Minute

// payment is the server's record of one logical payment.
type payment struct {
	referenceKey string
	paymentURL   string
	qrCode       string
	totalAmount  decimal.Decimal
	expiresAt    time.Time
	status       paykit.PaymentStatus
	polls        int
}

// Server is the mock API. Zero or more options configure its behavior; all
// state is process-local and lost on shutdown.
type Server struct {
	mu       sync.Mutex
	payments map[string]*payment

	settleAfter int
	recipient   string
	engine      *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithSettleAfter settles every payment automatically once it has been
// polled n times. Zero (the default) means payments settle only through the
// admin endpoints.
func WithSettleAfter(n int) Option {
	return func(s *Server) {
		s.settleAfter = n
	}
}

// WithRecipient sets the destination address embedded in payment URLs.
func WithRecipient(address string) Option {
	return func(s *Server) {
		s.recipient = address
	}
}

// New creates a mock payment API server.
func New(opts ...Option) *Server {
	s := &Server{
		payments:  make(map[string]*payment),
		recipient: defaultRecipient,
	}

	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.POST("/payment/request-payment", s.handleRequestPayment)
	engine.GET("/widget/payment-status/:referenceKey", s.handleWidgetStatus)

	admin := engine.Group("/admin/payments")
	admin.POST("/:referenceKey/settle", s.handleTransition(paykit.StatusPaid))
	admin.POST("/:referenceKey/fail", s.handleTransition(paykit.StatusFailed))
	admin.POST("/:referenceKey/expire", s.handleTransition(paykit.StatusExpired))

	s.engine = engine
	return s
}

// Handler exposes the server as an http.Handler for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) handleRequestPayment(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if err := validateRequestBody(body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req paykit.PaymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}

	if req.PaymentReference == "" && len(req.Assets) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a reference key or at least one asset is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var p *payment
	if req.PaymentReference != "" {
		p = s.payments[req.PaymentReference]
		if p == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment reference"})
			return
		}
	} else {
		p = s.createPayment(req)
	}

	p.polls++
	if p.status == paykit.StatusPending {
		if time.Now().After(p.expiresAt) {
			p.status = paykit.StatusExpired
		} else if s.settleAfter > 0 && p.polls >= s.settleAfter {
			p.status = paykit.StatusPaid
		}
	}

	if p.status == paykit.StatusPaid {
		// Settled: the body omits the reference key.
		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"totalAmount": p.totalAmount,
			"status":      paykit.StatusPaid,
		}})
		return
	}

	c.JSON(http.StatusPaymentRequired, gin.H{"data": gin.H{
		"referenceKey": p.referenceKey,
		"paymentUrl":   p.paymentURL,
		"qrCode":       p.qrCode,
		"totalAmount":  p.totalAmount,
		"expiresAt":    p.expiresAt,
		"status":       p.status,
	}})
}

// createPayment mints a payment record. Caller holds s.mu.
func (s *Server) createPayment(req paykit.PaymentRequest) *payment {
	total := decimal.Zero
	for _, asset := range req.Assets {
		total = total.Add(asset.Price.Mul(decimal.NewFromInt(int64(asset.Quantity))))
	}

	ref := "pay_" + uuid.NewString()

	query := url.Values{}
	query.Set("amount", total.String())
	query.Set("reference", ref)
	if req.PaymentLabel != "" {
		query.Set("label", req.PaymentLabel)
	}
	paymentURL := "solana:" + s.recipient + "?" + query.Encode()

	p := &payment{
		referenceKey: ref,
		paymentURL:   paymentURL,
		totalAmount:  total,
		expiresAt:    time.Now().Add(defaultExpiry),
		status:       paykit.StatusPending,
	}
	if req.GenerateQRCode {
		p.qrCode = base64.StdEncoding.EncodeToString([]byte(paymentURL))
	}

	s.payments[ref] = p
	return p
}

func (s *Server) handleWidgetStatus(c *gin.Context) {
	// The widget endpoint is public and CORS-open.
	c.Header("Access-Control-Allow-Origin", "*")

	s.mu.Lock()
	p := s.payments[c.Param("referenceKey")]
	s.mu.Unlock()

	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment reference"})
		return
	}

	c.JSON(http.StatusOK, paykit.WidgetStatus{
		Paid:   p.status == paykit.StatusPaid,
		Status: string(p.status),
	})
}

// handleTransition builds an admin handler that forces a payment into a
// terminal status.
func (s *Server) handleTransition(status paykit.PaymentStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		p := s.payments[c.Param("referenceKey")]
		if p == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment reference"})
			return
		}

		p.status = status
		c.JSON(http.StatusOK, gin.H{"referenceKey": p.referenceKey, "status": p.status})
	}
}
