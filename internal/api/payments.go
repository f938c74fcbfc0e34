package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/perceptlab/study-engine/internal/quality"
	"github.com/perceptlab/study-engine/pkg/models"
)

// defaultOrderAmount is the study fee in minor-currency units when the client
// does not specify one.
const defaultOrderAmount = 100

// handleCreatePaymentOrder opens a simulated gateway order. No real gateway
// is contacted; the order row is the handshake the client echoes back on
// verify.
func (h *APIHandler) handleCreatePaymentOrder(c *gin.Context) {
	var req struct {
		ParticipantID string `json:"participant_id"`
		Amount        int    `json:"amount"`
		Currency      string `json:"currency"`
	}
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	participantID := strings.TrimSpace(req.ParticipantID)
	if err := quality.ValidateBusinessID(participantID); err != nil {
		h.writeError(c, newError(errValidation, "%v", err))
		return
	}
	if req.Amount < 0 {
		h.writeError(c, newError(errValidation, "amount must be positive"))
		return
	}
	amount := req.Amount
	if amount == 0 {
		amount = defaultOrderAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "INR"
	}
	if len(currency) > 10 {
		h.writeError(c, newError(errValidation, "currency must be at most 10 characters"))
		return
	}

	payment, err := h.store.CreatePaymentOrder(c.Request.Context(), participantID, amount, currency)
	if err != nil {
		h.writeError(c, fromStorage(err, "Participant not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"order_id": payment.OrderID,
		"amount":   payment.Amount,
		"currency": payment.Currency,
	})
}

// handleVerifyPayment acknowledges a gateway callback. The signature is
// stored verbatim; no cryptographic verification happens here. Re-verifying
// with the same payment id is idempotent, a different payment id for an
// already-paid order is a conflict.
func (h *APIHandler) handleVerifyPayment(c *gin.Context) {
	var req struct {
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
		Signature string `json:"signature"`
	}
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	orderID := strings.TrimSpace(req.OrderID)
	paymentID := strings.TrimSpace(req.PaymentID)
	if orderID == "" {
		h.writeError(c, newError(errValidation, "order_id is required"))
		return
	}
	if paymentID == "" {
		h.writeError(c, newError(errValidation, "payment_id is required"))
		return
	}

	err := h.store.ConfirmPayment(c.Request.Context(), orderID, paymentID, strings.TrimSpace(req.Signature))
	if err != nil {
		h.writeError(c, fromStorage(err, "Payment order not found"))
		return
	}

	ev := &models.AuditEvent{
		EventType:  "payment_confirmed",
		Endpoint:   "/api/payment/verify",
		Method:     http.MethodPost,
		StatusCode: http.StatusOK,
		IPHash:     h.clientHash(c),
		UserAgent:  clientUA(c),
		Details:    "order " + orderID,
	}
	h.trail.Event(ev)

	c.JSON(http.StatusOK, gin.H{"status": "success", "payment_status": "paid"})
}
