package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/wifipass/internal/services"
	"github.com/charlesng35/wifipass/pkg/response"
)

// PaymentHandler runs plan purchases through the simulated mobile money gateway.
type PaymentHandler struct {
	payments *services.PaymentService
	sessions *services.SessionManager
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(payments *services.PaymentService, sessions *services.SessionManager) *PaymentHandler {
	return &PaymentHandler{payments: payments, sessions: sessions}
}

type receiptDTO struct {
	Payment any                  `json:"payment"`
	Session services.SessionView `json:"session"`
}

// Purchase charges the customer and returns the access code on success.
func (h *PaymentHandler) Purchase(c *gin.Context) {
	var req services.PurchaseInput
	if !bindAndValidate(c, &req) {
		return
	}

	receipt, err := h.payments.Purchase(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, receiptDTO{
		Payment: receipt.Payment,
		Session: services.NewSessionView(receipt.Session, h.sessions.Now()),
	})
}

// Methods lists the accepted mobile money operators.
func (h *PaymentHandler) Methods(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"methods": h.payments.Methods()})
}
