package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"canvango_backend/internal/dto"
	"canvango_backend/internal/services"
)

// PaymentHandler exposes payment creation and status lookup.
type PaymentHandler struct {
	*BaseHandler
	payments *services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler: base,
		payments:    payments,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, authed gin.HandlerFunc) {
	payments := r.Group("/payments")
	payments.Use(authed)
	{
		payments.POST("/closed", h.CreateClosedPayment)
		payments.POST("/open", h.CreateOpenPayment)
		payments.GET("/:id", h.GetTransaction)
	}
}

// CreateClosedPayment godoc
// @Summary      Create a closed payment
// @Description  Records a pending internal transaction and creates the aggregator transaction against it.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  dto.CreateClosedPaymentRequest  true  "payment parameters"
// @Success      201  {object}  map[string]interface{}
// @Router       /api/v1/payments/closed [post]
func (h *PaymentHandler) CreateClosedPayment(c *gin.Context) {
	var req dto.CreateClosedPaymentRequest
	if !h.BindAndValidate(c, &req) {
		return
	}

	txn, err := h.payments.CreateClosedPayment(c.Request.Context(), h.CallerID(c), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction_id": txn.ID,
		"amount":         txn.Amount,
		"status":         txn.Status,
		"checkout_url":   txn.CheckoutURL,
		"reference":      txn.TripayReference,
	})
}

// CreateOpenPayment godoc
// @Summary      Register an open payment intent
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  dto.CreateOpenPaymentRequest  true  "payment channel"
// @Success      201  {object}  map[string]interface{}
// @Router       /api/v1/payments/open [post]
func (h *PaymentHandler) CreateOpenPayment(c *gin.Context) {
	var req dto.CreateOpenPaymentRequest
	if !h.BindAndValidate(c, &req) {
		return
	}

	op, err := h.payments.CreateOpenPayment(c.Request.Context(), h.CallerID(c), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"open_payment_id": op.ID,
		"merchant_ref":    op.MerchantRef,
		"payment_method":  op.PaymentMethod,
		"pay_url":         op.TripayURL,
	})
}

// GetTransaction godoc
// @Summary      Transaction status
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "transaction id"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/payments/{id} [get]
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	txn, err := h.payments.GetTransaction(c.Request.Context(), c.Param("id"), h.CallerID(c), h.CallerRole(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction_id": txn.ID,
		"amount":         txn.Amount,
		"status":         txn.Status,
		"payment_method": txn.PaymentMethod,
		"reference":      txn.TripayReference,
		"completed_at":   txn.CompletedAt,
	})
}
