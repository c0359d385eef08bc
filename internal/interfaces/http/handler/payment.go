package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appfinance "github.com/unimerch/backend/internal/application/finance"
	"github.com/unimerch/backend/internal/domain/finance"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
	"github.com/unimerch/backend/internal/interfaces/http/dto"
)

// Stripe sends events well below this size
const maxWebhookPayload = 64 << 10

// CreatePaymentRequest records a payment for an order
type CreatePaymentRequest struct {
	OrderID       uuid.UUID `json:"order_id" binding:"required"`
	PaymentMethod string    `json:"payment_method" binding:"required,oneof=credit_card debit_card paypal bank_transfer cash_on_delivery"`
	TransactionID string    `json:"transaction_id" binding:"omitempty,max=255"`
}

// OrderPaymentRequest pays the order named in the path
type OrderPaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,oneof=credit_card debit_card paypal bank_transfer cash_on_delivery"`
	TransactionID string `json:"transaction_id" binding:"omitempty,max=255"`
}

// PaymentStatusRequest changes a payment status. Refunds have their own endpoint.
type PaymentStatusRequest struct {
	Status        string `json:"status" binding:"required,oneof=pending completed failed refunded"`
	TransactionID string `json:"transaction_id" binding:"omitempty,max=255"`
}

// RefundRequest refunds a completed payment
type RefundRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// PaymentListQuery filters the admin payment list
type PaymentListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending completed failed refunded"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
}

// PaymentHandler serves payment endpoints and the Stripe webhook
type PaymentHandler struct {
	BaseHandler
	paymentService *appfinance.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *appfinance.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Create godoc
// @Summary      Create a payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body CreatePaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=appfinance.PaymentDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreatePaymentRequest
	if !h.bind(c, &req) {
		return
	}

	payment, err := h.paymentService.Create(c.Request.Context(), tenantID(c), actor, appfinance.CreatePaymentInput{
		OrderID:       req.OrderID,
		PaymentMethod: trade.PaymentMethod(req.PaymentMethod),
		TransactionID: req.TransactionID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Payment created successfully", payment)
}

// ListMine godoc
// @Summary      List own payments
// @Tags         payments
// @Produce      json
// @Param        page  query int false "Page"
// @Param        limit query int false "Page size"
// @Success      200 {object} dto.Response{data=[]appfinance.PaymentDTO,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /payments/user [get]
func (h *PaymentHandler) ListMine(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.paymentService.ListMine(c.Request.Context(), tenantID(c), actor.UserID, q.Pagination())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// AdminList godoc
// @Summary      List all payments
// @Tags         admin
// @Produce      json
// @Param        status query string false "Status"
// @Param        page   query int    false "Page"
// @Param        limit  query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]appfinance.PaymentDTO,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/payments [get]
func (h *PaymentHandler) AdminList(c *gin.Context) {
	var q PaymentListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	input := appfinance.ListPaymentsInput{Pagination: shared.NewPagination(q.Page, q.Limit)}
	if q.Status != "" {
		status := finance.PaymentStatus(q.Status)
		input.Status = &status
	}

	page, err := h.paymentService.AdminList(c.Request.Context(), tenantID(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// Get godoc
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} dto.Response{data=appfinance.PaymentDTO}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/detail/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	payment, err := h.paymentService.Get(c.Request.Context(), tenantID(c), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", payment)
}

// ForOrder godoc
// @Summary      Payments of an order
// @Tags         payments
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=[]appfinance.PaymentDTO}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id} [get]
func (h *PaymentHandler) ForOrder(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	// gin wants one wildcard name per segment, so the order id arrives as :id
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	payments, err := h.paymentService.ForOrder(c.Request.Context(), tenantID(c), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", payments)
}

// UpdateStatus godoc
// @Summary      Change a payment status
// @Description  Completing a payment moves a pending order to processing. Use the refund endpoint for refunds.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id      path string true "Payment ID"
// @Param        request body PaymentStatusRequest true "Status"
// @Success      200 {object} dto.Response{data=appfinance.PaymentDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/status [put]
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req PaymentStatusRequest
	if !h.bind(c, &req) {
		return
	}

	payment, err := h.paymentService.UpdateStatus(c.Request.Context(), tenantID(c), actor, id, finance.PaymentStatus(req.Status), req.TransactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Payment status updated", payment)
}

// Refund godoc
// @Summary      Refund a payment
// @Description  Stripe payment intents are refunded through Stripe first. The order is cancelled.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id      path string        true  "Payment ID"
// @Param        request body RefundRequest false "Reason"
// @Success      200 {object} dto.Response{data=appfinance.PaymentDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req RefundRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}

	payment, err := h.paymentService.Refund(c.Request.Context(), tenantID(c), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Payment refunded successfully", payment)
}

// Stats godoc
// @Summary      Payment statistics
// @Tags         payments
// @Produce      json
// @Success      200 {object} dto.Response{data=appfinance.PaymentStats}
// @Security     BearerAuth
// @Router       /payments/stats [get]
func (h *PaymentHandler) Stats(c *gin.Context) {
	stats, err := h.paymentService.Stats(c.Request.Context(), tenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", stats)
}

// Revenue godoc
// @Summary      Payment revenue series
// @Tags         payments
// @Produce      json
// @Param        period query string false "Bucket size" Enums(hour, day, week, month, year)
// @Param        limit  query int    false "Number of buckets (1-365)"
// @Success      200 {object} dto.Response{data=appfinance.RevenueReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/revenue [get]
func (h *PaymentHandler) Revenue(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	revenue, err := h.paymentService.Revenue(c.Request.Context(), tenantID(c), c.Query("period"), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", revenue)
}

// StripeWebhook godoc
// @Summary      Stripe webhook
// @Description  Verifies the Stripe-Signature header and applies payment_intent.succeeded and payment_intent.payment_failed
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Stripe signature"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /webhooks/stripe [post]
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayload))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", gin.H{"received": true})
}
