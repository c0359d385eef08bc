package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unimerch/backend/internal/application/finance"
	apptrade "github.com/unimerch/backend/internal/application/trade"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
	"github.com/unimerch/backend/internal/interfaces/http/dto"
)

// Idempotency headers of order placement
const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
	maxIdempotencyKeyLength  = 255
)

// OrderLineRequest is one requested product
type OrderLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=1000"`
}

// CreateOrderRequest places an order from explicit lines or from the cart
type CreateOrderRequest struct {
	Items           []OrderLineRequest `json:"items" binding:"omitempty,max=100,dive"`
	FromCart        bool               `json:"from_cart"`
	ShippingAddress string             `json:"shipping_address" binding:"required,min=10,max=500"`
	PaymentMethod   string             `json:"payment_method" binding:"required,oneof=credit_card debit_card paypal bank_transfer cash_on_delivery"`
	Notes           string             `json:"notes" binding:"omitempty,max=500"`
}

// OrderStatusRequest moves an order along its lifecycle
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
}

// OrderListQuery filters order listings
type OrderListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending processing shipped delivered cancelled"`
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
}

func (q OrderListQuery) input() apptrade.ListOrdersInput {
	input := apptrade.ListOrdersInput{Pagination: shared.NewPagination(q.Page, q.Limit)}
	if q.Status != "" {
		status := trade.OrderStatus(q.Status)
		input.Status = &status
	}
	if q.UserID != "" {
		id := uuid.MustParse(q.UserID)
		input.UserID = &id
	}
	return input
}

// OrderHandler serves order endpoints
type OrderHandler struct {
	BaseHandler
	orderService   *apptrade.OrderService
	paymentService *finance.PaymentService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *apptrade.OrderService, paymentService *finance.PaymentService) *OrderHandler {
	return &OrderHandler{orderService: orderService, paymentService: paymentService}
}

// Create godoc
// @Summary      Place an order
// @Description  Lines come from the body, or from the cart when from_cart is set or no items are given.
// @Description  Stock is reserved in the same transaction. Repeating a request with the same Idempotency-Key
// @Description  within 24h returns the original order with the Idempotent-Replayed header.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client generated key"
// @Param        request body CreateOrderRequest true "Order"
// @Success      201 {object} dto.Response{data=apptrade.OrderDTO}
// @Success      200 {object} dto.Response{data=apptrade.OrderDTO} "Replayed"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.BadRequest(c, IdempotencyKeyHeader+" is too long")
		return
	}
	var req CreateOrderRequest
	if !h.bind(c, &req) {
		return
	}

	lines := make([]apptrade.OrderLineInput, len(req.Items))
	for i, item := range req.Items {
		lines[i] = apptrade.OrderLineInput{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	order, replayed, err := h.orderService.Create(c.Request.Context(), tenantID(c), actor.UserID, apptrade.CreateOrderInput{
		Items:           lines,
		FromCart:        req.FromCart,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   trade.PaymentMethod(req.PaymentMethod),
		Notes:           req.Notes,
		IdempotencyKey:  key,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if replayed {
		c.Header(IdempotentReplayedHeader, "true")
		h.Success(c, "Order already placed", order)
		return
	}
	h.Created(c, "Order created successfully", order)
}

// List godoc
// @Summary      List own orders
// @Tags         orders
// @Produce      json
// @Param        status query string false "Status"
// @Param        page   query int    false "Page"
// @Param        limit  query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]apptrade.OrderDTO,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q OrderListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.orderService.List(c.Request.Context(), tenantID(c), actor.UserID, q.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// AdminList godoc
// @Summary      List all orders
// @Tags         admin
// @Produce      json
// @Param        status  query string false "Status"
// @Param        user_id query string false "Customer ID"
// @Param        page    query int    false "Page"
// @Param        limit   query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]apptrade.OrderDTO,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/orders [get]
func (h *OrderHandler) AdminList(c *gin.Context) {
	var q OrderListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.orderService.AdminList(c.Request.Context(), tenantID(c), q.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// ByStatus godoc
// @Summary      List orders in a status
// @Tags         orders
// @Produce      json
// @Param        status path  string true  "Status"
// @Param        page   query int    false "Page"
// @Param        limit  query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]apptrade.OrderDTO,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /orders/status/{status} [get]
func (h *OrderHandler) ByStatus(c *gin.Context) {
	status := trade.OrderStatus(c.Param("status"))
	if !status.IsValid() {
		h.BadRequest(c, "Invalid order status")
		return
	}
	var q dto.ListRequest
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.orderService.AdminList(c.Request.Context(), tenantID(c), apptrade.ListOrdersInput{
		Status:     &status,
		Pagination: q.Pagination(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// BySeller godoc
// @Summary      Orders containing a seller's products
// @Tags         orders
// @Produce      json
// @Param        sellerId path  string true  "Seller ID"
// @Param        status   query string false "Status"
// @Success      200 {object} dto.Response{data=[]apptrade.OrderDTO,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/seller/{sellerId} [get]
func (h *OrderHandler) BySeller(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	sellerID, ok := h.pathUUID(c, "sellerId")
	if !ok {
		return
	}
	var q OrderListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.orderService.ListBySeller(c.Request.Context(), tenantID(c), actor, sellerID, q.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// Stats godoc
// @Summary      Order counts
// @Description  The caller's orders per status and total spent. Admins see every order.
// @Tags         orders
// @Produce      json
// @Success      200 {object} dto.Response{data=apptrade.OrderStats}
// @Security     BearerAuth
// @Router       /orders/stats [get]
func (h *OrderHandler) Stats(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	stats, err := h.orderService.Stats(c.Request.Context(), tenantID(c), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", stats)
}

// Get godoc
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=apptrade.OrderDTO}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.Get(c.Request.Context(), tenantID(c), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", order)
}

// Items godoc
// @Summary      List order lines
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=[]apptrade.OrderItemDTO}
// @Security     BearerAuth
// @Router       /orders/{id}/items [get]
func (h *OrderHandler) Items(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	items, err := h.orderService.Items(c.Request.Context(), tenantID(c), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", items)
}

// UpdateStatus godoc
// @Summary      Change an order status
// @Description  pending to processing or cancelled, processing to shipped or cancelled, shipped to delivered.
// @Description  Cancelling restores stock.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string true "Order ID"
// @Param        request body OrderStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=apptrade.OrderDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req OrderStatusRequest
	if !h.bind(c, &req) {
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), tenantID(c), actor, id, trade.OrderStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Order status updated", order)
}

// Cancel godoc
// @Summary      Cancel an order
// @Description  Only pending or processing orders. Stock is restored.
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=apptrade.OrderDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id} [delete]
func (h *OrderHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.Cancel(c.Request.Context(), tenantID(c), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Order cancelled successfully", order)
}

// Pay godoc
// @Summary      Pay for an order
// @Description  Creates a pending payment for the order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string true "Order ID"
// @Param        request body OrderPaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=finance.PaymentDTO}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/payment [post]
func (h *OrderHandler) Pay(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req OrderPaymentRequest
	if !h.bind(c, &req) {
		return
	}

	payment, err := h.paymentService.Create(c.Request.Context(), tenantID(c), actor, finance.CreatePaymentInput{
		OrderID:       id,
		PaymentMethod: trade.PaymentMethod(req.PaymentMethod),
		TransactionID: req.TransactionID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Payment created successfully", payment)
}
