package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unimerch/backend/internal/application/trade"
)

// AddToCartRequest adds units of a product to the cart
type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=1000"`
}

// UpdateCartItemRequest sets the quantity of a cart line
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=1000"`
}

// CartHandler serves the shopping cart
type CartHandler struct {
	BaseHandler
	cartService *trade.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *trade.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// Get godoc
// @Summary      Get the cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=trade.CartView}
// @Security     BearerAuth
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	cart, err := h.cartService.Get(c.Request.Context(), tenantID(c), actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", cart)
}

// Add godoc
// @Summary      Add to cart
// @Description  Adding a product already in the cart increases its quantity
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body AddToCartRequest true "Product and quantity"
// @Success      200 {object} dto.Response{data=trade.CartLineDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/add [post]
func (h *CartHandler) Add(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req AddToCartRequest
	if !h.bind(c, &req) {
		return
	}

	line, err := h.cartService.Add(c.Request.Context(), tenantID(c), actor.UserID, req.ProductID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Item added to cart", line)
}

// Update godoc
// @Summary      Change a cart line quantity
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        id      path string true "Cart item ID"
// @Param        request body UpdateCartItemRequest true "Quantity"
// @Success      200 {object} dto.Response{data=trade.CartLineDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/update/{id} [put]
func (h *CartHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if !h.bind(c, &req) {
		return
	}

	line, err := h.cartService.UpdateQuantity(c.Request.Context(), tenantID(c), actor.UserID, id, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Cart updated", line)
}

// Remove godoc
// @Summary      Remove a cart line
// @Tags         cart
// @Produce      json
// @Param        id path string true "Cart item ID"
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /cart/remove/{id} [delete]
func (h *CartHandler) Remove(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.cartService.Remove(c.Request.Context(), tenantID(c), actor.UserID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Item removed from cart", nil)
}

// Clear godoc
// @Summary      Empty the cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /cart/clear [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	if err := h.cartService.Clear(c.Request.Context(), tenantID(c), actor.UserID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Cart cleared", nil)
}

// Validate godoc
// @Summary      Validate the cart
// @Description  Splits the cart into lines that can be ordered and lines that cannot, with a reason
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=trade.CartValidation}
// @Security     BearerAuth
// @Router       /cart/validate [get]
func (h *CartHandler) Validate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	result, err := h.cartService.Validate(c.Request.Context(), tenantID(c), actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", result)
}

// Count godoc
// @Summary      Count cart items
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=trade.CartCount}
// @Security     BearerAuth
// @Router       /cart/count [get]
func (h *CartHandler) Count(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	count, err := h.cartService.Count(c.Request.Context(), tenantID(c), actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", count)
}

// Total godoc
// @Summary      Cart total
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=trade.CartTotal}
// @Security     BearerAuth
// @Router       /cart/total [get]
func (h *CartHandler) Total(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	total, err := h.cartService.Total(c.Request.Context(), tenantID(c), actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", total)
}
