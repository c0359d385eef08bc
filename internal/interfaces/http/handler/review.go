package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unimerch/backend/internal/application/review"
	"github.com/unimerch/backend/internal/domain/shared"
)

// CreateReviewRequest reviews a product
type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Rating    int       `json:"rating" binding:"required,min=1,max=5"`
	Comment   string    `json:"comment" binding:"omitempty,max=1000"`
}

// UpdateReviewRequest edits a review
type UpdateReviewRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
	// Comment keeps its stored value when omitted
	Comment *string `json:"comment" binding:"omitempty,max=1000"`
}

// ReviewListQuery filters review listings
type ReviewListQuery struct {
	ProductID string `form:"product_id" binding:"omitempty,uuid"`
	UserID    string `form:"user_id" binding:"omitempty,uuid"`
	Rating    *int   `form:"rating" binding:"omitempty,min=1,max=5"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
}

// ReviewHandler serves review endpoints
type ReviewHandler struct {
	BaseHandler
	reviewService *review.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *review.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// List godoc
// @Summary      List reviews
// @Description  Admins see every review and may filter. Other callers see their own reviews.
// @Tags         reviews
// @Produce      json
// @Param        product_id query string false "Product ID"
// @Param        user_id    query string false "Author ID"
// @Param        rating     query int    false "Rating"
// @Param        page       query int    false "Page"
// @Param        limit      query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]review.ReviewDTO,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /reviews [get]
func (h *ReviewHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q ReviewListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	input := review.ListReviewsInput{Rating: q.Rating, Pagination: shared.NewPagination(q.Page, q.Limit)}
	if q.ProductID != "" {
		id := uuid.MustParse(q.ProductID)
		input.ProductID = &id
	}
	if q.UserID != "" {
		id := uuid.MustParse(q.UserID)
		input.UserID = &id
	}
	page, err := h.reviewService.List(c.Request.Context(), tenantID(c), actor, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// ForProduct godoc
// @Summary      Reviews of a product
// @Tags         reviews
// @Produce      json
// @Param        productId path  string true  "Product ID"
// @Param        rating    query int    false "Rating"
// @Param        page      query int    false "Page"
// @Param        limit     query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]review.ReviewDTO,meta=dto.Meta}
// @Router       /reviews/product/{productId} [get]
func (h *ReviewHandler) ForProduct(c *gin.Context) {
	productID, ok := h.pathUUID(c, "productId")
	if !ok {
		return
	}
	var q ReviewListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.reviewService.ForProduct(c.Request.Context(), tenantID(c), productID, q.Rating, shared.NewPagination(q.Page, q.Limit))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// ProductStats godoc
// @Summary      Rating summary of a product
// @Tags         reviews
// @Produce      json
// @Param        productId path string true "Product ID"
// @Success      200 {object} dto.Response{data=review.RatingStats}
// @Router       /reviews/product/{productId}/stats [get]
func (h *ReviewHandler) ProductStats(c *gin.Context) {
	productID, ok := h.pathUUID(c, "productId")
	if !ok {
		return
	}
	stats, err := h.reviewService.ProductStats(c.Request.Context(), tenantID(c), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", stats)
}

// ForUser godoc
// @Summary      Reviews written by a user
// @Tags         reviews
// @Produce      json
// @Param        userId path  string true  "User ID"
// @Param        page   query int    false "Page"
// @Param        limit  query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]review.ReviewDTO,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reviews/user/{userId} [get]
func (h *ReviewHandler) ForUser(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	userID, ok := h.pathUUID(c, "userId")
	if !ok {
		return
	}
	var q ReviewListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.reviewService.ForUser(c.Request.Context(), tenantID(c), actor, userID, shared.NewPagination(q.Page, q.Limit))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// Get godoc
// @Summary      Get a review
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Review ID"
// @Success      200 {object} dto.Response{data=review.ReviewDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reviews/{id} [get]
func (h *ReviewHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	r, err := h.reviewService.Get(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", r)
}

// Create godoc
// @Summary      Review a product
// @Description  One review per product. Sellers cannot review their own products.
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        request body CreateReviewRequest true "Review"
// @Success      201 {object} dto.Response{data=review.ReviewDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateReviewRequest
	if !h.bind(c, &req) {
		return
	}

	r, err := h.reviewService.Create(c.Request.Context(), tenantID(c), actor, review.CreateReviewInput{
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Review created successfully", r)
}

// Update godoc
// @Summary      Edit a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        id      path string true "Review ID"
// @Param        request body UpdateReviewRequest true "Review"
// @Success      200 {object} dto.Response{data=review.ReviewDTO}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reviews/{id} [put]
func (h *ReviewHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateReviewRequest
	if !h.bind(c, &req) {
		return
	}

	r, err := h.reviewService.Update(c.Request.Context(), tenantID(c), actor, id, req.Rating, req.Comment)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Review updated successfully", r)
}

// Delete godoc
// @Summary      Delete a review
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Review ID"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reviews/{id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.reviewService.Delete(c.Request.Context(), tenantID(c), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Review deleted successfully", nil)
}

// MarkHelpful godoc
// @Summary      Vote a review helpful
// @Description  One vote per user. Authors cannot vote for their own review.
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Review ID"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reviews/{id}/helpful [post]
func (h *ReviewHandler) MarkHelpful(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	count, err := h.reviewService.MarkHelpful(c.Request.Context(), tenantID(c), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Review marked as helpful", gin.H{"helpful_count": count})
}
