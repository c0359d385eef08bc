package handler

import (
	"github.com/gin-gonic/gin"

	appcatalog "github.com/unimerch/backend/internal/application/catalog"
	"github.com/unimerch/backend/internal/application/report"
)

// CategoryHandler serves category endpoints
type CategoryHandler struct {
	BaseHandler
	categoryService *appcatalog.CategoryService
	productService  *appcatalog.ProductService
	statsService    *report.StatsService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService *appcatalog.CategoryService, productService *appcatalog.ProductService, statsService *report.StatsService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		productService:  productService,
		statsService:    statsService,
	}
}

// List godoc
// @Summary      List categories
// @Description  Every category with its product count
// @Tags         categories
// @Produce      json
// @Param        search query string false "Name filter"
// @Success      200 {object} dto.Response{data=[]appcatalog.CategoryDTO}
// @Router       /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categoryService.List(c.Request.Context(), tenantID(c), c.Query("search"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", categories)
}

// Get godoc
// @Summary      Get a category
// @Tags         categories
// @Produce      json
// @Param        id path string true "Category ID"
// @Success      200 {object} dto.Response{data=appcatalog.CategoryDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	category, err := h.categoryService.GetByID(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", category)
}

// Create godoc
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        request body CategoryRequest true "Category"
// @Success      201 {object} dto.Response{data=appcatalog.CategoryDTO}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CategoryRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Name == nil {
		h.BadRequest(c, "name is required")
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), tenantID(c), req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Category created successfully", category)
}

// Update godoc
// @Summary      Update a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        id      path string true "Category ID"
// @Param        request body CategoryRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=appcatalog.CategoryDTO}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if !h.bind(c, &req) {
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), tenantID(c), id, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Category updated successfully", category)
}

// Delete godoc
// @Summary      Delete a category
// @Description  Fails with 409 while products still reference it
// @Tags         categories
// @Produce      json
// @Param        id path string true "Category ID"
// @Success      200 {object} dto.Response
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.categoryService.Delete(c.Request.Context(), tenantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Category deleted successfully", nil)
}

// Products godoc
// @Summary      List products of a category
// @Tags         categories
// @Produce      json
// @Param        id    path  string true  "Category ID"
// @Param        sort  query string false "Sort order"
// @Param        page  query int    false "Page"
// @Param        limit query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]appcatalog.ProductDTO,meta=dto.Meta}
// @Router       /categories/{id}/products [get]
func (h *CategoryHandler) Products(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if _, err := h.categoryService.GetByID(c.Request.Context(), tenantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	var q ProductListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	input, err := q.input()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	input.CategoryID = &id

	page, err := h.productService.List(c.Request.Context(), tenantID(c), optionalActor(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// Stats godoc
// @Summary      Category performance
// @Tags         categories
// @Produce      json
// @Param        id path string true "Category ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /categories/{id}/stats [get]
func (h *CategoryHandler) Stats(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	stats, err := h.statsService.Category(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", stats)
}
