package handler

import (
	"github.com/gin-gonic/gin"

	appcatalog "github.com/unimerch/backend/internal/application/catalog"
	appidentity "github.com/unimerch/backend/internal/application/identity"
	"github.com/unimerch/backend/internal/domain/shared"
)

// SearchLogRequest records a search phrase
type SearchLogRequest struct {
	Term string `json:"term" binding:"required,max=200"`
}

// SearchHandler serves the search endpoints
type SearchHandler struct {
	BaseHandler
	searchService   *appcatalog.SearchService
	categoryService *appcatalog.CategoryService
	userService     *appidentity.UserService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *appcatalog.SearchService, categoryService *appcatalog.CategoryService, userService *appidentity.UserService) *SearchHandler {
	return &SearchHandler{
		searchService:   searchService,
		categoryService: categoryService,
		userService:     userService,
	}
}

// Products godoc
// @Summary      Search products
// @Description  Same filters as the product list. A keyword is recorded for suggestions.
// @Tags         search
// @Produce      json
// @Param        q query string false "Keyword"
// @Success      200 {object} dto.Response{data=[]appcatalog.ProductDTO,meta=dto.Meta}
// @Router       /search/products [get]
func (h *SearchHandler) Products(c *gin.Context) {
	var q ProductListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	input, err := q.input()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, err := h.searchService.SearchProducts(c.Request.Context(), tenantID(c), optionalActor(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// Advanced godoc
// @Summary      Advanced product search
// @Tags         search
// @Produce      json
// @Param        q           query string  false "Keyword"
// @Param        category_id query string  false "Category ID"
// @Param        min_price   query number  false "Minimum price"
// @Param        max_price   query number  false "Maximum price"
// @Param        min_rating  query number  false "Minimum average rating"
// @Param        in_stock    query boolean false "Only products with stock"
// @Param        color       query string  false "Color"
// @Param        size        query string  false "Size"
// @Param        sort        query string  false "Sort" Enums(relevance, price_asc, price_desc, newest, rating, popular)
// @Success      200 {object} dto.Response{data=[]appcatalog.ProductDTO,meta=dto.Meta}
// @Router       /search/advanced [get]
func (h *SearchHandler) Advanced(c *gin.Context) {
	var q ProductListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	input, err := q.input()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if input.Sort == "" {
		input.Sort = "relevance"
	}

	page, err := h.searchService.SearchProducts(c.Request.Context(), tenantID(c), optionalActor(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// Categories godoc
// @Summary      Search categories
// @Tags         search
// @Produce      json
// @Param        q query string false "Name filter"
// @Success      200 {object} dto.Response{data=[]appcatalog.CategoryDTO}
// @Router       /search/categories [get]
func (h *SearchHandler) Categories(c *gin.Context) {
	categories, err := h.categoryService.List(c.Request.Context(), tenantID(c), c.Query("q"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", categories)
}

// Users godoc
// @Summary      Seller directory
// @Description  Only sellers are listed, with public fields
// @Tags         search
// @Produce      json
// @Param        q     query string false "Username or name"
// @Param        page  query int    false "Page"
// @Param        limit query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]appidentity.PublicUser,meta=dto.Meta}
// @Router       /search/users [get]
func (h *SearchHandler) Users(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", shared.DefaultPageSize)
	if !ok {
		return
	}

	result, err := h.userService.SearchSellers(c.Request.Context(), tenantID(c), c.Query("q"), shared.NewPagination(page, limit))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, result)
}

// Suggestions godoc
// @Summary      Search suggestions
// @Description  Product names and popular searches starting with q
// @Tags         search
// @Produce      json
// @Param        q     query string true  "Prefix"
// @Param        limit query int    false "Maximum suggestions (max 20)"
// @Success      200 {object} dto.Response{data=[]string}
// @Router       /search/suggestions [get]
func (h *SearchHandler) Suggestions(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	suggestions, err := h.searchService.Suggestions(c.Request.Context(), tenantID(c), c.Query("q"), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", suggestions)
}

// Popular godoc
// @Summary      Popular searches
// @Tags         search
// @Produce      json
// @Param        limit query int false "Maximum terms"
// @Success      200 {object} dto.Response
// @Router       /search/popular [get]
func (h *SearchHandler) Popular(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	terms, err := h.searchService.Popular(c.Request.Context(), tenantID(c), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", terms)
}

// Log godoc
// @Summary      Record a search
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        request body SearchLogRequest true "Search phrase"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /search/log [post]
func (h *SearchHandler) Log(c *gin.Context) {
	var req SearchLogRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.searchService.LogTerm(c.Request.Context(), tenantID(c), req.Term); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Search logged", nil)
}
