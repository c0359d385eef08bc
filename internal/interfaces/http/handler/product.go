package handler

import (
	"github.com/gin-gonic/gin"

	appcatalog "github.com/unimerch/backend/internal/application/catalog"
	"github.com/unimerch/backend/internal/application/review"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/shared"
)

// ProductHandler serves product endpoints
type ProductHandler struct {
	BaseHandler
	productService *appcatalog.ProductService
	reviewService  *review.ReviewService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *appcatalog.ProductService, reviewService *review.ReviewService) *ProductHandler {
	return &ProductHandler{productService: productService, reviewService: reviewService}
}

// list runs a product query with optional overrides from the path
func (h *ProductHandler) list(c *gin.Context, override func(*appcatalog.ListProductsInput)) {
	var q ProductListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	input, err := q.input()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if override != nil {
		override(&input)
	}

	page, err := h.productService.List(c.Request.Context(), tenantID(c), optionalActor(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}

// List godoc
// @Summary      List products
// @Description  Anonymous callers and non-owners only see available and out of stock products unless a status is requested
// @Tags         products
// @Produce      json
// @Param        q           query string  false "Keyword"
// @Param        category_id query string  false "Category ID"
// @Param        seller_id   query string  false "Seller ID"
// @Param        status      query string  false "Status" Enums(available, out_of_stock, discontinued, pending)
// @Param        min_price   query number  false "Minimum price"
// @Param        max_price   query number  false "Maximum price"
// @Param        color       query string  false "Color"
// @Param        size        query string  false "Size"
// @Param        featured    query boolean false "Featured only"
// @Param        sort        query string  false "Sort" Enums(newest, oldest, price_asc, price_desc, name, popular)
// @Param        page        query int     false "Page"
// @Param        limit       query int     false "Page size"
// @Success      200 {object} dto.Response{data=[]appcatalog.ProductDTO,meta=dto.Meta}
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	h.list(c, nil)
}

// Search godoc
// @Summary      Search products by attributes
// @Tags         products
// @Produce      json
// @Param        q     query string false "Keyword"
// @Param        color query string false "Color"
// @Param        size  query string false "Size"
// @Success      200 {object} dto.Response{data=[]appcatalog.ProductDTO,meta=dto.Meta}
// @Router       /products/search [get]
func (h *ProductHandler) Search(c *gin.Context) {
	h.list(c, nil)
}

// BySeller godoc
// @Summary      List a seller's products
// @Tags         products
// @Produce      json
// @Param        sellerId path string true "Seller ID"
// @Success      200 {object} dto.Response{data=[]appcatalog.ProductDTO,meta=dto.Meta}
// @Router       /products/seller/{sellerId} [get]
func (h *ProductHandler) BySeller(c *gin.Context) {
	sellerID, ok := h.pathUUID(c, "sellerId")
	if !ok {
		return
	}
	h.list(c, func(in *appcatalog.ListProductsInput) { in.SellerID = &sellerID })
}

// ByCategory godoc
// @Summary      List a category's products
// @Tags         products
// @Produce      json
// @Param        categoryId path string true "Category ID"
// @Success      200 {object} dto.Response{data=[]appcatalog.ProductDTO,meta=dto.Meta}
// @Router       /products/category/{categoryId} [get]
func (h *ProductHandler) ByCategory(c *gin.Context) {
	categoryID, ok := h.pathUUID(c, "categoryId")
	if !ok {
		return
	}
	h.list(c, func(in *appcatalog.ListProductsInput) { in.CategoryID = &categoryID })
}

// Featured godoc
// @Summary      Featured products
// @Tags         products
// @Produce      json
// @Param        limit query int false "Maximum number of products"
// @Success      200 {object} dto.Response{data=[]appcatalog.ProductDTO}
// @Router       /products/featured [get]
func (h *ProductHandler) Featured(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	products, err := h.productService.Featured(c.Request.Context(), tenantID(c), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", products)
}

// Get godoc
// @Summary      Get a product
// @Description  Counts a view
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=appcatalog.ProductDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetByID(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", product)
}

// Create godoc
// @Summary      Create a product
// @Description  The caller becomes the seller
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body CreateProductRequest true "Product"
// @Success      201 {object} dto.Response{data=appcatalog.ProductDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateProductRequest
	if !h.bind(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), tenantID(c), actor, appcatalog.CreateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Quantity:      req.Quantity,
		CategoryID:    req.CategoryID,
		Color:         req.Color,
		Size:          req.Size,
		Images:        req.Images,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Product created successfully", product)
}

// Update godoc
// @Summary      Update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path string true "Product ID"
// @Param        request body UpdateProductRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=appcatalog.ProductDTO}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateProductRequest
	if !h.bind(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), tenantID(c), actor, id, appcatalog.UpdateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		ClearDiscount: req.ClearDiscount,
		Quantity:      req.Quantity,
		CategoryID:    req.CategoryID,
		Color:         req.Color,
		Size:          req.Size,
		Images:        req.Images,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Product updated successfully", product)
}

// Delete godoc
// @Summary      Delete a product
// @Description  Products referenced by orders are discontinued instead
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	discontinued, err := h.productService.Delete(c.Request.Context(), tenantID(c), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if discontinued {
		h.Success(c, "Product has orders and was discontinued instead", gin.H{"discontinued": true})
		return
	}
	h.Success(c, "Product deleted successfully", gin.H{"discontinued": false})
}

// UpdateStatus godoc
// @Summary      Change a product status
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path string true "Product ID"
// @Param        request body ProductStatusRequest true "Status"
// @Success      200 {object} dto.Response{data=appcatalog.ProductDTO}
// @Security     BearerAuth
// @Router       /products/{id}/status [put]
func (h *ProductHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ProductStatusRequest
	if !h.bind(c, &req) {
		return
	}

	product, err := h.productService.UpdateStatus(c.Request.Context(), tenantID(c), actor, id, catalog.ProductStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Product status updated", product)
}

// UpdateQuantity godoc
// @Summary      Set the stock level
// @Description  Zero stock marks an available product out of stock and restocking reverses it
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path string true "Product ID"
// @Param        request body ProductQuantityRequest true "Quantity"
// @Success      200 {object} dto.Response{data=appcatalog.ProductDTO}
// @Security     BearerAuth
// @Router       /products/{id}/quantity [put]
func (h *ProductHandler) UpdateQuantity(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ProductQuantityRequest
	if !h.bind(c, &req) {
		return
	}

	product, err := h.productService.UpdateQuantity(c.Request.Context(), tenantID(c), actor, id, *req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Product quantity updated", product)
}

// SetFeatured godoc
// @Summary      Feature a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path string true "Product ID"
// @Param        request body ProductFeaturedRequest true "Featured flag"
// @Success      200 {object} dto.Response{data=appcatalog.ProductDTO}
// @Security     BearerAuth
// @Router       /products/{id}/featured [put]
func (h *ProductHandler) SetFeatured(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ProductFeaturedRequest
	if !h.bind(c, &req) {
		return
	}

	product, err := h.productService.SetFeatured(c.Request.Context(), tenantID(c), actor, id, *req.IsFeatured)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Product featured flag updated", product)
}

// Reviews godoc
// @Summary      List reviews of a product
// @Tags         products
// @Produce      json
// @Param        id     path  string true  "Product ID"
// @Param        rating query int    false "Rating filter"
// @Param        page   query int    false "Page"
// @Param        limit  query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]review.ReviewDTO,meta=dto.Meta}
// @Router       /products/{id}/reviews [get]
func (h *ProductHandler) Reviews(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var q ReviewListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.reviewService.ForProduct(c.Request.Context(), tenantID(c), id, q.Rating, shared.NewPagination(q.Page, q.Limit))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paged(c, page)
}
