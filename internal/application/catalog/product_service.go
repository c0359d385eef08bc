package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultFeaturedLimit = 8
	maxFeaturedLimit     = 50
)

var errNotProductOwner = shared.Forbidden("Only the seller or an admin can modify this product")

// ProductService handles product operations
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	logger       *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, categoryRepo catalog.CategoryRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// List returns a filtered page of products. actor is nil for anonymous
// callers, who only see public statuses unless a status is requested.
func (s *ProductService) List(ctx context.Context, tenantID uuid.UUID, actor *identity.Actor, input ListProductsInput) (shared.Page[ProductDTO], error) {
	filter, err := buildFilter(actor, input)
	if err != nil {
		return shared.Page[ProductDTO]{}, err
	}
	products, total, err := s.productRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Page[ProductDTO]{}, err
	}
	return shared.MapPage(shared.NewPage(products, total, filter.Pagination), ToProductDTO), nil
}

// Featured returns featured products that can be bought
func (s *ProductService) Featured(ctx context.Context, tenantID uuid.UUID, limit int) ([]ProductDTO, error) {
	if limit < 1 {
		limit = defaultFeaturedLimit
	}
	limit = min(limit, maxFeaturedLimit)

	featured := true
	products, _, err := s.productRepo.FindAll(ctx, tenantID, catalog.ProductFilter{
		Featured:   &featured,
		Statuses:   []catalog.ProductStatus{catalog.ProductStatusAvailable},
		Sort:       catalog.SortNewest,
		Pagination: shared.NewPagination(1, limit),
	})
	if err != nil {
		return nil, err
	}
	out := make([]ProductDTO, len(products))
	for i, p := range products {
		out[i] = ToProductDTO(p)
	}
	return out, nil
}

// GetByID returns a product and counts the view
func (s *ProductService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.IncrementViews(ctx, tenantID, id); err != nil {
		s.logger.Warn("Failed to count product view", zap.String("product_id", id.String()), zap.Error(err))
	} else {
		product.ViewCount++
	}
	dto := ToProductDTO(product)
	return &dto, nil
}

// Create lists a product for the calling seller
func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, input CreateProductInput) (*ProductDTO, error) {
	if err := s.ensureCategory(ctx, tenantID, input.CategoryID); err != nil {
		return nil, err
	}
	product, err := catalog.NewProduct(tenantID, actor.UserID, catalog.ProductDetails{
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		DiscountPrice: input.DiscountPrice,
		CategoryID:    input.CategoryID,
		Color:         input.Color,
		Size:          input.Size,
		Images:        input.Images,
	}, input.Quantity)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("seller_id", actor.UserID.String()))
	dto := ToProductDTO(product)
	return &dto, nil
}

// Update edits a product owned by the actor
func (s *ProductService) Update(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.ownedProduct(ctx, tenantID, actor, id)
	if err != nil {
		return nil, err
	}

	details := catalog.ProductDetails{
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price,
		DiscountPrice: product.DiscountPrice,
		CategoryID:    product.CategoryID,
		Color:         product.Color,
		Size:          product.Size,
		Images:        input.Images,
	}
	if input.Name != nil {
		details.Name = *input.Name
	}
	if input.Description != nil {
		details.Description = *input.Description
	}
	if input.Price != nil {
		details.Price = *input.Price
	}
	if input.DiscountPrice != nil {
		details.DiscountPrice = input.DiscountPrice
	}
	if input.ClearDiscount {
		details.DiscountPrice = nil
	}
	if input.Color != nil {
		details.Color = *input.Color
	}
	if input.Size != nil {
		details.Size = *input.Size
	}
	if input.CategoryID != nil && *input.CategoryID != product.CategoryID {
		if err := s.ensureCategory(ctx, tenantID, *input.CategoryID); err != nil {
			return nil, err
		}
		details.CategoryID = *input.CategoryID
	}

	if err := product.Update(details); err != nil {
		return nil, err
	}
	if input.Quantity != nil {
		if err := product.SetQuantity(*input.Quantity); err != nil {
			return nil, err
		}
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	if input.Quantity != nil {
		if err := s.productRepo.SetStock(ctx, tenantID, id, *input.Quantity); err != nil {
			return nil, err
		}
	}
	return s.reload(ctx, tenantID, id)
}

// Delete removes a product. Products that appear in orders are discontinued
// instead so order history keeps its references. It reports whether the
// product was only discontinued.
func (s *ProductService) Delete(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID) (bool, error) {
	_, err := s.ownedProduct(ctx, tenantID, actor, id)
	if err != nil {
		return false, err
	}

	referenced, err := s.productRepo.IsReferencedByOrders(ctx, tenantID, id)
	if err != nil {
		return false, err
	}
	if referenced {
		if err := s.productRepo.SetStatus(ctx, tenantID, id, catalog.ProductStatusDiscontinued); err != nil {
			return false, err
		}
		s.logger.Info("Product discontinued instead of deleted", zap.String("product_id", id.String()))
		return true, nil
	}

	if err := s.productRepo.Delete(ctx, tenantID, id); err != nil {
		return false, err
	}
	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return false, nil
}

// UpdateStatus sets the status explicitly
func (s *ProductService) UpdateStatus(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID, status catalog.ProductStatus) (*ProductDTO, error) {
	product, err := s.ownedProduct(ctx, tenantID, actor, id)
	if err != nil {
		return nil, err
	}
	if err := product.SetStatus(status); err != nil {
		return nil, err
	}
	if err := s.productRepo.SetStatus(ctx, tenantID, id, status); err != nil {
		return nil, err
	}
	return s.reload(ctx, tenantID, id)
}

// UpdateQuantity sets the stock level; the status follows it
func (s *ProductService) UpdateQuantity(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID, quantity int) (*ProductDTO, error) {
	product, err := s.ownedProduct(ctx, tenantID, actor, id)
	if err != nil {
		return nil, err
	}
	if err := product.SetQuantity(quantity); err != nil {
		return nil, err
	}
	if err := s.productRepo.SetStock(ctx, tenantID, id, quantity); err != nil {
		return nil, err
	}
	return s.reload(ctx, tenantID, id)
}

// SetFeatured toggles the featured flag. Admin only.
func (s *ProductService) SetFeatured(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID, featured bool) (*ProductDTO, error) {
	if !actor.IsAdmin() {
		return nil, shared.Forbidden("Only admins can feature products")
	}
	product, err := s.productRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	product.SetFeatured(featured)
	return s.save(ctx, product)
}

// AddImages appends uploaded image URLs to a product owned by the actor
func (s *ProductService) AddImages(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID, urls []string) (*ProductDTO, error) {
	product, err := s.ownedProduct(ctx, tenantID, actor, id)
	if err != nil {
		return nil, err
	}
	product.AddImages(urls...)
	return s.save(ctx, product)
}

// CheckOwnership fails unless the actor may modify the product
func (s *ProductService) CheckOwnership(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID) error {
	_, err := s.ownedProduct(ctx, tenantID, actor, id)
	return err
}

func (s *ProductService) ownedProduct(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(product.SellerID) {
		return nil, errNotProductOwner
	}
	return product, nil
}

// save writes the listing details and answers with the stored row, which
// carries stock sold since product was read
func (s *ProductService) save(ctx context.Context, product *catalog.Product) (*ProductDTO, error) {
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.reload(ctx, product.TenantID, product.ID)
}

func (s *ProductService) reload(ctx context.Context, tenantID, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToProductDTO(product)
	return &dto, nil
}

func (s *ProductService) ensureCategory(ctx context.Context, tenantID, categoryID uuid.UUID) error {
	if categoryID == uuid.Nil {
		return shared.NewDomainError("INVALID_CATEGORY", "Category is required")
	}
	if _, err := s.categoryRepo.FindByID(ctx, tenantID, categoryID); err != nil {
		if shared.IsNotFound(err) {
			return shared.NotFound("Category")
		}
		return err
	}
	return nil
}

func buildFilter(actor *identity.Actor, input ListProductsInput) (catalog.ProductFilter, error) {
	sort := catalog.ProductSort(input.Sort)
	switch sort {
	case "":
		sort = catalog.SortNewest
	case catalog.SortNewest, catalog.SortOldest, catalog.SortPriceAsc, catalog.SortPriceDesc,
		catalog.SortName, catalog.SortPopular, catalog.SortRating, catalog.SortRelevance:
	default:
		return catalog.ProductFilter{}, shared.NewDomainError("INVALID_SORT", "Unsupported sort order")
	}
	if input.MinPrice != nil && input.MaxPrice != nil && input.MinPrice.GreaterThan(*input.MaxPrice) {
		return catalog.ProductFilter{}, shared.NewDomainError("INVALID_PRICE_RANGE", "min_price cannot exceed max_price")
	}
	if input.MinRating != nil && (*input.MinRating < 0 || *input.MinRating > 5) {
		return catalog.ProductFilter{}, shared.NewDomainError("INVALID_RATING", "min_rating must be between 0 and 5")
	}

	filter := catalog.ProductFilter{
		Keyword:    input.Keyword,
		CategoryID: input.CategoryID,
		SellerID:   input.SellerID,
		MinPrice:   input.MinPrice,
		MaxPrice:   input.MaxPrice,
		Color:      input.Color,
		Size:       input.Size,
		Featured:   input.Featured,
		InStock:    input.InStock,
		MinRating:  input.MinRating,
		Sort:       sort,
		Pagination: shared.NewPagination(input.Page, input.PageSize),
	}

	switch {
	case input.Status != nil:
		if !input.Status.IsValid() {
			return catalog.ProductFilter{}, shared.NewDomainError("INVALID_STATUS", "Unknown product status")
		}
		filter.Statuses = []catalog.ProductStatus{*input.Status}
	case actor != nil && actor.IsAdmin():
	case actor != nil && input.SellerID != nil && *input.SellerID == actor.UserID:
	default:
		filter.Statuses = catalog.PublicStatuses
	}
	return filter, nil
}
