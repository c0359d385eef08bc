package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create creates a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Update saves the listing details of an existing product. Quantity, status
// and view count are owned by SetStock, SetStatus, the stock counters and
// IncrementViews, so a stale copy never writes them back.
func (r *GormProductRepository) Update(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tenant_id = ? AND id = ?", product.TenantID, product.ID).
		Updates(map[string]any{
			"category_id":    model.CategoryID,
			"name":           model.Name,
			"description":    model.Description,
			"price":          model.Price,
			"discount_price": model.DiscountPrice,
			"is_featured":    model.IsFeatured,
			"color":          model.Color,
			"size":           model.Size,
			"images":         model.Images,
			"updated_at":     model.UpdatedAt,
			"version":        gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("Product")
	}
	return nil
}

// SetStock replaces the stock level in one statement; available and
// out_of_stock follow the new quantity
func (r *GormProductRepository) SetStock(ctx context.Context, tenantID, id uuid.UUID, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]any{
			"quantity": quantity,
			"status": gorm.Expr("CASE WHEN status = ? AND ? = 0 THEN ? WHEN status = ? AND ? > 0 THEN ? ELSE status END",
				catalog.ProductStatusAvailable, quantity, catalog.ProductStatusOutOfStock,
				catalog.ProductStatusOutOfStock, quantity, catalog.ProductStatusAvailable),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("Product")
	}
	return nil
}

// SetStatus writes status alone. Making a product available only succeeds
// while it still has stock, checked in the same statement.
func (r *GormProductRepository) SetStatus(ctx context.Context, tenantID, id uuid.UUID, status catalog.ProductStatus) error {
	query := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id)
	if status == catalog.ProductStatusAvailable {
		query = query.Where("quantity > 0")
	}
	result := query.Updates(map[string]any{
		"status":  status,
		"version": gorm.Expr("version + 1"),
	})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, tenantID, id); err != nil {
			return err
		}
		return catalog.ErrNoStockToSell
	}
	return nil
}

// Delete removes a product together with cart lines pointing at it
func (r *GormProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND product_id = ?", tenantID, id).
			Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.ProductModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NotFound("Product")
		}
		return nil
	})
}

// FindByID finds a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Product")
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the products that exist among ids, in no particular order
func (r *GormProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*catalog.Product, error) {
	if len(ids) == 0 {
		return []*catalog.Product{}, nil
	}
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&productModels).Error; err != nil {
		return nil, err
	}
	products := make([]*catalog.Product, len(productModels))
	for i := range productModels {
		products[i] = productModels[i].ToDomain()
	}
	return products, nil
}

// FindAll returns a page of products matching filter
func (r *GormProductRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter catalog.ProductFilter) ([]*catalog.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("products.tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	keyword := strings.ToLower(strings.TrimSpace(filter.Keyword))
	if filter.Sort == catalog.SortRelevance && keyword != "" {
		query = query.Order(clause.OrderBy{Expression: clause.Expr{
			SQL:  "CASE WHEN LOWER(products.name) = ? THEN 0 WHEN LOWER(products.name) LIKE ? THEN 1 ELSE 2 END, products.view_count DESC, products.created_at DESC",
			Vars: []any{keyword, prefixPattern(keyword)},
		}})
	} else {
		query = query.Order(ProductOrderClause(string(filter.Sort)))
	}

	var productModels []models.ProductModel
	if err := query.
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&productModels).Error; err != nil {
		return nil, 0, err
	}

	products := make([]*catalog.Product, len(productModels))
	for i := range productModels {
		products[i] = productModels[i].ToDomain()
	}
	return products, total, nil
}

func (r *GormProductRepository) applyFilter(query *gorm.DB, filter catalog.ProductFilter) *gorm.DB {
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := likePattern(keyword)
		query = query.Where("(LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?)", like, like)
	}
	if filter.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filter.CategoryID)
	}
	if filter.SellerID != nil {
		query = query.Where("products.seller_id = ?", *filter.SellerID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("products.status IN ?", filter.Statuses)
	}
	// Prices compare as floats so sqlite applies numeric comparison to the expression
	if filter.MinPrice != nil {
		query = query.Where("COALESCE(products.discount_price, products.price) >= ?", filter.MinPrice.InexactFloat64())
	}
	if filter.MaxPrice != nil {
		query = query.Where("COALESCE(products.discount_price, products.price) <= ?", filter.MaxPrice.InexactFloat64())
	}
	if color := strings.TrimSpace(filter.Color); color != "" {
		query = query.Where("LOWER(products.color) = ?", strings.ToLower(color))
	}
	if size := strings.TrimSpace(filter.Size); size != "" {
		query = query.Where("LOWER(products.size) = ?", strings.ToLower(size))
	}
	if filter.Featured != nil {
		query = query.Where("products.is_featured = ?", *filter.Featured)
	}
	if filter.InStock {
		query = query.Where("products.quantity > 0")
	}
	if filter.MinRating != nil {
		query = query.Where(
			"(SELECT COALESCE(AVG(reviews.rating), 0) FROM reviews WHERE reviews.product_id = products.id) >= ?",
			*filter.MinRating,
		)
	}
	return query
}

// SuggestNames returns distinct visible product names starting with prefix
func (r *GormProductRepository) SuggestNames(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Distinct("name").
		Where("tenant_id = ? AND status IN ? AND LOWER(name) LIKE ?", tenantID, catalog.PublicStatuses, prefixPattern(prefix)).
		Order("name ASC").
		Limit(limit).
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// CountByCategory counts the products in a category
func (r *GormProductRepository) CountByCategory(ctx context.Context, tenantID, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tenant_id = ? AND category_id = ?", tenantID, categoryID).
		Count(&count).Error
	return count, err
}

// IncrementViews adds one to the view counter without touching updated_at
func (r *GormProductRepository) IncrementViews(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// IsReferencedByOrders reports whether any order line points at the product
func (r *GormProductRepository) IsReferencedByOrders(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderItemModel{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.tenant_id = ? AND order_items.product_id = ?", tenantID, id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DecrementStock takes quantity units in one conditional update. An available
// product that reaches zero becomes out of stock.
func (r *GormProductRepository) DecrementStock(ctx context.Context, tenantID, id uuid.UUID, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tenant_id = ? AND id = ? AND quantity >= ?", tenantID, id, quantity).
		Updates(map[string]any{
			"quantity": gorm.Expr("quantity - ?", quantity),
			"status": gorm.Expr("CASE WHEN quantity - ? <= 0 AND status = ? THEN ? ELSE status END",
				quantity, catalog.ProductStatusAvailable, catalog.ProductStatusOutOfStock),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, tenantID, id); err != nil {
			return err
		}
		return shared.ErrInsufficientStock
	}
	return nil
}

// IncrementStock returns quantity units; an out of stock product becomes available
func (r *GormProductRepository) IncrementStock(ctx context.Context, tenantID, id uuid.UUID, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]any{
			"quantity": gorm.Expr("quantity + ?", quantity),
			"status": gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END",
				catalog.ProductStatusOutOfStock, catalog.ProductStatusAvailable),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("Product")
	}
	return nil
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
