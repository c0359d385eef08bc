package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
	"github.com/unimerch/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository implements CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// Save inserts a new line or updates the quantity of an existing one
func (r *GormCartRepository) Save(ctx context.Context, item *trade.CartItem) error {
	model := models.CartItemModelFromDomain(item)
	return translateError(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(model).Error)
}

// Merge upserts on the (tenant_id, user_id, product_id) unique index so
// concurrent first adds of a product collapse into one line
func (r *GormCartRepository) Merge(ctx context.Context, item *trade.CartItem, limit int) (*trade.CartItem, error) {
	if item.Quantity > limit {
		return nil, shared.ErrInsufficientStock
	}
	model := models.CartItemModelFromDomain(item)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("cart_items.quantity + excluded.quantity <= ?", limit),
			}},
		}).
		Create(model)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrInsufficientStock
	}
	return r.FindByProduct(ctx, item.TenantID, item.UserID, item.ProductID)
}

// FindByID finds one of the user's cart lines
func (r *GormCartRepository) FindByID(ctx context.Context, tenantID, userID, id uuid.UUID) (*trade.CartItem, error) {
	var model models.CartItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND id = ?", tenantID, userID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Cart item")
	}
	return model.ToDomain(), nil
}

// FindByProduct finds the user's line for a product
func (r *GormCartRepository) FindByProduct(ctx context.Context, tenantID, userID, productID uuid.UUID) (*trade.CartItem, error) {
	var model models.CartItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND product_id = ?", tenantID, userID, productID).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Cart item")
	}
	return model.ToDomain(), nil
}

// FindByUser returns the user's cart lines, oldest first
func (r *GormCartRepository) FindByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*trade.CartItem, error) {
	var itemModels []models.CartItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("created_at ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	items := make([]*trade.CartItem, len(itemModels))
	for i := range itemModels {
		items[i] = itemModels[i].ToDomain()
	}
	return items, nil
}

// Delete removes one of the user's cart lines
func (r *GormCartRepository) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND id = ?", tenantID, userID, id).
		Delete(&models.CartItemModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("Cart item")
	}
	return nil
}

// Clear empties the user's cart
func (r *GormCartRepository) Clear(ctx context.Context, tenantID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Delete(&models.CartItemModel{}).Error
}

// RemoveProducts drops the user's lines for the given products
func (r *GormCartRepository) RemoveProducts(ctx context.Context, tenantID, userID uuid.UUID, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND product_id IN ?", tenantID, userID, productIDs).
		Delete(&models.CartItemModel{}).Error
}

// Ensure GormCartRepository implements CartRepository
var _ trade.CartRepository = (*GormCartRepository)(nil)
