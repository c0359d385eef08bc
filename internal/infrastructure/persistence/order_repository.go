package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/trade"
	"github.com/unimerch/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order and its items
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Update saves the order header; items are immutable once placed
func (r *GormOrderRepository) Update(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	model.Items = nil
	return updateScoped(ctx, r.db, order.TenantID, model, "Order")
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByCreation).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Order")
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of orders with items, newest first
func (r *GormOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter trade.OrderFilter) ([]*trade.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("orders.tenant_id = ?", tenantID)
	if filter.UserID != nil {
		query = query.Where("orders.user_id = ?", *filter.UserID)
	}
	if filter.SellerID != nil {
		query = query.Where(
			"EXISTS (SELECT 1 FROM order_items WHERE order_items.order_id = orders.id AND order_items.seller_id = ?)",
			*filter.SellerID,
		)
	}
	if filter.Status != nil {
		query = query.Where("orders.status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orderModels []models.OrderModel
	if err := query.
		Preload("Items", orderItemsByCreation).
		Order("orders.created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&orderModels).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*trade.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = orderModels[i].ToDomain()
	}
	return orders, total, nil
}

func orderItemsByCreation(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.created_at ASC")
}

// HasDeliveredProduct reports whether the user received the product in any order
func (r *GormOrderRepository) HasDeliveredProduct(ctx context.Context, tenantID, userID, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderItemModel{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.tenant_id = ? AND orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			tenantID, userID, trade.OrderStatusDelivered, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type orderStatusRow struct {
	Status string
	Count  int64
	Amount decimal.Decimal
}

// StatusSummary counts orders and sums totals per status
func (r *GormOrderRepository) StatusSummary(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID) ([]trade.StatusTotal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS amount").
		Where("tenant_id = ?", tenantID)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var rows []orderStatusRow
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]trade.StatusTotal, len(rows))
	for i, row := range rows {
		totals[i] = trade.StatusTotal{
			Status: trade.OrderStatus(row.Status),
			Count:  row.Count,
			Amount: row.Amount,
		}
	}
	return totals, nil
}

// Ensure GormOrderRepository implements OrderRepository
var _ trade.OrderRepository = (*GormOrderRepository)(nil)
