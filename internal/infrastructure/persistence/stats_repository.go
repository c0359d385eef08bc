package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/report"
	"github.com/unimerch/backend/internal/domain/trade"
	"github.com/unimerch/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStatsRepository implements StatsRepository with aggregate SQL that runs
// on both postgres and sqlite
type GormStatsRepository struct {
	db *gorm.DB
}

// NewGormStatsRepository creates a new GormStatsRepository
func NewGormStatsRepository(db *gorm.DB) *GormStatsRepository {
	return &GormStatsRepository{db: db}
}

type groupCountRow struct {
	Key   string
	Count int64
}

func (r *GormStatsRepository) groupCount(ctx context.Context, model any, column string, tenantID uuid.UUID) (map[string]int64, int64, error) {
	var rows []groupCountRow
	if err := r.db.WithContext(ctx).
		Model(model).
		Select(column+" AS key, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	counts := make(map[string]int64, len(rows))
	var total int64
	for _, row := range rows {
		counts[row.Key] = row.Count
		total += row.Count
	}
	return counts, total, nil
}

// UserCounts counts users per role and status, and those created since newSince
func (r *GormStatsRepository) UserCounts(ctx context.Context, tenantID uuid.UUID, newSince time.Time) (*report.UserCounts, error) {
	byRole, total, err := r.groupCount(ctx, &models.UserModel{}, "role", tenantID)
	if err != nil {
		return nil, err
	}
	byStatus, _, err := r.groupCount(ctx, &models.UserModel{}, "status", tenantID)
	if err != nil {
		return nil, err
	}

	var newUsers int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("tenant_id = ? AND created_at >= ?", tenantID, newSince.UTC()).
		Count(&newUsers).Error; err != nil {
		return nil, err
	}

	return &report.UserCounts{
		Total:    total,
		ByRole:   byRole,
		ByStatus: byStatus,
		NewUsers: newUsers,
	}, nil
}

type productAggregateRow struct {
	AveragePrice   decimal.Decimal
	TotalInventory int64
	LowStock       int64
	Featured       int64
}

// ProductCounts aggregates the catalog
func (r *GormStatsRepository) ProductCounts(ctx context.Context, tenantID uuid.UUID) (*report.ProductCounts, error) {
	byStatus, total, err := r.groupCount(ctx, &models.ProductModel{}, "status", tenantID)
	if err != nil {
		return nil, err
	}

	var row productAggregateRow
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Select(`COALESCE(AVG(price), 0) AS average_price,
			COALESCE(SUM(quantity), 0) AS total_inventory,
			COALESCE(SUM(CASE WHEN quantity BETWEEN 1 AND ? THEN 1 ELSE 0 END), 0) AS low_stock,
			COALESCE(SUM(CASE WHEN is_featured THEN 1 ELSE 0 END), 0) AS featured`, report.LowStockThreshold).
		Where("tenant_id = ?", tenantID).
		Scan(&row).Error; err != nil {
		return nil, err
	}

	return &report.ProductCounts{
		Total:          total,
		ByStatus:       byStatus,
		AveragePrice:   row.AveragePrice.Round(2),
		TotalInventory: row.TotalInventory,
		LowStock:       row.LowStock,
		Featured:       row.Featured,
	}, nil
}

// OrderStatusTotals counts orders and sums their totals per status
func (r *GormStatsRepository) OrderStatusTotals(ctx context.Context, tenantID uuid.UUID) ([]report.StatusTotal, error) {
	var rows []report.StatusTotal
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS amount").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// OrdersSince returns the orders created at or after from
func (r *GormStatsRepository) OrdersSince(ctx context.Context, tenantID uuid.UUID, from time.Time) ([]report.OrderPoint, error) {
	var orderModels []models.OrderModel
	if err := r.db.WithContext(ctx).
		Select("status", "total_amount", "created_at").
		Where("tenant_id = ? AND created_at >= ?", tenantID, from.UTC()).
		Find(&orderModels).Error; err != nil {
		return nil, err
	}

	points := make([]report.OrderPoint, len(orderModels))
	for i, m := range orderModels {
		points[i] = report.OrderPoint{
			Status:    string(m.Status),
			Amount:    m.TotalAmount,
			CreatedAt: m.CreatedAt,
		}
	}
	return points, nil
}

// TopProducts ranks products by units sold in non-cancelled orders
func (r *GormStatsRepository) TopProducts(ctx context.Context, tenantID uuid.UUID, limit int) ([]report.TopProduct, error) {
	var rows []report.TopProduct
	if err := r.db.WithContext(ctx).
		Table("order_items").
		Select(`products.id AS product_id, products.name, products.price,
			SUM(order_items.quantity) AS total_sold,
			SUM(order_items.subtotal) AS total_revenue,
			COUNT(DISTINCT order_items.order_id) AS order_count`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.tenant_id = ? AND orders.status <> ?", tenantID, trade.OrderStatusCancelled).
		Group("products.id, products.name, products.price").
		Order("total_sold DESC, total_revenue DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return report.WithAvgRevenue(rows), nil
}

// RecentOrders returns the latest orders with the buyer's username
func (r *GormStatsRepository) RecentOrders(ctx context.Context, tenantID uuid.UUID, limit int) ([]report.RecentOrder, error) {
	var rows []report.RecentOrder
	if err := r.db.WithContext(ctx).
		Table("orders").
		Select(`orders.id, orders.order_number, orders.user_id, COALESCE(users.username, '') AS username,
			orders.status, orders.total_amount, orders.created_at`).
		Joins("LEFT JOIN users ON users.id = orders.user_id").
		Where("orders.tenant_id = ?", tenantID).
		Order("orders.created_at DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

const categoryPerformanceSelect = `categories.id AS category_id, categories.name,
	(SELECT COUNT(*) FROM products WHERE products.category_id = categories.id) AS product_count,
	(SELECT COUNT(*) FROM products WHERE products.category_id = categories.id AND products.status = ?) AS available_products,
	(SELECT COALESCE(SUM(order_items.quantity), 0) FROM order_items
		JOIN orders ON orders.id = order_items.order_id
		JOIN products ON products.id = order_items.product_id
		WHERE products.category_id = categories.id AND orders.status <> ?) AS total_sold,
	(SELECT COALESCE(SUM(order_items.subtotal), 0) FROM order_items
		JOIN orders ON orders.id = order_items.order_id
		JOIN products ON products.id = order_items.product_id
		WHERE products.category_id = categories.id AND orders.status <> ?) AS total_revenue,
	(SELECT CAST(COALESCE(AVG(reviews.rating), 0) AS FLOAT) FROM reviews
		JOIN products ON products.id = reviews.product_id
		WHERE products.category_id = categories.id) AS avg_rating,
	(SELECT COUNT(*) FROM reviews
		JOIN products ON products.id = reviews.product_id
		WHERE products.category_id = categories.id) AS review_count`

// CategoryPerformance summarizes sales and reviews per category
func (r *GormStatsRepository) CategoryPerformance(ctx context.Context, tenantID uuid.UUID, categoryID *uuid.UUID) ([]report.CategoryPerformance, error) {
	query := r.db.WithContext(ctx).
		Table("categories").
		Select(categoryPerformanceSelect,
			catalog.ProductStatusAvailable, trade.OrderStatusCancelled, trade.OrderStatusCancelled).
		Where("categories.tenant_id = ?", tenantID)
	if categoryID != nil {
		query = query.Where("categories.id = ?", *categoryID)
	}

	var rows []report.CategoryPerformance
	if err := query.Order("categories.name ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].TotalRevenue = rows[i].TotalRevenue.Round(2)
	}
	return report.WithRevenueShare(rows), nil
}

// ReviewTotals counts reviews per rating and the number of reviewed products
func (r *GormStatsRepository) ReviewTotals(ctx context.Context, tenantID uuid.UUID) (*report.ReviewTotals, error) {
	var rows []ratingCountRow
	if err := r.db.WithContext(ctx).
		Model(&models.ReviewModel{}).
		Select("rating, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group("rating").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	var reviewed int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReviewModel{}).
		Where("tenant_id = ?", tenantID).
		Distinct("product_id").
		Count(&reviewed).Error; err != nil {
		return nil, err
	}

	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Count
	}
	return &report.ReviewTotals{RatingCounts: counts, ReviewedProducts: reviewed}, nil
}

type sellerCatalogRow struct {
	TotalProducts     int64
	AvailableProducts int64
}

type sellerSalesRow struct {
	TotalOrders int64
	ItemsSold   int64
	Revenue     decimal.Decimal
}

// SellerSummary summarizes a seller's catalog and their lines in non-cancelled orders
func (r *GormStatsRepository) SellerSummary(ctx context.Context, tenantID, sellerID uuid.UUID) (*report.SellerSummary, error) {
	var catalogRow sellerCatalogRow
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Select(`COUNT(*) AS total_products,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS available_products`,
			catalog.ProductStatusAvailable).
		Where("tenant_id = ? AND seller_id = ?", tenantID, sellerID).
		Scan(&catalogRow).Error; err != nil {
		return nil, err
	}

	var sales sellerSalesRow
	if err := r.db.WithContext(ctx).
		Table("order_items").
		Select(`COUNT(DISTINCT order_items.order_id) AS total_orders,
			COALESCE(SUM(order_items.quantity), 0) AS items_sold,
			COALESCE(SUM(order_items.subtotal), 0) AS revenue`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.tenant_id = ? AND order_items.seller_id = ? AND orders.status <> ?",
			tenantID, sellerID, trade.OrderStatusCancelled).
		Scan(&sales).Error; err != nil {
		return nil, err
	}

	var avgRating float64
	if err := r.db.WithContext(ctx).
		Table("reviews").
		Select("CAST(COALESCE(AVG(reviews.rating), 0) AS FLOAT)").
		Joins("JOIN products ON products.id = reviews.product_id").
		Where("reviews.tenant_id = ? AND products.seller_id = ?", tenantID, sellerID).
		Scan(&avgRating).Error; err != nil {
		return nil, err
	}

	return &report.SellerSummary{
		SellerID:          sellerID,
		TotalProducts:     catalogRow.TotalProducts,
		AvailableProducts: catalogRow.AvailableProducts,
		TotalOrders:       sales.TotalOrders,
		ItemsSold:         sales.ItemsSold,
		Revenue:           sales.Revenue.Round(2),
		AvgRating:         report.Round2(avgRating),
	}, nil
}

// Ensure GormStatsRepository implements StatsRepository
var _ report.StatsRepository = (*GormStatsRepository)(nil)
