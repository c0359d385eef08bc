package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatsRepository runs the aggregate queries behind the statistics endpoints.
// All queries are scoped to a tenant.
type StatsRepository interface {
	UserCounts(ctx context.Context, tenantID uuid.UUID, newSince time.Time) (*UserCounts, error)
	ProductCounts(ctx context.Context, tenantID uuid.UUID) (*ProductCounts, error)
	OrderStatusTotals(ctx context.Context, tenantID uuid.UUID) ([]StatusTotal, error)
	OrdersSince(ctx context.Context, tenantID uuid.UUID, from time.Time) ([]OrderPoint, error)
	// TopProducts ranks products by units sold, excluding cancelled orders
	TopProducts(ctx context.Context, tenantID uuid.UUID, limit int) ([]TopProduct, error)
	RecentOrders(ctx context.Context, tenantID uuid.UUID, limit int) ([]RecentOrder, error)
	// CategoryPerformance returns every category, or only categoryID when set
	CategoryPerformance(ctx context.Context, tenantID uuid.UUID, categoryID *uuid.UUID) ([]CategoryPerformance, error)
	ReviewTotals(ctx context.Context, tenantID uuid.UUID) (*ReviewTotals, error)
	SellerSummary(ctx context.Context, tenantID, sellerID uuid.UUID) (*SellerSummary, error)
}
