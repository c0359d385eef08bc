package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LowStockThreshold is the upper bound of the low-stock band (1..5 units)
const LowStockThreshold = 5

// UserCounts are raw user aggregates for a tenant
type UserCounts struct {
	Total    int64            `json:"total"`
	ByRole   map[string]int64 `json:"by_role"`
	ByStatus map[string]int64 `json:"by_status"`
	NewUsers int64            `json:"new_last_30_days"`
}

// ProductCounts are raw product aggregates for a tenant
type ProductCounts struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	AveragePrice   decimal.Decimal  `json:"average_price"`
	TotalInventory int64            `json:"total_inventory"`
	LowStock       int64            `json:"low_stock"`
	Featured       int64            `json:"featured"`
}

// StatusTotal is the number and value of orders in one status
type StatusTotal struct {
	Status string          `json:"status"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"total_amount"`
}

// OrderPoint is one order reduced to what revenue bucketing needs
type OrderPoint struct {
	Status    string
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// TopProduct is a best-selling product
type TopProduct struct {
	ProductID          uuid.UUID       `json:"product_id"`
	Name               string          `json:"name"`
	Price              decimal.Decimal `json:"price"`
	TotalSold          int64           `json:"total_sold"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	OrderCount         int64           `json:"order_count"`
	AvgRevenuePerOrder decimal.Decimal `json:"avg_revenue_per_order"`
}

// RecentOrder is a row of the dashboard's latest orders
type RecentOrder struct {
	ID          uuid.UUID       `json:"id"`
	OrderNumber string          `json:"order_number"`
	UserID      uuid.UUID       `json:"user_id"`
	Username    string          `json:"username"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CategoryPerformance summarizes sales and reviews for one category
type CategoryPerformance struct {
	CategoryID        uuid.UUID       `json:"category_id"`
	Name              string          `json:"name"`
	ProductCount      int64           `json:"product_count"`
	AvailableProducts int64           `json:"available_products"`
	TotalSold         int64           `json:"total_sold"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AvgRating         float64         `json:"avg_rating"`
	ReviewCount       int64           `json:"review_count"`
	RevenuePercentage float64         `json:"revenue_percentage"`
}

// SellerSummary summarizes one seller's catalog and sales
type SellerSummary struct {
	SellerID          uuid.UUID       `json:"seller_id"`
	TotalProducts     int64           `json:"total_products"`
	AvailableProducts int64           `json:"available_products"`
	TotalOrders       int64           `json:"total_orders"`
	ItemsSold         int64           `json:"items_sold"`
	Revenue           decimal.Decimal `json:"revenue"`
	AvgRating         float64         `json:"avg_rating"`
}

// ReviewTotals are raw review aggregates for a tenant
type ReviewTotals struct {
	RatingCounts     map[int]int64
	ReviewedProducts int64
}
