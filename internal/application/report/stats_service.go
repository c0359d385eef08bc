// Package report serves the marketplace statistics endpoints.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/report"
	"github.com/unimerch/backend/internal/domain/review"
	"github.com/unimerch/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	dashboardListSize  = 5
	newUserWindow      = 30 * 24 * time.Hour
	defaultTopProducts = 10
	maxTopProducts     = 50
)

// Totals are the headline figures of the dashboard
type Totals struct {
	Users    int64           `json:"total_users"`
	Products int64           `json:"total_products"`
	Orders   int64           `json:"total_orders"`
	Revenue  decimal.Decimal `json:"total_revenue"`
}

// Dashboard is the admin overview
type Dashboard struct {
	Totals         Totals               `json:"totals"`
	OrdersByStatus map[string]int64     `json:"orders_by_status"`
	TopProducts    []report.TopProduct  `json:"top_products"`
	RecentOrders   []report.RecentOrder `json:"recent_orders"`
	GeneratedAt    time.Time            `json:"generated_at"`
}

// SalesReport is an order revenue series
type SalesReport struct {
	Period  report.Period          `json:"period"`
	Buckets []report.RevenueBucket `json:"buckets"`
	Summary report.RevenueSummary  `json:"summary"`
}

// ReviewStats summarizes every review of the tenant
type ReviewStats struct {
	TotalReviews     int64         `json:"total_reviews"`
	AverageRating    float64       `json:"average_rating"`
	Distribution     map[int]int64 `json:"distribution"`
	ReviewedProducts int64         `json:"reviewed_products"`
}

// StatsService computes marketplace statistics
type StatsService struct {
	repo   report.StatsRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsService creates a new StatsService
func NewStatsService(repo report.StatsRepository, logger *zap.Logger) *StatsService {
	return &StatsService{repo: repo, logger: logger, now: time.Now}
}

// Dashboard loads the overview figures concurrently
func (s *StatsService) Dashboard(ctx context.Context, tenantID uuid.UUID) (*Dashboard, error) {
	var (
		users    *report.UserCounts
		products *report.ProductCounts
		totals   []report.StatusTotal
		top      []report.TopProduct
		recent   []report.RecentOrder
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.repo.UserCounts(gctx, tenantID, s.now().Add(-newUserWindow))
		return err
	})
	g.Go(func() (err error) {
		products, err = s.repo.ProductCounts(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		totals, err = s.repo.OrderStatusTotals(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		top, err = s.repo.TopProducts(gctx, tenantID, dashboardListSize)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.repo.RecentOrders(gctx, tenantID, dashboardListSize)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load dashboard", zap.String("tenant_id", tenantID.String()), zap.Error(err))
		return nil, err
	}

	d := &Dashboard{
		Totals: Totals{
			Users:    users.Total,
			Products: products.Total,
			Revenue:  report.RevenueFrom(totals),
		},
		OrdersByStatus: make(map[string]int64, len(totals)),
		TopProducts:    report.WithAvgRevenue(top),
		RecentOrders:   recent,
		GeneratedAt:    s.now().UTC(),
	}
	for _, t := range totals {
		d.OrdersByStatus[t.Status] = t.Count
		d.Totals.Orders += t.Count
	}
	return d, nil
}

// Seller summarizes one seller for that seller or an admin
func (s *StatsService) Seller(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, sellerID uuid.UUID) (*report.SellerSummary, error) {
	if !actor.CanManage(sellerID) {
		return nil, shared.Forbidden("You can only view your own statistics")
	}
	return s.repo.SellerSummary(ctx, tenantID, sellerID)
}

// Products returns catalog counts
func (s *StatsService) Products(ctx context.Context, tenantID uuid.UUID) (*report.ProductCounts, error) {
	return s.repo.ProductCounts(ctx, tenantID)
}

// Users returns account counts, with sign-ups of the last 30 days
func (s *StatsService) Users(ctx context.Context, tenantID uuid.UUID) (*report.UserCounts, error) {
	return s.repo.UserCounts(ctx, tenantID, s.now().Add(-newUserWindow))
}

// Orders analyzes orders by status
func (s *StatsService) Orders(ctx context.Context, tenantID uuid.UUID) (*report.OrderAnalysis, error) {
	totals, err := s.repo.OrderStatusTotals(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	caser := cases.Title(language.English)
	analysis := report.AnalyzeOrders(totals, func(status string) string {
		return caser.String(status)
	})
	return &analysis, nil
}

// Revenue buckets order revenue by period, newest first
func (s *StatsService) Revenue(ctx context.Context, tenantID uuid.UUID, period string, limit int) (*SalesReport, error) {
	p, err := report.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	limit, err = report.ValidateLimit(limit, report.DefaultBucketLimit, report.MaxBucketLimit)
	if err != nil {
		return nil, err
	}

	points, err := s.repo.OrdersSince(ctx, tenantID, p.Start(s.now(), limit))
	if err != nil {
		return nil, err
	}
	buckets, summary := report.BucketOrders(points, p, limit, report.IsRevenueStatus)
	return &SalesReport{Period: p, Buckets: buckets, Summary: summary}, nil
}

// Categories returns sales and review performance per category
func (s *StatsService) Categories(ctx context.Context, tenantID uuid.UUID) ([]report.CategoryPerformance, error) {
	cats, err := s.repo.CategoryPerformance(ctx, tenantID, nil)
	if err != nil {
		return nil, err
	}
	return report.WithRevenueShare(cats), nil
}

// Category returns the performance of one category
func (s *StatsService) Category(ctx context.Context, tenantID, categoryID uuid.UUID) (*report.CategoryPerformance, error) {
	rows, err := s.repo.CategoryPerformance(ctx, tenantID, &categoryID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.NotFound("category")
	}
	return &rows[0], nil
}

// Reviews summarizes ratings across the catalog
func (s *StatsService) Reviews(ctx context.Context, tenantID uuid.UUID) (*ReviewStats, error) {
	totals, err := s.repo.ReviewTotals(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	summary := review.NewRatingSummary(totals.RatingCounts)
	return &ReviewStats{
		TotalReviews:     summary.Total,
		AverageRating:    report.Round2(summary.Average),
		Distribution:     summary.Distribution,
		ReviewedProducts: totals.ReviewedProducts,
	}, nil
}

// TopProducts ranks best sellers; limit is 1..50 and defaults to 10
func (s *StatsService) TopProducts(ctx context.Context, tenantID uuid.UUID, limit int) ([]report.TopProduct, error) {
	limit, err := report.ValidateLimit(limit, defaultTopProducts, maxTopProducts)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopProducts(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}
	return report.WithAvgRevenue(top), nil
}
