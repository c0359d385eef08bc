package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/finance"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create creates a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *finance.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Update saves an existing payment
func (r *GormPaymentRepository) Update(ctx context.Context, payment *finance.Payment) error {
	return updateScoped(ctx, r.db, payment.TenantID, models.PaymentModelFromDomain(payment), "Payment")
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Payment")
	}
	return model.ToDomain(), nil
}

// FindByOrder returns the payments of an order, newest first
func (r *GormPaymentRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*finance.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at DESC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	return toPayments(paymentModels), nil
}

// FindByTransactionID looks a payment up across tenants
func (r *GormPaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*finance.Payment, error) {
	if transactionID == "" {
		return nil, shared.NotFound("Payment")
	}
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		return nil, notFound(err, "Payment")
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of payments, newest first
func (r *GormPaymentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.PaymentFilter) ([]*finance.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("tenant_id = ?", tenantID)
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var paymentModels []models.PaymentModel
	if err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&paymentModels).Error; err != nil {
		return nil, 0, err
	}
	return toPayments(paymentModels), total, nil
}

// ExistsCompletedForOrder reports whether the order already has a completed payment
func (r *GormPaymentRepository) ExistsCompletedForOrder(ctx context.Context, tenantID, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND order_id = ? AND status = ?", tenantID, orderID, finance.PaymentStatusCompleted).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type paymentStatusRow struct {
	Status string
	Count  int64
	Amount decimal.Decimal
}

// Summary counts and sums payments per status
func (r *GormPaymentRepository) Summary(ctx context.Context, tenantID uuid.UUID) ([]finance.PaymentStatusTotal, error) {
	var rows []paymentStatusRow
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]finance.PaymentStatusTotal, len(rows))
	for i, row := range rows {
		totals[i] = finance.PaymentStatusTotal{
			Status: finance.PaymentStatus(row.Status),
			Count:  row.Count,
			Amount: row.Amount,
		}
	}
	return totals, nil
}

// Since returns the status, amount and creation time of payments created at or after from
func (r *GormPaymentRepository) Since(ctx context.Context, tenantID uuid.UUID, from time.Time) ([]finance.PaymentRow, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Select("status", "amount", "created_at").
		Where("tenant_id = ? AND created_at >= ?", tenantID, from.UTC()).
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	rows := make([]finance.PaymentRow, len(paymentModels))
	for i, m := range paymentModels {
		rows[i] = finance.PaymentRow{
			Status:    m.Status,
			Amount:    m.Amount,
			CreatedAt: m.CreatedAt,
		}
	}
	return rows, nil
}

func toPayments(paymentModels []models.PaymentModel) []*finance.Payment {
	payments := make([]*finance.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ finance.PaymentRepository = (*GormPaymentRepository)(nil)
