package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/finance"
	"github.com/unimerch/backend/internal/domain/trade"
)

// PaymentModel is the persistence model for the Payment aggregate root
type PaymentModel struct {
	TenantAggregateModel
	OrderID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	PaymentMethod trade.PaymentMethod   `gorm:"type:varchar(30);not null"`
	Status        finance.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	TransactionID string                `gorm:"type:varchar(255);index"`
	PaidAt        *time.Time
	RefundReason  string `gorm:"type:varchar(500)"`
	RefundedAt    *time.Time
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *finance.Payment {
	return &finance.Payment{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		OrderID:             m.OrderID,
		UserID:              m.UserID,
		Amount:              m.Amount,
		PaymentMethod:       m.PaymentMethod,
		Status:              m.Status,
		TransactionID:       m.TransactionID,
		PaidAt:              m.PaidAt,
		RefundReason:        m.RefundReason,
		RefundedAt:          m.RefundedAt,
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *finance.Payment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.OrderID = p.OrderID
	m.UserID = p.UserID
	m.Amount = p.Amount
	m.PaymentMethod = p.PaymentMethod
	m.Status = p.Status
	m.TransactionID = p.TransactionID
	m.PaidAt = p.PaidAt
	m.RefundReason = p.RefundReason
	m.RefundedAt = p.RefundedAt
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
