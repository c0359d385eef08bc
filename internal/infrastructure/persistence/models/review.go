package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/review"
)

// ReviewModel is the persistence model for the Review aggregate root.
// (tenant_id, user_id, product_id) is unique.
type ReviewModel struct {
	TenantAggregateModel
	ProductID        uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index"`
	Rating           int       `gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment          string    `gorm:"type:varchar(1000)"`
	HelpfulCount     int       `gorm:"not null;default:0"`
	VerifiedPurchase bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ReviewModel) TableName() string {
	return "reviews"
}

// ToDomain converts the persistence model to a domain Review
func (m *ReviewModel) ToDomain() *review.Review {
	return &review.Review{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		ProductID:           m.ProductID,
		UserID:              m.UserID,
		Rating:              m.Rating,
		Comment:             m.Comment,
		HelpfulCount:        m.HelpfulCount,
		VerifiedPurchase:    m.VerifiedPurchase,
	}
}

// FromDomain populates the persistence model from a domain Review
func (m *ReviewModel) FromDomain(r *review.Review) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.ProductID = r.ProductID
	m.UserID = r.UserID
	m.Rating = r.Rating
	m.Comment = r.Comment
	m.HelpfulCount = r.HelpfulCount
	m.VerifiedPurchase = r.VerifiedPurchase
}

// ReviewModelFromDomain creates a new persistence model from a domain Review
func ReviewModelFromDomain(r *review.Review) *ReviewModel {
	m := &ReviewModel{}
	m.FromDomain(r)
	return m
}

// ReviewVoteModel records that a user found a review helpful.
// A user votes once per review.
type ReviewVoteModel struct {
	ReviewID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReviewVoteModel) TableName() string {
	return "review_helpful_votes"
}
