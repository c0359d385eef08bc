package review

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/shared"
)

// Review is a buyer's rating of a product. A user reviews a product once.
type Review struct {
	shared.TenantAggregateRoot
	ProductID        uuid.UUID
	UserID           uuid.UUID
	Rating           int
	Comment          string
	HelpfulCount     int
	VerifiedPurchase bool
}

// NewReview creates a review
func NewReview(tenantID, productID, userID uuid.UUID, rating int, comment string, verified bool) (*Review, error) {
	r := &Review{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		UserID:              userID,
		VerifiedPurchase:    verified,
	}
	if err := r.Edit(rating, comment); err != nil {
		return nil, err
	}
	r.Version = 1
	return r, nil
}

// Edit changes the rating and comment
func (r *Review) Edit(rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > 1000 {
		return shared.NewDomainError("INVALID_COMMENT", "Comment cannot exceed 1000 characters")
	}
	r.Rating = rating
	r.Comment = comment
	r.Touch()
	return nil
}

// IsOwnedBy reports whether userID wrote the review
func (r *Review) IsOwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}

// RatingSummary aggregates the ratings of a product or the whole catalog
type RatingSummary struct {
	Total        int64
	Average      float64
	Distribution map[int]int64
}

// NewRatingSummary builds a summary from per-rating counts
func NewRatingSummary(counts map[int]int64) RatingSummary {
	s := RatingSummary{Distribution: make(map[int]int64, 5)}
	var weighted int64
	for rating := 1; rating <= 5; rating++ {
		n := counts[rating]
		s.Distribution[rating] = n
		s.Total += n
		weighted += int64(rating) * n
	}
	if s.Total > 0 {
		s.Average = float64(weighted) / float64(s.Total)
	}
	return s
}
