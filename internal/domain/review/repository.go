package review

import (
	"context"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/shared"
)

// ReviewFilter contains filter options for querying reviews
type ReviewFilter struct {
	ProductID *uuid.UUID
	UserID    *uuid.UUID
	Rating    *int
	shared.Pagination
}

// ReviewRepository defines the interface for review persistence
type ReviewRepository interface {
	Create(ctx context.Context, review *Review) error
	Update(ctx context.Context, review *Review) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Review, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter ReviewFilter) ([]*Review, int64, error)
	ExistsByUserAndProduct(ctx context.Context, tenantID, userID, productID uuid.UUID) (bool, error)
	// RatingCounts returns the number of reviews per rating, optionally for one product
	RatingCounts(ctx context.Context, tenantID uuid.UUID, productID *uuid.UUID) (map[int]int64, error)
	// AddHelpfulVote records a vote and increments the counter. A repeated
	// vote by the same user returns shared.ErrAlreadyExists.
	AddHelpfulVote(ctx context.Context, tenantID, reviewID, userID uuid.UUID) (int, error)
}
