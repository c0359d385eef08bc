// Package review implements product reviews and helpful votes.
package review

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/review"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
	"go.uber.org/zap"
)

var (
	errDuplicateReview = shared.NewDomainError("ALREADY_EXISTS", "You have already reviewed this product")
	errOwnProduct      = shared.NewDomainError("OWN_PRODUCT", "Sellers cannot review their own products")
	errOwnReview       = shared.NewDomainError("OWN_REVIEW", "You cannot vote on your own review")
	errDuplicateVote   = shared.NewDomainError("ALREADY_EXISTS", "You have already marked this review as helpful")
	errNotReviewOwner  = shared.Forbidden("You can only change your own reviews")
)

// ReviewDTO represents a review
type ReviewDTO struct {
	ID               uuid.UUID `json:"id"`
	ProductID        uuid.UUID `json:"product_id"`
	UserID           uuid.UUID `json:"user_id"`
	Rating           int       `json:"rating"`
	Comment          string    `json:"comment"`
	HelpfulCount     int       `json:"helpful_count"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RatingStats is the rating summary of a product
type RatingStats struct {
	AverageRating float64       `json:"average_rating"`
	TotalReviews  int64         `json:"total_reviews"`
	Distribution  map[int]int64 `json:"distribution"`
}

// CreateReviewInput contains input for writing a review
type CreateReviewInput struct {
	ProductID uuid.UUID
	Rating    int
	Comment   string
}

// ListReviewsInput contains filters for review listings
type ListReviewsInput struct {
	ProductID *uuid.UUID
	UserID    *uuid.UUID
	Rating    *int
	shared.Pagination
}

// ToReviewDTO converts a review
func ToReviewDTO(r *review.Review) ReviewDTO {
	return ReviewDTO{
		ID:               r.ID,
		ProductID:        r.ProductID,
		UserID:           r.UserID,
		Rating:           r.Rating,
		Comment:          r.Comment,
		HelpfulCount:     r.HelpfulCount,
		VerifiedPurchase: r.VerifiedPurchase,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// ReviewService manages product reviews
type ReviewService struct {
	reviewRepo  review.ReviewRepository
	productRepo catalog.ProductRepository
	orderRepo   trade.OrderRepository
	logger      *zap.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(reviewRepo review.ReviewRepository, productRepo catalog.ProductRepository, orderRepo trade.OrderRepository, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		logger:      logger,
	}
}

// List returns every review to admins and the caller's own reviews to others
func (s *ReviewService) List(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, input ListReviewsInput) (shared.Page[ReviewDTO], error) {
	if err := validateRatingFilter(input.Rating); err != nil {
		return shared.Page[ReviewDTO]{}, err
	}
	filter := review.ReviewFilter{
		ProductID:  input.ProductID,
		UserID:     input.UserID,
		Rating:     input.Rating,
		Pagination: input.Pagination,
	}
	if !actor.IsAdmin() {
		filter.UserID = &actor.UserID
	}
	return s.list(ctx, tenantID, filter)
}

// ForProduct returns the public reviews of a product
func (s *ReviewService) ForProduct(ctx context.Context, tenantID, productID uuid.UUID, rating *int, p shared.Pagination) (shared.Page[ReviewDTO], error) {
	if err := validateRatingFilter(rating); err != nil {
		return shared.Page[ReviewDTO]{}, err
	}
	if _, err := s.productRepo.FindByID(ctx, tenantID, productID); err != nil {
		return shared.Page[ReviewDTO]{}, err
	}
	return s.list(ctx, tenantID, review.ReviewFilter{ProductID: &productID, Rating: rating, Pagination: p})
}

// ForUser returns a user's reviews to that user or an admin
func (s *ReviewService) ForUser(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, userID uuid.UUID, p shared.Pagination) (shared.Page[ReviewDTO], error) {
	if !actor.CanManage(userID) {
		return shared.Page[ReviewDTO]{}, shared.Forbidden("You can only view your own reviews")
	}
	return s.list(ctx, tenantID, review.ReviewFilter{UserID: &userID, Pagination: p})
}

func (s *ReviewService) list(ctx context.Context, tenantID uuid.UUID, filter review.ReviewFilter) (shared.Page[ReviewDTO], error) {
	reviews, total, err := s.reviewRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Page[ReviewDTO]{}, err
	}
	return shared.MapPage(shared.NewPage(reviews, total, filter.Pagination), ToReviewDTO), nil
}

// ProductStats summarizes the ratings of a product
func (s *ReviewService) ProductStats(ctx context.Context, tenantID, productID uuid.UUID) (*RatingStats, error) {
	if _, err := s.productRepo.FindByID(ctx, tenantID, productID); err != nil {
		return nil, err
	}
	counts, err := s.reviewRepo.RatingCounts(ctx, tenantID, &productID)
	if err != nil {
		return nil, err
	}
	summary := review.NewRatingSummary(counts)
	return &RatingStats{
		AverageRating: summary.Average,
		TotalReviews:  summary.Total,
		Distribution:  summary.Distribution,
	}, nil
}

// Get returns one review
func (s *ReviewService) Get(ctx context.Context, tenantID, id uuid.UUID) (*ReviewDTO, error) {
	r, err := s.reviewRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToReviewDTO(r)
	return &dto, nil
}

// Create writes a review. It is marked verified when the author received the
// product in a delivered order.
func (s *ReviewService) Create(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, input CreateReviewInput) (*ReviewDTO, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.IsOwnedBy(actor.UserID) {
		return nil, errOwnProduct
	}

	exists, err := s.reviewRepo.ExistsByUserAndProduct(ctx, tenantID, actor.UserID, product.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errDuplicateReview
	}

	verified, err := s.orderRepo.HasDeliveredProduct(ctx, tenantID, actor.UserID, product.ID)
	if err != nil {
		return nil, err
	}

	r, err := review.NewReview(tenantID, product.ID, actor.UserID, input.Rating, input.Comment, verified)
	if err != nil {
		return nil, err
	}
	if err := s.reviewRepo.Create(ctx, r); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, errDuplicateReview
		}
		return nil, err
	}

	s.logger.Info("Review created",
		zap.String("review_id", r.ID.String()),
		zap.String("product_id", product.ID.String()),
		zap.Int("rating", r.Rating),
		zap.Bool("verified", verified),
	)
	dto := ToReviewDTO(r)
	return &dto, nil
}

// Update edits a review on behalf of its author or an admin
func (s *ReviewService) Update(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID, rating int, comment *string) (*ReviewDTO, error) {
	r, err := s.owned(ctx, tenantID, actor, id)
	if err != nil {
		return nil, err
	}
	text := r.Comment
	if comment != nil {
		text = *comment
	}
	if err := r.Edit(rating, text); err != nil {
		return nil, err
	}
	if err := s.reviewRepo.Update(ctx, r); err != nil {
		return nil, err
	}
	dto := ToReviewDTO(r)
	return &dto, nil
}

// Delete removes a review on behalf of its author or an admin
func (s *ReviewService) Delete(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, tenantID, actor, id); err != nil {
		return err
	}
	return s.reviewRepo.Delete(ctx, tenantID, id)
}

// MarkHelpful records the actor's helpful vote and returns the new count
func (s *ReviewService) MarkHelpful(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID) (int, error) {
	r, err := s.reviewRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return 0, err
	}
	if r.IsOwnedBy(actor.UserID) {
		return 0, errOwnReview
	}
	count, err := s.reviewRepo.AddHelpfulVote(ctx, tenantID, id, actor.UserID)
	if errors.Is(err, shared.ErrAlreadyExists) {
		return 0, errDuplicateVote
	}
	return count, err
}

func (s *ReviewService) owned(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID) (*review.Review, error) {
	r, err := s.reviewRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(r.UserID) {
		return nil, errNotReviewOwner
	}
	return r, nil
}

func validateRatingFilter(rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}
	return nil
}
