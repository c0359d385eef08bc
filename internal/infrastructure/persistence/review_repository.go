package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/review"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReviewRepository implements ReviewRepository using GORM
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// Create creates a new review
func (r *GormReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	model := models.ReviewModelFromDomain(rv)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Update saves an existing review
func (r *GormReviewRepository) Update(ctx context.Context, rv *review.Review) error {
	return updateScoped(ctx, r.db, rv.TenantID, models.ReviewModelFromDomain(rv), "Review")
}

// Delete removes a review and its helpful votes
func (r *GormReviewRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND review_id = ?", tenantID, id).
			Delete(&models.ReviewVoteModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.ReviewModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NotFound("Review")
		}
		return nil
	})
}

// FindByID finds a review by ID
func (r *GormReviewRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*review.Review, error) {
	var model models.ReviewModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Review")
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of reviews, newest first
func (r *GormReviewRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter review.ReviewFilter) ([]*review.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ReviewModel{}).Where("tenant_id = ?", tenantID)
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Rating != nil {
		query = query.Where("rating = ?", *filter.Rating)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviewModels []models.ReviewModel
	if err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&reviewModels).Error; err != nil {
		return nil, 0, err
	}

	reviews := make([]*review.Review, len(reviewModels))
	for i := range reviewModels {
		reviews[i] = reviewModels[i].ToDomain()
	}
	return reviews, total, nil
}

// ExistsByUserAndProduct reports whether the user already reviewed the product
func (r *GormReviewRepository) ExistsByUserAndProduct(ctx context.Context, tenantID, userID, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReviewModel{}).
		Where("tenant_id = ? AND user_id = ? AND product_id = ?", tenantID, userID, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type ratingCountRow struct {
	Rating int
	Count  int64
}

// RatingCounts returns the number of reviews per rating
func (r *GormReviewRepository) RatingCounts(ctx context.Context, tenantID uuid.UUID, productID *uuid.UUID) (map[int]int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ReviewModel{}).
		Select("rating, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID)
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}

	var rows []ratingCountRow
	if err := query.Group("rating").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Count
	}
	return counts, nil
}

// AddHelpfulVote records the vote and returns the new helpful count
func (r *GormReviewRepository) AddHelpfulVote(ctx context.Context, tenantID, reviewID, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vote := &models.ReviewVoteModel{
			ReviewID:  reviewID,
			UserID:    userID,
			TenantID:  tenantID,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(vote).Error; err != nil {
			return translateError(err)
		}

		result := tx.Model(&models.ReviewModel{}).
			Where("tenant_id = ? AND id = ?", tenantID, reviewID).
			UpdateColumn("helpful_count", gorm.Expr("helpful_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NotFound("Review")
		}

		return tx.Model(&models.ReviewModel{}).
			Where("tenant_id = ? AND id = ?", tenantID, reviewID).
			Pluck("helpful_count", &count).Error
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormReviewRepository implements ReviewRepository
var _ review.ReviewRepository = (*GormReviewRepository)(nil)
