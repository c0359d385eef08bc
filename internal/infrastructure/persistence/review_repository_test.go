package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/review"
	"github.com/unimerch/backend/internal/domain/shared"
)

func TestGormReviewRepository(t *testing.T) {
	f := newFixture(t)
	repo := NewGormReviewRepository(f.db)
	ctx := t.Context()

	tee := f.product(t, "Campus Tee", 100000, 10)
	bob := f.user(t, "bob", "bob@uni.edu", identity.RoleUser)

	first, err := review.NewReview(f.tenantID, tee.ID, f.buyer.ID, 5, "Great fit", true)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))
	second, err := review.NewReview(f.tenantID, tee.ID, bob.ID, 3, "", false)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, second))

	t.Run("one review per user and product", func(t *testing.T) {
		exists, err := repo.ExistsByUserAndProduct(ctx, f.tenantID, f.buyer.ID, tee.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		dup, err := review.NewReview(f.tenantID, tee.ID, f.buyer.ID, 4, "", false)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("counts ratings", func(t *testing.T) {
		counts, err := repo.RatingCounts(ctx, f.tenantID, &tee.ID)
		require.NoError(t, err)
		assert.Equal(t, map[int]int64{5: 1, 3: 1}, counts)
	})

	t.Run("filters by rating", func(t *testing.T) {
		rating := 5
		reviews, total, err := repo.FindAll(ctx, f.tenantID, review.ReviewFilter{
			ProductID:  &tee.ID,
			Rating:     &rating,
			Pagination: shared.NewPagination(1, 10),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, first.ID, reviews[0].ID)
		assert.True(t, reviews[0].VerifiedPurchase)
	})

	t.Run("counts each helpful vote once", func(t *testing.T) {
		count, err := repo.AddHelpfulVote(ctx, f.tenantID, first.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		_, err = repo.AddHelpfulVote(ctx, f.tenantID, first.ID, bob.ID)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)

		count, err = repo.AddHelpfulVote(ctx, f.tenantID, first.ID, f.seller.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("edits a review", func(t *testing.T) {
		require.NoError(t, second.Edit(4, "Better after washing"))
		require.NoError(t, repo.Update(ctx, second))

		found, err := repo.FindByID(ctx, f.tenantID, second.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, found.Rating)
		assert.Equal(t, "Better after washing", found.Comment)
	})

	t.Run("deleting a review removes its votes", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, f.tenantID, first.ID))

		var votes int64
		require.NoError(t, f.db.Table("review_helpful_votes").Count(&votes).Error)
		assert.Zero(t, votes)
	})
}
