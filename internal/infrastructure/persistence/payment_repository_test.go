package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/internal/domain/finance"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
)

func TestGormPaymentRepository(t *testing.T) {
	f := newFixture(t)
	repo := NewGormPaymentRepository(f.db)
	ctx := t.Context()

	tee := f.product(t, "Campus Tee", 100000, 10)
	order := f.order(t, trade.OrderStatusPending, tee)

	failed, err := finance.NewPayment(order, trade.PaymentMethodCreditCard, "")
	require.NoError(t, err)
	require.NoError(t, failed.UpdateStatus(finance.PaymentStatusFailed, ""))
	require.NoError(t, repo.Create(ctx, failed))

	paid, err := finance.NewPayment(order, trade.PaymentMethodCreditCard, "pi_3Nabc")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, paid))

	t.Run("no completed payment yet", func(t *testing.T) {
		exists, err := repo.ExistsCompletedForOrder(ctx, f.tenantID, order.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("completes a payment", func(t *testing.T) {
		require.NoError(t, paid.UpdateStatus(finance.PaymentStatusCompleted, ""))
		require.NoError(t, repo.Update(ctx, paid))

		exists, err := repo.ExistsCompletedForOrder(ctx, f.tenantID, order.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("finds by gateway transaction id", func(t *testing.T) {
		found, err := repo.FindByTransactionID(ctx, "pi_3Nabc")
		require.NoError(t, err)
		assert.Equal(t, paid.ID, found.ID)
		assert.Equal(t, f.tenantID, found.TenantID)
		assert.Equal(t, finance.PaymentStatusCompleted, found.Status)
		assert.NotNil(t, found.PaidAt)

		_, err = repo.FindByTransactionID(ctx, "pi_missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lists payments of an order", func(t *testing.T) {
		payments, err := repo.FindByOrder(ctx, f.tenantID, order.ID)
		require.NoError(t, err)
		assert.Len(t, payments, 2)

		status := finance.PaymentStatusFailed
		page, total, err := repo.FindAll(ctx, f.tenantID, finance.PaymentFilter{
			Status:     &status,
			Pagination: shared.NewPagination(1, 10),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, failed.ID, page[0].ID)
	})

	t.Run("summarizes per status", func(t *testing.T) {
		totals, err := repo.Summary(ctx, f.tenantID)
		require.NoError(t, err)
		assert.Len(t, totals, 2)
		for _, total := range totals {
			assert.Equal(t, int64(1), total.Count)
			assert.True(t, total.Amount.Equal(order.TotalAmount))
		}
	})

	t.Run("returns recent rows", func(t *testing.T) {
		rows, err := repo.Since(ctx, f.tenantID, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Len(t, rows, 2)

		rows, err = repo.Since(ctx, f.tenantID, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
