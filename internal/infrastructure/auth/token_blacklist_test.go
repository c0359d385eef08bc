package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
	"go.uber.org/goleak"
)

func TestInMemoryTokenBlacklist_JTI(t *testing.T) {
	b := NewInMemoryTokenBlacklist(time.Minute)
	defer b.Close()
	ctx := context.Background()

	require.NoError(t, b.AddToBlacklist(ctx, "jti-1", time.Hour))
	ok, err := b.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.AddToBlacklist(ctx, "short", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	ok, _ = b.IsBlacklisted(ctx, "short")
	assert.False(t, ok)
}

func TestInMemoryTokenBlacklist_UserInvalidation(t *testing.T) {
	b := NewInMemoryTokenBlacklist(time.Minute)
	defer b.Close()
	ctx := context.Background()
	old := time.Now().Add(-time.Hour)

	ok, err := b.IsUserTokenInvalidated(ctx, "user-1", old)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.AddUserTokensToBlacklist(ctx, "user-1", time.Hour))

	ok, _ = b.IsUserTokenInvalidated(ctx, "user-1", old)
	assert.True(t, ok)
	ok, _ = b.IsUserTokenInvalidated(ctx, "user-1", time.Now().Add(time.Second))
	assert.False(t, ok)
	ok, _ = b.IsUserTokenInvalidated(ctx, "user-2", old)
	assert.False(t, ok)
}

func TestInMemoryTokenBlacklist_Sweep(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewInMemoryTokenBlacklist(5 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, b.AddToBlacklist(ctx, "short", time.Millisecond))
	require.NoError(t, b.AddUserTokensToBlacklist(ctx, "user-1", time.Millisecond))
	require.NoError(t, b.AddToBlacklist(ctx, "long", time.Hour))

	assert.Eventually(t, func() bool { return b.Size() == 1 }, time.Second, 5*time.Millisecond)

	ok, err := b.IsBlacklisted(ctx, "long")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}

func TestInMemoryResetStore(t *testing.T) {
	s := NewInMemoryResetStore()
	ctx := context.Background()
	ref := identity.ResetTokenRef{TenantID: uuid.New(), UserID: uuid.New()}

	require.NoError(t, s.Save(ctx, "tok", ref, time.Minute))
	got, err := s.Consume(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, ref, got)

	_, err = s.Consume(ctx, "tok")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, s.Save(ctx, "expired", ref, -time.Second))
	_, err = s.Consume(ctx, "expired")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, s.Save(ctx, "gone", ref, time.Minute))
	require.NoError(t, s.Delete(ctx, "gone"))
	_, err = s.Consume(ctx, "gone")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
