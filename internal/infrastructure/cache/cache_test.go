package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/internal/infrastructure/config"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestInMemoryIdempotencyStore_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewInMemoryIdempotencyStore(time.Minute)
	defer s.Close()
	ctx := context.Background()

	ok, err := s.Claim(ctx, "k1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Claim(ctx, "k1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must fail")

	_, found, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found, "pending keys are not replayable")

	require.NoError(t, s.Complete(ctx, "k1", "order-1", time.Hour))
	result, found, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "order-1", result)

	require.NoError(t, s.Release(ctx, "k1"))
	ok, _ = s.Claim(ctx, "k1", time.Hour)
	assert.True(t, ok)
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewInMemoryIdempotencyStore(5 * time.Millisecond)
	ctx := context.Background()

	ok, _ := s.Claim(ctx, "short", time.Millisecond)
	require.True(t, ok)

	assert.Eventually(t, func() bool { return s.Size() == 0 }, time.Second, 5*time.Millisecond)

	ok, _ = s.Claim(ctx, "short", time.Hour)
	assert.True(t, ok)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestInMemorySearchTermStore(t *testing.T) {
	s := NewInMemorySearchTermStore()
	ctx := context.Background()
	tenant := uuid.New()

	for _, term := range []string{"hoodie", "hoodie", "hat", "hoodie", "hat", "mug"} {
		require.NoError(t, s.Record(ctx, tenant, term))
	}
	require.NoError(t, s.Record(ctx, uuid.New(), "other-tenant"))

	top, err := s.Top(ctx, tenant, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "hoodie", top[0].Term)
	assert.Equal(t, int64(3), top[0].Count)
	assert.Equal(t, "hat", top[1].Term)

	matches, err := s.WithPrefix(ctx, tenant, "H", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"hoodie", "hat"}, matches)

	matches, _ = s.WithPrefix(ctx, tenant, "h", 1)
	assert.Equal(t, []string{"hoodie"}, matches)
}

func TestConnect_Disabled(t *testing.T) {
	assert.Nil(t, Connect(context.Background(), config.RedisConfig{Enabled: false}, zap.NewNop()))
}

func TestConnect_Unreachable(t *testing.T) {
	client := Connect(context.Background(), config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}, zap.NewNop())
	assert.Nil(t, client)
}
