package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
)

const resetPrefix = "auth:reset:"

// RedisResetStore keeps password reset tokens in Redis
type RedisResetStore struct {
	client redis.UniversalClient
}

// NewRedisResetStore creates a reset token store on an existing Redis client
func NewRedisResetStore(client redis.UniversalClient) *RedisResetStore {
	return &RedisResetStore{client: client}
}

func (s *RedisResetStore) Save(ctx context.Context, token string, ref identity.ResetTokenRef, ttl time.Duration) error {
	payload, err := json.Marshal(ref)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, resetPrefix+token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}
	return nil
}

// Consume uses GETDEL so a token can only be redeemed once
func (s *RedisResetStore) Consume(ctx context.Context, token string) (identity.ResetTokenRef, error) {
	var ref identity.ResetTokenRef
	raw, err := s.client.GetDel(ctx, resetPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return ref, shared.NotFound("Reset token")
	}
	if err != nil {
		return ref, fmt.Errorf("failed to read reset token: %w", err)
	}
	if err := json.Unmarshal(raw, &ref); err != nil {
		return ref, fmt.Errorf("failed to decode reset token: %w", err)
	}
	return ref, nil
}

func (s *RedisResetStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, resetPrefix+token).Err()
}

var _ identity.PasswordResetStore = (*RedisResetStore)(nil)

// InMemoryResetStore is a single-process PasswordResetStore
type InMemoryResetStore struct {
	mu      sync.Mutex
	entries map[string]resetEntry
}

type resetEntry struct {
	ref       identity.ResetTokenRef
	expiresAt time.Time
}

// NewInMemoryResetStore creates an in-memory reset token store
func NewInMemoryResetStore() *InMemoryResetStore {
	return &InMemoryResetStore{entries: make(map[string]resetEntry)}
}

func (s *InMemoryResetStore) Save(_ context.Context, token string, ref identity.ResetTokenRef, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = resetEntry{ref: ref, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *InMemoryResetStore) Consume(_ context.Context, token string) (identity.ResetTokenRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	delete(s.entries, token)
	if !ok || time.Now().After(e.expiresAt) {
		return identity.ResetTokenRef{}, shared.NotFound("Reset token")
	}
	return e.ref, nil
}

func (s *InMemoryResetStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}

var _ identity.PasswordResetStore = (*InMemoryResetStore)(nil)
