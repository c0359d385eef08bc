package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist invalidates JWTs before they expire
type TokenBlacklist interface {
	// AddToBlacklist revokes one token by JTI until ttl elapses
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	// AddUserTokensToBlacklist revokes every token issued to the user up to now
	AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error
	IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error)
	Close() error
}

const blacklistPrefix = "token:blacklist:"

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client redis.UniversalClient
}

// NewRedisTokenBlacklist creates a token blacklist on an existing Redis client
func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

// AddToBlacklist adds a token's JTI to the blacklist
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, blacklistPrefix+"jti:"+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token's JTI is in the blacklist
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistPrefix+"jti:"+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return n > 0, nil
}

// AddUserTokensToBlacklist stores the invalidation time in Unix seconds
func (b *RedisTokenBlacklist) AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error {
	now := time.Now().Unix()
	if err := b.client.Set(ctx, blacklistPrefix+"user:"+userID, now, ttl).Err(); err != nil {
		return fmt.Errorf("failed to invalidate user tokens: %w", err)
	}
	return nil
}

// IsUserTokenInvalidated checks if a token was issued before the user's invalidation time
func (b *RedisTokenBlacklist) IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, blacklistPrefix+"user:"+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user token invalidation: %w", err)
	}
	invalidatedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp: %w", err)
	}
	return issuedBefore(tokenIssuedAt, invalidatedAt), nil
}

// Close is a no-op; the shared client is closed by its owner
func (b *RedisTokenBlacklist) Close() error { return nil }

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist is a single-process TokenBlacklist. A background
// goroutine evicts expired entries until Close is called.
type InMemoryTokenBlacklist struct {
	mu            sync.Mutex
	jtis          map[string]time.Time
	invalidatedAt map[string]userInvalidation
	stop          chan struct{}
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

type userInvalidation struct {
	at        time.Time
	expiresAt time.Time
}

// NewInMemoryTokenBlacklist creates the blacklist and starts its cleanup loop
func NewInMemoryTokenBlacklist(cleanupInterval time.Duration) *InMemoryTokenBlacklist {
	b := &InMemoryTokenBlacklist{
		jtis:          make(map[string]time.Time),
		invalidatedAt: make(map[string]userInvalidation),
		stop:          make(chan struct{}),
	}
	b.wg.Add(1)
	go b.cleanupLoop(cleanupInterval)
	return b
}

func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = time.Now().Add(ttl)
	return nil
}

func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiration, ok := b.jtis[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiration) {
		delete(b.jtis, jti)
		return false, nil
	}
	return true, nil
}

func (b *InMemoryTokenBlacklist) AddUserTokensToBlacklist(_ context.Context, userID string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	b.invalidatedAt[userID] = userInvalidation{at: now, expiresAt: now.Add(ttl)}
	return nil
}

func (b *InMemoryTokenBlacklist) IsUserTokenInvalidated(_ context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	inv, ok := b.invalidatedAt[userID]
	if !ok || time.Now().After(inv.expiresAt) {
		return false, nil
	}
	return issuedBefore(tokenIssuedAt, inv.at.Unix()), nil
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (b *InMemoryTokenBlacklist) Close() error {
	b.closeOnce.Do(func() {
		close(b.stop)
		b.wg.Wait()
	})
	return nil
}

// Size returns the number of JTI and user entries, swept or not
func (b *InMemoryTokenBlacklist) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.jtis) + len(b.invalidatedAt)
}

func (b *InMemoryTokenBlacklist) cleanupLoop(interval time.Duration) {
	defer b.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.sweep()
		}
	}
}

func (b *InMemoryTokenBlacklist) sweep() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	for jti, exp := range b.jtis {
		if now.After(exp) {
			delete(b.jtis, jti)
		}
	}
	for userID, inv := range b.invalidatedAt {
		if now.After(inv.expiresAt) {
			delete(b.invalidatedAt, userID)
		}
	}
}

// issuedBefore compares at second precision, the precision of the iat claim.
// Tokens issued within the invalidation second stay valid so a login that
// immediately follows a password reset succeeds.
func issuedBefore(issuedAt time.Time, invalidatedAt int64) bool {
	return issuedAt.Unix() < invalidatedAt
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
