package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers the outcome of client requests that carry an
// Idempotency-Key, so that a retried request replays the first result.
type IdempotencyStore interface {
	// Claim reserves key for ttl. It returns false when the key is already
	// claimed or completed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Complete stores the result reference for a claimed key
	Complete(ctx context.Context, key, result string, ttl time.Duration) error
	// Lookup returns the stored result. Found is true for completed keys only.
	Lookup(ctx context.Context, key string) (result string, found bool, err error)
	// Release drops a claim so the request can be retried
	Release(ctx context.Context, key string) error
	Close() error
}
