package cache

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/unimerch/backend/internal/domain/catalog"
)

// prefixScanWindow bounds how many top terms are scanned for prefix matches
const prefixScanWindow = 500

// RedisSearchTermStore ranks search terms in a sorted set per tenant
type RedisSearchTermStore struct {
	client redis.UniversalClient
}

// NewRedisSearchTermStore creates a search term store on an existing Redis client
func NewRedisSearchTermStore(client redis.UniversalClient) *RedisSearchTermStore {
	return &RedisSearchTermStore{client: client}
}

func searchKey(tenantID uuid.UUID) string {
	return "search:terms:" + tenantID.String()
}

func (s *RedisSearchTermStore) Record(ctx context.Context, tenantID uuid.UUID, term string) error {
	if err := s.client.ZIncrBy(ctx, searchKey(tenantID), 1, term).Err(); err != nil {
		return fmt.Errorf("failed to record search term: %w", err)
	}
	return nil
}

func (s *RedisSearchTermStore) Top(ctx context.Context, tenantID uuid.UUID, limit int) ([]catalog.SearchTerm, error) {
	zs, err := s.client.ZRevRangeWithScores(ctx, searchKey(tenantID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read search terms: %w", err)
	}
	terms := make([]catalog.SearchTerm, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		terms = append(terms, catalog.SearchTerm{Term: member, Count: int64(z.Score)})
	}
	return terms, nil
}

func (s *RedisSearchTermStore) WithPrefix(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) ([]string, error) {
	members, err := s.client.ZRevRange(ctx, searchKey(tenantID), 0, prefixScanWindow-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read search terms: %w", err)
	}
	return filterPrefix(members, prefix, limit), nil
}

var _ catalog.SearchTermStore = (*RedisSearchTermStore)(nil)

// InMemorySearchTermStore is a single-process SearchTermStore
type InMemorySearchTermStore struct {
	mu     sync.Mutex
	counts map[uuid.UUID]map[string]int64
}

// NewInMemorySearchTermStore creates an empty store
func NewInMemorySearchTermStore() *InMemorySearchTermStore {
	return &InMemorySearchTermStore{counts: make(map[uuid.UUID]map[string]int64)}
}

func (s *InMemorySearchTermStore) Record(_ context.Context, tenantID uuid.UUID, term string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.counts[tenantID]
	if !ok {
		m = make(map[string]int64)
		s.counts[tenantID] = m
	}
	m[term]++
	return nil
}

func (s *InMemorySearchTermStore) Top(_ context.Context, tenantID uuid.UUID, limit int) ([]catalog.SearchTerm, error) {
	ranked := s.ranked(tenantID)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *InMemorySearchTermStore) WithPrefix(_ context.Context, tenantID uuid.UUID, prefix string, limit int) ([]string, error) {
	ranked := s.ranked(tenantID)
	members := make([]string, len(ranked))
	for i, t := range ranked {
		members[i] = t.Term
	}
	return filterPrefix(members, prefix, limit), nil
}

// ranked orders by count descending, then term ascending
func (s *InMemorySearchTermStore) ranked(tenantID uuid.UUID) []catalog.SearchTerm {
	s.mu.Lock()
	terms := make([]catalog.SearchTerm, 0, len(s.counts[tenantID]))
	for term, n := range s.counts[tenantID] {
		terms = append(terms, catalog.SearchTerm{Term: term, Count: n})
	}
	s.mu.Unlock()

	slices.SortFunc(terms, func(a, b catalog.SearchTerm) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Term, b.Term)
	})
	return terms
}

var _ catalog.SearchTermStore = (*InMemorySearchTermStore)(nil)

func filterPrefix(members []string, prefix string, limit int) []string {
	prefix = strings.ToLower(prefix)
	out := make([]string, 0, limit)
	for _, m := range members {
		if len(out) == limit {
			break
		}
		if strings.HasPrefix(m, prefix) {
			out = append(out, m)
		}
	}
	return out
}
