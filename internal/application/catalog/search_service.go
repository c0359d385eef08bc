package catalog

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultSuggestionLimit = 10
	maxSuggestionLimit     = 20
	defaultPopularLimit    = 10
	maxPopularLimit        = 50
	maxTermLength          = 100
)

// SearchService runs product searches and tracks what shoppers search for
type SearchService struct {
	products    *ProductService
	productRepo catalog.ProductRepository
	terms       catalog.SearchTermStore
	logger      *zap.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(products *ProductService, productRepo catalog.ProductRepository, terms catalog.SearchTermStore, logger *zap.Logger) *SearchService {
	return &SearchService{
		products:    products,
		productRepo: productRepo,
		terms:       terms,
		logger:      logger,
	}
}

// SearchProducts lists products like ProductService.List and records a non-empty keyword
func (s *SearchService) SearchProducts(ctx context.Context, tenantID uuid.UUID, actor *identity.Actor, input ListProductsInput) (shared.Page[ProductDTO], error) {
	input.Keyword = strings.TrimSpace(input.Keyword)
	page, err := s.products.List(ctx, tenantID, actor, input)
	if err != nil {
		return page, err
	}
	if input.Keyword != "" {
		if err := s.LogTerm(ctx, tenantID, input.Keyword); err != nil {
			s.logger.Debug("Search term not recorded", zap.Error(err))
		}
	}
	return page, nil
}

// LogTerm records a search phrase
func (s *SearchService) LogTerm(ctx context.Context, tenantID uuid.UUID, term string) error {
	term = NormalizeTerm(term)
	if n := utf8.RuneCountInString(term); n < 1 || n > maxTermLength {
		return shared.NewDomainError("INVALID_TERM", "Search term must be between 1 and 100 characters")
	}
	return s.terms.Record(ctx, tenantID, term)
}

// Suggestions merges product names and popular searches that start with q
func (s *SearchService) Suggestions(ctx context.Context, tenantID uuid.UUID, q string, limit int) ([]string, error) {
	if limit < 1 {
		limit = defaultSuggestionLimit
	}
	limit = min(limit, maxSuggestionLimit)

	prefix := strings.TrimSpace(q)
	if prefix == "" {
		return []string{}, nil
	}

	names, err := s.productRepo.SuggestNames(ctx, tenantID, prefix, limit)
	if err != nil {
		return nil, err
	}
	popular, err := s.terms.WithPrefix(ctx, tenantID, NormalizeTerm(prefix), limit)
	if err != nil {
		// names alone are still useful
		s.logger.Warn("Failed to load popular search terms", zap.Error(err))
	}

	seen := make(map[string]struct{}, limit)
	out := make([]string, 0, limit)
	for _, candidate := range append(names, popular...) {
		key := strings.ToLower(candidate)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, candidate)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Popular returns the most searched terms
func (s *SearchService) Popular(ctx context.Context, tenantID uuid.UUID, limit int) ([]catalog.SearchTerm, error) {
	if limit < 1 {
		limit = defaultPopularLimit
	}
	terms, err := s.terms.Top(ctx, tenantID, min(limit, maxPopularLimit))
	if err != nil {
		return nil, err
	}
	if terms == nil {
		terms = []catalog.SearchTerm{}
	}
	return terms, nil
}

// NormalizeTerm lower-cases and trims a search phrase, collapsing inner whitespace
func NormalizeTerm(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}
