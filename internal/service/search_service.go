package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	minQueryLength         = 2
	maxCachedResults       = 100
	defaultSearchLimit     = 20
	defaultSuggestionLimit = 5
	maxSuggestionLimit     = 20
)

var suggestionOrder = []string{model.MatchExact, model.MatchStartsWith, model.MatchContains}

// searchService implements SearchService with an expiring LRU in front of the database.
type searchService struct {
	searchRepo  repository.SearchRepository
	productRepo repository.ProductRepository
	results     *expirable.LRU[string, []string]
	suggestions *expirable.LRU[string, []model.Suggestion]
	metrics     *metrics.Metrics
	logger      zerolog.Logger

	mu      sync.Mutex
	popular map[string]int64
}

// NewSearchService creates a new search service.
func NewSearchService(
	searchRepo repository.SearchRepository,
	productRepo repository.ProductRepository,
	cfg config.SearchConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) SearchService {
	return &searchService{
		searchRepo:  searchRepo,
		productRepo: productRepo,
		results:     expirable.NewLRU[string, []string](cfg.CacheSize, nil, cfg.CacheTTL),
		suggestions: expirable.NewLRU[string, []model.Suggestion](cfg.CacheSize, nil, cfg.CacheTTL),
		metrics:     m,
		logger:      logger.With().Str("service", "search").Logger(),
		popular:     make(map[string]int64),
	}
}

// normalizeQuery trims and collapses whitespace.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

func nullDecimalKey(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// cacheKey hashes the normalized query and filters. Limit is excluded: the
// cache always holds the full ranked id list.
func cacheKey(f model.SearchFilter) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%s",
		strings.ToLower(f.Query), f.Category, nullDecimalKey(f.MinPrice), nullDecimalKey(f.MaxPrice), f.Ordering)))
	return hex.EncodeToString(sum[:])
}

// Search returns published products matching the filter. An empty query browses
// the catalogue; a query shorter than two characters matches nothing.
func (s *searchService) Search(ctx context.Context, filter model.SearchFilter) (*model.SearchResult, error) {
	filter.Query = normalizeQuery(filter.Query)
	filter.Category = strings.TrimSpace(filter.Category)
	if _, ok := repository.SearchOrderings[filter.Ordering]; !ok {
		filter.Ordering = ""
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxCachedResults {
		limit = maxCachedResults
	}

	result := &model.SearchResult{Query: filter.Query, Products: []model.Product{}}
	if filter.Query != "" && utf8.RuneCountInString(filter.Query) < minQueryLength {
		return result, nil
	}
	if filter.Query != "" {
		s.track(filter.Query)
	}

	key := cacheKey(filter)
	ids, hit := s.results.Get(key)
	s.metrics.SearchCache("search", hit)

	if !hit {
		query := filter
		query.Limit = maxCachedResults

		var err error
		ids, err = s.searchRepo.Search(ctx, query)
		if err != nil {
			s.logger.Error().Err(err).Str("query", filter.Query).Msg("search failed")
			return nil, fmt.Errorf("failed to search products: %w", err)
		}
		s.results.Add(key, ids)
	}

	result.Total = len(ids)
	result.Cached = hit

	page := ids
	if len(page) > limit {
		page = page[:limit]
	}
	if len(page) == 0 {
		return result, nil
	}

	products, err := s.productRepo.GetByIDs(ctx, page)
	if err != nil {
		s.logger.Error().Err(err).Int("count", len(page)).Msg("failed to load search results")
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	result.Products = orderByIDs(products, page)
	return result, nil
}

// orderByIDs returns products in the order of ids, skipping ids that are
// no longer published.
func orderByIDs(products []model.Product, ids []string) []model.Product {
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	ordered := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && p.IsPublished {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// Suggestions returns up to limit titles: exact matches first, then prefix
// matches, then substring matches, without repeats.
func (s *searchService) Suggestions(ctx context.Context, query string, limit int) ([]model.Suggestion, error) {
	query = strings.ToLower(normalizeQuery(query))
	if utf8.RuneCountInString(query) < minQueryLength {
		return []model.Suggestion{}, nil
	}

	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	if limit > maxSuggestionLimit {
		limit = maxSuggestionLimit
	}

	key := fmt.Sprintf("%s\x00%d", query, limit)
	if cached, ok := s.suggestions.Get(key); ok {
		s.metrics.SearchCache("suggestions", true)
		return cached, nil
	}
	s.metrics.SearchCache("suggestions", false)

	suggestions := make([]model.Suggestion, 0, limit)
	seen := make([]string, 0, limit)

	for _, matchType := range suggestionOrder {
		if len(suggestions) >= limit {
			break
		}

		found, err := s.searchRepo.Suggestions(ctx, query, matchType, seen, limit-len(suggestions))
		if err != nil {
			s.logger.Error().Err(err).Str("query", query).Str("match_type", matchType).Msg("suggestions failed")
			return nil, fmt.Errorf("failed to get suggestions: %w", err)
		}

		for _, sg := range found {
			suggestions = append(suggestions, sg)
			seen = append(seen, sg.Slug)
		}
	}

	s.suggestions.Add(key, suggestions)
	return suggestions, nil
}

func (s *searchService) track(query string) {
	s.mu.Lock()
	s.popular[strings.ToLower(query)]++
	s.mu.Unlock()
}

// PopularSearches returns the most frequent queries since start-up, most
// frequent first.
func (s *searchService) PopularSearches(limit int) []model.PopularSearch {
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	popular := make([]model.PopularSearch, 0, len(s.popular))
	for q, n := range s.popular {
		popular = append(popular, model.PopularSearch{Query: q, Count: n})
	}
	s.mu.Unlock()

	sort.Slice(popular, func(i, j int) bool {
		if popular[i].Count != popular[j].Count {
			return popular[i].Count > popular[j].Count
		}
		return popular[i].Query < popular[j].Query
	})

	if len(popular) > limit {
		popular = popular[:limit]
	}
	return popular
}
