package repository

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SearchOrderings maps the public ordering names to SQL.
var SearchOrderings = map[string]string{
	"-created_at": "p.created_at DESC",
	"created_at":  "p.created_at ASC",
	"-price":      "p.price DESC",
	"price":       "p.price ASC",
	"-title":      "p.title DESC",
	"title":       "p.title ASC",
}

// RelevanceOrdering ranks query matches: exact title, title contains, description contains.
const RelevanceOrdering = "relevance"

const searchQuery = `
	SELECT p.id,
	       (CASE WHEN $1 <> '' AND LOWER(p.title) = $1 THEN 100 ELSE 0 END
	      + CASE WHEN $1 <> '' AND p.title ILIKE $2 THEN 50 ELSE 0 END
	      + CASE WHEN $1 <> '' AND p.description ILIKE $2 THEN 10 ELSE 0 END) AS relevance
	FROM products p
	JOIN categories c ON c.id = p.category_id
	WHERE p.is_published
	  AND (cardinality($3::text[]) = 0 OR EXISTS (
	        SELECT 1 FROM unnest($3::text[]) AS w(pattern)
	        WHERE p.title ILIKE w.pattern
	           OR p.description ILIKE w.pattern
	           OR EXISTS (
	                SELECT 1 FROM product_tags pt JOIN tags t ON t.id = pt.tag_id
	                WHERE pt.product_id = p.id AND t.name ILIKE w.pattern)))
	  AND ($4 = '' OR c.slug = $4)
	  AND ($5::numeric IS NULL OR p.price >= $5::numeric)
	  AND ($6::numeric IS NULL OR p.price <= $6::numeric)
	ORDER BY %s
	LIMIT $7
`

// searchRepository implements the SearchRepository interface using PostgreSQL.
type searchRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSearchRepository creates a new PostgreSQL-backed search repository.
func NewSearchRepository(pool *pgxpool.Pool, logger zerolog.Logger) SearchRepository {
	return &searchRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "search").Logger(),
	}
}

// Search returns the IDs of matching published products in ranking order.
// filter.Query is expected to be trimmed; words are matched case-insensitively.
func (r *searchRepository) Search(ctx context.Context, filter model.SearchFilter) ([]string, error) {
	query := strings.ToLower(filter.Query)

	patterns := make([]string, 0)
	for _, word := range strings.Fields(query) {
		patterns = append(patterns, containsPattern(word))
	}

	orderBy := "p.created_at DESC"
	if sql, ok := SearchOrderings[filter.Ordering]; ok {
		orderBy = sql + ", p.created_at DESC"
	} else if query != "" {
		orderBy = "relevance DESC, p.is_trending DESC, p.created_at DESC"
	}
	orderBy += ", p.id"

	rows, err := r.pool.Query(ctx, fmt.Sprintf(searchQuery, orderBy),
		query, containsPattern(query), patterns, filter.Category, filter.MinPrice, filter.MaxPrice, filter.Limit)
	if err != nil {
		r.logger.Error().Err(err).Str("query", filter.Query).Msg("failed to search products")
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		var relevance int
		if err := rows.Scan(&id, &relevance); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan search row")
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating search rows")
		return nil, fmt.Errorf("error iterating search rows: %w", err)
	}

	return ids, nil
}

// Suggestions returns published title matches of one kind, skipping excluded slugs.
func (r *searchRepository) Suggestions(ctx context.Context, query, matchType string, exclude []string, limit int) ([]model.Suggestion, error) {
	query = strings.ToLower(query)

	var condition, arg string
	switch matchType {
	case model.MatchExact:
		condition, arg = "LOWER(title) = $1", query
	case model.MatchStartsWith:
		condition, arg = "title ILIKE $1", escapeLike(query)+"%"
	case model.MatchContains:
		condition, arg = "title ILIKE $1", containsPattern(query)
	default:
		return nil, fmt.Errorf("unknown match type %q", matchType)
	}

	if exclude == nil {
		exclude = []string{}
	}

	sql := `
		SELECT title, slug
		FROM products
		WHERE is_published AND ` + condition + ` AND NOT (slug = ANY($2))
		ORDER BY is_trending DESC, title
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, sql, arg, exclude, limit)
	if err != nil {
		r.logger.Error().Err(err).Str("query", query).Str("match_type", matchType).Msg("failed to query suggestions")
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := make([]model.Suggestion, 0)
	for rows.Next() {
		s := model.Suggestion{MatchType: matchType}
		if err := rows.Scan(&s.Title, &s.Slug); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan suggestion row")
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestions: %w", err)
	}

	return suggestions, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}
