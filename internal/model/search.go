package model

import "github.com/shopspring/decimal"

// SearchFilter narrows a product search.
type SearchFilter struct {
	Query    string
	Category string // category slug
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
	Ordering string
	Limit    int
}

// Suggestion match types, in priority order.
const (
	MatchExact      = "exact"
	MatchStartsWith = "starts_with"
	MatchContains   = "contains"
)

// Suggestion is an autocomplete entry for the search box.
type Suggestion struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	MatchType string `json:"matchType"`
}

// SearchResult is a page of matching products.
type SearchResult struct {
	Query    string    `json:"query"`
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Cached   bool      `json:"cached"`
}

// PopularSearch is a normalized query and the number of times it was run.
type PopularSearch struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}
