package types

// This file describes WHAT is being cached: one page of a listing query.

// SortOrder is the direction a listing is sorted in.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

/*
Query is the descriptor of one logical listing query.

Every field takes part in deciding the result set, so every field
takes part in the cache key. Two queries with equal fields are
interchangeable for caching purposes.

The cache does NOT validate ranges (page >= 1, page size >= 1).
That is the job of whoever produces the query, or of the backing API.
*/
type Query struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder SortOrder
	Search    string
}

// Record is one row of a listing. The cache never looks inside it.
type Record = any

// Meta carries the pagination totals returned with a page.
type Meta struct {
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PaginatedResult is what the backing API returns for a Query.
type PaginatedResult struct {
	Data []Record `json:"data"`
	Meta Meta     `json:"meta"`
}
