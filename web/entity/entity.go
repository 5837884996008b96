// Package entity defines the request forms and response envelopes of the askboard web layer.
package entity

import "math"

// Msg represents a standard API response message with success status, message text, and optional data object.
type Msg struct {
	Success bool   `json:"success"` // Indicates if the operation was successful
	Msg     string `json:"msg"`     // Response message text
	Obj     any    `json:"obj"`     // Optional data object
}

// Page is one page of a paginated listing. Pages are 1-based.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Page    int   `json:"page"`
	PerPage int   `json:"perPage"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasPrev bool  `json:"hasPrev"`
	HasNext bool  `json:"hasNext"`
}

// NormalizePage clamps a requested page number to the first page.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Offset is the number of rows to skip for page at perPage rows per page. Pages too far
// out to be addressed skip every row.
func Offset(page, perPage int) int {
	page = NormalizePage(page)
	if perPage <= 0 {
		return 0
	}
	if page-1 > math.MaxInt32/perPage {
		return math.MaxInt32
	}
	return (page - 1) * perPage
}

// NewPage builds the page envelope for items out of total rows.
func NewPage[T any](items []T, page, perPage int, total int64) *Page[T] {
	page = NormalizePage(page)
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasPrev: page > 1,
		HasNext: page < pages,
	}
}
