// Package pagination holds the shared page/per-page parsing and result
// types used by repositories and handlers.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Params is a validated page request.
type Params struct {
	Page     int
	PageSize int
}

// DefaultParams returns page 1 with the default size.
func DefaultParams() Params {
	return Params{Page: DefaultPage, PageSize: DefaultPageSize}
}

// Normalize clamps out-of-range values instead of erroring: page floors at
// 1, page size floors at 1 and caps at MaxPageSize, zero means default.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the zero-based row offset for SQL and search queries.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// FromRequest parses page and page_size query parameters, applying
// defaults and the cap.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.Page = n
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.PageSize = n
		}
	}
	return p.Normalize()
}

// Result is a page of items plus totals.
type Result[T any] struct {
	Items      []T
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// NewResult computes total pages with ceiling division.
func NewResult[T any](items []T, total int64, p Params) Result[T] {
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return Result[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
	}
}
