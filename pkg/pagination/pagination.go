package pagination

import (
	"net/http"
	"strconv"
)

// Limits applied by FromRequest.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params selects one page of a listing. Page is 1-based.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// DefaultParams returns the first page at the default size.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// Offset is the index of the first item on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// normalized replaces out-of-range values: a missing or non-positive page
// becomes 1, a missing size the default, and a size above MaxPerPage is
// clamped to it.
func (p Params) normalized() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PerPage < 1:
		p.PerPage = DefaultPerPage
	case p.PerPage > MaxPerPage:
		p.PerPage = MaxPerPage
	}
	return p
}

// FromRequest reads ?page= and ?per_page=. Unparseable values fall back to
// the defaults.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return Params{Page: page, PerPage: perPage}.normalized()
}

// Result is one page of T plus the totals a client needs to navigate.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Paginate cuts one page out of an in-memory slice. Pages past the end
// yield an empty Data slice, never nil.
func Paginate[T any](items []T, params Params) Result[T] {
	params = params.normalized()
	total := len(items)
	pages := (total + params.PerPage - 1) / params.PerPage

	start := min(params.Offset(), total)
	end := min(start+params.PerPage, total)
	data := make([]T, end-start)
	copy(data, items[start:end])

	return Result[T]{
		Data:       data,
		TotalCount: total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: pages,
		HasNext:    params.Page < pages,
		HasPrev:    params.Page > 1,
	}
}
