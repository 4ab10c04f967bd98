// Package pagination carries page requests from query strings to
// repositories and page results back to clients.
package pagination

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/pdfdesk/pkg/query"
)

// PageRequest selects one page of a list. Page is 1-based.
type PageRequest struct {
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Search   *string      `json:"search,omitempty"`
	Sort     []query.Sort `json:"-"`
}

// FromQuery reads page, page_size, search and sort from values and
// normalizes the result against cfg. Unparseable numbers fall back to the
// defaults.
func FromQuery(values url.Values, cfg Config) PageRequest {
	req := PageRequest{Sort: query.ParseSort(values.Get("sort"))}
	req.Page, _ = strconv.Atoi(values.Get("page"))
	req.PageSize, _ = strconv.Atoi(values.Get("page_size"))
	if s := values.Get("search"); s != "" {
		req.Search = &s
	}

	req.Normalize(cfg)
	return req
}

// Normalize clamps Page to at least 1 and PageSize into
// [1, cfg.MaxPageSize], substituting cfg.DefaultPageSize when unset.
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	r.PageSize = min(r.PageSize, cfg.MaxPageSize)
}

// Offset returns the number of rows before the page.
func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// PageResult is one page of T plus the totals needed to page further.
type PageResult[T any] struct {
	Data       []T  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// NewPageResult wraps data as page of pageSize out of total rows. Data is
// never nil and TotalPages is at least 1.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	if data == nil {
		data = []T{}
	}

	pages := 1
	if pageSize > 0 && total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
		HasMore:    page < pages,
	}
}
