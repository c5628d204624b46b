package query

import "strconv"

// Page addresses one window of a result set. Number is 1-based.
type Page struct {
	Number  int `json:"page"`
	PerPage int `json:"per_page"`
}

// PageDefaults bounds what NewPage accepts.
type PageDefaults struct {
	PerPage    int
	MaxPerPage int
}

// DefaultPageDefaults matches the search form: ten rows per page.
var DefaultPageDefaults = PageDefaults{PerPage: 10, MaxPerPage: 500}

// NewPage parses raw page and per_page values the way the search form sends
// them. Anything unparsable or below 1 falls back to page 1 and the default
// page size; oversized pages are clamped to MaxPerPage.
func NewPage(rawPage, rawPerPage string, d PageDefaults) Page {
	if d.PerPage <= 0 {
		d.PerPage = DefaultPageDefaults.PerPage
	}
	if d.MaxPerPage < d.PerPage {
		d.MaxPerPage = d.PerPage
	}

	number, err := strconv.Atoi(rawPage)
	if err != nil || number < 1 {
		number = 1
	}

	perPage, err := strconv.Atoi(rawPerPage)
	if err != nil || perPage < 1 {
		perPage = d.PerPage
	}
	if perPage > d.MaxPerPage {
		perPage = d.MaxPerPage
	}

	return Page{Number: number, PerPage: perPage}
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.PerPage
}

// Pagination is the metadata rendered next to a result page.
type Pagination struct {
	TotalRecords int64 `json:"total_records"`
	Page         int   `json:"page"`
	PerPage      int   `json:"per_page"`
	TotalPages   int64 `json:"total_pages"`
}

// NewPagination computes pagination metadata for a total row count.
func NewPagination(total int64, p Page) Pagination {
	var pages int64
	if p.PerPage > 0 {
		pages = (total + int64(p.PerPage) - 1) / int64(p.PerPage)
	}
	return Pagination{
		TotalRecords: total,
		Page:         p.Number,
		PerPage:      p.PerPage,
		TotalPages:   pages,
	}
}

// HasPrevious reports whether a page before the current one exists.
func (p Pagination) HasPrevious() bool {
	return p.Page > 1
}

// HasNext reports whether a page after the current one exists.
func (p Pagination) HasNext() bool {
	return int64(p.Page) < p.TotalPages
}

// Previous is the previous page number, never below 1.
func (p Pagination) Previous() int {
	if p.Page <= 1 {
		return 1
	}
	return p.Page - 1
}

// Next is the next page number, never beyond the last page.
func (p Pagination) Next() int {
	if int64(p.Page) >= p.TotalPages {
		if p.TotalPages < 1 {
			return 1
		}
		return int(p.TotalPages)
	}
	return p.Page + 1
}
