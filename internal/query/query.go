// Package query implements the search → sort → paginate pipeline applied to a
// stored table for every view request.
package query

import (
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/KaramelBytes/tabula-cli/internal/table"
)

const (
	DefaultPage  = 1
	DefaultLimit = 50
)

// Order is the sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Request describes one view over a table.
type Request struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	Search    string `json:"search"`
	SortBy    string `json:"sortBy"`
	SortOrder Order  `json:"sortOrder"`
}

// Pagination describes where a page sits in the filtered result.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalRows   int `json:"totalRows"`
	RowsPerPage int `json:"rowsPerPage"`
}

// Result is one page of rows plus its pagination metadata.
type Result struct {
	Rows       []table.Row `json:"rows"`
	Pagination Pagination  `json:"pagination"`
}

// Normalize clamps a request to values the pipeline can always serve:
// non-positive page becomes 1, non-positive limit becomes DefaultLimit and
// anything but desc sorts ascending. Large limits pass through unchanged.
func Normalize(req Request) Request {
	if req.Page < 1 {
		req.Page = DefaultPage
	}
	if req.Limit < 1 {
		req.Limit = DefaultLimit
	}
	if req.SortOrder != Desc {
		req.SortOrder = Asc
	}
	return req
}

// Run executes the full pipeline. The table is never modified.
func Run(t *table.Table, req Request) Result {
	req = Normalize(req)
	rows := Filter(t.Rows, req.Search)
	rows = Sort(t, rows, req.SortBy, req.SortOrder)
	page, p := Paginate(rows, req.Page, req.Limit)
	return Result{Rows: page, Pagination: p}
}

// Filter keeps rows where some cell's lowercase text contains the lowercase
// search string. Relative order is preserved. An empty search returns rows
// unchanged.
func Filter(rows []table.Row, search string) []table.Row {
	if search == "" {
		return rows
	}
	lower := cases.Lower(language.Und)
	needle := lower.String(search)
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		for _, v := range r {
			if v.IsNull() {
				continue
			}
			if strings.Contains(lower.String(v.String()), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Sort orders rows by column sortBy. Numbers compare numerically when both
// sides are numbers; everything else compares as lowercase text under English
// collation. The sort is stable and returns a new slice. Unknown or empty
// sortBy returns rows as is.
func Sort(t *table.Table, rows []table.Row, sortBy string, order Order) []table.Row {
	if sortBy == "" || !t.Has(sortBy) {
		return rows
	}
	lower := cases.Lower(language.Und)
	coll := collate.New(language.English)
	sign := 1
	if order == Desc {
		sign = -1
	}
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b table.Row) int {
		return sign * compare(a.Get(sortBy), b.Get(sortBy), lower, coll)
	})
	return out
}

func compare(a, b table.Value, lower cases.Caser, coll *collate.Collator) int {
	if x, ok := a.Num(); ok {
		if y, ok := b.Num(); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	}
	return coll.CompareString(lower.String(a.String()), lower.String(b.String()))
}

// Paginate returns the page-th slice of size limit together with pagination
// metadata. Pages past the end yield no rows. Callers must pass page >= 1 and
// limit >= 1; Normalize guarantees this.
func Paginate(rows []table.Row, page, limit int) ([]table.Row, Pagination) {
	total := len(rows)
	p := Pagination{
		CurrentPage: page,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		TotalRows:   total,
		RowsPerPage: limit,
	}
	if page > p.TotalPages {
		return []table.Row{}, p
	}
	start := (page - 1) * limit
	end := min(start+limit, total)
	return slices.Clone(rows[start:end]), p
}
