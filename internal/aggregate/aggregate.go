// Package aggregate groups rows by a categorical column and reduces a numeric
// column to its per-group mean for chart rendering.
package aggregate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/tabula-cli/internal/table"
)

// MaxPoints caps the number of groups returned so a chart stays readable.
const MaxPoints = 20

var (
	// ErrUnknownColumn is matched by ColumnError when a requested column is
	// not part of the table schema.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrColumnType reports a column whose type cannot play the requested role.
	ErrColumnType = errors.New("column type not allowed")
)

// ColumnError names the offending column and the role it was requested for.
type ColumnError struct {
	Column string
	Role   string // "category" or "value"
	Err    error
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s column %q: %v", e.Role, e.Column, e.Err)
}

func (e *ColumnError) Unwrap() error { return e.Err }

// Request selects the grouping column and the measured column.
type Request struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

// Point is one bar/slice of a chart.
type Point struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

type acc struct {
	key   string
	sum   decimal.Decimal
	count int64
}

// Aggregate scans the table once, averaging Value per distinct Category text
// in first-seen order. Cells whose value does not parse as a number are
// skipped but still register their category; a category with no numeric
// cells reports 0. At most MaxPoints groups are returned.
func Aggregate(t *table.Table, req Request) ([]Point, error) {
	if !t.Has(req.Category) {
		return nil, &ColumnError{Column: req.Category, Role: "category", Err: ErrUnknownColumn}
	}
	if !t.Has(req.Value) {
		return nil, &ColumnError{Column: req.Value, Role: "value", Err: ErrUnknownColumn}
	}

	index := map[string]int{}
	var groups []*acc
	for _, r := range t.Rows {
		key := r.Get(req.Category).String()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, &acc{key: key})
		}
		if f, ok := ParseFloat(r.Get(req.Value)); ok {
			g := groups[i]
			g.sum = g.sum.Add(decimal.NewFromFloat(f))
			g.count++
		}
	}

	n := min(len(groups), MaxPoints)
	out := make([]Point, 0, n)
	for _, g := range groups[:n] {
		p := Point{Category: g.key}
		if g.count > 0 {
			p.Value = g.sum.InexactFloat64() / float64(g.count)
		}
		out = append(out, p)
	}
	return out, nil
}

// CheckTypes verifies the category column is a string column and the value
// column is numeric. Aggregate itself does not enforce this; callers that
// expose column pickers should.
func CheckTypes(t *table.Table, req Request) error {
	c, ok := t.Column(req.Category)
	if !ok {
		return &ColumnError{Column: req.Category, Role: "category", Err: ErrUnknownColumn}
	}
	if c.Type != table.TypeString {
		return &ColumnError{Column: req.Category, Role: "category", Err: fmt.Errorf("%w: %s, want string", ErrColumnType, c.Type)}
	}
	v, ok := t.Column(req.Value)
	if !ok {
		return &ColumnError{Column: req.Value, Role: "value", Err: ErrUnknownColumn}
	}
	if v.Type != table.TypeNumber {
		return &ColumnError{Column: req.Value, Role: "value", Err: fmt.Errorf("%w: %s, want number", ErrColumnType, v.Type)}
	}
	return nil
}

var floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseFloat reads a number from a cell. Numbers pass through; text yields
// its longest leading decimal literal ("12.5 kg" → 12.5). Null, booleans and
// text without a leading number do not parse.
func ParseFloat(v table.Value) (float64, bool) {
	if f, ok := v.Num(); ok {
		return f, true
	}
	if v.Kind() != table.KindText && v.Kind() != table.KindDate {
		return 0, false
	}
	m := floatPrefix.FindString(strings.TrimLeftFunc(v.String(), unicode.IsSpace))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
