// Package infer assigns semantic column types to freshly ingested rows.
package infer

import (
	"regexp"
	"strings"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/table"
)

// DefaultSampleRows is how many leading rows vote on each column's type.
const DefaultSampleRows = 100

var isoDay = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

var dateLayouts = []string{
	time.RFC3339, time.RFC3339Nano, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000", "1/2/2006 15:04", "1/2/2006 15:04:05", "Jan 2, 2006",
	"2 Jan 2006", "Mon, 02 Jan 2006 15:04:05 MST",
}

// ParseDate tries the layouts commonly found in spreadsheet exports.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferType classifies a single cell. First matching rule wins:
// empty → string, number → number, bool → boolean, ISO-looking parseable
// date → date, anything else → string.
func InferType(v table.Value) table.ColumnType {
	switch v.Kind() {
	case table.KindNull:
		return table.TypeString
	case table.KindNumber:
		return table.TypeNumber
	case table.KindBool:
		return table.TypeBoolean
	case table.KindDate:
		return table.TypeDate
	}
	s := v.String()
	if s == "" {
		return table.TypeString
	}
	if _, ok := ParseDate(s); ok && isoDay.MatchString(s) {
		return table.TypeDate
	}
	return table.TypeString
}

// InferColumns builds the schema for header. The first sample rows vote per
// column, skipping empty cells; a type needs a strict majority of the votes
// or the column falls back to string. sample <= 0 is treated as 1, which
// reduces to classifying the first row alone.
func InferColumns(header []string, rows []table.Row, sample int) []table.Column {
	if sample <= 0 {
		sample = 1
	}
	if sample > len(rows) {
		sample = len(rows)
	}
	cols := make([]table.Column, len(header))
	for i, name := range header {
		votes := map[table.ColumnType]int{}
		total := 0
		for _, r := range rows[:sample] {
			v := r.Get(name)
			if v.IsNull() || v.String() == "" {
				continue
			}
			votes[InferType(v)]++
			total++
		}
		cols[i] = table.Column{Name: name, Type: majority(votes, total), Index: i}
	}
	return cols
}

func majority(votes map[table.ColumnType]int, total int) table.ColumnType {
	for t, n := range votes {
		if n*2 > total {
			return t
		}
	}
	return table.TypeString
}
