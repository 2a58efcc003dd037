package table

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFillsMissingCellsAndCachesCounts(t *testing.T) {
	cols := []Column{{Name: "city", Type: TypeString, Index: 0}, {Name: "sales", Type: TypeNumber, Index: 1}}
	rows := []Row{
		{"city": Text("NY"), "sales": Number(10)},
		{"city": Text("LA")},
	}
	tbl := New(cols, rows)

	assert.Equal(t, 2, tbl.RowCount)
	assert.Equal(t, 2, tbl.ColumnCount)
	v, ok := tbl.Rows[1]["sales"]
	require.True(t, ok, "missing cell should be filled")
	assert.True(t, v.IsNull())

	// counts are cached, not derived
	tbl.Rows = tbl.Rows[:1]
	assert.Equal(t, 2, tbl.RowCount)

	assert.True(t, tbl.Has("city"))
	assert.False(t, tbl.Has("nope"))
	assert.Equal(t, []string{"city", "sales"}, tbl.Names())
}

func TestValueString(t *testing.T) {
	cases := []struct {
		name string
		in   Value
		want string
	}{
		{"null", Null(), ""},
		{"text", Text("Hello"), "Hello"},
		{"int", Number(42), "42"},
		{"float", Number(1.5), "1.5"},
		{"large", Number(1234567.25), "1234567.25"},
		{"huge", Number(1e21), "1e+21"},
		{"tiny", Number(1e-7), "1e-7"},
		{"tiny fraction", Number(-1.5e-10), "-1.5e-10"},
		{"subnormal", Number(2.5e-300), "2.5e-300"},
		{"huge fraction", Number(1.25e22), "1.25e+22"},
		{"bool", Bool(true), "true"},
		{"date", Date(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)), "2024-01-05"},
		{"timestamp", Date(time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)), "2024-01-05T10:30:00Z"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.in.String())
		})
	}
}

func TestNumberRejectsNonFinite(t *testing.T) {
	v := Number(math.Inf(1))
	assert.Equal(t, KindText, v.Kind())
}

func TestRowJSON(t *testing.T) {
	row := Row{
		"a": Text("x"),
		"b": Number(2.5),
		"c": Bool(false),
		"d": Null(),
		"e": Date(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
	}
	b, err := json.Marshal(row)
	require.NoError(t, err)

	var back Row
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, KindText, back["a"].Kind())
	f, ok := back["b"].Num()
	require.True(t, ok)
	assert.Equal(t, 2.5, f)
	assert.Equal(t, KindBool, back["c"].Kind())
	assert.True(t, back["d"].IsNull())
	assert.Equal(t, Text("2023-12-31"), back["e"])
}
