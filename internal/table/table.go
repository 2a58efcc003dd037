// Package table defines the in-memory model shared by ingestion, storage and
// the query and aggregation engines.
package table

// ColumnType is the semantic type assigned to a column at ingestion.
type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeNumber  ColumnType = "number"
	TypeBoolean ColumnType = "boolean"
	TypeDate    ColumnType = "date"
)

// Valid reports whether t is one of the four known column types.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeDate:
		return true
	}
	return false
}

// Column is a named, typed, positionally indexed field.
type Column struct {
	Name  string     `json:"name"`
	Type  ColumnType `json:"type"`
	Index int        `json:"index"`
}

// Row maps column names to cells.
type Row map[string]Value

// Get returns the cell for name, Null when absent.
func (r Row) Get(name string) Value { return r[name] }

// Table is a schema-tagged set of uniform rows. Tables handed out by a store
// are shared and must be treated as read-only.
type Table struct {
	Columns     []Column `json:"columns"`
	Rows        []Row    `json:"-"`
	RowCount    int      `json:"row_count"`
	ColumnCount int      `json:"column_count"`
}

// New builds a table, fills every row with Null for columns it lacks, and
// caches the row and column counts.
func New(columns []Column, rows []Row) *Table {
	return Restore(columns, rows, len(rows), len(columns))
}

// Restore rebuilds a stored table. The counts are taken as recorded at
// creation rather than recomputed from rows and columns.
func Restore(columns []Column, rows []Row, rowCount, columnCount int) *Table {
	for _, r := range rows {
		for _, c := range columns {
			if _, ok := r[c.Name]; !ok {
				r[c.Name] = Null()
			}
		}
	}
	return &Table{
		Columns:     columns,
		Rows:        rows,
		RowCount:    rowCount,
		ColumnCount: columnCount,
	}
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Has reports whether the schema contains name.
func (t *Table) Has(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Names returns column names in index order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
