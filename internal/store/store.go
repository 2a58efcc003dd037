// Package store persists uploaded datasets: schema metadata plus the typed rows.
package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/table"
)

// ErrNotFound is returned for an id with no stored dataset.
var ErrNotFound = errors.New("dataset not found")

// Dataset is one uploaded file. Table is loaded on Get and is never part of
// the metadata document; callers must treat it as read-only.
type Dataset struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	FileName    string         `json:"file_name"`
	FileSize    int64          `json:"file_size"`
	Columns     []table.Column `json:"columns"`
	RowCount    int            `json:"row_count"`
	ColumnCount int            `json:"column_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Table *table.Table `json:"-"`
}

// Store is the dataset persistence boundary.
type Store interface {
	// Create assigns an id when empty, stamps timestamps and persists d.
	Create(ctx context.Context, d *Dataset) error
	Get(ctx context.Context, id string) (*Dataset, error)
	// List returns metadata only (Table is nil), newest first.
	List(ctx context.Context) ([]Dataset, error)
	Delete(ctx context.Context, id string) error
}

// prepare fills derived metadata from the attached table.
func prepare(d *Dataset, id string, now time.Time) error {
	if d.Table == nil {
		return errors.New("dataset has no table")
	}
	if d.ID == "" {
		d.ID = id
	}
	d.Columns = d.Table.Columns
	d.RowCount = d.Table.RowCount
	d.ColumnCount = d.Table.ColumnCount
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	return nil
}

func sortNewestFirst(ds []Dataset) {
	slices.SortFunc(ds, func(a, b Dataset) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
