// Package ingest turns uploaded spreadsheet files into header + typed rows.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/table"
)

var (
	// ErrEmpty is returned when a file has no data rows to infer a schema from.
	ErrEmpty = errors.New("the uploaded file is empty")
	// ErrUnsupported indicates a file extension with no reader.
	ErrUnsupported = errors.New("unsupported file format")
)

// Options controls how a file is read.
type Options struct {
	// Delimiter for CSV. If 0, ',' for .csv and '\t' for .tsv.
	Delimiter rune
	// SheetName selects an XLSX sheet by name; SheetIndex (1-based) is used
	// when SheetName is empty. Both empty means the first sheet.
	SheetName  string
	SheetIndex int
	// MaxRows limits rows kept; 0 means unlimited.
	MaxRows int
}

// Sheet is the parsed first table of an uploaded file.
type Sheet struct {
	Header   []string
	Rows     []table.Row
	FileName string
	FileSize int64
	// Total counts data rows seen, including those dropped by MaxRows.
	Total    int
	Warnings []string
}

// Supported reports whether a file name has a reader.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".xlsx":
		return true
	}
	return false
}

// ReadFile selects a reader by extension and returns the parsed sheet.
func ReadFile(path string, opt Options) (*Sheet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	var records [][]table.Value
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		records, err = readCSV(path, opt)
	case ".xlsx":
		records, err = readXLSX(path, opt.SheetName, opt.SheetIndex)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
	}
	if err != nil {
		return nil, err
	}
	sh, err := build(records, opt.MaxRows)
	if err != nil {
		return nil, err
	}
	sh.FileName = filepath.Base(path)
	sh.FileSize = info.Size()
	return sh, nil
}

// build treats the first record as the header and the rest as data.
func build(records [][]table.Value, maxRows int) (*Sheet, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	header := normalizeHeader(records[0])
	sh := &Sheet{Header: header}
	if maxRows <= 0 {
		maxRows = int(^uint(0) >> 1)
	}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		sh.Total++
		if len(sh.Rows) >= maxRows {
			continue
		}
		row := make(table.Row, len(header))
		for j, name := range header {
			if j < len(rec) {
				row[name] = rec[j]
			} else {
				row[name] = table.Null()
			}
		}
		sh.Rows = append(sh.Rows, row)
	}
	if len(sh.Rows) == 0 {
		return nil, ErrEmpty
	}
	if len(sh.Rows) < sh.Total {
		sh.Warnings = append(sh.Warnings, fmt.Sprintf("kept only %d/%d rows due to max rows", len(sh.Rows), sh.Total))
	}
	return sh, nil
}

// normalizeHeader names blank headers __EMPTY, __EMPTY_1, … and suffixes
// repeats with _1, _2, … so every column name is unique.
func normalizeHeader(rec []table.Value) []string {
	out := make([]string, len(rec))
	seen := map[string]bool{}
	for i, v := range rec {
		base := strings.TrimSpace(v.String())
		if base == "" {
			base = "__EMPTY"
		}
		name := base
		for n := 1; seen[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

func blank(rec []table.Value) bool {
	for _, v := range rec {
		if !v.IsNull() && v.String() != "" {
			return false
		}
	}
	return true
}

// ParseCell types a raw text cell: empty → Null, true/false → Bool,
// finite decimal → Number, otherwise Text.
func ParseCell(raw string) table.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return table.Null()
	}
	switch strings.ToLower(s) {
	case "true":
		return table.Bool(true)
	case "false":
		return table.Bool(false)
	}
	if looksNumeric(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return table.Number(f)
		}
	}
	return table.Text(raw)
}

// looksNumeric rejects forms ParseFloat accepts but spreadsheets treat as
// text (Inf, NaN, hex, underscores).
func looksNumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.', r == '-', r == '+', r == 'e', r == 'E':
		default:
			return false
		}
	}
	return true
}
