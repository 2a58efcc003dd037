package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/table"
)

func readCSV(path string, opt Options) ([][]table.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = delim

	var out [][]table.Value
	first := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		vals := make([]table.Value, len(rec))
		for i, cell := range rec {
			if first {
				// header cells stay text; a BOM on the first one is dropped
				if i == 0 {
					cell = strings.TrimPrefix(cell, "\ufeff")
				}
				vals[i] = table.Text(cell)
				continue
			}
			vals[i] = ParseCell(cell)
		}
		first = false
		out = append(out, vals)
	}
	return out, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
