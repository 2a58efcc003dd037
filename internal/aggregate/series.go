package aggregate

import (
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tabula-cli/internal/table"
)

// Series is the aggregation of one value column.
type Series struct {
	Category string  `json:"category"`
	Value    string  `json:"value"`
	Points   []Point `json:"points"`
}

// Many aggregates several value columns against the same category column,
// each on its own goroutine (at most workers at a time). Series come back in
// the order of values; the first error wins.
func Many(t *table.Table, category string, values []string, workers int) ([]Series, error) {
	out := make([]Series, len(values))
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, v := range values {
		g.Go(func() error {
			pts, err := Aggregate(t, Request{Category: category, Value: v})
			if err != nil {
				return err
			}
			out[i] = Series{Category: category, Value: v, Points: pts}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
