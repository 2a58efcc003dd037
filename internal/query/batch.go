package query

import (
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tabula-cli/internal/table"
)

// RunAll executes independent requests against the same table on at most
// workers goroutines. Results are returned in request order.
func RunAll(t *table.Table, reqs []Request, workers int) []Result {
	out := make([]Result, len(reqs))
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, req := range reqs {
		g.Go(func() error {
			out[i] = Run(t, req)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
