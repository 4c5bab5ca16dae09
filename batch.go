package qalsh

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchKNN runs KNN for each query concurrently, bounded by the index's
// configured background-worker budget (see WithResourceConfig), and
// returns one Result per query in the same order. If any query fails, the
// context of queries still waiting for a worker slot is canceled (queries
// already running are not interrupted) and the first error is returned
// with a nil result slice.
func (idx *Index) BatchKNN(ctx context.Context, queries [][]float32, k int) ([]Result, error) {
	results := make([]Result, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := idx.resourceCtl.AcquireBackground(gctx); err != nil {
				return err
			}
			defer idx.resourceCtl.ReleaseBackground()

			r, err := idx.KNN(q, k)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
