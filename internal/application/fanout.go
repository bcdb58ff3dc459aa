package application

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEachLimit calls fn for every index in [0, n) with at most limit calls in
// flight. Once any call fails no further calls are started; calls already
// running keep the caller's context and finish. The first error is returned
// after every started call has returned.
func forEachLimit(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
