package application

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// sharedDo runs fn once per key across concurrent callers. fn receives a
// context detached from the caller's cancellation, so a caller that gives up
// does not fail the others waiting on the same key. Each caller still stops
// waiting as soon as its own ctx is done.
func sharedDo(ctx context.Context, g *singleflight.Group, key string, fn func(ctx context.Context) (any, error)) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	detached := context.WithoutCancel(ctx)
	ch := g.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	}
}
