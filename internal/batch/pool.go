package batch

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

type indexed[R any] struct {
	index  int
	result R
}

// Run processes items with at most workers concurrent calls to work and
// passes every result to emit in input order. Calls to work must not share
// mutable state; emit runs on a single goroutine. The first error from work or
// emit cancels the remaining items and is returned. A workers value below 1
// uses GOMAXPROCS.
func Run[T, R any](ctx context.Context, items []T, workers int, work func(ctx context.Context, item T) (R, error), emit func(item T, result R) error) error {
	if len(items) == 0 {
		return ctx.Err()
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(items))

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	results := make(chan indexed[R], workers)

	g.Go(func() error {
		defer close(jobs)
		for i := range items {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	workerGroup, wctx := errgroup.WithContext(gctx)
	workerGroup.SetLimit(workers)
	for range workers {
		workerGroup.Go(func() error {
			for i := range jobs {
				if err := wctx.Err(); err != nil {
					return err
				}
				result, err := work(wctx, items[i])
				if err != nil {
					return err
				}
				select {
				case results <- indexed[R]{index: i, result: result}:
				case <-wctx.Done():
					return wctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(results)
		return workerGroup.Wait()
	})

	g.Go(func() error {
		pending := make(map[int]R)
		next := 0
		for res := range results {
			pending[res.index] = res.result
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := emit(items[next], r); err != nil {
					return fmt.Errorf("emit item %d: %w", next, err)
				}
				next++
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
