// Package pool runs a function over a slice with bounded parallelism.
package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const DefaultWorkers = 4

// Result carries the outcome for items[Index].
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Map calls fn for every item with at most workers calls in flight and
// returns one Result per item in completion order. A failing item never
// cancels its siblings.
func Map[I, O any](ctx context.Context, workers int, items []I, fn func(context.Context, I) (O, error)) []Result[O] {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make(chan Result[O], len(items))

	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, item := range items {
		eg.Go(func() error {
			v, err := fn(ctx, item)
			results <- Result[O]{Index: i, Value: v, Err: err}
			return nil
		})
	}
	_ = eg.Wait()
	close(results)

	out := make([]Result[O], 0, len(items))
	for r := range results {
		out = append(out, r)
	}
	return out
}

// Values returns the successful values in the order given.
func Values[T any](results []Result[T]) []T {
	out := make([]T, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}
