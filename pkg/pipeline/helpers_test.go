package pipeline_test

import (
	"context"
	"testing"
)

func emitInts(t *testing.T, total int) func(ctx context.Context, rootChan chan<- int) error {
	t.Helper()

	return func(ctx context.Context, rootChan chan<- int) error {
		for i := 0; i < total; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- i:
			}
		}

		return nil
	}
}

func collect[T any](t *testing.T, got *[]T) func(ctx context.Context, in T) error {
	t.Helper()

	return func(_ context.Context, in T) error {
		*got = append(*got, in)

		return nil
	}
}
