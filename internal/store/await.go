package store

import (
	"context"
	"time"
)

// Await runs fn with a deadline. When the deadline passes first, Await
// returns a TimedOut error without waiting for fn to finish.
func Await[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		err   error
		value T
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, WrapError(KindTimedOut, "operation did not complete in time", ctx.Err())
	}
}
