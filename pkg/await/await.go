// Package await implements the timeout race used by every blocking external
// call: run one operation, race it against a timer, and stop waiting on
// whichever resolves first. Cancellation is "stop waiting and tear down",
// not graceful upstream cancellation.
package await

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when the operation does not resolve in time.
var ErrTimeout = errors.New("operation timed out")

// Result pairs a value with the error produced alongside it.
type Result[T any] struct {
	Value T
	Err   error
}

// Do runs fn and waits at most timeout for it to resolve. The fn receives a
// context that is cancelled when the race is lost, so well-behaved operations
// can tear down early; fn's goroutine is otherwise left to drain on its own.
func Do[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan Result[T], 1)

	go func() {
		value, err := fn(runCtx)
		done <- Result[T]{Value: value, Err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.Value, res.Err
	case <-timer.C:
		return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
