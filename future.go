package stealpool

import (
	"context"
	"sync"
)

// Future is the read end of a one-shot result channel. It is resolved exactly
// once, by the task it was created with, and may be read any number of times.
type Future[T any] struct {
	done     chan struct{}
	mu       sync.Mutex // Protects value and err
	value    T
	err      error
	resolved bool
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// complete commits the result. Only the first call has any effect.
func (f *Future[T]) complete(value T, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.resolved {
		return false
	}
	f.value = value
	f.err = err
	f.resolved = true
	close(f.done)
	return true
}

func (f *Future[T]) fail(err error) bool {
	var zero T
	return f.complete(zero, err)
}

func (f *Future[T]) result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Done returns a channel that's closed when the result is committed
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the task has run and returns its value, or the error it
// returned or panicked with.
//
// A future whose task was discarded by Shutdown resolves with ErrTaskDiscarded.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.result()
}

// Wait is Get bounded by ctx. When ctx ends first it returns ctx.Err() and the
// future stays readable.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryGet reports the result without blocking. ok is false while the task has
// not run yet.
func (f *Future[T]) TryGet() (value T, ok bool, err error) {
	select {
	case <-f.done:
		value, err = f.result()
		return value, true, err
	default:
		return value, false, nil
	}
}
