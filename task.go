package stealpool

import (
	"context"
	"runtime/debug"
	"sync/atomic"
)

// Task is one unit of work as seen by the scheduler: something that can be
// invoked with no result. Invoke runs the underlying callable at most once;
// later calls return immediately.
//
// The context passed to Invoke identifies the worker running the task, see
// WorkerID.
type Task interface {
	Invoke(ctx context.Context)
}

// abandoner is implemented by tasks holding a result channel that must be
// resolved when the task is dropped without running.
type abandoner interface {
	abandon(err error)
}

// failureReporter is implemented by tasks that recover their own failures,
// so the worker can account for them after Invoke returns.
type failureReporter interface {
	failure() error
}

// funcTask is a fire-and-forget task. Panics are left to the worker.
type funcTask struct {
	fn      func(ctx context.Context)
	invoked atomic.Bool
}

// NewTask wraps fn in a Task with no result.
func NewTask(fn func(ctx context.Context)) Task {
	return &funcTask{fn: fn}
}

func (t *funcTask) Invoke(ctx context.Context) {
	if !t.invoked.CompareAndSwap(false, true) {
		return
	}
	t.fn(ctx)
}

// resultTask owns the write end of a Future and commits the callable's
// outcome to it, including a recovered panic.
type resultTask[T any] struct {
	fn      func(ctx context.Context) (T, error)
	future  *Future[T]
	invoked atomic.Bool
}

// NewResultTask wraps fn in a Task whose outcome is delivered through the
// returned Future.
func NewResultTask[T any](fn func(ctx context.Context) (T, error)) (Task, *Future[T]) {
	t := &resultTask[T]{
		fn:     fn,
		future: newFuture[T](),
	}
	return t, t.future
}

func (t *resultTask[T]) Invoke(ctx context.Context) {
	if !t.invoked.CompareAndSwap(false, true) {
		return
	}

	var (
		value    T
		err      error
		returned bool
	)
	// Only runtime.Goexit skips the assignment below; panics are recovered
	// by the inner function.
	defer func() {
		if !returned {
			t.future.fail(ErrTaskExited)
		}
	}()
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r, Stack: string(debug.Stack())}
			}
		}()
		value, err = t.fn(ctx)
	}()
	returned = true

	if err != nil {
		var zero T
		value = zero
	}
	t.future.complete(value, err)
}

func (t *resultTask[T]) abandon(err error) {
	if !t.invoked.CompareAndSwap(false, true) {
		return
	}
	t.future.fail(err)
}

func (t *resultTask[T]) failure() error {
	select {
	case <-t.future.done:
		_, err := t.future.result()
		return err
	default:
		return nil
	}
}
