package stealpool

import (
	"context"
)

// Submit schedules fn on p and returns a Future for its outcome. It never
// blocks.
//
// When ctx is the context of a task running on p, fn goes to the deque of the
// worker running that task, which makes recursive fan-out cheap. Otherwise it
// goes to the global queue.
//
// The future resolves with fn's value, fn's error, or a *PanicError if fn
// panicked.
func Submit[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	task, future := NewResultTask(fn)
	if err := p.Schedule(ctx, task); err != nil {
		return nil, err
	}
	return future, nil
}

// SubmitValue is Submit for callables that cannot fail.
func SubmitValue[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) T) (*Future[T], error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	return Submit(ctx, p, func(ctx context.Context) (T, error) {
		return fn(ctx), nil
	})
}

// Go schedules fn without a result. A panic in fn is reported to the panic
// handler and does not affect the worker.
func (p *Pool) Go(ctx context.Context, fn func(ctx context.Context)) error {
	if fn == nil {
		return ErrNilTask
	}
	return p.Schedule(ctx, NewTask(fn))
}

// Schedule routes an already built task the way Submit does.
func (p *Pool) Schedule(ctx context.Context, task Task) error {
	if task == nil {
		return ErrNilTask
	}

	w := p.localWorker(ctx)
	if w == nil && p.limiter != nil && !p.limiter.Allow() {
		p.metrics.rejected.Add(1)
		return ErrRateLimited
	}

	p.gate.RLock()
	defer p.gate.RUnlock()

	// While draining, the owner of w is busy running the submitting task and
	// will pick the subtask up before it exits. Once the workers are joined
	// nothing would.
	if p.joined || (p.stopping() && !(w != nil && p.config.drainOnShutdown)) {
		p.metrics.rejected.Add(1)
		return ErrPoolClosed
	}

	p.metrics.submitted.Add(1)
	if w != nil {
		w.deque.PushOwner(task)
		return nil
	}
	p.global.Push(task)
	return nil
}

// Await waits for the future like Wait, but when ctx belongs to a task
// running on a pool worker it keeps that worker busy with pending tasks in the
// meantime. A task that fans out subtasks and awaits them this way cannot
// starve the pool, even with a single worker.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ident, ok := ctx.Value(workerKey{}).(workerIdentity)
	if !ok {
		return f.Wait(ctx)
	}

	for {
		select {
		case <-f.done:
			return f.result()
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		default:
		}
		ident.pool.RunPendingTask(ctx)
	}
}
