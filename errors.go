package stealpool

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	ErrPoolClosed         = errors.New("pool is closed")
	ErrNilTask            = errors.New("task is nil")
	ErrRateLimited        = errors.New("submission rate limit exceeded")
	ErrInvalidConfig      = errors.New("invalid pool configuration")
	ErrWorkerStart        = errors.New("worker failed to start")
	ErrShutdownFromWorker = errors.New("shutdown called from a pool worker")
	ErrTaskExited         = errors.New("task called runtime.Goexit")

	// ErrTaskDiscarded resolves the futures of tasks that were still queued
	// when the pool stopped. It wraps ErrPoolClosed.
	ErrTaskDiscarded = fmt.Errorf("%w: task discarded before it ran", ErrPoolClosed)
)

// PanicError wraps a value recovered from a panicking task and the stack of
// the goroutine it panicked on.
type PanicError struct {
	Value interface{}
	Stack string
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", p.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (p *PanicError) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

func errInvalidConfig(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
