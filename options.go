package stealpool

import (
	"context"
	"runtime"

	"golang.org/x/time/rate"

	"github.com/davidroman0O/stealpool/logs"
)

// Option type for configuring the Pool
type Option func(*Pool)

// PanicHandlerFunc is called on the worker goroutine when a task panics.
type PanicHandlerFunc func(workerID int, recovered any, stackTrace string)

// WorkerInitFunc runs on each worker goroutine before it starts seeking work.
// A non-nil error aborts pool construction.
type WorkerInitFunc func(ctx context.Context, workerID int) error

// config holds the construction-time settings of a Pool
type config struct {
	workers         int
	drainOnShutdown bool
	panicHandler    PanicHandlerFunc
	workerInit      WorkerInitFunc

	rateLimit rate.Limit
	rateBurst int
}

// newDefaultConfig sizes the pool to GOMAXPROCS, which automaxprocs has
// already aligned with the container CPU quota.
func newDefaultConfig() config {
	return config{
		workers: runtime.GOMAXPROCS(0),
	}
}

func (c *config) validate() error {
	if c.workers < 1 {
		return errInvalidConfig("worker count must be >= 1")
	}
	if c.rateLimit < 0 {
		return errInvalidConfig("rate limit must be >= 0")
	}
	if c.rateLimit > 0 && c.rateBurst < 1 {
		return errInvalidConfig("rate limit burst must be >= 1")
	}
	return nil
}

// WithWorkers overrides the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		p.config.workers = n
	}
}

// WithPanicHandler sets a handler for panicking tasks. The panic is still
// delivered to the task's future.
func WithPanicHandler(handler PanicHandlerFunc) Option {
	return func(p *Pool) {
		p.config.panicHandler = handler
	}
}

// WithWorkerInit sets a hook run by every worker before its loop starts.
func WithWorkerInit(fn WorkerInitFunc) Option {
	return func(p *Pool) {
		p.config.workerInit = fn
	}
}

// WithDrainOnShutdown makes Shutdown run every queued task before the
// workers exit, instead of discarding them.
func WithDrainOnShutdown() Option {
	return func(p *Pool) {
		p.config.drainOnShutdown = true
	}
}

// WithRateLimit caps submissions from outside the pool to rps per second
// with the given burst. Over the limit, submission fails with ErrRateLimited
// rather than blocking. Submissions made by tasks running on the pool are
// never limited.
func WithRateLimit(rps float64, burst int) Option {
	return func(p *Pool) {
		p.config.rateLimit = rate.Limit(rps)
		p.config.rateBurst = burst
	}
}

// WithContext sets the parent of every task context. Cancelling it stops the
// workers as Shutdown would; Shutdown must still be called to join them.
func WithContext(ctx context.Context) Option {
	return func(p *Pool) {
		if ctx != nil {
			p.ctx = ctx
		}
	}
}

// WithLogLevel gives the pool its own text logger at level.
func WithLogLevel(level logs.Level) Option {
	return func(p *Pool) {
		p.logger = logs.NewDefaultLogger(level)
	}
}

// WithLogger sets the logger used by the pool. Defaults to the logs package
// logger.
func WithLogger(logger logs.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}
