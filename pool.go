package stealpool

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/davidroman0O/stealpool/logs"
)

func init() {
	maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	deadlock.Opts.DeadlockTimeout = time.Second * 2 // Time to wait before reporting a potential deadlock
	deadlock.Opts.OnPotentialDeadlock = func() {
		log.Println("POTENTIAL DEADLOCK DETECTED!")
		buf := make([]byte, 1<<16)
		n := runtime.Stack(buf, true)
		log.Printf("Goroutine stack dump:\n%s", buf[:n])
	}
}

// metrics holds atomic pool-wide counters
type metrics struct {
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	panicked  atomic.Uint64
	rejected  atomic.Uint64
	discarded atomic.Uint64
	exited    atomic.Uint64
}

// Pool is a fixed-size work-stealing pool.
//
// Every worker owns a Deque. Tasks submitted from a task already running on
// the pool go to that worker's deque; everything else goes to the global
// Queue. Idle workers look at their own deque, then the global queue, then
// steal the oldest task of a peer, and yield the processor when all three are
// empty.
type Pool struct {
	config  config
	logger  logs.Logger
	limiter *rate.Limiter
	ctx     context.Context
	done    <-chan struct{}

	global  *Queue
	deques  []*Deque
	workers []*worker

	group *errgroup.Group

	// gate orders submissions against the shutdown flag so that nothing is
	// enqueued once Shutdown has started.
	gate     deadlock.RWMutex
	shutdown atomic.Bool
	joined   bool // guarded by gate; set once every worker has returned
	stopOnce sync.Once
	stopErr  error

	metrics metrics
}

// New creates the pool and starts its workers. With no options the pool runs
// one worker per GOMAXPROCS.
//
// Every deque exists before the first worker starts. Workers are started one
// at a time; if a worker's init hook fails, the pool is shut down, the workers
// already running are joined, and the error is returned wrapped in
// ErrWorkerStart.
func New(options ...Option) (*Pool, error) {
	p := &Pool{
		config: newDefaultConfig(),
		ctx:    context.Background(),
	}

	for _, option := range options {
		option(p)
	}

	if err := p.config.validate(); err != nil {
		return nil, err
	}

	if p.logger == nil {
		p.logger = logs.Log()
	}
	if p.config.rateLimit > 0 {
		p.limiter = rate.NewLimiter(p.config.rateLimit, p.config.rateBurst)
	}
	p.done = p.ctx.Done()

	n := p.config.workers
	p.global = NewQueue()
	p.deques = make([]*Deque, n)
	for i := range p.deques {
		p.deques[i] = NewDeque()
	}
	p.workers = make([]*worker, n)
	for i := range p.workers {
		p.workers[i] = newWorker(i, p)
	}

	if err := p.start(); err != nil {
		return nil, err
	}

	p.logger.Debug(p.ctx, "Pool created", "workers", n)
	return p, nil
}

// start spawns the workers. The deferred guard is armed before the first
// spawn: on failure it raises the shutdown flag and joins whatever started.
func (p *Pool) start() (err error) {
	p.group = &errgroup.Group{}

	defer func() {
		if err == nil {
			return
		}
		p.shutdown.Store(true)
		_ = p.group.Wait()
		p.logger.Error(p.ctx, "Pool failed to start", "error", err)
	}()

	for _, w := range p.workers {
		ready := make(chan error, 1)
		p.group.Go(func() error {
			return w.run(ready)
		})
		if initErr := <-ready; initErr != nil {
			return fmt.Errorf("%w: worker %d: %w", ErrWorkerStart, w.id, initErr)
		}
	}
	return nil
}

// stopping reports whether workers should leave their loop.
func (p *Pool) stopping() bool {
	if p.shutdown.Load() {
		return true
	}
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Shutdown raises the shutdown flag and waits for every worker to return.
// A task already running always completes first.
//
// Tasks still queued once the workers are gone are dropped without running and
// their futures resolve with ErrTaskDiscarded, unless the pool was built with
// WithDrainOnShutdown, in which case the workers run them all before exiting.
//
// Shutdown is idempotent and safe to call concurrently, but must not be called
// from a task running on the pool: it would wait for itself. Use
// ShutdownContext from code that may run on a worker.
func (p *Pool) Shutdown() error {
	p.stopOnce.Do(func() {
		p.gate.Lock()
		p.shutdown.Store(true)
		p.gate.Unlock()

		p.logger.Info(p.ctx, "Pool is shutting down", "drain", p.config.drainOnShutdown)

		err := p.group.Wait()
		if err != nil {
			p.logger.Error(p.ctx, "Error while waiting for workers to finish", "error", err)
		}

		// No deque has a reader anymore, worker-local submissions included.
		p.gate.Lock()
		p.joined = true
		p.gate.Unlock()

		if discarded := p.discardLeftovers(); discarded > 0 {
			p.logger.Warn(p.ctx, "Discarded queued tasks at shutdown", "count", discarded)
		}
		p.stopErr = err
	})
	return p.stopErr
}

// ShutdownContext is Shutdown that refuses to run on one of the pool's own
// workers, where it would deadlock.
func (p *Pool) ShutdownContext(ctx context.Context) error {
	if w := p.localWorker(ctx); w != nil {
		return fmt.Errorf("%w: worker %d", ErrShutdownFromWorker, w.id)
	}
	return p.Shutdown()
}

// Close gracefully shuts down the pool, conforming to the io.Closer interface
func (p *Pool) Close() error {
	if err := p.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown pool: %w", err)
	}
	return nil
}

// discardLeftovers empties every structure once no worker runs anymore.
func (p *Pool) discardLeftovers() int {
	leftovers := p.global.drain()
	for _, d := range p.deques {
		leftovers = append(leftovers, d.drain()...)
	}
	for _, task := range leftovers {
		if a, ok := task.(abandoner); ok {
			a.abandon(ErrTaskDiscarded)
		}
	}
	p.metrics.discarded.Add(uint64(len(leftovers)))
	return len(leftovers)
}

// IsShutdown reports whether Shutdown has been called.
func (p *Pool) IsShutdown() bool {
	return p.shutdown.Load()
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return len(p.workers)
}

// RunPendingTask runs at most one queued task on the calling goroutine and
// reports whether it did. On a worker of this pool it looks where the worker
// loop would (own deque, global queue, peers); anywhere else it only takes
// from the global queue. When nothing is found it yields the processor.
//
// Tasks that wait on the result of subtasks should help this way instead of
// blocking, see Future.Await.
func (p *Pool) RunPendingTask(ctx context.Context) bool {
	if ctx == nil {
		ctx = p.ctx
	}
	if w := p.localWorker(ctx); w != nil {
		task, src := w.findTask()
		if task == nil {
			runtime.Gosched()
			return false
		}
		w.execute(ctx, task, src)
		return true
	}

	task, ok := p.global.TryPop()
	if !ok {
		runtime.Gosched()
		return false
	}
	p.invoke(ctx, -1, task)
	return true
}

// invoke runs task and accounts for its outcome. workerID is -1 when the
// task runs on a goroutine that is not a worker.
func (p *Pool) invoke(ctx context.Context, workerID int, task Task) {
	returned := false
	defer p.metrics.completed.Add(1)
	defer func() {
		if r := recover(); r != nil {
			p.metrics.failed.Add(1)
			p.reportPanic(ctx, workerID, r, stackTrace())
			return
		}
		if !returned {
			p.metrics.failed.Add(1)
			p.metrics.exited.Add(1)
			p.logger.Error(ctx, "Task called runtime.Goexit", "workerID", workerID)
		}
	}()

	task.Invoke(ctx)
	returned = true

	fr, ok := task.(failureReporter)
	if !ok {
		return
	}
	err := fr.failure()
	if err == nil {
		return
	}
	p.metrics.failed.Add(1)
	if pe, ok := err.(*PanicError); ok {
		p.reportPanic(ctx, workerID, pe.Value, pe.Stack)
	}
}

func (p *Pool) reportPanic(ctx context.Context, workerID int, recovered any, stack string) {
	p.metrics.panicked.Add(1)
	p.logger.Error(ctx, "Task panicked", "workerID", workerID, "panic", recovered)
	if p.config.panicHandler != nil {
		p.config.panicHandler(workerID, recovered, stack)
	}
}

func stackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
