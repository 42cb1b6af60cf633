package stealpool

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/davidroman0O/stealpool/logs"
)

// WorkerState represents the current state of a worker
type WorkerState int32

const (
	// StateSeeking: looking for a task in its deque, the global queue or a peer.
	StateSeeking WorkerState = iota
	// StateRunning: executing a task.
	StateRunning
	// StateStopped: the worker loop has returned.
	StateStopped
)

func (s WorkerState) String() string {
	switch s {
	case StateSeeking:
		return "SEEKING"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// taskSource records where a worker found a task
type taskSource int

const (
	sourceLocal taskSource = iota
	sourceGlobal
	sourceStolen
)

// workerKey is the context key under which a worker publishes its identity
// to the tasks it runs.
type workerKey struct{}

type workerIdentity struct {
	pool *Pool
	id   int
}

// WorkerID returns the index of the pool worker running the task that owns
// ctx. ok is false outside of a pool worker.
func WorkerID(ctx context.Context) (id int, ok bool) {
	if ctx == nil {
		return 0, false
	}
	ident, ok := ctx.Value(workerKey{}).(workerIdentity)
	if !ok {
		return 0, false
	}
	return ident.id, true
}

// localWorker returns the worker of p that ctx belongs to, if any.
func (p *Pool) localWorker(ctx context.Context) *worker {
	if ctx == nil {
		return nil
	}
	ident, ok := ctx.Value(workerKey{}).(workerIdentity)
	if !ok || ident.pool != p {
		return nil
	}
	return p.workers[ident.id]
}

// worker is the explicit per-goroutine state of the loop: its index, its own
// deque and the peer it last stole from.
type worker struct {
	id     int
	pool   *Pool
	deque  *Deque
	ctx    context.Context
	logger logs.Logger

	state      atomic.Int32 // WorkerState
	lastVictim atomic.Int64 // -1 until the first steal

	executed   atomic.Uint64
	localPops  atomic.Uint64
	globalPops atomic.Uint64
	steals     atomic.Uint64
	idleYields atomic.Uint64
	restarts   atomic.Uint64
}

func newWorker(id int, p *Pool) *worker {
	w := &worker{
		id:     id,
		pool:   p,
		deque:  p.deques[id],
		ctx:    context.WithValue(p.ctx, workerKey{}, workerIdentity{pool: p, id: id}),
		logger: p.logger.WithFields(map[string]interface{}{"workerID": id}),
	}
	w.lastVictim.Store(-1)
	return w
}

// run initializes the worker, reports the outcome on ready, then loops until
// shutdown.
func (w *worker) run(ready chan<- error) error {
	if err := w.init(); err != nil {
		w.state.Store(int32(StateStopped))
		ready <- err
		return err
	}
	ready <- nil

	w.logger.Debug(w.ctx, "Worker loop started")
	w.serve()
	return nil
}

// serve runs the loop. A task calling runtime.Goexit unwinds the worker
// goroutine; the loop then continues on a fresh goroutine of the same group
// so the pool keeps its size.
func (w *worker) serve() {
	returned := false
	defer func() {
		if returned {
			return
		}
		w.restarts.Add(1)
		w.logger.Warn(w.ctx, "Worker goroutine exited by a task, restarting loop")
		w.pool.group.Go(func() error {
			w.serve()
			return nil
		})
	}()

	w.loop()
	returned = true
	w.state.Store(int32(StateStopped))
	w.logger.Debug(w.ctx, "Worker loop exited", "executed", w.executed.Load())
}

func (w *worker) init() (err error) {
	fn := w.pool.config.workerInit
	if fn == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("init panicked: %v", r)
		}
	}()
	return fn(w.ctx, w.id)
}

// loop is the seeking/running state machine. The shutdown flag is only
// checked while seeking, so a running task always completes. With
// drainOnShutdown the worker keeps going until it finds nothing at all.
func (w *worker) loop() {
	drain := w.pool.config.drainOnShutdown
	for {
		stopping := w.pool.stopping()
		if stopping && !drain {
			return
		}

		task, src := w.findTask()
		if task == nil {
			if stopping {
				return
			}
			w.idleYields.Add(1)
			runtime.Gosched()
			continue
		}

		w.execute(w.ctx, task, src)
	}
}

// findTask looks, in order, at the worker's own deque, the global queue, and
// the peers' deques starting right after its own index.
func (w *worker) findTask() (Task, taskSource) {
	if task, ok := w.deque.TryPopOwner(); ok {
		return task, sourceLocal
	}
	if task, ok := w.pool.global.TryPop(); ok {
		return task, sourceGlobal
	}
	if task, ok := w.steal(); ok {
		return task, sourceStolen
	}
	return nil, sourceLocal
}

// steal walks the peers round-robin once, from id+1 wrapping around.
func (w *worker) steal() (Task, bool) {
	deques := w.pool.deques
	n := len(deques)
	for i := 1; i < n; i++ {
		victim := (w.id + i) % n
		if task, ok := deques[victim].TrySteal(); ok {
			w.lastVictim.Store(int64(victim))
			return task, true
		}
	}
	return nil, false
}

func (w *worker) execute(ctx context.Context, task Task, src taskSource) {
	switch src {
	case sourceLocal:
		w.localPops.Add(1)
	case sourceGlobal:
		w.globalPops.Add(1)
	case sourceStolen:
		w.steals.Add(1)
	}

	prev := w.state.Swap(int32(StateRunning))
	defer w.state.Store(prev)
	defer w.executed.Add(1)

	w.pool.invoke(ctx, w.id, task)
}
