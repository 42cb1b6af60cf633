package stealpool

import (
	"context"
	"sync"

	"github.com/sasha-s/go-deadlock"
)

// Queue is an unbounded, mutex guarded FIFO of tasks. The pool uses it as the
// global injection queue for tasks submitted from outside the workers.
//
// All methods are safe for concurrent use; Len and IsEmpty are snapshots.
type Queue struct {
	mu    deadlock.Mutex
	cond  *sync.Cond
	tasks ring[Task]
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends task and wakes one blocked consumer. Nil tasks are ignored.
func (q *Queue) Push(task Task) {
	if task == nil {
		return
	}
	q.mu.Lock()
	q.tasks.pushBack(task)
	q.mu.Unlock()
	q.cond.Signal()
}

// TryPop removes the oldest task without blocking.
func (q *Queue) TryPop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.popFront()
}

// WaitAndPop blocks until a task is available and removes it.
func (q *Queue) WaitAndPop() Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.tasks.len() == 0 {
		q.cond.Wait()
	}
	task, _ := q.tasks.popFront()
	return task
}

// WaitAndPopContext is WaitAndPop that gives up with ctx.Err() once ctx ends.
func (q *Queue) WaitAndPopContext(ctx context.Context) (Task, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.tasks.len() == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.cond.Wait()
	}
	task, _ := q.tasks.popFront()
	return task, nil
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.len()
}

// IsEmpty reports whether the queue holds no task.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// drain empties the queue, oldest first.
func (q *Queue) drain() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.clear()
}
