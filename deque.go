package stealpool

import (
	"github.com/sasha-s/go-deadlock"
)

// Deque is a worker's local task store.
//
// The owner end is used by the owning worker only: PushOwner and TryPopOwner
// give it LIFO order. Thieves use TrySteal at the opposite end and take the
// oldest task.
//
// One mutex guards both ends.
type Deque struct {
	mu    deadlock.Mutex
	tasks ring[Task] // back is the owner end, front the thief end
}

// NewDeque returns an empty Deque.
func NewDeque() *Deque {
	return &Deque{}
}

// PushOwner inserts task at the owner end. Nil tasks are ignored.
func (d *Deque) PushOwner(task Task) {
	if task == nil {
		return
	}
	d.mu.Lock()
	d.tasks.pushBack(task)
	d.mu.Unlock()
}

// TryPopOwner removes the most recently pushed task.
func (d *Deque) TryPopOwner() (Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tasks.popBack()
}

// TrySteal removes the oldest task.
func (d *Deque) TrySteal() (Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tasks.popFront()
}

// Len returns the number of tasks in the deque.
func (d *Deque) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tasks.len()
}

// IsEmpty reports whether the deque holds no task.
func (d *Deque) IsEmpty() bool {
	return d.Len() == 0
}

func (d *Deque) drain() []Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tasks.clear()
}
