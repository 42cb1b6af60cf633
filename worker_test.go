package stealpool

import (
	"context"
	"testing"

	"github.com/davidroman0O/stealpool/logs"
)

// newIdlePool builds a pool whose workers exist but never run, so their
// search order can be driven by hand.
func newIdlePool(n int) *Pool {
	p := &Pool{
		config: newDefaultConfig(),
		ctx:    context.Background(),
		logger: logs.NewDefaultLogger(logs.LevelSilent),
	}
	p.config.workers = n
	p.done = p.ctx.Done()
	p.global = NewQueue()
	p.deques = make([]*Deque, n)
	for i := range p.deques {
		p.deques[i] = NewDeque()
	}
	p.workers = make([]*worker, n)
	for i := range p.workers {
		p.workers[i] = newWorker(i, p)
	}
	return p
}

func TestFindTaskPriority(t *testing.T) {
	p := newIdlePool(2)
	w := p.workers[0]

	p.deques[1].PushOwner(&markerTask{id: 30})
	p.global.Push(&markerTask{id: 20})
	w.deque.PushOwner(&markerTask{id: 10})

	tests := []struct {
		wantID  int
		wantSrc taskSource
	}{
		{10, sourceLocal},
		{20, sourceGlobal},
		{30, sourceStolen},
	}
	for _, tt := range tests {
		task, src := w.findTask()
		if task == nil {
			t.Fatalf("findTask found nothing, want task %d", tt.wantID)
		}
		if id := markerID(t, task); id != tt.wantID || src != tt.wantSrc {
			t.Fatalf("findTask() = %d from %d, want %d from %d", id, src, tt.wantID, tt.wantSrc)
		}
	}

	if task, _ := w.findTask(); task != nil {
		t.Fatalf("findTask() = %v on an empty pool", task)
	}
	if got := w.lastVictim.Load(); got != 1 {
		t.Errorf("lastVictim = %d, want 1", got)
	}
}

func TestStealRoundRobinFromNextPeer(t *testing.T) {
	p := newIdlePool(4)
	thief := p.workers[2]

	p.deques[1].PushOwner(&markerTask{id: 1})
	p.deques[0].PushOwner(&markerTask{id: 0})

	// Worker 2 visits 3, 0, 1 in that order.
	task, ok := thief.steal()
	if !ok || markerID(t, task) != 0 {
		t.Fatalf("steal() = %v, %v, want task 0", task, ok)
	}
	if thief.lastVictim.Load() != 0 {
		t.Errorf("lastVictim = %d, want 0", thief.lastVictim.Load())
	}

	task, ok = thief.steal()
	if !ok || markerID(t, task) != 1 {
		t.Fatalf("steal() = %v, %v, want task 1", task, ok)
	}
	if thief.lastVictim.Load() != 1 {
		t.Errorf("lastVictim = %d, want 1", thief.lastVictim.Load())
	}

	// A worker never steals from itself.
	thief.deque.PushOwner(&markerTask{id: 2})
	if _, ok := thief.steal(); ok {
		t.Fatal("worker stole from its own deque")
	}
}

func TestStealTakesOldest(t *testing.T) {
	p := newIdlePool(2)
	for i := 0; i < 3; i++ {
		p.deques[0].PushOwner(&markerTask{id: i})
	}
	task, _ := p.workers[1].findTask()
	if task == nil || markerID(t, task) != 0 {
		t.Fatalf("stole %v, want the oldest task", task)
	}
}

func TestExecuteCountsAndRestoresState(t *testing.T) {
	p := newIdlePool(1)
	w := p.workers[0]

	var sawState WorkerState
	var sawID int
	var sawOK bool
	task := NewTask(func(ctx context.Context) {
		sawState = WorkerState(w.state.Load())
		sawID, sawOK = WorkerID(ctx)
	})

	w.execute(w.ctx, task, sourceGlobal)

	if sawState != StateRunning {
		t.Errorf("state during task = %v, want %v", sawState, StateRunning)
	}
	if !sawOK || sawID != 0 {
		t.Errorf("WorkerID() = %d, %v, want 0, true", sawID, sawOK)
	}
	if s := WorkerState(w.state.Load()); s != StateSeeking {
		t.Errorf("state after task = %v, want %v", s, StateSeeking)
	}
	if w.executed.Load() != 1 || w.globalPops.Load() != 1 {
		t.Errorf("executed=%d globalPops=%d, want 1 and 1", w.executed.Load(), w.globalPops.Load())
	}
	if p.metrics.completed.Load() != 1 {
		t.Errorf("completed = %d, want 1", p.metrics.completed.Load())
	}
}

func TestRunPendingTaskOffWorker(t *testing.T) {
	p := newIdlePool(1)
	task, future := NewResultTask(func(ctx context.Context) (int, error) {
		if _, ok := WorkerID(ctx); ok {
			t.Error("task run off-worker should carry no worker identity")
		}
		return 5, nil
	})
	p.global.Push(task)
	// Local deques are out of reach of a non-worker.
	p.deques[0].PushOwner(&markerTask{id: 1})

	if !p.RunPendingTask(context.Background()) {
		t.Fatal("RunPendingTask found nothing")
	}
	if v, err := future.Get(); err != nil || v != 5 {
		t.Fatalf("Get() = %d, %v, want 5, nil", v, err)
	}
	if p.RunPendingTask(context.Background()) {
		t.Fatal("RunPendingTask ran a task from a worker deque")
	}
}

func TestWorkerIDOutsidePool(t *testing.T) {
	if _, ok := WorkerID(context.Background()); ok {
		t.Fatal("WorkerID reported a worker for a plain context")
	}
	if StateStopped.String() != "STOPPED" || WorkerState(99).String() != "UNKNOWN" {
		t.Fatal("unexpected WorkerState strings")
	}
}
