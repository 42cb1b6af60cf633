package stealpool

import (
	"github.com/k0kubun/pp/v3"
)

// Stats is a snapshot of pool activity. Counters are read without a common
// lock, so they may be slightly inconsistent with each other while tasks run.
type Stats struct {
	NumWorkers int

	// Submitted counts tasks accepted by Submit, SubmitValue, Go and Schedule.
	Submitted uint64
	// Completed counts tasks that ran, successfully or not.
	Completed uint64
	// Failed counts tasks that returned an error or panicked.
	Failed uint64
	// Panicked counts the subset of Failed that panicked.
	Panicked uint64
	// Rejected counts submissions refused because the pool was closed or
	// rate limited.
	Rejected uint64
	// Discarded counts tasks dropped at shutdown without running.
	Discarded uint64
	// Exited counts the subset of Failed that called runtime.Goexit.
	Exited uint64
	// Stolen counts tasks a worker took from a peer's deque.
	Stolen uint64

	GlobalQueueDepth int
	LocalQueueDepth  int

	Workers []WorkerStats
}

// WorkerStats is the per-worker part of Stats.
type WorkerStats struct {
	WorkerID   int
	State      string
	QueueDepth int

	Executed   uint64
	LocalPops  uint64
	GlobalPops uint64
	Steals     uint64
	IdleYields uint64
	// Restarts counts loop restarts after a task called runtime.Goexit.
	Restarts uint64

	// LastVictim is the peer this worker last stole from, -1 if none.
	LastVictim int
}

// Stats returns a snapshot of pool statistics.
func (p *Pool) Stats() Stats {
	s := Stats{
		NumWorkers:       len(p.workers),
		Submitted:        p.metrics.submitted.Load(),
		Completed:        p.metrics.completed.Load(),
		Failed:           p.metrics.failed.Load(),
		Panicked:         p.metrics.panicked.Load(),
		Rejected:         p.metrics.rejected.Load(),
		Discarded:        p.metrics.discarded.Load(),
		Exited:           p.metrics.exited.Load(),
		GlobalQueueDepth: p.global.Len(),
		Workers:          make([]WorkerStats, len(p.workers)),
	}

	for i, w := range p.workers {
		depth := w.deque.Len()
		ws := WorkerStats{
			WorkerID:   w.id,
			State:      WorkerState(w.state.Load()).String(),
			QueueDepth: depth,
			Executed:   w.executed.Load(),
			LocalPops:  w.localPops.Load(),
			GlobalPops: w.globalPops.Load(),
			Steals:     w.steals.Load(),
			IdleYields: w.idleYields.Load(),
			Restarts:   w.restarts.Load(),
			LastVictim: int(w.lastVictim.Load()),
		}
		s.Workers[i] = ws
		s.Stolen += ws.Steals
		s.LocalQueueDepth += depth
	}
	return s
}

var statsPrinter = func() *pp.PrettyPrinter {
	printer := pp.New()
	printer.SetColoringEnabled(false)
	return printer
}()

// statsDump strips the String method so pp prints the fields.
type statsDump Stats

// String renders the snapshot with pp, without colors.
func (s Stats) String() string {
	return statsPrinter.Sprint(statsDump(s))
}
