package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pyjam-build/pyjam/src/cli/logging"
	"github.com/pyjam-build/pyjam/src/graph"
	"github.com/pyjam-build/pyjam/src/progress"
)

var log = logging.Log

// Scheduler runs the priority queue + worker pool described in spec.md
// §4.5: a target is released for building once its dependency count
// reaches zero, and is executed by whichever worker dequeues it next.
type Scheduler struct {
	graph    *graph.BuildGraph
	queue    *Queue
	failFast bool

	nextPrio int32

	total     int32 // targets reachable from the wanted set
	completed int32 // targets that have reached Done
	aborted   int32 // atomic bool; set once fail-fast trips

	failedMu sync.Mutex
	failed   []string

	tracker *progress.Tracker
}

// New constructs a Scheduler over g. failFast mirrors the -q/--quit
// flag: a failure drains the queue and sets the abort flag so workers
// stop picking up new work at their next dequeue.
func New(g *graph.BuildGraph, failFast bool) *Scheduler {
	return &Scheduler{graph: g, queue: NewQueue(), failFast: failFast}
}

// BuildTargets walks every wanted target's dependency DAG, assigning a
// scheduling priority (in DFS visitation order, once per target) and
// enqueueing any target that is already stable, unqueued, and ready to
// build (spec.md §4.5).
func (s *Scheduler) BuildTargets(wanted []*graph.Target) {
	visited := map[*graph.Target]bool{}
	for _, w := range wanted {
		s.visit(w, visited)
	}
	s.total = int32(len(visited))
	s.tracker = progress.New(len(visited))
	if s.total == 0 {
		s.queue.Close()
	}
}

// Tracker returns the progress tracker for this scheduler's run,
// populated once BuildTargets has computed the reachable set size.
// Nil before BuildTargets is called.
func (s *Scheduler) Tracker() *progress.Tracker {
	return s.tracker
}

func (s *Scheduler) visit(t *graph.Target, visited map[*graph.Target]bool) {
	if visited[t] {
		return
	}
	visited[t] = true
	if t.Prio == -1 {
		t.Prio = int(atomic.AddInt32(&s.nextPrio, 1))
	}
	for _, d := range t.Deps {
		s.visit(d, visited)
	}
	t.Lock()
	ready := t.Stable && !t.Queued && t.ReadyForBuilding()
	if ready {
		t.Queued = true
	}
	t.Unlock()
	if ready {
		s.queue.Push(t)
	}
}

// Run starts n worker goroutines and blocks until the queue drains
// (either because every reachable target finished, or because
// fail-fast closed and drained it). It returns the names of every
// target whose action failed, aggregated across all workers.
func (s *Scheduler) Run(n int) []string {
	if n < 1 {
		n = 1
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer wg.Done()
			s.work(id)
		}(i)
	}
	wg.Wait()
	return s.Failed()
}

// work is a single worker's loop: dequeue, check staleness, build if
// needed, then release any now-ready reverse dependencies.
func (s *Scheduler) work(id int) {
	for {
		if atomic.LoadInt32(&s.aborted) != 0 {
			return
		}
		t, ok := s.queue.Pop()
		if !ok {
			return
		}
		s.build(id, t)
	}
}

func (s *Scheduler) build(id int, t *graph.Target) {
	t.Lock()
	hasMissing := len(t.Missing) > 0
	t.Unlock()

	success := !hasMissing
	if !hasMissing {
		rebuild := s.graph.CheckUpdate(t)
		if rebuild {
			log.Debugf("worker %d: building %s", id, t.Name)
			success = s.runActions(t)
		}
	}
	s.finish(t, success)
}

// runActions executes t's Actions sequentially; the first failure
// short-circuits the rest (spec.md §4.2/§5).
func (s *Scheduler) runActions(t *graph.Target) bool {
	for _, action := range t.Actions {
		if !action.Build(t) {
			return false
		}
	}
	return true
}

// finish marks t Done/Failed, records a failure if any, checks whether
// the whole reachable set has completed (closing the queue if so), and
// releases t's reverse dependencies. A target with missing deps still
// transitions to Done without ever running its own actions, so its
// dependents can progress and observe the cascade through their own
// Missing list (spec.md §4.2's failure policy).
func (s *Scheduler) finish(t *graph.Target, success bool) {
	t.Lock()
	t.Done = true
	t.Failed = !success
	deps := append([]*graph.Target(nil), t.NeededFor...)
	t.Unlock()

	if !success {
		s.recordFailure(t.Name)
		s.tracker.Failed()
		if s.failFast {
			s.abort()
		}
	} else {
		s.tracker.Done()
	}

	if atomic.AddInt32(&s.completed, 1) >= s.total {
		s.queue.Close()
	}

	for _, r := range deps {
		s.release(r, t, success)
	}
}

// release decrements r's dependency count and records t's name in
// r.Missing if t failed. Dependency accounting always advances on
// completion, success or failure, so that a target with a failed
// prerequisite still reaches ndeps==0 and is released; build() then
// observes r.Missing and skips running r's actions, immediately
// finishing it with success=false, per spec.md §4.2: "a missing-deps
// target still transitions to done ... so its own dependents can
// progress."
func (s *Scheduler) release(r, t *graph.Target, tSucceeded bool) {
	r.Lock()
	if !tSucceeded {
		r.Missing = append(r.Missing, t.Name)
	}
	r.NDeps--
	ready := r.ReadyForBuilding() && r.Prio != -1 && !r.Queued
	if ready {
		r.Queued = true
	}
	r.Unlock()

	if ready {
		s.queue.Push(r)
	}
}

func (s *Scheduler) recordFailure(name string) {
	s.failedMu.Lock()
	s.failed = append(s.failed, name)
	s.failedMu.Unlock()
}

func (s *Scheduler) abort() {
	if atomic.CompareAndSwapInt32(&s.aborted, 0, 1) {
		s.queue.Drain()
		s.queue.Close()
	}
}

// Failed returns the names of every target whose action failed so far.
func (s *Scheduler) Failed() []string {
	s.failedMu.Lock()
	defer s.failedMu.Unlock()
	return append([]string(nil), s.failed...)
}

// Summary renders a one-line human-readable result, e.g. for the CLI's
// final status line.
func (s *Scheduler) Summary() string {
	failed := s.Failed()
	if len(failed) == 0 {
		return "build succeeded"
	}
	return fmt.Sprintf("build failed: %d target(s) failed: %v", len(failed), failed)
}
