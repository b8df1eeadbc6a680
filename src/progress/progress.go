// Package progress tracks and reports how a build is proceeding: how
// many targets are done versus the total reachable set, how many have
// failed, and how long the build has taken so far. It mirrors the
// shape of core/progress.go's per-target progress tracking, scaled up
// to a whole-build counter (spec.md §9 ambient progress section).
package progress

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Tracker holds atomic counters safe for concurrent update from
// scheduler workers, and the wall-clock start time of the build.
type Tracker struct {
	start  time.Time
	total  int32
	done   int32
	failed int32
}

// New starts a tracker for a build of n reachable targets.
func New(total int) *Tracker {
	return &Tracker{start: time.Now(), total: int32(total)}
}

// Done records one target finishing successfully.
func (t *Tracker) Done() {
	atomic.AddInt32(&t.done, 1)
}

// Failed records one target finishing with a failed action.
func (t *Tracker) Failed() {
	atomic.AddInt32(&t.failed, 1)
	atomic.AddInt32(&t.done, 1)
}

// Counts returns (done, total, failed) as of now.
func (t *Tracker) Counts() (done, total, failed int) {
	return int(atomic.LoadInt32(&t.done)), int(atomic.LoadInt32(&t.total)), int(atomic.LoadInt32(&t.failed))
}

// Elapsed returns how long the tracker has been running.
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Summary renders a one-line human-readable status, e.g. for a final
// build report or a periodic live update.
func (t *Tracker) Summary() string {
	done, total, failed := t.Counts()
	elapsed := humanize.RelTime(t.start, time.Now(), "", "")
	if failed > 0 {
		return fmt.Sprintf("%d/%d targets done, %d failed, %s", done, total, failed, elapsed)
	}
	return fmt.Sprintf("%d/%d targets done, %s", done, total, elapsed)
}
