// Package graph implements the target graph: typed nodes (phony, file),
// dependency edges, mtime-based staleness, and cycle detection.
package graph

import (
	"os"
	"sync"
	"time"

	"github.com/pyjam-build/pyjam/src/vars"
)

// Kind distinguishes a target that corresponds to a file on disk from a
// purely symbolic ("phony") name.
type Kind int

const (
	// Phony is the default kind for a freshly interned, not-yet-bound
	// target. A target that is never bound to the filesystem (e.g. `all`,
	// `clean`) stays Phony for its whole life.
	Phony Kind = iota
	// File marks a target promoted by Bind to a filesystem-backed output.
	File
)

func (k Kind) String() string {
	if k == File {
		return "file"
	}
	return "phony"
}

// Rule is the minimal interface the graph needs from a build action; the
// rules package supplies concrete implementations (Compile, Link,
// Archive, ...). Keeping this interface in the graph package (rather
// than importing rules) avoids a dependency cycle between the two.
type Rule interface {
	// Build executes the rule's action for t and reports success.
	Build(t *Target) bool
}

// infiniteMtime is what a phony or missing-file target reports as its
// mtime: always newer than nothing, so dependents relying on it are
// never skipped just because it has no filesystem presence, but always
// stale when its own staleness must force a rebuild (see CheckUpdate).
var infiniteMtime = time.Unix(1<<62, 0)

// Target is a node in the build DAG: a file to produce, or a phony name.
type Target struct {
	mu sync.Mutex

	Name string
	Kind Kind
	bound bool

	// Deps are forward edges, resolved to handles at interning time.
	Deps []*Target
	// NeededFor are back-edges (the reverse of Deps); a clone of the
	// forward DAG, so cycle-safety on the reverse side follows from
	// forward-side acyclicity (spec.md §4.2).
	NeededFor []*Target

	// Actions are executed in order; the first failure short-circuits
	// the rest.
	Actions []Rule

	// Context is this target's variable scope, used by Actions to build
	// command lines and environments.
	Context *vars.Context
	// Env holds per-target environment overrides layered on top of the
	// Context-derived environment.
	Env map[string]string

	Wanted  bool
	Always  bool
	Rebuild bool
	Stable  bool
	Queued  bool
	Done    bool
	Failed  bool

	// Missing lists the names of prerequisites that failed to build;
	// populated on a dependent when one of its deps fails.
	Missing []string

	// NDeps is the number of direct deps not yet Done. Scheduling
	// releases a target for the queue when this reaches zero.
	NDeps int

	// Prio is the scheduling priority, assigned once in DFS visitation
	// order from the wanted set; -1 means unassigned.
	Prio int

	mtime        time.Time
	mtimeChecked bool
	path         string // filesystem path once bound; equals Name for most targets
}

// newTarget constructs an interned-but-unbound target.
func newTarget(name string, ctx *vars.Context) *Target {
	return &Target{
		Name:    name,
		Kind:    Phony,
		Context: ctx,
		Prio:    -1,
		Env:     map[string]string{},
	}
}

// IsNeeded is true iff this target is directly wanted, always-build, or
// needed by some target that is itself needed.
func (t *Target) IsNeeded() bool {
	if t.Wanted || t.Always {
		return true
	}
	for _, r := range t.NeededFor {
		if r.IsNeeded() {
			return true
		}
	}
	return false
}

// ReadyForBuilding holds when a target may be enqueued: not already
// queued, all deps done, stable, and actually needed.
func (t *Target) ReadyForBuilding() bool {
	return !t.Queued && t.NDeps == 0 && t.Stable && t.IsNeeded()
}

// Lock/Unlock expose the per-target mutex guarding the scheduling fields
// (spec.md §5: "each Target carries a mutex guarding deps, ndeps,
// needed_for, missing, queued, prio, stable").
func (t *Target) Lock()   { t.mu.Lock() }
func (t *Target) Unlock() { t.mu.Unlock() }

// Mtime returns the target's last-refreshed modification time. Phony
// targets and files that failed to stat report infiniteMtime, so they
// always appear newer than anything depending on them (forcing a
// rebuild check) per spec.md §4.2.
func (t *Target) Mtime() time.Time {
	if t.Kind == Phony || !t.mtimeChecked {
		return infiniteMtime
	}
	return t.mtime
}

// refreshMtime stats the backing file (File targets only) and records
// whether it forces a rebuild. Idempotent within a single Prepare call;
// callers should call this once per Prepare.
func (t *Target) refreshMtime() {
	if t.Kind != Phony {
		info, err := os.Stat(t.path)
		if err != nil {
			t.Rebuild = true
			t.mtimeChecked = false
			return
		}
		t.mtime = info.ModTime()
		t.mtimeChecked = true
	}
}
