package graph

import (
	"fmt"
	"sync"

	"github.com/pyjam-build/pyjam/src/cli/logging"
	"github.com/pyjam-build/pyjam/src/vars"
)

var log = logging.Log

// BuildGraph owns the single interned set of targets for a build. The
// `_targets` global map from the source becomes an explicit field here,
// populated single-threaded during parsing and only read during the
// parallel build phase (spec.md §5).
type BuildGraph struct {
	mu      sync.Mutex
	targets map[string]*Target
}

// New constructs an empty BuildGraph.
func New() *BuildGraph {
	return &BuildGraph{targets: map[string]*Target{}}
}

// GetUnboundTarget interns or creates a target by name. If ctx is
// non-nil and the target has no context yet, it is associated now.
func (g *BuildGraph) GetUnboundTarget(name string, ctx *vars.Context) *Target {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.targets[name]
	if !ok {
		t = newTarget(name, ctx)
		g.targets[name] = t
		return t
	}
	if t.Context == nil && ctx != nil {
		t.Context = ctx
	}
	return t
}

// Target returns the interned target by name, or nil if it doesn't exist.
func (g *BuildGraph) Target(name string) *Target {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.targets[name]
}

// TargetOrDie returns the interned target by name, panicking with a
// configuration error if it doesn't exist. Used by the CLI and phase
// driver once parsing has completed, where an unknown name is a fatal
// configuration error (spec.md §7), not a recoverable condition.
func (g *BuildGraph) TargetOrDie(name string) *Target {
	t := g.Target(name)
	if t == nil {
		panic(&ConfigError{Message: fmt.Sprintf("unknown target %q", name)})
	}
	return t
}

// AllTargets returns every interned target, in no particular order.
func (g *BuildGraph) AllTargets() []*Target {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Target, 0, len(g.targets))
	for _, t := range g.targets {
		out = append(out, t)
	}
	return out
}

// ConfigError marks a fatal, pre-build configuration problem; TargetOrDie
// raises it for an unknown target name (spec.md §7). Circular
// dependencies are reported as *CycleError instead. The CLI maps both to
// exit code 1.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// Depends adds edges from each of targets to each of deps. A target
// that lists itself as a dep emits a warning and the self-edge is
// dropped (spec.md §4.2). If bind is set, each target in targets is
// marked bound (its kind is fixed at whatever it currently is, even
// without an explicit Bind call).
func (g *BuildGraph) Depends(targets []*Target, deps []*Target, bind bool) {
	for _, t := range targets {
		for _, d := range deps {
			if d == t {
				log.Warning("%s depends on itself; dropping self-edge", t.Name)
				continue
			}
			t.Deps = append(t.Deps, d)
			d.NeededFor = append(d.NeededFor, t)
		}
		if bind {
			t.bound = true
		}
	}
}

// BindTarget promotes an unbound target to a File target backed by the
// filesystem path equal to its name, if it isn't bound already.
// Idempotent: binding an already-bound target is a no-op. Per spec.md
// §4.2, binding "replaces" the target in place (same deps, actions,
// env, context) by mutating Kind/path rather than actually swapping the
// pointer, since Go references are shared handles already — every
// existing reference to t observes the promotion.
func (g *BuildGraph) BindTarget(t *Target) {
	if t.bound {
		return
	}
	t.bound = true
	t.Kind = File
	t.path = t.Name
}

// SetPhony marks t as bound in its current (Phony) kind, for targets
// that will never have a filesystem path, e.g. `all`/`clean`.
func (g *BuildGraph) SetPhony(t *Target) {
	t.bound = true
}

// Prepare refreshes t's mtime (if it's a File target) and marks it
// stable, then recursively prepares its deps. Idempotent.
func (g *BuildGraph) Prepare(t *Target) {
	if t.Stable {
		return
	}
	t.refreshMtime()
	t.Stable = true
	g.updateDeps(t)
}

func (g *BuildGraph) updateDeps(t *Target) {
	for _, d := range t.Deps {
		g.Prepare(d)
	}
	t.NDeps = 0
	for _, d := range t.Deps {
		if !d.Done {
			t.NDeps++
		}
	}
}

// CheckUpdate reports whether t needs to be rebuilt: Rebuild or Always is
// set, some dep itself needs a rebuild, or some dep's mtime is newer
// than t's. A File target whose backing file is absent also needs a
// rebuild (mtimeChecked false forces Rebuild via refreshMtime, but this
// also covers the case where Prepare hasn't run refreshMtime at all).
// The result is cached onto t.Rebuild so repeat calls are cheap.
func (g *BuildGraph) CheckUpdate(t *Target) bool {
	if t.Rebuild {
		return true
	}
	if t.Always {
		t.Rebuild = true
		return true
	}
	for _, d := range t.Deps {
		if g.CheckUpdate(d) {
			t.Rebuild = true
			return true
		}
		if d.Mtime().After(t.Mtime()) {
			t.Rebuild = true
			return true
		}
	}
	if t.Kind == File && !t.mtimeChecked {
		t.Rebuild = true
		return true
	}
	return false
}
