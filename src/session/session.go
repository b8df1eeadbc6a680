// Package session implements the BuildSession value and the phase
// driver that steps it through post-parse, bind, post-bind,
// select-wanted, pre-build and build (spec.md §4.6). It replaces the
// source's process-wide globals (`_targets`, `_post_parse`,
// `_post_bind`, `_pre_build`, `_included_set`, `ctx`) with one
// explicit value threaded through every engine entry point, per
// spec.md §9's redesign instruction; this mirrors plz.Run's role in
// the teacher as the single orchestration entry point over an
// explicit *core.BuildState rather than package-level state.
package session

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pyjam-build/pyjam/src/cli/logging"
	"github.com/pyjam-build/pyjam/src/config"
	"github.com/pyjam-build/pyjam/src/graph"
	"github.com/pyjam-build/pyjam/src/module"
	"github.com/pyjam-build/pyjam/src/process"
	"github.com/pyjam-build/pyjam/src/progress"
	"github.com/pyjam-build/pyjam/src/rules"
	"github.com/pyjam-build/pyjam/src/scheduler"
	"github.com/pyjam-build/pyjam/src/vars"
)

var log = logging.Log

// Phase names a stage of the fixed post-parse -> bind -> post-bind ->
// select-wanted -> pre-build -> build pipeline.
type Phase string

const (
	PostParse    Phase = "post-parse"
	Bind         Phase = "bind"
	PostBind     Phase = "post-bind"
	SelectWanted Phase = "select-wanted"
	PreBuild     Phase = "pre-build"
	Build        Phase = "build"
)

// phaseOrder is the fixed sequence phases run in.
var phaseOrder = []Phase{PostParse, Bind, PostBind, SelectWanted, PreBuild, Build}

// Hook is a unit of phase work, registered through RegisterHook (e.g. a
// PreBuild hook that calls LinkModule.ResolveObjects to resolve its
// module's object list). Hooks registered onto the same phase run concurrently
// (see runHooks), so a hook must not depend on another hook in its own
// phase having already run; it may register further hooks onto a
// *later* phase, never the one currently executing.
type Hook func(s *BuildSession) error

// BuildSession is the single value carrying everything an engine
// operation needs: the target graph, module registry, command pool,
// config, and the ordered hook lists for each phase.
type BuildSession struct {
	Graph   *graph.BuildGraph
	Modules *module.Registry
	Pool    *process.Pool
	Config  *config.Configuration

	// Wanted is populated by the select-wanted phase: the targets the
	// build actually needs to produce.
	Wanted []*graph.Target

	// Progress is populated once the build phase starts.
	Progress *scheduler.Scheduler
	Tracker  *progress.Tracker

	hooks map[Phase][]Hook
}

// New constructs a session over an already-populated graph and module
// registry (the out-of-scope description-loader is responsible for
// populating both before calling Run).
func New(g *graph.BuildGraph, mods *module.Registry, pool *process.Pool, cfg *config.Configuration) *BuildSession {
	return &BuildSession{
		Graph:   g,
		Modules: mods,
		Pool:    pool,
		Config:  cfg,
		hooks:   map[Phase][]Hook{},
	}
}

// RegisterHook appends fn to phase's hook list. Hooks on the same phase
// run concurrently (see runHooks); registration order does not order
// their execution.
func (s *BuildSession) RegisterHook(phase Phase, fn Hook) {
	s.hooks[phase] = append(s.hooks[phase], fn)
}

// RegisterBuiltins declares the three phony targets spec.md §6 says are
// always present regardless of what a project's description files
// declare: `all` (the default target), `first` (depends on `all`), and
// `clean` (removes every currently-interned File target's output).
// Loader-declared targets become reachable from `all` by the loader
// calling graph.Depends; RegisterBuiltins only establishes the three
// names and clean's behavior.
func (s *BuildSession) RegisterBuiltins() {
	all := s.Graph.GetUnboundTarget("all", vars.NewContext("all"))
	s.Graph.SetPhony(all)

	first := s.Graph.GetUnboundTarget("first", vars.NewContext("first"))
	s.Graph.SetPhony(first)
	s.Graph.Depends([]*graph.Target{first}, []*graph.Target{all}, false)

	clean := s.Graph.GetUnboundTarget("clean", vars.NewContext("clean"))
	s.Graph.SetPhony(clean)
	clean.Always = true
	clean.Actions = []graph.Rule{rules.NewClean(s.cleanOutputs)}
}

// cleanOutputs lists every File target's backing path currently interned
// in the graph, the set `clean` removes.
func (s *BuildSession) cleanOutputs(*graph.Target) []string {
	var paths []string
	for _, t := range s.Graph.AllTargets() {
		if t.Kind == graph.File {
			paths = append(paths, t.Name)
		}
	}
	return paths
}

// Result is what a completed build reports back to the caller.
type Result struct {
	Failed []string
}

// Options controls a single Run: which target names to build (empty
// means the default "all"), how many worker goroutines to run, and
// whether a failure should abort the rest of the build immediately.
type Options struct {
	TargetNames []string
	Jobs        int
	FailFast    bool
}

// Run drives the session through every phase in order, running each
// phase's registered hooks to completion before starting the next
// (spec.md §4.6). A hook error aborts the run immediately; a phase
// running no hooks is a fast no-op except for bind, select-wanted and
// build, which always have fixed work to do. select-wanted resolves names via
// TargetOrDie, which panics on an unknown name; Run recovers that one
// specific panic into a returned *graph.ConfigError so callers never
// see it escape as a bare panic. Once pre-build hooks (which may add
// further deps, e.g. LinkModule's object-resolution hook) have settled,
// Run checks the whole graph for circular deps before scheduling a
// single action: a cycle is a configuration error (spec.md §7, §8
// invariant 5), and the scheduler's dependency-count release logic
// hangs forever on one rather than failing, since every node on a pure
// cycle keeps NDeps > 0 and is never enqueued.
func (s *BuildSession) Run(opts Options) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if cfgErr, ok := r.(*graph.ConfigError); ok {
				err = cfgErr
				return
			}
			panic(r)
		}
	}()
	mark := time.Now()
	durations := make(map[Phase]time.Duration, len(phaseOrder))
	for _, phase := range phaseOrder {
		log.Debug("entering phase %s", phase)
		switch phase {
		case Bind:
			s.bindAll()
		case SelectWanted:
			if err := s.selectWanted(opts.TargetNames); err != nil {
				return nil, err
			}
		case Build:
			if cycleErr := s.Graph.CheckAllCircularDeps(); cycleErr != nil {
				return nil, cycleErr
			}
			durations[Build] = time.Since(mark)
			logPhaseTimes(durations)
			return s.build(opts)
		}
		if err := s.runHooks(phase); err != nil {
			return nil, fmt.Errorf("phase %s: %w", phase, err)
		}
		now := time.Now()
		durations[phase] = now.Sub(mark)
		mark = now
	}
	return nil, fmt.Errorf("build phase never ran")
}

// logPhaseTimes reports how long each phase up to and including
// pre-build took, on the `times` debug channel, matching the
// original's single consolidated `dprint("times", ...)` line at the
// end of its run() function.
func logPhaseTimes(d map[Phase]time.Duration) {
	log.Debugf("times: post-parse %s, bind %s, post-bind %s, select-wanted %s, pre-build %s",
		d[PostParse], d[Bind], d[PostBind], d[SelectWanted], d[PreBuild])
}

// runHooks fans phase's hook list out across an errgroup, since hooks
// registered onto the same phase are independent by construction (e.g.
// several unrelated Toolcheck probes registered as PreBuild hooks by
// different rule constructors) and gain nothing from running one at a
// time. Every hook runs to completion; the first error returned is
// reported and the other hooks are not cancelled. Run wraps whatever
// comes back with the phase name.
func (s *BuildSession) runHooks(phase Phase) error {
	hooks := s.hooks[phase]
	var g errgroup.Group
	for _, h := range hooks {
		h := h
		g.Go(func() error { return h(s) })
	}
	return g.Wait()
}

// bindAll promotes every still-unbound target to a File target. Rules
// that construct genuinely phony targets (NoOp, Clean, `all`) must call
// graph.SetPhony at construction time to opt out.
func (s *BuildSession) bindAll() {
	for _, t := range s.Graph.AllTargets() {
		s.Graph.BindTarget(t)
	}
}

// selectWanted resolves the requested target names (or "all" if none
// were given) against the graph, panicking via TargetOrDie on an
// unknown name, and marks each resolved target Wanted.
func (s *BuildSession) selectWanted(names []string) error {
	if len(names) == 0 {
		names = []string{"all"}
	}
	for _, name := range names {
		t := s.Graph.TargetOrDie(name)
		t.Wanted = true
		s.Wanted = append(s.Wanted, t)
	}
	return nil
}

// build prepares every wanted target's subgraph, runs the priority
// queue + worker pool to completion, and returns the names of any
// targets whose action failed.
func (s *BuildSession) build(opts Options) (*Result, error) {
	for _, w := range s.Wanted {
		s.Graph.Prepare(w)
	}
	sched := scheduler.New(s.Graph, opts.FailFast)
	s.Progress = sched
	sched.BuildTargets(s.Wanted)
	s.Tracker = sched.Tracker()
	failed := sched.Run(opts.Jobs)
	return &Result{Failed: failed}, nil
}
