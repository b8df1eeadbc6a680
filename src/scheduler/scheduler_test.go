package scheduler

import (
	"testing"

	"github.com/pyjam-build/pyjam/src/graph"
	"github.com/stretchr/testify/assert"
)

type countingRule struct {
	calls   *int32
	succeed bool
}

func (r *countingRule) Build(t *graph.Target) bool {
	*r.calls++
	return r.succeed
}

// S1 phony cascade: a depends on b; running a with b's action NoOp
// succeeds, executes b once, a once.
func TestPhonyCascade(t *testing.T) {
	g := graph.New()
	a := g.GetUnboundTarget("a", nil)
	b := g.GetUnboundTarget("b", nil)
	g.Depends([]*graph.Target{a}, []*graph.Target{b}, false)
	a.Wanted = true
	a.Always = true
	b.Always = true

	var aCalls, bCalls int32
	a.Actions = []graph.Rule{&countingRule{calls: &aCalls, succeed: true}}
	b.Actions = []graph.Rule{&countingRule{calls: &bCalls, succeed: true}}

	g.Prepare(a)
	a.Rebuild = true
	b.Rebuild = true

	s := New(g, false)
	s.BuildTargets([]*graph.Target{a})
	failed := s.Run(2)

	assert.Empty(t, failed)
	assert.EqualValues(t, 1, aCalls)
	assert.EqualValues(t, 1, bCalls)
	assert.True(t, a.Done)
	assert.True(t, b.Done)
}

func TestTrackerCountsMatchCompletedTargets(t *testing.T) {
	g := graph.New()
	a := g.GetUnboundTarget("a", nil)
	b := g.GetUnboundTarget("b", nil)
	g.Depends([]*graph.Target{a}, []*graph.Target{b}, false)
	a.Wanted = true
	a.Always = true
	b.Always = true
	a.Rebuild = true
	b.Rebuild = true

	a.Actions = []graph.Rule{&countingRule{calls: new(int32), succeed: true}}
	b.Actions = []graph.Rule{&countingRule{calls: new(int32), succeed: false}}

	g.Prepare(a)
	s := New(g, false)
	s.BuildTargets([]*graph.Target{a})
	s.Run(2)

	done, total, failed := s.Tracker().Counts()
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, done)
	// b fails directly; a never runs its own action since b is missing,
	// so it finishes with success=false too (see finish's doc comment).
	assert.Equal(t, 2, failed)
}

func TestFailurePropagatesToMissing(t *testing.T) {
	g := graph.New()
	a := g.GetUnboundTarget("a", nil)
	b := g.GetUnboundTarget("b", nil)
	g.Depends([]*graph.Target{a}, []*graph.Target{b}, false)
	a.Wanted = true
	a.Always = true
	b.Always = true
	a.Rebuild = true
	b.Rebuild = true

	var aCalls, bCalls int32
	a.Actions = []graph.Rule{&countingRule{calls: &aCalls, succeed: true}}
	b.Actions = []graph.Rule{&countingRule{calls: &bCalls, succeed: false}}

	g.Prepare(a)
	s := New(g, false)
	s.BuildTargets([]*graph.Target{a})
	failed := s.Run(2)

	assert.Contains(t, failed, "b")
	assert.Contains(t, a.Missing, "b")
	assert.True(t, a.Done, "a still completes so a dependent of a could progress")
	assert.EqualValues(t, 0, aCalls, "a must not run its action when a dep is missing")
}

func TestFailFastAbortsRemainingWork(t *testing.T) {
	g := graph.New()
	failing := g.GetUnboundTarget("failing", nil)
	independent := g.GetUnboundTarget("independent", nil)
	all := g.GetUnboundTarget("all", nil)
	g.Depends([]*graph.Target{all}, []*graph.Target{failing, independent}, false)
	all.Wanted = true
	all.Always = true
	failing.Always = true
	independent.Always = true
	all.Rebuild = true
	failing.Rebuild = true
	independent.Rebuild = true

	var failCalls, indepCalls int32
	all.Actions = []graph.Rule{&countingRule{calls: new(int32), succeed: true}}
	failing.Actions = []graph.Rule{&countingRule{calls: &failCalls, succeed: false}}
	independent.Actions = []graph.Rule{&countingRule{calls: &indepCalls, succeed: true}}

	g.Prepare(all)
	s := New(g, true)
	s.BuildTargets([]*graph.Target{all})
	failed := s.Run(1)

	assert.Contains(t, failed, "failing")
	// failing (prio 2) is dequeued before independent (prio 3); its failure
	// drains the queue, so independent never runs.
	assert.EqualValues(t, 0, indepCalls)
}

func TestNoRebuildRunsNoActions(t *testing.T) {
	g := graph.New()
	a := g.GetUnboundTarget("a", nil)
	a.Wanted = true

	var calls int32
	a.Actions = []graph.Rule{&countingRule{calls: &calls, succeed: true}}

	g.Prepare(a)
	// a is phony with no deps and Always/Rebuild left false: CheckUpdate must
	// return false so no action runs (spec.md invariant 4, the -a=false
	// case for an up-to-date target).
	s := New(g, false)
	s.BuildTargets([]*graph.Target{a})
	s.Run(1)

	assert.EqualValues(t, 0, calls)
	assert.True(t, a.Done)
}
