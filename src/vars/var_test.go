package vars

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVarCombinedOwnOnly(t *testing.T) {
	v := New(" ")
	v.Add("-O2", "-Wall")
	assert.Equal(t, []string{"-O2", "-Wall"}, v.Combined())
}

func TestVarSubRemovesAndSuppresses(t *testing.T) {
	v := New(" ")
	v.Add("-O2", "-Wall")
	v.Sub("-Wall")
	assert.Equal(t, []string{"-O2"}, v.Combined())
}

func TestVarSetDisablesInherit(t *testing.T) {
	parent := New(" ")
	parent.Add("-DPARENT")
	child := New(" ")
	child.parents = []*Var{parent}
	assert.Equal(t, []string{"-DPARENT"}, child.Combined())

	child.Set("-DONLY")
	assert.Equal(t, []string{"-DONLY"}, child.Combined())
}

func TestVarJoinEmpty(t *testing.T) {
	v := New(" ")
	assert.Equal(t, "", v.Join(""))
}

func TestVarJoinNonEmpty(t *testing.T) {
	v := New(" ")
	v.Add("-O2")
	assert.Equal(t, " -O2", v.Join(""))
	assert.Equal(t, "-O2", v.ShellJoin())
}

func TestVarPrefix(t *testing.T) {
	v := New(" ")
	v.Add("a", "b")
	assert.Equal(t, []string{"-Ia", "-Ib"}, v.Prefix("-I"))
}

func TestVarCombinedDedupesDiamondParents(t *testing.T) {
	base := New(" ")
	base.Add("-DBASE")
	left := New(" ")
	left.parents = []*Var{base}
	right := New(" ")
	right.parents = []*Var{base}
	child := New(" ")
	child.parents = []*Var{left, right}

	// base is reachable via both left and right, but contributes its
	// entries only once, deduplicated by identity.
	assert.Equal(t, []string{"-DBASE"}, child.Combined())
}

func TestVarCombinedCycleSafe(t *testing.T) {
	a := New(" ")
	b := New(" ")
	a.parents = []*Var{b}
	b.parents = []*Var{a}
	a.Add("x")
	assert.NotPanics(t, func() { a.Combined() })
}
