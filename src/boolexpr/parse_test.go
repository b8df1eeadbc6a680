package boolexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func oracleFor(truthy ...string) Oracle {
	set := map[string]bool{}
	for _, t := range truthy {
		set[t] = true
	}
	return func(name string) bool { return set[name] }
}

func TestEvalName(t *testing.T) {
	ok, err := Eval("A", oracleFor("A"))
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eval("A", oracleFor("B"))
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalAndOrPrecedence(t *testing.T) {
	// or binds loosest: "A and B or C" == (A and B) or C
	ok, err := Eval("A and B or C", oracleFor("C"))
	assert.NoError(t, err)
	assert.True(t, ok, "C alone should satisfy (A and B) or C")

	ok, err = Eval("A and B or C", oracleFor("A"))
	assert.NoError(t, err)
	assert.False(t, ok, "A alone should not satisfy (A and B) or C")
}

func TestEvalNotBindsTightest(t *testing.T) {
	// "not A and B" == (not A) and B
	ok, err := Eval("not A and B", oracleFor("B"))
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eval("not A and B", oracleFor("A", "B"))
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalParens(t *testing.T) {
	ok, err := Eval("not (A or B)", oracleFor())
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eval("not (A or B)", oracleFor("A"))
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalMultiAndOr(t *testing.T) {
	ok, err := Eval("A and B and C", oracleFor("A", "B", "C"))
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eval("A or B or C", oracleFor("B"))
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestParseErrorUnbalancedParens(t *testing.T) {
	_, err := Eval("(A and B", oracleFor())
	assert.Error(t, err)
}

func TestParseErrorEmpty(t *testing.T) {
	_, err := Eval("", oracleFor())
	assert.Error(t, err)
}

func TestMonotoneInUsed(t *testing.T) {
	// Flipping a module from unused to used must never flip a
	// previously-true use_if predicate to false (spec.md invariant 7).
	expr, err := NewParser().Parse("A or B")
	assert.NoError(t, err)

	before := expr.Eval(oracleFor("A"))
	after := expr.Eval(oracleFor("A", "B"))
	assert.True(t, before)
	assert.True(t, after)
}
