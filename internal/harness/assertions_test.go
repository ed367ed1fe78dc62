package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempomat/internal/control"
)

func traceOfStates(states ...int64) []TickTrace {
	trace := make([]TickTrace, len(states))
	for i, s := range states {
		trace[i] = TickTrace{Seq: int64(i + 1), Outputs: control.Outputs{CruiseState: s}}
	}
	return trace
}

func TestAssertStateSequence(t *testing.T) {
	trace := traceOfStates(0, 1, 1, 1, 3, 3, 1)

	err := evalAssertion(trace, Assertion{
		Type:   AssertStateSequence,
		States: []int64{0, 1, 3, 1},
	})
	assert.NoError(t, err)

	err = evalAssertion(trace, Assertion{
		Type:   AssertStateSequence,
		States: []int64{0, 1, 3},
	})
	require.Error(t, err)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertStateSequence, aerr.Type)
	assert.Contains(t, aerr.Error(), "state timeline")
}

func TestAssertFinalOutput(t *testing.T) {
	trace := []TickTrace{
		{Seq: 1, Outputs: control.Outputs{CruiseState: 1, CruiseSpeed: 80}},
		{Seq: 2, Outputs: control.Outputs{CruiseState: 0, CruiseSpeed: 80}},
	}

	err := evalAssertion(trace, Assertion{
		Type:   AssertFinalOutput,
		Expect: &ExpectClause{State: i64p(0), CruiseSpeed: f64p(80)},
	})
	assert.NoError(t, err)

	err = evalAssertion(trace, Assertion{
		Type:   AssertFinalOutput,
		Expect: &ExpectClause{State: i64p(1)},
	})
	assert.Error(t, err)
}

func TestAssertFinalOutputEmptyTrace(t *testing.T) {
	err := evalAssertion(nil, Assertion{
		Type:   AssertFinalOutput,
		Expect: &ExpectClause{State: i64p(0)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty trace")
}

func TestAssertActivationCount(t *testing.T) {
	trace := []TickTrace{
		{Seq: 1, Outputs: control.Outputs{CruiseState: 1, GoingOn: true}},
		{Seq: 2, Outputs: control.Outputs{CruiseState: 1}},
		{Seq: 3, Outputs: control.Outputs{CruiseState: 0}},
		{Seq: 4, Outputs: control.Outputs{CruiseState: 1, GoingOn: true}},
	}

	assert.NoError(t, evalAssertion(trace, Assertion{Type: AssertActivationCount, Count: 2}))

	err := evalAssertion(trace, Assertion{Type: AssertActivationCount, Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 activation ticks")
}

func TestEvalAssertionUnknownType(t *testing.T) {
	err := evalAssertion(nil, Assertion{Type: "never-heard-of-it"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown assertion type")
}
