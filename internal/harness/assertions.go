package harness

import (
	"fmt"
	"strings"
)

// AssertionError reports a failed trace assertion with enough context
// to debug it from the test log alone.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TickTrace
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nstate timeline:\n")
	for _, tick := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] state=%d throttle=%g cruise=%g\n",
			tick.Seq, tick.Outputs.CruiseState, tick.Outputs.ThrottleCmd, tick.Outputs.CruiseSpeed)
	}

	return buf.String()
}

func evalAssertion(trace []TickTrace, a Assertion) error {
	switch a.Type {
	case AssertStateSequence:
		return assertStateSequence(trace, a)
	case AssertFinalOutput:
		return assertFinalOutput(trace, a)
	case AssertActivationCount:
		return assertActivationCount(trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertStateSequence compares the run's state timeline, with
// consecutive duplicates collapsed, against the expected sequence.
func assertStateSequence(trace []TickTrace, a Assertion) error {
	var got []int64
	for _, tick := range trace {
		s := tick.Outputs.CruiseState
		if len(got) == 0 || got[len(got)-1] != s {
			got = append(got, s)
		}
	}

	if !int64SlicesEqual(got, a.States) {
		return &AssertionError{
			Type:     AssertStateSequence,
			Expected: fmt.Sprintf("%v", a.States),
			Actual:   fmt.Sprintf("%v", got),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalOutput(trace []TickTrace, a Assertion) error {
	if len(trace) == 0 {
		return &AssertionError{
			Type:     AssertFinalOutput,
			Expected: "at least one tick",
			Actual:   "empty trace",
		}
	}

	last := trace[len(trace)-1].Outputs
	probe := NewResult()
	checkExpect(probe, trace[len(trace)-1].Seq, -1, a.Expect, last)
	if !probe.Pass {
		return &AssertionError{
			Type:     AssertFinalOutput,
			Expected: strings.Join(probe.Errors, "; "),
			Actual:   fmt.Sprintf("%+v", last),
			Trace:    trace,
		}
	}
	return nil
}

func assertActivationCount(trace []TickTrace, a Assertion) error {
	count := 0
	for _, tick := range trace {
		if tick.Outputs.GoingOn {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertActivationCount,
			Expected: fmt.Sprintf("%d activation ticks", a.Count),
			Actual:   fmt.Sprintf("%d activation ticks", count),
			Trace:    trace,
		}
	}
	return nil
}

func int64SlicesEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
