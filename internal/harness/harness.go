// Package harness executes drive scenarios against the real
// controller and validates the resulting tick traces.
//
// A scenario scripts the external environment tick by tick; the
// harness feeds it through a freshly constructed controller, records
// every committed output, checks the per-tick expect clauses and the
// final assertions, and exposes the trace for golden-file comparison.
package harness

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tempomat/internal/config"
	"github.com/roach88/tempomat/internal/control"
)

// floatTolerance is the absolute tolerance for hand-written float
// expectations. Trace determinism itself is exact; the slack is only
// for humans rounding regulator outputs in scenario files.
const floatTolerance = 1e-9

// Run executes a scenario and returns its result.
//
// Each scenario runs a fresh controller built from the defaults plus
// the scenario's calibration overrides, so scenarios are isolated and
// order-independent.
func Run(scenario *Scenario) (*Result, error) {
	cfg, err := ScenarioConfig(scenario)
	if err != nil {
		return nil, err
	}

	ctrl := control.New(cfg)
	result := NewResult()

	seq := int64(0)
	for stepIdx, step := range scenario.Ticks {
		repeat := step.Repeat
		if repeat == 0 {
			repeat = 1
		}
		for i := 0; i < repeat; i++ {
			seq++
			out, tickErr := ctrl.Tick(step.Inputs)
			result.Trace = append(result.Trace, TickTrace{Seq: seq, Inputs: step.Inputs, Outputs: out})

			if tickErr != nil {
				result.AddError(fmt.Sprintf("tick %d: %v", seq, tickErr))
				continue
			}
			if step.Expect != nil {
				checkExpect(result, seq, stepIdx, step.Expect, out)
			}
		}
	}

	for i, assertion := range scenario.Assertions {
		if err := evalAssertion(result.Trace, assertion); err != nil {
			result.AddError(fmt.Sprintf("assertion %d: %v", i, err))
		}
	}

	return result, nil
}

// ScenarioConfig merges a scenario's overrides onto the defaults via
// the config package, so scenarios get the same schema validation as
// standalone config files.
func ScenarioConfig(scenario *Scenario) (config.Config, error) {
	if len(scenario.Config) == 0 {
		return config.Default(), nil
	}

	raw, err := yaml.Marshal(scenario.Config)
	if err != nil {
		return config.Config{}, fmt.Errorf("scenario %q: marshal config overrides: %w", scenario.Name, err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		return config.Config{}, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}
	return cfg, nil
}

func checkExpect(result *Result, seq int64, stepIdx int, expect *ExpectClause, out control.Outputs) {
	fail := func(field string, want, got any) {
		result.AddError(fmt.Sprintf("tick %d (step %d): expected %s=%v, got %v", seq, stepIdx, field, want, got))
	}

	if expect.State != nil && out.CruiseState != *expect.State {
		fail("state", *expect.State, out.CruiseState)
	}
	if expect.Throttle != nil && !closeEnough(out.ThrottleCmd, *expect.Throttle) {
		fail("throttle", *expect.Throttle, out.ThrottleCmd)
	}
	if expect.CruiseSpeed != nil && !closeEnough(out.CruiseSpeed, *expect.CruiseSpeed) {
		fail("cruise_speed", *expect.CruiseSpeed, out.CruiseSpeed)
	}
	if expect.GoingOn != nil && out.GoingOn != *expect.GoingOn {
		fail("going_on", *expect.GoingOn, out.GoingOn)
	}
	if expect.Diagnostic != nil && out.Diagnostic != *expect.Diagnostic {
		fail("diagnostic", *expect.Diagnostic, out.Diagnostic)
	}
}

func closeEnough(got, want float64) bool {
	return math.Abs(got-want) <= floatTolerance
}
