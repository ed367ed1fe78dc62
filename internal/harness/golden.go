package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tempomat/internal/trace"
)

// TraceSnapshot captures a scenario's trace for golden comparison.
// Serialized through the canonical JSON marshaller so the bytes are
// stable across platforms.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TickTrace
}

// toCanonicalMap renders the snapshot as plain maps for the canonical
// marshaller. Zero-valued optional fields are omitted to keep golden
// files readable.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	ticks := make([]any, len(s.Trace))
	for i, tick := range s.Trace {
		m := map[string]any{
			"seq":          tick.Seq,
			"state":        tick.Outputs.CruiseState,
			"throttle":     tick.Outputs.ThrottleCmd,
			"cruise_speed": tick.Outputs.CruiseSpeed,
		}
		if tick.Outputs.GoingOn {
			m["going_on"] = true
		}
		if tick.Outputs.Diagnostic != "" {
			m["diagnostic"] = tick.Outputs.Diagnostic
		}
		ticks[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"ticks":         ticks,
	}
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already-computed result's trace against the
// scenario's golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}

	traceJSON, err := trace.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
