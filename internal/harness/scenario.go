package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tempomat/internal/control"
)

// Scenario defines a conformance test drive: a scripted tick sequence
// with optional per-tick expectations and final assertions on the
// resulting trace.
type Scenario struct {
	// Name uniquely identifies the scenario (also names its golden file).
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description,omitempty"`

	// Config holds calibration overrides merged onto the defaults.
	// Validated through the same schema as a standalone config file.
	Config map[string]any `yaml:"config,omitempty"`

	// Ticks is the scripted input sequence, one entry per tick (or per
	// block of identical ticks when Repeat is set).
	Ticks []TickStep `yaml:"ticks"`

	// Assertions validate the full trace after the drive.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// TickStep scripts one tick (or Repeat identical ticks) of inputs.
type TickStep struct {
	Inputs control.Inputs `yaml:"inputs"`

	// Repeat holds the scripted inputs for this many consecutive
	// ticks. Zero means one.
	Repeat int `yaml:"repeat,omitempty"`

	// Expect, when set, is validated against the committed outputs of
	// every tick this step scripts. Subset match: only set fields are
	// checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause is a subset match on one tick's outputs.
// Nil fields are not checked. Float fields compare within a small
// absolute tolerance so expectations can be written by hand.
type ExpectClause struct {
	State       *int64   `yaml:"state,omitempty"`
	Throttle    *float64 `yaml:"throttle,omitempty"`
	CruiseSpeed *float64 `yaml:"cruise_speed,omitempty"`
	GoingOn     *bool    `yaml:"going_on,omitempty"`
	Diagnostic  *string  `yaml:"diagnostic,omitempty"`
}

// Assertion validates the completed trace.
type Assertion struct {
	// Type is one of:
	// - "state_sequence": the run's states, consecutive duplicates
	//   collapsed, must equal States exactly
	// - "final_output": Expect must match the last tick's outputs
	// - "activation_count": exactly Count ticks carried GoingOn
	Type string `yaml:"type"`

	States []int64       `yaml:"states,omitempty"`
	Expect *ExpectClause `yaml:"expect,omitempty"`
	Count  int           `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertStateSequence   = "state_sequence"
	AssertFinalOutput     = "final_output"
	AssertActivationCount = "activation_count"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// (typos) and structural errors are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catch typos like "asserions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// Validate checks structural requirements beyond YAML well-formedness.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario is missing required field: name")
	}
	if len(s.Ticks) == 0 {
		return fmt.Errorf("scenario %q has no ticks", s.Name)
	}
	for i, step := range s.Ticks {
		if step.Repeat < 0 {
			return fmt.Errorf("scenario %q tick %d: negative repeat", s.Name, i)
		}
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertStateSequence:
			if len(a.States) == 0 {
				return fmt.Errorf("scenario %q assertion %d: state_sequence needs states", s.Name, i)
			}
		case AssertFinalOutput:
			if a.Expect == nil {
				return fmt.Errorf("scenario %q assertion %d: final_output needs expect", s.Name, i)
			}
		case AssertActivationCount:
			if a.Count < 0 {
				return fmt.Errorf("scenario %q assertion %d: negative count", s.Name, i)
			}
		default:
			return fmt.Errorf("scenario %q assertion %d: unknown type %q", s.Name, i, a.Type)
		}
	}
	return nil
}
