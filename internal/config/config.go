// Package config loads and validates the controller configuration.
//
// Configuration is YAML with strict field checking (typos are errors,
// not silently ignored knobs) and is additionally validated against an
// embedded CUE schema so out-of-range tuning values are rejected at
// load time rather than surfacing as controller misbehavior.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Config holds the tunable numeric policy parameters of the controller.
//
// The defaults mirror a conventional passenger-car calibration: pedals
// count as pressed above 3% travel, cruise regulation is allowed
// between 30 and 150 km/h, and each quick press nudges the stored
// speed by 2.5 km/h.
type Config struct {
	// PedalMin is the pedal position (percent) above which the pedal
	// is considered pressed.
	PedalMin float64 `yaml:"pedal_min"`

	// SpeedMin and SpeedMax bound the window (km/h) in which the
	// vehicle speed is considered valid for cruise regulation.
	SpeedMin float64 `yaml:"speed_min"`
	SpeedMax float64 `yaml:"speed_max"`

	// SpeedStep is the stored-speed change per quick-accel/decel press.
	SpeedStep float64 `yaml:"speed_step"`

	// Kp and Ki are the proportional and integral regulator gains.
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`

	// ThrottleMax saturates the regulated throttle command (percent).
	ThrottleMax float64 `yaml:"throttle_max"`

	// SkipFirstTick suppresses the speed-validity check on tick 1,
	// matching hosts that deliver the first speed sample one period
	// late. Off by default; the startup delay is a host artifact, not
	// required controller behavior.
	SkipFirstTick bool `yaml:"skip_first_tick"`
}

// Default returns the standard calibration.
func Default() Config {
	return Config{
		PedalMin:    3.0,
		SpeedMin:    30.0,
		SpeedMax:    150.0,
		SpeedStep:   2.5,
		Kp:          8.113,
		Ki:          0.5,
		ThrottleMax: 100.0,
	}
}

// Load reads a YAML config file, validates it against the CUE schema,
// and returns the defaults overlaid with the file's settings.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes YAML config bytes over the defaults.
func Parse(data []byte) (Config, error) {
	if err := validateSchema(data); err != nil {
		return Config{}, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // reject typos like "speed_mim:"
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the per-field schema cannot
// express on optional fields.
func (c Config) Validate() error {
	if c.SpeedMin >= c.SpeedMax {
		return fmt.Errorf("invalid config: speed_min (%g) must be below speed_max (%g)", c.SpeedMin, c.SpeedMax)
	}
	return nil
}

// validateSchema unifies the decoded YAML document with the embedded
// #Config schema and reports any constraint violation.
func validateSchema(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if raw == nil {
		return nil // empty file: pure defaults
	}

	ctx := cuecontext.New()
	schemaFile := ctx.CompileString(schemaCUE)
	if err := schemaFile.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	schema := schemaFile.LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("lookup config schema: %w", err)
	}

	unified := schema.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
