package control

import (
	"github.com/roach88/tempomat/internal/bus"
	"github.com/roach88/tempomat/internal/engine"
)

// PedalDetector derives AccelPressed and BrakePressed from the raw
// pedal positions. Purely combinational: no persistent state, so Step
// is trivially monotonic and Commit is a no-op.
type PedalDetector struct {
	pol Policies
}

// NewPedalDetector creates the detector over the host policy boundary.
func NewPedalDetector(pol Policies) *PedalDetector {
	return &PedalDetector{pol: pol}
}

func (p *PedalDetector) Name() string { return "pedal-detector" }

func (p *PedalDetector) Step(t *engine.Tick) error {
	if pos, ok := t.Bus.FloatValue(bus.SigAccel); ok && p.pol.IsPressed(pos) {
		t.Bus.Emit(bus.SigAccelPressed)
	}
	if pos, ok := t.Bus.FloatValue(bus.SigBrake); ok && p.pol.IsPressed(pos) {
		t.Bus.Emit(bus.SigBrakePressed)
	}
	return nil
}

func (p *PedalDetector) Commit() {}

// SpeedChecker emits SpeedValid each tick the host validity policy
// accepts the current speed. Optionally stays silent on the very first
// tick for hosts whose speed sensor delivers its first sample one
// period late (configurable; see config.SkipFirstTick).
type SpeedChecker struct {
	pol           Policies
	skipFirstTick bool
}

// NewSpeedChecker creates the checker.
func NewSpeedChecker(pol Policies, skipFirstTick bool) *SpeedChecker {
	return &SpeedChecker{pol: pol, skipFirstTick: skipFirstTick}
}

func (p *SpeedChecker) Name() string { return "speed-checker" }

func (p *SpeedChecker) Step(t *engine.Tick) error {
	if p.skipFirstTick && t.Seq == 1 {
		return nil
	}
	if speed, ok := t.Bus.FloatValue(bus.SigSpeed); ok && p.pol.CheckSpeedValid(speed) {
		t.Bus.Emit(bus.SigSpeedValid)
	}
	return nil
}

func (p *SpeedChecker) Commit() {}
