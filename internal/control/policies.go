// Package control implements the cruise-control process network: the
// five reactive processes, the host policy boundary they call, and the
// Controller facade that runs them on the tick scheduler.
package control

import (
	"math"

	"github.com/roach88/tempomat/internal/config"
)

// Policies is the host call boundary: the numeric policy decisions the
// reactive core treats as black boxes. Implementations must be
// deterministic - given the same call sequence they must return the
// same values - or replay verification will report divergence.
type Policies interface {
	// IsPressed decides whether a pedal position counts as pressed.
	IsPressed(position float64) bool

	// CheckSpeedValid decides whether regulation is allowed at speed.
	CheckSpeedValid(speed float64) bool

	// RegulateThrottle computes the throttle command while cruising.
	// reset is true exactly on the activation tick; the regulator uses
	// it to reinitialize any internal integrator.
	RegulateThrottle(reset bool, cruiseSpeed, speed float64) float64

	// SetCruiseSpeedWithinBounds clamps a captured speed into the
	// allowed stored-cruise-speed range.
	SetCruiseSpeedWithinBounds(speed float64) float64

	// IncrementCruiseSpeed and DecrementCruiseSpeed derive the next
	// stored speed from the previous tick's committed value.
	IncrementCruiseSpeed(prev float64) float64
	DecrementCruiseSpeed(prev float64) float64
}

// StandardPolicies is the default calibration-driven policy set:
// threshold pedal detection, a speed validity window, and a saturated
// PI throttle regulator.
type StandardPolicies struct {
	cfg config.Config

	// integral is the regulator's accumulated speed error. It is
	// cleared on the reset (activation) tick.
	integral float64
}

// NewStandardPolicies creates policies for the given calibration.
func NewStandardPolicies(cfg config.Config) *StandardPolicies {
	return &StandardPolicies{cfg: cfg}
}

// IsPressed reports position above the calibrated threshold.
// Non-finite positions are never pressed.
func (p *StandardPolicies) IsPressed(position float64) bool {
	return position > p.cfg.PedalMin
}

// CheckSpeedValid reports speed inside the calibrated window.
// NaN compares false on both bounds, so out-of-domain samples are
// invalid without a special case.
func (p *StandardPolicies) CheckSpeedValid(speed float64) bool {
	return speed >= p.cfg.SpeedMin && speed <= p.cfg.SpeedMax
}

// RegulateThrottle runs one step of the PI regulator.
func (p *StandardPolicies) RegulateThrottle(reset bool, cruiseSpeed, speed float64) float64 {
	if reset {
		p.integral = 0
	}
	err := cruiseSpeed - speed
	p.integral += err

	cmd := p.cfg.Kp*err + p.cfg.Ki*p.integral
	if cmd < 0 {
		return 0
	}
	if cmd > p.cfg.ThrottleMax {
		return p.cfg.ThrottleMax
	}
	return cmd
}

// SetCruiseSpeedWithinBounds clamps speed into the window.
func (p *StandardPolicies) SetCruiseSpeedWithinBounds(speed float64) float64 {
	return p.clamp(speed)
}

// IncrementCruiseSpeed raises the stored speed one step, clamped.
func (p *StandardPolicies) IncrementCruiseSpeed(prev float64) float64 {
	return p.clamp(prev + p.cfg.SpeedStep)
}

// DecrementCruiseSpeed lowers the stored speed one step, clamped.
func (p *StandardPolicies) DecrementCruiseSpeed(prev float64) float64 {
	return p.clamp(prev - p.cfg.SpeedStep)
}

func (p *StandardPolicies) clamp(v float64) float64 {
	if math.IsNaN(v) || v < p.cfg.SpeedMin {
		return p.cfg.SpeedMin
	}
	if v > p.cfg.SpeedMax {
		return p.cfg.SpeedMax
	}
	return v
}
