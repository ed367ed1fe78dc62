package control

import (
	"math"

	"github.com/roach88/tempomat/internal/bus"
	"github.com/roach88/tempomat/internal/config"
	"github.com/roach88/tempomat/internal/engine"
)

// Inputs is one tick's external environment: momentary driver buttons
// and the three continuous measurements.
type Inputs struct {
	On         bool    `json:"on,omitempty" yaml:"on,omitempty"`
	Off        bool    `json:"off,omitempty" yaml:"off,omitempty"`
	Resume     bool    `json:"resume,omitempty" yaml:"resume,omitempty"`
	Set        bool    `json:"set,omitempty" yaml:"set,omitempty"`
	QuickAccel bool    `json:"quick_accel,omitempty" yaml:"quick_accel,omitempty"`
	QuickDecel bool    `json:"quick_decel,omitempty" yaml:"quick_decel,omitempty"`
	Accel      float64 `json:"accel" yaml:"accel"`
	Brake      float64 `json:"brake" yaml:"brake"`
	Speed      float64 `json:"speed" yaml:"speed"`
}

// Outputs is one tick's committed result. CruiseState and ThrottleCmd
// are defined on every tick without exception; CruiseSpeed carries its
// committed value even on ticks the manager did not re-emit it.
type Outputs struct {
	CruiseState int64   `json:"state" yaml:"state"`
	ThrottleCmd float64 `json:"throttle" yaml:"throttle"`
	CruiseSpeed float64 `json:"cruise_speed" yaml:"cruise_speed"`
	GoingOn     bool    `json:"going_on,omitempty" yaml:"going_on,omitempty"`

	// Diagnostic is the optional diagnostic signal for the embedding
	// harness: empty in normal operation, an error-code string when
	// the tick recovered from a fault.
	Diagnostic string `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
}

// Diagnostic codes surfaced in Outputs.Diagnostic.
const (
	// DiagHostFault marks a tick whose measurements were out of domain
	// (NaN/Inf); the offending values were replaced with zero and the
	// controller will be forced toward Off on the next tick.
	DiagHostFault = "HOST_FAULT"

	// DiagForcedOff marks the tick on which a latched fault forced the
	// controller to Off.
	DiagForcedOff = "FORCED_OFF"

	// DiagCausality marks a tick aborted by a causality failure; the
	// returned outputs are the safe fallback, not committed results.
	DiagCausality = "CAUSALITY_FAILURE"
)

// Controller is the embedding facade: the five-process network wired
// onto the tick scheduler, called once per sampling period.
//
// Not safe for concurrent use; the execution model is single-threaded.
type Controller struct {
	cfg     config.Config
	sched   *engine.Scheduler
	machine *StateMachine
	manager *SpeedManager

	// forceOff latches a host fault or causality failure; the next
	// tick is seeded with Off so the controller re-enters the safe
	// state through the ordinary reset path.
	forceOff bool
}

// New creates a controller with the standard policies for cfg.
func New(cfg config.Config) *Controller {
	return NewWithPolicies(cfg, NewStandardPolicies(cfg))
}

// NewWithPolicies creates a controller with a caller-supplied host
// policy implementation.
func NewWithPolicies(cfg config.Config, pol Policies) *Controller {
	machine := NewStateMachine()
	manager := NewSpeedManager(pol)

	// Priority order. Detectors run first so the derived pedal and
	// validity signals are settled before the state machine reads
	// them; the manager needs CruiseState and GoingOn; the throttle
	// needs everything.
	procs := []engine.Process{
		NewPedalDetector(pol),
		NewSpeedChecker(pol, cfg.SkipFirstTick),
		machine,
		manager,
		NewThrottleController(pol),
	}

	return &Controller{
		cfg:     cfg,
		sched:   engine.NewScheduler(procs),
		machine: machine,
		manager: manager,
	}
}

// Config returns the controller's calibration.
func (c *Controller) Config() config.Config {
	return c.cfg
}

// Tick evaluates one sampling instant.
//
// On a causality failure the returned error is non-nil and the outputs
// are the safe fallback (Off, zero throttle); no internal state has
// advanced and the next tick is forced toward Off.
func (c *Controller) Tick(in Inputs) (Outputs, error) {
	diag := ""

	// Host policy fault: out-of-domain measurements are replaced with
	// zero for this tick and force Off on the next one. Regulating on
	// bad data is unsafe; a zero accelerator yields zero throttle.
	if !finite(in.Accel) || !finite(in.Brake) || !finite(in.Speed) {
		in.Accel = zeroIfBad(in.Accel)
		in.Brake = zeroIfBad(in.Brake)
		in.Speed = zeroIfBad(in.Speed)
		diag = DiagHostFault
		defer func() { c.forceOff = true }()
	}

	seeds := make([]engine.Seed, 0, 12)
	seeds = append(seeds,
		engine.FloatSeed(bus.SigAccel, in.Accel),
		engine.FloatSeed(bus.SigBrake, in.Brake),
		engine.FloatSeed(bus.SigSpeed, in.Speed),
	)
	if in.On {
		seeds = append(seeds, engine.PureSeed(bus.SigOn))
	}
	if in.Off {
		seeds = append(seeds, engine.PureSeed(bus.SigOff))
	}
	if in.Resume {
		seeds = append(seeds, engine.PureSeed(bus.SigResume))
	}
	if in.Set {
		seeds = append(seeds, engine.PureSeed(bus.SigSet))
	}
	if in.QuickAccel {
		seeds = append(seeds, engine.PureSeed(bus.SigQuickAccel))
	}
	if in.QuickDecel {
		seeds = append(seeds, engine.PureSeed(bus.SigQuickDecel))
	}

	if c.forceOff {
		c.forceOff = false
		if !in.Off {
			seeds = append(seeds, engine.PureSeed(bus.SigOff))
		}
		if diag == "" {
			diag = DiagForcedOff
		}
	}

	frame, err := c.sched.Step(seeds)
	if err != nil {
		c.forceOff = true
		return Outputs{
			CruiseState: StateOff,
			ThrottleCmd: 0,
			CruiseSpeed: c.manager.CruiseSpeed(),
			Diagnostic:  DiagCausality,
		}, err
	}

	return Outputs{
		CruiseState: frame.Int(bus.SigCruiseState),
		ThrottleCmd: frame.Float(bus.SigThrottleCmd),
		CruiseSpeed: frame.Float(bus.SigCruiseSpeed),
		GoingOn:     frame.Present(bus.SigGoingOn),
		Diagnostic:  diag,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func zeroIfBad(v float64) float64 {
	if finite(v) {
		return v
	}
	return 0
}
