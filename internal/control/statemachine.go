package control

import (
	"github.com/roach88/tempomat/internal/bus"
	"github.com/roach88/tempomat/internal/engine"
)

// Controller state codes, exposed on the bus as CruiseState.
const (
	StateOff     int64 = 0 // cruise control off, throttle passes through
	StateOn      int64 = 1 // regulating at the stored cruise speed
	StateDisable int64 = 2 // suspended: accelerator override or invalid speed
	StateStdby   int64 = 3 // suspended by brake, waiting for Resume
)

// validState reports a code inside the defined range.
func validState(s int64) bool {
	return s >= StateOff && s <= StateStdby
}

// StateMachine is the cruise-control mode automaton.
//
// Two reset conditions preempt the ordinary transition body each tick:
// Off forces StateOff and Brake forces StateStdby, with Off strictly
// outranking Brake (outer reset over inner reset). Only when neither
// reset fires does the per-state transition table run.
//
// The machine emits CruiseState exactly once per tick with the state
// the tick resolves to, and GoingOn only on the Off->On transition.
// Step recomputes the pending state from the committed state and the
// bus on every invocation, so re-running it within the tick re-emits
// identical signals (monotonic).
type StateMachine struct {
	state   int64 // committed
	pending int64
}

// NewStateMachine creates the automaton in StateOff.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateOff, pending: StateOff}
}

// State returns the committed state code.
func (p *StateMachine) State() int64 { return p.state }

func (p *StateMachine) Name() string { return "state-machine" }

func (p *StateMachine) Step(t *engine.Tick) error {
	b := t.Bus
	next := p.state
	goingOn := false

	switch {
	case b.Present(bus.SigOff):
		// Outer reset: overrides everything, including a simultaneous
		// brake press.
		next = StateOff
	case b.Present(bus.SigBrakePressed):
		// Inner reset: forces standby regardless of prior state.
		next = StateStdby
	case !validState(p.state):
		// Out-of-range state code recovers to Off, never a crash.
		next = StateOff
	default:
		accel := b.Present(bus.SigAccelPressed)
		speedOK := b.Present(bus.SigSpeedValid)

		switch p.state {
		case StateOff:
			if b.Present(bus.SigOn) {
				next = StateOn
				goingOn = true
			}
		case StateOn:
			if accel || !speedOK {
				next = StateDisable
			}
		case StateDisable:
			if !accel && speedOK {
				next = StateOn
			}
		case StateStdby:
			if b.Present(bus.SigResume) {
				if accel || !speedOK {
					next = StateDisable
				} else {
					next = StateOn
				}
			}
		}
	}

	b.EmitInt(bus.SigCruiseState, next)
	if goingOn {
		b.Emit(bus.SigGoingOn)
	}
	p.pending = next
	return nil
}

func (p *StateMachine) Commit() {
	p.state = p.pending
}
