package control

import (
	"github.com/roach88/tempomat/internal/bus"
	"github.com/roach88/tempomat/internal/engine"
)

// ThrottleController produces the ThrottleCmd output.
//
// While the controller is On it delegates to the host regulation
// policy, raising the reset flag exactly on the activation tick so the
// regulator can reinitialize its integrator. In every other state the
// accelerator position passes through unchanged and the regulator is
// not running.
//
// The regulation policy may be stateful (the default PI regulator is),
// so the computed command is memoized per tick: the confirming
// fixpoint pass re-emits the cached command instead of stepping the
// regulator a second time.
type ThrottleController struct {
	pol Policies

	// resetPending carries an activation seen on a tick whose
	// regulation never ran into the next regulated tick. The policy
	// call consumes it.
	resetPending bool
	nextReset    bool

	computedSeq int64
	computedCmd float64
}

// NewThrottleController creates the controller.
func NewThrottleController(pol Policies) *ThrottleController {
	return &ThrottleController{pol: pol}
}

func (p *ThrottleController) Name() string { return "throttle-controller" }

func (p *ThrottleController) Step(t *engine.Tick) error {
	b := t.Bus

	state, ok := b.IntValue(bus.SigCruiseState)
	if !ok {
		// The state machine has not spoken yet this pass; stay silent
		// and react when re-run after it.
		return nil
	}

	if state == StateOn {
		if p.computedSeq != t.Seq {
			reset := p.resetPending || b.Present(bus.SigGoingOn)

			// Committed-so-far cruise speed: this tick's emission when
			// present, otherwise the previous tick's committed value.
			cruise, present := b.FloatValue(bus.SigCruiseSpeed)
			if !present {
				cruise = t.PrevFloat(bus.SigCruiseSpeed)
			}
			speed, _ := b.FloatValue(bus.SigSpeed)

			p.computedCmd = p.pol.RegulateThrottle(reset, cruise, speed)
			p.computedSeq = t.Seq
		}
		b.EmitFloat(bus.SigThrottleCmd, p.computedCmd)
		p.nextReset = false
		return nil
	}

	accel, _ := b.FloatValue(bus.SigAccel)
	b.EmitFloat(bus.SigThrottleCmd, accel)
	// An activation that never reached a regulated tick stays armed.
	p.nextReset = p.resetPending || b.Present(bus.SigGoingOn)
	return nil
}

func (p *ThrottleController) Commit() {
	p.resetPending = p.nextReset
}
