package control

import (
	"github.com/roach88/tempomat/internal/bus"
	"github.com/roach88/tempomat/internal/engine"
)

// SpeedManager owns the stored cruise speed.
//
// On the activation tick (GoingOn) it captures the current speed,
// clamped by the host bounds policy. While the controller is not Off
// it applies at most one adjustment per tick: Set re-captures the
// previous tick's speed, QuickAccel/QuickDecel step the previous
// tick's stored speed - both through delayed reads, so the adjustment
// always references the value committed before this tick's decision.
// Simultaneous QuickAccel and QuickDecel cancel out.
//
// CruiseSpeed is re-emitted only on ticks that change it; on silent
// ticks its committed value for the tick is the prior value (the
// scheduler's frame carries it forward).
type SpeedManager struct {
	pol Policies

	cruise  float64 // committed
	pending float64
}

// NewSpeedManager creates the manager with a zero stored speed.
func NewSpeedManager(pol Policies) *SpeedManager {
	return &SpeedManager{pol: pol}
}

// CruiseSpeed returns the committed stored cruise speed.
func (p *SpeedManager) CruiseSpeed() float64 { return p.cruise }

func (p *SpeedManager) Name() string { return "speed-manager" }

func (p *SpeedManager) Step(t *engine.Tick) error {
	b := t.Bus
	next := p.cruise
	fired := false

	if b.Present(bus.SigGoingOn) {
		speed, _ := b.FloatValue(bus.SigSpeed)
		next = p.pol.SetCruiseSpeedWithinBounds(speed)
		fired = true
	} else if state, ok := b.IntValue(bus.SigCruiseState); ok && state != StateOff {
		set := b.Present(bus.SigSet)
		qa := b.Present(bus.SigQuickAccel)
		qd := b.Present(bus.SigQuickDecel)

		switch {
		case set:
			next = p.pol.SetCruiseSpeedWithinBounds(t.PrevFloat(bus.SigSpeed))
			fired = true
		case qa && !qd:
			next = p.pol.IncrementCruiseSpeed(t.PrevFloat(bus.SigCruiseSpeed))
			fired = true
		case qd && !qa:
			next = p.pol.DecrementCruiseSpeed(t.PrevFloat(bus.SigCruiseSpeed))
			fired = true
		}
	}

	if fired {
		b.EmitFloat(bus.SigCruiseSpeed, next)
	}
	p.pending = next
	return nil
}

func (p *SpeedManager) Commit() {
	p.cruise = p.pending
}
