package engine

import "github.com/roach88/tempomat/internal/bus"

// Process is one reactive process in the fixed network.
//
// Step is invoked at least twice per tick (the confirming pass that
// detects the fixpoint re-runs every process) and must be monotonic:
// re-invocation against the same bus and the same committed state may
// only re-emit identical signals. Processes that cache per-tick work
// can use Tick.Seq to detect re-invocation.
//
// Commit applies the process's pending persistent-state update. It is
// called exactly once per tick, only after the fixpoint is reached.
// On a failed tick Commit is never called, so persistent state never
// advances past a causality failure.
type Process interface {
	Name() string
	Step(t *Tick) error
	Commit()
}

// Tick is the evaluation context handed to each process step.
// It carries the current bus and the previous tick's committed frame.
type Tick struct {
	// Seq is the logical tick number (first tick is 1).
	Seq int64

	// Bus is the current tick's broadcast state.
	Bus *bus.Bus

	prev *Frame
}

// PrevFloat is the delayed read: the float signal's value as committed
// at the end of the previous tick. Never reflects the value being
// computed in the current tick.
func (t *Tick) PrevFloat(s bus.Signal) float64 {
	return t.prev.floats[s]
}

// PrevInt is the delayed read for int-valued signals.
func (t *Tick) PrevInt(s bus.Signal) int64 {
	return t.prev.ints[s]
}

// Frame is one generation of committed signal values.
//
// Valued signals that were not re-emitted in a tick keep their prior
// committed value, so a frame always carries a defined value for every
// valued signal (zero before the first emission ever).
type Frame struct {
	seq     int64
	present [bus.NumSignals]bool
	floats  [bus.NumSignals]float64
	ints    [bus.NumSignals]int64
}

// Seq returns the tick number the frame was committed on.
func (f *Frame) Seq() int64 {
	return f.seq
}

// Present reports whether the signal was emitted on the frame's tick.
func (f *Frame) Present(s bus.Signal) bool {
	return f.present[s]
}

// Float returns the committed value of a float signal. For signals not
// emitted on the frame's tick this is the carried-forward prior value.
func (f *Frame) Float(s bus.Signal) float64 {
	return f.floats[s]
}

// Int returns the committed value of an int signal.
func (f *Frame) Int(s bus.Signal) int64 {
	return f.ints[s]
}

// capture builds the committed frame for a converged tick: presence
// from the bus, values from the bus where emitted, carried forward
// from the previous frame where not.
func capture(seq int64, b *bus.Bus, prev *Frame) *Frame {
	f := &Frame{seq: seq}
	for i := 0; i < bus.NumSignals; i++ {
		s := bus.Signal(i)
		f.present[s] = b.Present(s)
		switch bus.KindOf(s) {
		case bus.KindFloat:
			if v, ok := b.FloatValue(s); ok {
				f.floats[s] = v
			} else {
				f.floats[s] = prev.floats[s]
			}
		case bus.KindInt:
			if v, ok := b.IntValue(s); ok {
				f.ints[s] = v
			} else {
				f.ints[s] = prev.ints[s]
			}
		}
	}
	return f
}
