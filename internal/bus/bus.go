// Package bus implements the per-tick broadcast signal bus.
//
// The bus holds, for exactly one tick, the presence flag and optional
// value of every signal in the fixed signal set. All inter-process
// communication within a tick goes through the bus; no process ever
// reads another process's persistent state directly.
//
// MONOTONIC COMMITMENT:
// Within one tick a signal's presence, once set, never reverts to
// absent, and its value, once set, is fixed. Re-emission with the same
// value is an idempotent no-op. Re-emission with a different value is
// a conflict - the tick cannot be given a consistent meaning and the
// scheduler must abort it (causality failure).
//
// The bus is exclusively owned by the scheduler for the duration of
// one tick and is not safe for concurrent use. The execution model is
// single-threaded; there is nothing to synchronize.
package bus

import "fmt"

// Bus is the shared broadcast state for the current tick.
// The zero value is ready to use (all signals absent).
type Bus struct {
	present   [NumSignals]bool
	floats    [NumSignals]float64
	ints      [NumSignals]int64
	emissions int // count of distinct presence commitments this tick
	conflict  error
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Reset clears all presence flags and values for a new tick.
// The conflict marker and emission counter are cleared as well.
func (b *Bus) Reset() {
	*b = Bus{}
}

// Emissions returns the number of distinct signal commitments made
// this tick. The scheduler compares this counter across passes to
// detect the fixpoint: a full pass that adds no emissions is final.
func (b *Bus) Emissions() int {
	return b.emissions
}

// Conflict returns the first conflicting re-emission observed this
// tick, or nil. A non-nil conflict invalidates the whole tick.
func (b *Bus) Conflict() error {
	return b.conflict
}

// Emit sets a pure signal present. Idempotent.
// Emitting a valued signal without a value is recorded as a conflict.
func (b *Bus) Emit(s Signal) {
	if kinds[s] != KindPure {
		b.fail(s, "emitted without a value")
		return
	}
	if b.present[s] {
		return
	}
	b.present[s] = true
	b.emissions++
}

// EmitFloat sets a float-valued signal present with the given value.
// Re-emission with the same value is a no-op; a different value is a
// conflict. Value equality is exact bitwise-comparable float equality:
// two passes of a deterministic process either agree exactly or the
// tick is genuinely contradictory.
func (b *Bus) EmitFloat(s Signal, v float64) {
	if kinds[s] != KindFloat {
		b.fail(s, "emitted with a float value")
		return
	}
	if b.present[s] {
		if b.floats[s] != v {
			b.fail(s, fmt.Sprintf("re-emitted with conflicting value (%g != %g)", v, b.floats[s]))
		}
		return
	}
	b.present[s] = true
	b.floats[s] = v
	b.emissions++
}

// EmitInt sets an int-valued signal present with the given value.
// Same idempotency and conflict rules as EmitFloat.
func (b *Bus) EmitInt(s Signal, v int64) {
	if kinds[s] != KindInt {
		b.fail(s, "emitted with an int value")
		return
	}
	if b.present[s] {
		if b.ints[s] != v {
			b.fail(s, fmt.Sprintf("re-emitted with conflicting value (%d != %d)", v, b.ints[s]))
		}
		return
	}
	b.present[s] = true
	b.ints[s] = v
	b.emissions++
}

// Present reports whether the signal has been emitted this tick.
func (b *Bus) Present(s Signal) bool {
	return b.present[s]
}

// FloatValue returns the value of a float signal and whether it is
// present. Querying an absent signal returns (0, false): within the
// scheduler's fixed evaluation order, absence at query time is final
// absence for the tick.
func (b *Bus) FloatValue(s Signal) (float64, bool) {
	if !b.present[s] || kinds[s] != KindFloat {
		return 0, false
	}
	return b.floats[s], true
}

// IntValue returns the value of an int signal and whether it is present.
func (b *Bus) IntValue(s Signal) (int64, bool) {
	if !b.present[s] || kinds[s] != KindInt {
		return 0, false
	}
	return b.ints[s], true
}

// fail records the first conflict. Later conflicts are dropped - the
// first contradiction already invalidates the tick.
func (b *Bus) fail(s Signal, msg string) {
	if b.conflict == nil {
		b.conflict = fmt.Errorf("signal %s %s", s, msg)
	}
}
