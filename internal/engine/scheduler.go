package engine

import (
	"log/slog"

	"github.com/roach88/tempomat/internal/bus"
)

// Seed is one external input emission applied to the bus at the start
// of a tick, before any process runs.
type Seed struct {
	Sig   bus.Signal
	Kind  bus.Kind
	Float float64
	Int   int64
}

// PureSeed seeds a presence-only signal.
func PureSeed(s bus.Signal) Seed {
	return Seed{Sig: s, Kind: bus.KindPure}
}

// FloatSeed seeds a float-valued signal.
func FloatSeed(s bus.Signal, v float64) Seed {
	return Seed{Sig: s, Kind: bus.KindFloat, Float: v}
}

// Scheduler drives one macro-step of the process network per call.
//
// INVARIANTS:
//   - The process slice order NEVER changes after construction; it is
//     the priority order and the only evaluation-order tie-breaker.
//   - The bus is owned by the scheduler; processes touch it only
//     through the Step contract.
//   - On a failed tick no process Commit runs and the previous-tick
//     frame is not rotated (no partial outputs).
type Scheduler struct {
	clock *Clock
	bus   *bus.Bus
	procs []Process
	prev  *Frame
}

// NewScheduler creates a scheduler over the given processes.
//
// The slice is copied to protect the fixed-order invariant from
// external mutation. The bound on fixpoint passes is derived from the
// process count: with N processes, any signal an earlier process can
// contribute is available after at most N full passes, so a pass
// beyond that cannot add information and indicates a causality cycle.
func NewScheduler(procs []Process) *Scheduler {
	procsCopy := make([]Process, len(procs))
	copy(procsCopy, procs)

	return &Scheduler{
		clock: NewClock(),
		bus:   bus.New(),
		procs: procsCopy,
		prev:  &Frame{},
	}
}

// NewSchedulerWithClock creates a scheduler with a pre-positioned
// clock. Used by replay to resume tick numbering from a recording.
func NewSchedulerWithClock(procs []Process, clock *Clock) *Scheduler {
	s := NewScheduler(procs)
	s.clock = clock
	return s
}

// Clock returns the scheduler's tick clock.
func (s *Scheduler) Clock() *Clock {
	return s.clock
}

// Prev returns the frame committed by the most recent successful tick.
// Before the first tick it is the zero frame.
func (s *Scheduler) Prev() *Frame {
	return s.prev
}

// Step evaluates one tick: seed the bus, run the fixpoint loop, and on
// convergence commit the frame and advance every process's state.
//
// Returns the committed frame, or a TickError on causality failure or
// process fault. A failed tick commits nothing: the scheduler's
// previous-frame generation and all process state are untouched, so
// the caller may retry or substitute safe outputs without corruption.
func (s *Scheduler) Step(seeds []Seed) (*Frame, error) {
	seq := s.clock.Next()

	s.bus.Reset()
	for _, seed := range seeds {
		switch seed.Kind {
		case bus.KindPure:
			s.bus.Emit(seed.Sig)
		case bus.KindFloat:
			s.bus.EmitFloat(seed.Sig, seed.Float)
		case bus.KindInt:
			s.bus.EmitInt(seed.Sig, seed.Int)
		}
	}

	tick := &Tick{Seq: seq, Bus: s.bus, prev: s.prev}

	// Fixpoint loop: re-run every process in priority order until a
	// full pass adds no emissions. maxPasses+1 allows the confirming
	// pass; anything beyond it is a causality failure.
	maxPasses := len(s.procs) + 1
	passes := 0
	for {
		passes++
		if passes > maxPasses {
			err := NewCausalityError(seq, passes, maxPasses)
			slog.Error("tick aborted", "tick", seq, "error", err)
			return nil, err
		}

		before := s.bus.Emissions()
		for _, p := range s.procs {
			if err := p.Step(tick); err != nil {
				return nil, NewProcessError(seq, p.Name(), err)
			}
			if conflict := s.bus.Conflict(); conflict != nil {
				return nil, NewConflictError(seq, conflict)
			}
		}
		if s.bus.Emissions() == before {
			break // fixpoint: nothing new to react to
		}
	}

	frame := capture(seq, s.bus, s.prev)
	for _, p := range s.procs {
		p.Commit()
	}
	s.prev = frame

	return frame, nil
}
