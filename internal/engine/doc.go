// Package engine implements the synchronous tick scheduler.
//
// The engine runs a fixed network of logically-concurrent processes to
// a fixpoint within each tick. There are no threads: "concurrency" is
// logical simultaneity, resolved by re-running every process in a fixed
// priority order until a full pass adds no new signal emissions.
//
// ARCHITECTURE:
//
// Single-Writer Tick Loop:
// All bus mutation and process state updates happen inside one call to
// Scheduler.Step, on the caller's goroutine. This ensures:
// - Predictable process evaluation order
// - Bit-identical outputs for identical inputs and prior state
// - Simple reasoning about within-tick causality
//
// Tick Processing Flow:
//  1. Bus reset, external input signals seeded
//  2. Processes stepped in priority order, repeatedly, until fixpoint
//  3. Non-convergence or a signal contradiction aborts the tick
//     (causality failure - no partial outputs, no state advance)
//  4. On convergence: committed frame captured, every process applies
//     its pending state update, previous-tick generation rotated
//
// CRITICAL PATTERNS:
//
// Fixed Schedule:
// The process slice order NEVER changes after construction. Evaluation
// order is the only tie-breaker in the system; it must be static.
//
// Two Generations:
// Delayed reads resolve against the frame committed at the end of the
// previous tick, never against values still being computed. A process
// may therefore reference "the value before my own decision" without a
// same-tick dependency cycle.
//
// Monotonic Steps:
// Process Step functions may be invoked several times per tick. They
// must be monotonic: later invocations may only re-emit the same
// signals with the same values. The bus turns any disagreement into a
// conflict that aborts the tick.
package engine
