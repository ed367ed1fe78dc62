package harness

import "github.com/roach88/tempomat/internal/control"

// TickTrace is one tick of a scenario run: the scripted inputs and the
// committed outputs.
type TickTrace struct {
	Seq     int64
	Inputs  control.Inputs
	Outputs control.Outputs
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect clause and every
	// assertion held.
	Pass bool

	// Trace contains all evaluated ticks in order.
	Trace []TickTrace

	// Errors contains validation failure messages; empty when Pass.
	Errors []string
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TickTrace{},
		Errors: []string{},
	}
}

// AddError records a validation failure and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
