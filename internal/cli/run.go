package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tempomat/internal/control"
	"github.com/roach88/tempomat/internal/harness"
	"github.com/roach88/tempomat/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// RunIDGenerator allows overriding the run identifier generator
	// (for testing). Nil defaults to UUIDv7Generator.
	RunIDGenerator trace.RunIDGenerator
}

// TickReport is one evaluated tick in the run output.
type TickReport struct {
	Seq         int64   `json:"seq"`
	State       int64   `json:"state"`
	Throttle    float64 `json:"throttle"`
	CruiseSpeed float64 `json:"cruise_speed"`
	GoingOn     bool    `json:"going_on,omitempty"`
	Diagnostic  string  `json:"diagnostic,omitempty"`
}

// RunReport is the run command's output payload.
type RunReport struct {
	Scenario string       `json:"scenario"`
	RunID    string       `json:"run_id,omitempty"`
	Ticks    []TickReport `json:"ticks"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Drive a scenario through the controller",
		Long: `Execute a drive scenario tick by tick and print the committed trace.

With --db, the run is additionally recorded to a SQLite event log
(created if it doesn't exist) under a fresh run identifier, so it can
later be re-verified with the replay command.

Examples:
  tempomat run ./scenarios/highway.yaml
  tempomat run ./scenarios/highway.yaml --db ./tempomat.db
  tempomat run ./scenarios/highway.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run to this SQLite database")

	return cmd
}

func runScenarioFile(opts *RunOptions, scenarioFile string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	cfg, err := harness.ScenarioConfig(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve calibration", err)
	}
	ctrl := control.New(cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// With --db every tick goes through the recorder; without, the
	// controller is driven directly.
	tick := func(in control.Inputs) (control.Outputs, error) {
		return ctrl.Tick(in)
	}

	report := RunReport{Scenario: scenario.Name}

	if opts.Database != "" {
		slog.Info("opening database", "path", opts.Database)
		st, err := trace.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()

		gen := opts.RunIDGenerator
		if gen == nil {
			gen = trace.UUIDv7Generator{}
		}
		rec, err := trace.NewRecorder(ctx, st, ctrl, gen)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to begin run", err)
		}
		report.RunID = rec.RunID()
		slog.Info("recording run", "run_id", rec.RunID())

		tick = func(in control.Inputs) (control.Outputs, error) {
			return rec.Tick(ctx, in)
		}
	}

	seq := int64(0)
	for _, step := range scenario.Ticks {
		repeat := step.Repeat
		if repeat == 0 {
			repeat = 1
		}
		for i := 0; i < repeat; i++ {
			seq++
			out, tickErr := tick(step.Inputs)
			if tickErr != nil {
				slog.Warn("tick failed", "seq", seq, "error", tickErr)
			}
			report.Ticks = append(report.Ticks, TickReport{
				Seq:         seq,
				State:       out.CruiseState,
				Throttle:    out.ThrottleCmd,
				CruiseSpeed: out.CruiseSpeed,
				GoingOn:     out.GoingOn,
				Diagnostic:  out.Diagnostic,
			})
		}
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{
			Format:  opts.Format,
			Writer:  cmd.OutOrStdout(),
			Verbose: opts.Verbose,
		}
		return formatter.Success(report)
	}
	return outputRunText(cmd, report)
}

func outputRunText(cmd *cobra.Command, report RunReport) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Scenario: %s\n", report.Scenario)
	if report.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", report.RunID)
	}
	fmt.Fprintln(w)

	for _, tick := range report.Ticks {
		fmt.Fprintf(w, "[%d] state=%d throttle=%g cruise=%g", tick.Seq, tick.State, tick.Throttle, tick.CruiseSpeed)
		if tick.GoingOn {
			fmt.Fprint(w, " going_on")
		}
		if tick.Diagnostic != "" {
			fmt.Fprintf(w, " diagnostic=%s", tick.Diagnostic)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d tick(s) evaluated\n", len(report.Ticks))
	return nil
}
