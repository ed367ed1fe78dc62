package trace

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/tempomat/internal/config"
	"github.com/roach88/tempomat/internal/control"
)

// Recorder drives a controller and appends every tick to the store.
type Recorder struct {
	store *Store
	ctrl  *control.Controller
	runID string
	seq   int64
}

// NewRecorder registers a new run and returns a recorder over ctrl.
func NewRecorder(ctx context.Context, st *Store, ctrl *control.Controller, gen RunIDGenerator) (*Recorder, error) {
	runID := gen.Generate()
	if err := st.BeginRun(ctx, runID, ctrl.Config()); err != nil {
		return nil, err
	}
	return &Recorder{store: st, ctrl: ctrl, runID: runID}, nil
}

// RunID returns the recorded run's identifier.
func (r *Recorder) RunID() string {
	return r.runID
}

// Tick evaluates one controller tick and records it.
// Failed ticks are recorded too - their safe fallback outputs are part
// of the run's observable behavior - and the tick error is returned.
func (r *Recorder) Tick(ctx context.Context, in control.Inputs) (control.Outputs, error) {
	out, tickErr := r.ctrl.Tick(in)
	r.seq++

	rec := Record{Seq: r.seq, Inputs: in, Outputs: out}
	if err := r.store.WriteTick(ctx, r.runID, rec); err != nil {
		return out, err
	}
	return out, tickErr
}

// Divergence describes the first tick where a replay disagreed with
// the recording.
type Divergence struct {
	Seq      int64
	Recorded control.Outputs
	Replayed control.Outputs
}

func (d *Divergence) String() string {
	return fmt.Sprintf("tick %d diverged: recorded %+v, replayed %+v", d.Seq, d.Recorded, d.Replayed)
}

// Verify re-executes a recorded run from the initial state and checks
// that every tick's outputs are reproduced exactly.
//
// Returns (nil, nil) for a faithful run, a Divergence for the first
// mismatching tick, or an error if the run cannot be read.
func Verify(ctx context.Context, st *Store, runID string) (*Divergence, error) {
	cfg, err := loadRunConfig(ctx, st, runID)
	if err != nil {
		return nil, err
	}

	records, err := st.ReadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run %s has no ticks", runID)
	}

	ctrl := control.New(cfg)
	for _, rec := range records {
		// Tick errors were part of the recording; only the outputs
		// matter for divergence checking.
		out, _ := ctrl.Tick(rec.Inputs)
		if out != rec.Outputs {
			return &Divergence{Seq: rec.Seq, Recorded: rec.Outputs, Replayed: out}, nil
		}
	}
	return nil, nil
}

// configMap renders a calibration as a plain map for canonical JSON.
// Field-by-field rather than reflective: the stored key set is a
// compatibility surface and should not silently follow struct changes.
func configMap(cfg config.Config) map[string]any {
	return map[string]any{
		"pedal_min":       cfg.PedalMin,
		"speed_min":       cfg.SpeedMin,
		"speed_max":       cfg.SpeedMax,
		"speed_step":      cfg.SpeedStep,
		"kp":              cfg.Kp,
		"ki":              cfg.Ki,
		"throttle_max":    cfg.ThrottleMax,
		"skip_first_tick": cfg.SkipFirstTick,
	}
}

func loadRunConfig(ctx context.Context, st *Store, runID string) (config.Config, error) {
	raw, err := st.ReadRunConfig(ctx, runID)
	if err != nil {
		return config.Config{}, err
	}

	var m struct {
		PedalMin      float64 `json:"pedal_min"`
		SpeedMin      float64 `json:"speed_min"`
		SpeedMax      float64 `json:"speed_max"`
		SpeedStep     float64 `json:"speed_step"`
		Kp            float64 `json:"kp"`
		Ki            float64 `json:"ki"`
		ThrottleMax   float64 `json:"throttle_max"`
		SkipFirstTick bool    `json:"skip_first_tick"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return config.Config{}, fmt.Errorf("parse run config: %w", err)
	}

	return config.Config{
		PedalMin:      m.PedalMin,
		SpeedMin:      m.SpeedMin,
		SpeedMax:      m.SpeedMax,
		SpeedStep:     m.SpeedStep,
		Kp:            m.Kp,
		Ki:            m.Ki,
		ThrottleMax:   m.ThrottleMax,
		SkipFirstTick: m.SkipFirstTick,
	}, nil
}
