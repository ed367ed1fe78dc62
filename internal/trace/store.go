// Package trace records tick traces to SQLite and verifies recorded
// runs by deterministic re-execution.
//
// A trace is the full evidence of a run: the calibration, every tick's
// input vector, and every tick's committed outputs. Because the
// controller is deterministic, a trace is also a test: replaying the
// inputs from the initial state must reproduce the outputs bit for
// bit, and any divergence points at corruption or non-determinism.
package trace

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/tempomat/internal/config"
	"github.com/roach88/tempomat/internal/control"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for tick traces.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically; idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under steady appends.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// BeginRun registers a new run with its calibration serialized as
// canonical JSON. The run ID must be unique.
func (s *Store) BeginRun(ctx context.Context, runID string, cfg config.Config) error {
	cfgJSON, err := MarshalCanonical(configMap(cfg))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, config) VALUES (?, ?)
	`, runID, string(cfgJSON))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// Record is one tick of a recorded run.
type Record struct {
	Seq     int64
	Inputs  control.Inputs
	Outputs control.Outputs
}

// WriteTick appends one tick to a run.
// Uses ON CONFLICT DO NOTHING for idempotency: re-recording the same
// (run, seq) is silently ignored, so a crashed recorder can resume.
func (s *Store) WriteTick(ctx context.Context, runID string, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ticks
		(run_id, seq, btn_on, btn_off, btn_resume, btn_set, quick_accel, quick_decel,
		 accel, brake, speed, state, throttle, cruise_speed, going_on, diagnostic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		runID,
		rec.Seq,
		rec.Inputs.On,
		rec.Inputs.Off,
		rec.Inputs.Resume,
		rec.Inputs.Set,
		rec.Inputs.QuickAccel,
		rec.Inputs.QuickDecel,
		rec.Inputs.Accel,
		rec.Inputs.Brake,
		rec.Inputs.Speed,
		rec.Outputs.CruiseState,
		rec.Outputs.ThrottleCmd,
		rec.Outputs.CruiseSpeed,
		rec.Outputs.GoingOn,
		rec.Outputs.Diagnostic,
	)
	if err != nil {
		return fmt.Errorf("write tick: %w", err)
	}
	return nil
}

// ReadRun returns a run's ticks ordered by seq.
func (s *Store) ReadRun(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, btn_on, btn_off, btn_resume, btn_set, quick_accel, quick_decel,
		       accel, brake, speed, state, throttle, cruise_speed, going_on, diagnostic
		FROM ticks
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		err := rows.Scan(
			&r.Seq,
			&r.Inputs.On,
			&r.Inputs.Off,
			&r.Inputs.Resume,
			&r.Inputs.Set,
			&r.Inputs.QuickAccel,
			&r.Inputs.QuickDecel,
			&r.Inputs.Accel,
			&r.Inputs.Brake,
			&r.Inputs.Speed,
			&r.Outputs.CruiseState,
			&r.Outputs.ThrottleCmd,
			&r.Outputs.CruiseSpeed,
			&r.Outputs.GoingOn,
			&r.Outputs.Diagnostic,
		)
		if err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticks: %w", err)
	}

	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// ReadRunConfig returns the canonical-JSON calibration stored for a run.
func (s *Store) ReadRunConfig(ctx context.Context, runID string) ([]byte, error) {
	var cfgJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT config FROM runs WHERE id = ?
	`, runID).Scan(&cfgJSON)
	if err != nil {
		return nil, fmt.Errorf("read run config: %w", err)
	}
	return []byte(cfgJSON), nil
}

// ListRuns returns all run IDs, ordered by creation then ID.
func (s *Store) ListRuns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM runs ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
