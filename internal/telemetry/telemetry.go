// Package telemetry provides SQLite-based recording of the core's per-tick
// outputs. The downstream system consumes these outputs as a time series;
// this recorder is that series' durable form, one row per recorded tick,
// fixed-point values widened to REAL for the offline analysis tooling.
package telemetry

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/resonance/internal/engine"
)

// DB wraps a SQLite connection for telemetry storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		adaptive INTEGER NOT NULL,
		ticks INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS core_samples (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		sync_r REAL NOT NULL,
		sync_high INTEGER NOT NULL,
		mode INTEGER NOT NULL,
		mod_gain REAL NOT NULL,
		harmonic_gain REAL NOT NULL,
		ignition_phase INTEGER NOT NULL,
		ignition_gain REAL NOT NULL,
		ignition_lock REAL NOT NULL,
		ignition_active INTEGER NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS oscillator_samples (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		name TEXT NOT NULL,
		slow_offset REAL NOT NULL,
		jitter REAL NOT NULL,
		exponent REAL NOT NULL,
		step INTEGER NOT NULL,
		position TEXT NOT NULL,
		stability REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS boundary_samples (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		name TEXT NOT NULL,
		frequency INTEGER NOT NULL,
		detuning INTEGER NOT NULL,
		score REAL NOT NULL,
		gate REAL NOT NULL,
		amplitude REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_osc_run_tick ON oscillator_samples(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_boundary_run_tick ON boundary_samples(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Recorder buffers one run's samples and writes them in batched
// transactions. Single writer, same as the tick loop that feeds it.
type Recorder struct {
	db    *DB
	runID string

	oscNames      []string
	boundaryNames []string

	// Every decimates: only ticks divisible by it are recorded.
	every uint64
	buf   []engine.Outputs
	// flushAt bounds the buffer before a transaction is forced.
	flushAt int
	ticks   uint64
}

// StartRun registers a new run and returns its recorder.
func (db *DB) StartRun(cfg engine.Config, seed uint32, every uint64) (*Recorder, error) {
	if every == 0 {
		every = 1
	}
	id := uuid.NewString()
	adaptive := 0
	if cfg.AdaptiveMode {
		adaptive = 1
	}
	_, err := db.conn.Exec(
		`INSERT INTO runs (id, started_at, seed, adaptive, ticks) VALUES (?, ?, ?, ?, 0)`,
		id, time.Now().UTC().Format(time.RFC3339), seed, adaptive,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	r := &Recorder{
		db:      db,
		runID:   id,
		every:   every,
		flushAt: 512,
	}
	for _, o := range cfg.Oscillators {
		r.oscNames = append(r.oscNames, o.Name)
	}
	for _, b := range cfg.Boundaries {
		r.boundaryNames = append(r.boundaryNames, b.Name)
	}
	return r, nil
}

// RunID returns the run's identifier.
func (r *Recorder) RunID() string {
	return r.runID
}

// Record buffers one tick's outputs, flushing when the buffer fills.
func (r *Recorder) Record(out engine.Outputs) error {
	r.ticks = out.Tick
	if out.Tick%r.every != 0 {
		return nil
	}
	r.buf = append(r.buf, out)
	if len(r.buf) >= r.flushAt {
		return r.Flush()
	}
	return nil
}

// Flush writes all buffered samples in one transaction.
func (r *Recorder) Flush() error {
	if len(r.buf) == 0 {
		return nil
	}
	tx, err := r.db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	coreStmt, err := tx.Preparex(`INSERT INTO core_samples
		(run_id, tick, sync_r, sync_high, mode, mod_gain, harmonic_gain,
		 ignition_phase, ignition_gain, ignition_lock, ignition_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer coreStmt.Close()

	oscStmt, err := tx.Preparex(`INSERT INTO oscillator_samples
		(run_id, tick, name, slow_offset, jitter, exponent, step, position, stability)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer oscStmt.Close()

	boundaryStmt, err := tx.Preparex(`INSERT INTO boundary_samples
		(run_id, tick, name, frequency, detuning, score, gate, amplitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer boundaryStmt.Close()

	for _, out := range r.buf {
		_, err := coreStmt.Exec(
			r.runID, out.Tick,
			out.Synchrony.R.Float(), boolInt(out.Synchrony.High),
			out.Coupling.Mode, out.Coupling.ModGain.Float(), out.Coupling.HarmonicGain.Float(),
			out.Ignition.Phase, out.Ignition.Gain.Float(), out.Ignition.Lock.Float(),
			boolInt(out.Ignition.Active),
		)
		if err != nil {
			return fmt.Errorf("insert core sample tick %d: %w", out.Tick, err)
		}
		for i, oo := range out.Oscillators {
			_, err := oscStmt.Exec(
				r.runID, out.Tick, r.oscNames[i],
				oo.Offset.Slow.Float(), oo.Offset.Jitter.Float(),
				oo.Exponent.Float(), oo.Step, oo.Position.String(), oo.Stability.Float(),
			)
			if err != nil {
				return fmt.Errorf("insert oscillator sample tick %d: %w", out.Tick, err)
			}
		}
		for i, bo := range out.Boundaries {
			_, err := boundaryStmt.Exec(
				r.runID, out.Tick, r.boundaryNames[i],
				bo.Boundary, bo.Detuning, bo.Score.Float(), bo.Gate.Float(),
				bo.Phase.Amplitude.Float(),
			)
			if err != nil {
				return fmt.Errorf("insert boundary sample tick %d: %w", out.Tick, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	r.buf = r.buf[:0]
	return nil
}

// Finish flushes remaining samples and stamps the run's final tick count.
func (r *Recorder) Finish() error {
	if err := r.Flush(); err != nil {
		return err
	}
	_, err := r.db.conn.Exec(`UPDATE runs SET ticks = ? WHERE id = ?`, r.ticks, r.runID)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
