package telemetry

import (
	"path/filepath"
	"testing"

	"github.com/talgya/resonance/internal/engine"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "telemetry.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndFinish(t *testing.T) {
	db := openTestDB(t)
	cfg := engine.DefaultConfig(42)

	core, err := engine.New(cfg)
	if err != nil {
		t.Fatalf("new core: %v", err)
	}
	rec, err := db.StartRun(cfg, 42, 1)
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	if rec.RunID() == "" {
		t.Fatal("empty run id")
	}

	const ticks = 100
	for i := 0; i < ticks; i++ {
		out := core.Step(engine.Inputs{})
		if err := rec.Record(out); err != nil {
			t.Fatalf("record tick %d: %v", i, err)
		}
	}
	if err := rec.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	var n int
	if err := db.conn.Get(&n, `SELECT COUNT(*) FROM core_samples WHERE run_id = ?`, rec.RunID()); err != nil {
		t.Fatalf("count core: %v", err)
	}
	if n != ticks {
		t.Errorf("core_samples = %d, want %d", n, ticks)
	}

	if err := db.conn.Get(&n, `SELECT COUNT(*) FROM oscillator_samples WHERE run_id = ?`, rec.RunID()); err != nil {
		t.Fatalf("count oscillators: %v", err)
	}
	if want := ticks * len(cfg.Oscillators); n != want {
		t.Errorf("oscillator_samples = %d, want %d", n, want)
	}

	if err := db.conn.Get(&n, `SELECT COUNT(*) FROM boundary_samples WHERE run_id = ?`, rec.RunID()); err != nil {
		t.Fatalf("count boundaries: %v", err)
	}
	if want := ticks * len(cfg.Boundaries); n != want {
		t.Errorf("boundary_samples = %d, want %d", n, want)
	}

	var recorded int
	if err := db.conn.Get(&recorded, `SELECT ticks FROM runs WHERE id = ?`, rec.RunID()); err != nil {
		t.Fatalf("run ticks: %v", err)
	}
	if recorded != ticks {
		t.Errorf("run ticks = %d, want %d", recorded, ticks)
	}
}

func TestDecimation(t *testing.T) {
	db := openTestDB(t)
	cfg := engine.DefaultConfig(7)

	core, err := engine.New(cfg)
	if err != nil {
		t.Fatalf("new core: %v", err)
	}
	rec, err := db.StartRun(cfg, 7, 10)
	if err != nil {
		t.Fatalf("start run: %v", err)
	}

	for i := 0; i < 95; i++ {
		if err := rec.Record(core.Step(engine.Inputs{})); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := rec.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	// Ticks 10, 20, ... 90: tick counter starts at 1.
	var n int
	if err := db.conn.Get(&n, `SELECT COUNT(*) FROM core_samples WHERE run_id = ?`, rec.RunID()); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 9 {
		t.Errorf("decimated samples = %d, want 9", n)
	}
}

func TestSeparateRuns(t *testing.T) {
	db := openTestDB(t)
	cfg := engine.DefaultConfig(1)

	a, err := db.StartRun(cfg, 1, 1)
	if err != nil {
		t.Fatalf("start a: %v", err)
	}
	b, err := db.StartRun(cfg, 2, 1)
	if err != nil {
		t.Fatalf("start b: %v", err)
	}
	if a.RunID() == b.RunID() {
		t.Fatal("run ids collide")
	}

	core, _ := engine.New(cfg)
	for i := 0; i < 5; i++ {
		out := core.Step(engine.Inputs{})
		if err := a.Record(out); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := a.Finish(); err != nil {
		t.Fatalf("finish a: %v", err)
	}
	if err := b.Finish(); err != nil {
		t.Fatalf("finish b: %v", err)
	}

	var n int
	if err := db.conn.Get(&n, `SELECT COUNT(*) FROM core_samples WHERE run_id = ?`, b.RunID()); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("run b has %d samples, want 0", n)
	}
}
