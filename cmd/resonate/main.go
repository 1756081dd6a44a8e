// Command resonate runs the resonance core against a synthetic oscillator
// bank and records the output series to SQLite.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lmittmann/tint"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/resonance/internal/engine"
	"github.com/talgya/resonance/internal/fixed"
	"github.com/talgya/resonance/internal/phi"
	"github.com/talgya/resonance/internal/telemetry"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "15:04:05",
	}))
	slog.SetDefault(logger)

	seed := uint32(envInt("RESONATE_SEED", 42))
	ticks := uint64(envInt("RESONATE_TICKS", 60000))
	every := uint64(envInt("RESONATE_EVERY", 10))
	dbPath := envStr("RESONATE_DB", "data/resonance.db")
	realtime := envInt("RESONATE_REALTIME", 0) != 0

	slog.Info("resonance core",
		"phi", phi.Phi,
		"base_hz", phi.BaseHz,
		"catastrophe", fmt.Sprintf("%.4f", phi.CatastropheExp),
		"seed", seed,
	)

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll("data", 0755)
	db, err := telemetry.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// ── Core ──────────────────────────────────────────────────────────
	cfg := engine.DefaultConfig(seed)
	if path := os.Getenv("RESONATE_CONFIG"); path != "" {
		if err := loadConfig(path, &cfg); err != nil {
			slog.Error("failed to load config", "path", path, "error", err)
			os.Exit(1)
		}
		slog.Info("config overrides applied", "path", path)
	}
	core, err := engine.New(cfg)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("core ready",
		"oscillators", len(cfg.Oscillators),
		"boundaries", len(cfg.Boundaries),
		"adaptive", cfg.AdaptiveMode,
	)

	rec, err := db.StartRun(cfg, seed, every)
	if err != nil {
		slog.Error("failed to start run", "error", err)
		os.Exit(1)
	}
	slog.Info("run started", "run_id", rec.RunID(), "every", every)

	// ── Stimulus ──────────────────────────────────────────────────────
	// The oscillator bank lives out here: the core only sees phase
	// vectors, so the harness integrates each oscillator's corrected
	// step into a phase accumulator and rotates a unit vector with it.
	// Slow coherence weather comes from simplex noise so ignition sees
	// realistic sustained rises rather than white flicker.
	bank := newBank(len(cfg.Oscillators))
	weather := opensimplex.NewNormalized(int64(seed))

	stimulus := func(tick uint64) engine.Inputs {
		t := float64(tick) / engine.TickHz
		coh := fixed.FromFloat(weather.Eval2(t*0.05, 0))
		quiet := weather.Eval2(t*0.05, 100) < 0.2
		x, y := bank.vectors()
		return engine.Inputs{X: x, Y: y, Coherence: coh, Quiescent: quiet}
	}

	var runner *engine.Runner
	runner = &engine.Runner{
		Core:     core,
		Stimulus: stimulus,
		OnOutputs: func(out engine.Outputs) {
			bank.advance(out.Oscillators)
			if err := rec.Record(out); err != nil {
				slog.Error("record failed", "tick", out.Tick, "error", err)
				runner.Stop()
			}
			if out.Tick%10000 == 0 {
				slog.Info("progress",
					"tick", humanize.Comma(int64(out.Tick)),
					"sync", fmt.Sprintf("%.3f", out.Synchrony.R.Float()),
					"mode", out.Coupling.Mode,
					"ignition", out.Ignition.Phase,
				)
			}
		},
	}
	if realtime {
		runner.Interval = time.Second / time.Duration(engine.TickHz)
		runner.Speed = 1.0
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		slog.Info("signal received, stopping", "signal", s)
		runner.Stop()
	}()

	start := time.Now()
	runner.Run(ticks)

	if err := rec.Finish(); err != nil {
		slog.Error("finish failed", "error", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	rate := float64(core.Tick()) / elapsed.Seconds()
	dbSize := "unknown"
	if fi, err := os.Stat(dbPath); err == nil {
		dbSize = humanize.Bytes(uint64(fi.Size()))
	}
	slog.Info("run complete",
		"run_id", rec.RunID(),
		"ticks", humanize.Comma(int64(core.Tick())),
		"elapsed", elapsed.Round(time.Millisecond),
		"rate", fmt.Sprintf("%s ticks/s", humanize.CommafWithDigits(rate, 0)),
		"db_size", dbSize,
	)
}

// bank holds the external oscillators: a phase accumulator per channel,
// advanced by the step the core reports back each tick.
type bank struct {
	phase []int32
	x, y  []fixed.Value
}

func newBank(n int) *bank {
	return &bank{
		phase: make([]int32, n),
		x:     make([]fixed.Value, n),
		y:     make([]fixed.Value, n),
	}
}

// vectors returns each oscillator's current unit phase vector.
func (b *bank) vectors() ([]fixed.Value, []fixed.Value) {
	for i, p := range b.phase {
		fp := fixed.FracPhase(fixed.Value(p))
		b.x[i] = fixed.CosU(fp)
		b.y[i] = fixed.SinU(fp)
	}
	return b.x, b.y
}

// advance integrates each oscillator's corrected step. This closes the
// adaptive loop: landscape corrections change the step, the step changes
// the phase the core sees next tick.
func (b *bank) advance(oscs []engine.OscillatorOutput) {
	for i := range b.phase {
		if i < len(oscs) {
			b.phase[i] += oscs[i].Step
		}
	}
}

// loadConfig overlays a JSON file onto cfg. Fields carry raw fixed-point
// units, matching what the telemetry schema stores for step values.
func loadConfig(path string, cfg *engine.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
