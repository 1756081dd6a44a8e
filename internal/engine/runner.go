package engine

import (
	"log/slog"
	"time"
)

// Runner drives a Core forward in wall-clock time. Pacing is cosmetic;
// correctness depends only on tick order, so Interval 0 free-runs as fast
// as the host allows.
type Runner struct {
	Core     *Core
	Interval time.Duration // base tick interval; 0 = free-run
	Speed    float64       // multiplier: 1.0 = real-time, 0 = paused
	Running  bool

	// Stimulus supplies each tick's external inputs. Required.
	Stimulus func(tick uint64) Inputs
	// OnOutputs receives each tick's outputs. Optional.
	OnOutputs func(Outputs)
}

// Run advances the core until Stop is called or maxTicks elapse
// (0 = unbounded). Blocks the caller.
func (r *Runner) Run(maxTicks uint64) {
	r.Running = true
	slog.Info("core started", "tick", r.Core.Tick(), "interval", r.Interval, "speed", r.Speed)

	for r.Running {
		if r.Interval > 0 && r.Speed <= 0 {
			// Paused. Sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		out := r.Core.Step(r.Stimulus(r.Core.Tick()))
		if r.OnOutputs != nil {
			r.OnOutputs(out)
		}
		if maxTicks > 0 && out.Tick >= maxTicks {
			break
		}

		if r.Interval > 0 {
			elapsed := time.Since(start)
			target := time.Duration(float64(r.Interval) / r.Speed)
			if elapsed < target {
				time.Sleep(target - elapsed)
			}
		}
	}

	r.Running = false
	slog.Info("core stopped", "tick", r.Core.Tick())
}

// Stop halts the loop after the current tick.
func (r *Runner) Stop() {
	r.Running = false
}
