package simulation

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// RunnerConfig paces a continuously running engine
type RunnerConfig struct {
	// Ticks per wall-clock second; 0 runs unthrottled
	TicksPerSecond float64
	Burst          int

	// Stop after this many ticks; 0 runs until the context ends
	MaxTicks int

	// How often a progress line is logged; 0 disables it
	StatusInterval time.Duration
}

// Runner drives an engine from a rate limiter until cancelled or halted
type Runner struct {
	engine  *Engine
	cfg     RunnerConfig
	limiter *rate.Limiter
	clock   shared.Clock
	logger  shared.Logger

	// OnTick is called after every successful tick
	OnTick func(*TickReport)
}

// NewRunner creates a runner. A nil logger discards progress lines.
func NewRunner(engine *Engine, cfg RunnerConfig, logger shared.Logger) *Runner {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	limit := rate.Inf
	if cfg.TicksPerSecond > 0 {
		limit = rate.Limit(cfg.TicksPerSecond)
	}
	if logger == nil {
		logger = shared.NoOpLogger{}
	}
	return &Runner{
		engine:  engine,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		clock:   shared.NewRealClock(),
		logger:  logger,
	}
}

// Run ticks until ctx is done, MaxTicks is reached or the engine fails.
// Cancellation is a clean stop and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	lastStatus := r.clock.Now()
	ticks := 0
	for r.cfg.MaxTicks == 0 || ticks < r.cfg.MaxTicks {
		if err := r.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		report, err := r.engine.Tick(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		ticks++
		if r.OnTick != nil {
			r.OnTick(report)
		}

		if r.cfg.StatusInterval > 0 && r.clock.Now().Sub(lastStatus) >= r.cfg.StatusInterval {
			lastStatus = r.clock.Now()
			r.logger.Log(shared.LevelInfo, "simulation progress", map[string]interface{}{
				"tick":            report.Tick,
				"time":            report.Time.String(),
				"active_tasks":    report.ActiveTasks,
				"missions_active": report.MissionsActive,
				"events_dropped":  report.Dropped,
			})
		}
	}
	return nil
}
