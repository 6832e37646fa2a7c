package engine

import (
	"context"
	"log/slog"
	"time"
)

// Runner drives the engine on a fixed interval until its context is
// cancelled. A failed cycle is logged and the next tick runs normally.
type Runner struct {
	engine   *Engine
	interval time.Duration
	logger   *slog.Logger
}

// NewRunner creates a runner ticking at the given interval.
func NewRunner(engine *Engine, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		engine:   engine,
		interval: interval,
		logger:   logger.With(slog.String("component", "runner")),
	}
}

// Run executes one cycle immediately and then once per interval. It
// returns the context's error on shutdown.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("trading loop started", slog.Duration("interval", r.interval))

	r.cycle(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("trading loop stopped")
			return ctx.Err()
		case <-ticker.C:
			r.cycle(ctx)
		}
	}
}

func (r *Runner) cycle(ctx context.Context) {
	if err := r.engine.RunCycle(ctx); err != nil {
		r.logger.Error("cycle failed", slog.String("error", err.Error()))
	}
}
