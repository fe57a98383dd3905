package mirror

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Passer runs one mirror pass. *Mirror implements it.
type Passer interface {
	Pass(sourceRoot, replicaRoot string) (Stats, error)
}

// RunnerConfig holds everything the pass driver needs. Nothing is read from
// process-wide state.
type RunnerConfig struct {
	SourceRoot  string
	ReplicaRoot string
	Interval    time.Duration
	// Trigger, when non-nil, starts the next pass before the interval
	// elapses. Sends must not block; a buffer of one coalesces bursts.
	Trigger <-chan struct{}
	Logger  *slog.Logger
}

// Runner repeats passes until its context is canceled.
type Runner struct {
	passer  Passer
	cfg     RunnerConfig
	logger  *slog.Logger
	nowFunc func() time.Time
}

// NewRunner creates a Runner driving passer.
func NewRunner(passer Passer, cfg RunnerConfig) *Runner {
	logger := Options{Logger: cfg.Logger}.logger()

	return &Runner{
		passer:  passer,
		cfg:     cfg,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Run executes a pass immediately and then one per interval. Cancellation is
// checked only between passes: a pass that has started always runs to its
// end. A failed pass is logged and the loop carries on, since the next pass
// re-attempts whatever is still out of sync. Run returns nil on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("mirror loop starting",
		slog.String("source", r.cfg.SourceRoot),
		slog.String("replica", r.cfg.ReplicaRoot),
		slog.Duration("interval", r.cfg.Interval),
	)

	for {
		r.RunPass() //nolint:errcheck // logged inside RunPass

		if ctx.Err() != nil {
			r.logger.Info("synchronization process stopped")
			return nil
		}

		if !r.wait(ctx) {
			r.logger.Info("synchronization process stopped")
			return nil
		}
	}
}

// wait blocks until the interval elapses or a trigger arrives. It returns
// false when ctx is canceled first.
func (r *Runner) wait(ctx context.Context) bool {
	timer := time.NewTimer(r.cfg.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-r.cfg.Trigger:
		r.logger.Debug("source change detected, starting pass early")
		return true
	}
}

// RunPass runs a single pass between start and end markers. Errors are
// logged here and also returned for one-shot callers.
func (r *Runner) RunPass() error {
	logger := r.logger.With(slog.String("pass_id", uuid.NewString()))
	start := r.nowFunc()

	logger.Info("synchronization started")

	st, err := r.passer.Pass(r.cfg.SourceRoot, r.cfg.ReplicaRoot)
	elapsed := r.nowFunc().Sub(start)

	if err != nil {
		attrs := append([]any{slog.String("error", err.Error()), slog.Duration("elapsed", elapsed)}, st.LogAttrs()...)
		logger.Error("synchronization aborted", attrs...)

		return err
	}

	attrs := append([]any{slog.Duration("elapsed", elapsed)}, st.LogAttrs()...)
	logger.Info("synchronization finished", attrs...)

	return nil
}
