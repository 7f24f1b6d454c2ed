package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/logging"
	"github.com/example/rota/internal/metrics"
	"github.com/example/rota/internal/ports/secondary"
)

// EngineConfig tunes the rotation engine shared by the services.
type EngineConfig struct {
	// MaxScanWeeks bounds return and compensation week searches.
	MaxScanWeeks int
	// Clock defaults to time.Now.
	Clock func() time.Time
	// Location decides which calendar week "now" falls in. Defaults to UTC.
	Location *time.Location
}

// runner opens one transaction per operation and builds a fresh engine in it.
type runner struct {
	tx      secondary.Transactor
	cfg     EngineConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newRunner(tx secondary.Transactor, cfg EngineConfig, logger *slog.Logger, m *metrics.Metrics) runner {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxScanWeeks <= 0 {
		cfg.MaxScanWeeks = rotation.DefaultMaxScanWeeks
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return runner{tx: tx, cfg: cfg, logger: logger, metrics: m}
}

// now returns the clock reading in the configured location.
func (r runner) now() time.Time {
	return r.cfg.Clock().In(r.cfg.Location)
}

// localize moves a caller supplied instant into the configured location,
// defaulting to the clock when zero.
func (r runner) localize(t time.Time) time.Time {
	if t.IsZero() {
		return r.now()
	}
	return t.In(r.cfg.Location)
}

func (r runner) currentWeek() time.Time {
	return week.Start(r.now())
}

// write runs fn in a read-write transaction.
func (r runner) write(ctx context.Context, op string, fn func(ctx context.Context, e *engine) error, attrs ...any) error {
	err := r.tx.WithinTx(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		return fn(ctx, newEngine(repos, r.now(), r.cfg.MaxScanWeeks, r.metrics))
	})
	r.observe(ctx, op, err, attrs)
	return err
}

// read runs fn in a transaction that is always rolled back.
func (r runner) read(ctx context.Context, op string, fn func(ctx context.Context, e *engine) error, attrs ...any) error {
	err := r.tx.ReadOnly(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		e := newEngine(repos, r.now(), r.cfg.MaxScanWeeks, r.metrics)
		e.readOnly = true
		return fn(ctx, e)
	})
	r.observe(ctx, op, err, attrs)
	return err
}

func (r runner) observe(ctx context.Context, op string, err error, attrs []any) {
	r.metrics.ObserveOperation(op, err)
	if err != nil {
		r.logger.WarnContext(ctx, "operation rejected",
			append([]any{"operation", op, "kind", rotation.Kind(err), "error", err}, attrs...)...)
		return
	}
	r.logger.InfoContext(ctx, "operation committed", append([]any{"operation", op}, attrs...)...)
}
