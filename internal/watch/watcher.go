// Package watch drives the reminder schedule: it evaluates every wall-clock
// minute exactly once and emits the due reminders as JSON lines for an
// external delivery agent.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/logging"
	"github.com/example/rota/internal/ports/primary"
)

// maxCatchUp bounds how many missed minutes one tick replays, e.g. after
// the host slept.
const maxCatchUp = 60

// Config configures a Watcher.
type Config struct {
	// Interval between ticks. Defaults to one minute.
	Interval time.Duration
	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger *slog.Logger
}

// Watcher polls NotificationService.DueNotifications once per minute.
type Watcher struct {
	svc      primary.NotificationService
	out      io.Writer
	interval time.Duration
	clock    func() time.Time
	logger   *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// New creates a Watcher writing to out.
func New(svc primary.NotificationService, out io.Writer, cfg Config) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Watcher{
		svc:      svc,
		out:      out,
		interval: cfg.Interval,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
}

// Run ticks until ctx is canceled. Tick errors are logged, not fatal.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tickAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.tickAndLog(ctx)
		}
	}
}

func (w *Watcher) tickAndLog(ctx context.Context) {
	n, err := w.Tick(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "notification tick failed", "error", err)
		return
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "notifications emitted", "count", n)
	}
}

// Tick evaluates every whole minute since the previous tick, each exactly
// once, and returns how many notifications it wrote. The first tick only
// evaluates the current minute.
func (w *Watcher) Tick(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	minute := w.clock().Truncate(time.Minute)
	if w.last.IsZero() || minute.Sub(w.last) > maxCatchUp*time.Minute {
		w.last = minute.Add(-time.Minute)
	}

	emitted := 0
	enc := json.NewEncoder(w.out)
	for m := w.last.Add(time.Minute); !m.After(minute); m = m.Add(time.Minute) {
		due, err := w.svc.DueNotifications(ctx, m)
		if err != nil {
			return emitted, fmt.Errorf("failed to evaluate %s: %w", m.Format(time.RFC3339), err)
		}
		for _, n := range due {
			if err := enc.Encode(line{Notification: n, WeekStart: week.Format(n.WeekStart)}); err != nil {
				return emitted, fmt.Errorf("failed to write notification: %w", err)
			}
			emitted++
		}
		w.last = m
	}
	return emitted, nil
}

type line struct {
	primary.Notification
	WeekStart string `json:"week_start"`
}
