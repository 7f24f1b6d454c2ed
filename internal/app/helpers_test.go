package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/example/rota/internal/adapters/sqlite"
	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/ctxutil"
	"github.com/example/rota/internal/db"
	"github.com/example/rota/internal/metrics"
	"github.com/example/rota/internal/ports/primary"
	"github.com/example/rota/internal/ports/secondary"
)

// Household fixture: Alice, Bob and Carol, anchored at week1.
const (
	alice = "MEM-001"
	bob   = "MEM-002"
	carol = "MEM-003"
)

var (
	week1 = time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	week2 = week1.AddDate(0, 0, 7)
	week3 = week1.AddDate(0, 0, 14)
	week4 = week1.AddDate(0, 0, 21)
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type harness struct {
	store         *sqlite.Store
	clock         *testClock
	registry      *prometheus.Registry
	rota          *RotaServiceImpl
	members       *MemberServiceImpl
	notifications *NotificationServiceImpl
	activity      *ActivityServiceImpl
}

// newHarness wires every service against a seeded in-memory database with
// the clock on Monday of week1.
func newHarness(t *testing.T, cfg EngineConfig) *harness {
	t.Helper()

	database, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.SeedFixtures(database))

	clock := &testClock{now: week1.Add(9 * time.Hour)}
	cfg.Clock = clock.Now
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	store := sqlite.NewStore(database)

	return &harness{
		store:         store,
		clock:         clock,
		registry:      registry,
		rota:          NewRotaService(store, cfg, nil, m),
		members:       NewMemberService(store, cfg, nil, m),
		notifications: NewNotificationService(store, cfg, nil, m),
		activity:      NewActivityService(store, nil, m),
	}
}

// effective returns the effective assignee of w as the schedule reports it.
func (h *harness) effective(t *testing.T, w time.Time) string {
	t.Helper()
	return h.row(t, w).EffectiveID
}

func (h *harness) row(t *testing.T, w time.Time) *primary.ScheduleRow {
	t.Helper()
	rows, err := h.rota.GetSchedule(context.Background(), primary.ScheduleRequest{WeeksAhead: 1, FromWeek: w})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]
}

// overrides lists overrides matching filters directly from the store.
func (h *harness) overrides(t *testing.T, filters secondary.OverrideFilters) []*secondary.OverrideRecord {
	t.Helper()
	var out []*secondary.OverrideRecord
	err := h.store.ReadOnly(context.Background(), func(ctx context.Context, repos secondary.Repositories) error {
		var err error
		out, err = repos.Overrides.List(ctx, filters)
		return err
	})
	require.NoError(t, err)
	return out
}

func (h *harness) planned(t *testing.T, w time.Time) []*secondary.OverrideRecord {
	t.Helper()
	return h.overrides(t, secondary.OverrideFilters{WeekStart: w, Status: rotation.OverrideStatusPlanned})
}

func (h *harness) counter(t *testing.T, name string) float64 {
	t.Helper()
	families, err := h.registry.Gather()
	require.NoError(t, err)

	total := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func recipients(notifications []primary.Notification) []string {
	ids := make([]string, len(notifications))
	for i, n := range notifications {
		ids[i] = n.MemberID
	}
	return ids
}

func contextWithActor(externalID string) context.Context {
	return ctxutil.WithActor(context.Background(), externalID)
}
