// Package wire provides dependency injection for the rota application.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	cliadapter "github.com/example/rota/internal/adapters/cli"
	"github.com/example/rota/internal/adapters/sqlite"
	"github.com/example/rota/internal/app"
	"github.com/example/rota/internal/config"
	"github.com/example/rota/internal/db"
	"github.com/example/rota/internal/logging"
	"github.com/example/rota/internal/metrics"
	"github.com/example/rota/internal/ports/primary"
)

var (
	cfg    = config.Default("")
	logger = logging.Discard()

	database            *sql.DB
	store               *sqlite.Store
	registry            *prometheus.Registry
	rotaService         primary.RotaService
	memberService       primary.MemberService
	notificationService primary.NotificationService
	activityService     primary.ActivityService
	once                sync.Once
)

// Configure sets the config and logger used when services are first built.
// Calls after the first service lookup have no effect.
func Configure(c *config.Config, l *slog.Logger) {
	if c != nil {
		cfg = c
	}
	if l != nil {
		logger = l
	}
}

// Logger returns the configured process logger.
func Logger() *slog.Logger {
	return logger
}

// RotaService returns the singleton RotaService instance.
func RotaService() primary.RotaService {
	once.Do(initServices)
	return rotaService
}

// MemberService returns the singleton MemberService instance.
func MemberService() primary.MemberService {
	once.Do(initServices)
	return memberService
}

// NotificationService returns the singleton NotificationService instance.
func NotificationService() primary.NotificationService {
	once.Do(initServices)
	return notificationService
}

// ActivityService returns the singleton ActivityService instance.
func ActivityService() primary.ActivityService {
	once.Do(initServices)
	return activityService
}

// Store returns the singleton SQLite store.
func Store() *sqlite.Store {
	once.Do(initServices)
	return store
}

// DB returns the open database handle.
func DB() *sql.DB {
	once.Do(initServices)
	return database
}

// Registry returns the Prometheus registry the services report to.
func Registry() *prometheus.Registry {
	once.Do(initServices)
	return registry
}

// Close releases the database if it was opened.
func Close() error {
	if database == nil {
		return nil
	}
	return database.Close()
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	loc, err := cfg.Location()
	if err != nil {
		fatal("invalid timezone", err)
	}

	database, err = db.Open(cfg.DatabasePath)
	if err != nil {
		fatal("failed to initialize database", err)
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	store = sqlite.NewStore(database)
	engineCfg := app.EngineConfig{MaxScanWeeks: cfg.MaxScanWeeks, Location: loc}

	rotaService = app.NewRotaService(store, engineCfg, logger, m)
	memberService = app.NewMemberService(store, engineCfg, logger, m)
	notificationService = app.NewNotificationService(store, engineCfg, logger, m)
	activityService = app.NewActivityService(store, logger, m)
}

func fatal(msg string, err error) {
	logger.Error(msg, "error", err, "database", cfg.DatabasePath)
	os.Exit(1)
}

// RotaAdapter returns a new RotaAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func RotaAdapter() *cliadapter.RotaAdapter {
	return RotaAdapterWithOutput(os.Stdout)
}

// RotaAdapterWithOutput returns a new RotaAdapter writing to the given output.
func RotaAdapterWithOutput(out io.Writer) *cliadapter.RotaAdapter {
	once.Do(initServices)
	return cliadapter.NewRotaAdapter(rotaService, memberService, out)
}

// MemberAdapter returns a new MemberAdapter writing to stdout.
func MemberAdapter() *cliadapter.MemberAdapter {
	return MemberAdapterWithOutput(os.Stdout)
}

// MemberAdapterWithOutput returns a new MemberAdapter writing to the given output.
func MemberAdapterWithOutput(out io.Writer) *cliadapter.MemberAdapter {
	once.Do(initServices)
	return cliadapter.NewMemberAdapter(memberService, out)
}

// NotificationAdapter returns a new NotificationAdapter writing to stdout.
func NotificationAdapter() *cliadapter.NotificationAdapter {
	return NotificationAdapterWithOutput(os.Stdout)
}

// NotificationAdapterWithOutput returns a new NotificationAdapter writing to the given output.
func NotificationAdapterWithOutput(out io.Writer) *cliadapter.NotificationAdapter {
	once.Do(initServices)
	return cliadapter.NewNotificationAdapter(notificationService, out)
}

// ActivityAdapter returns a new ActivityAdapter writing to stdout.
func ActivityAdapter() *cliadapter.ActivityAdapter {
	once.Do(initServices)
	return cliadapter.NewActivityAdapter(activityService, os.Stdout)
}
