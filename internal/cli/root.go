package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/rota/internal/config"
	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/ctxutil"
	"github.com/example/rota/internal/logging"
	"github.com/example/rota/internal/wire"
)

// Global flags shared by every command.
var (
	configPath string
	dbPath     string
	actorFlag  string
	logLevel   string
)

// AddGlobalFlags registers the persistent flags on root and hooks config
// loading in front of every command.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.rota/config.yaml)")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (overrides config)")
	root.PersistentFlags().StringVar(&actorFlag, "actor", "", "External ID of the person running the command (default: $ROTA_ACTOR)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentPreRunE = bootstrap
}

// bootstrap loads the config, configures the service container and puts
// the config and acting person on the command context.
func bootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if actorFlag != "" {
		cfg.Actor = actorFlag
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	wire.Configure(cfg, logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = config.WithContext(ctx, cfg)
	if cfg.Actor != "" {
		ctx = ctxutil.WithActor(ctx, cfg.Actor)
	}
	cmd.SetContext(ctx)
	return nil
}

// currentConfig returns the config bootstrap stored on the context.
func currentConfig(cmd *cobra.Command) *config.Config {
	if cfg := config.FromContext(cmd.Context()); cfg != nil {
		return cfg
	}
	return config.Default("")
}

// weekArg parses an optional YYYY-MM-DD Monday argument. An absent argument
// means the week containing now in the configured timezone.
func weekArg(cmd *cobra.Command, args []string) (time.Time, error) {
	if len(args) > 0 && args[0] != "" {
		return week.Parse(args[0])
	}
	loc, err := currentConfig(cmd).Location()
	if err != nil {
		return time.Time{}, err
	}
	return week.Start(time.Now().In(loc)), nil
}
