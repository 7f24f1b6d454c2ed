package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/logging"
)

type ctxKey string

const configContextKey ctxKey = "rota.config"

// EnvPrefix prefixes every environment override, e.g. ROTA_TIMEZONE.
const EnvPrefix = "rota"

// WithContext returns a context carrying cfg.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

// FromContext returns the config stored by WithContext, or nil.
func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// Config represents the rota configuration
type Config struct {
	DatabasePath  string        `yaml:"databasePath"  split_words:"true"`
	Timezone      string        `yaml:"timezone"      split_words:"true"`
	MaxScanWeeks  int           `yaml:"maxScanWeeks"  split_words:"true"`
	LogLevel      string        `yaml:"logLevel"      split_words:"true"`
	LogFormat     string        `yaml:"logFormat"     split_words:"true"`
	Actor         string        `yaml:"actor"         split_words:"true"`
	MetricsAddr   string        `yaml:"metricsAddr"   split_words:"true"`
	WatchInterval time.Duration `yaml:"watchInterval" split_words:"true"`
}

// Home returns the rota state directory: $ROTA_HOME, else ~/.rota.
func Home() (string, error) {
	if dir := os.Getenv("ROTA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".rota"), nil
}

// Default returns the built-in configuration rooted at home.
func Default(home string) *Config {
	return &Config{
		DatabasePath:  filepath.Join(home, "rota.db"),
		Timezone:      "UTC",
		MaxScanWeeks:  rotation.DefaultMaxScanWeeks,
		LogLevel:      "info",
		LogFormat:     logging.FormatText,
		WatchInterval: time.Minute,
	}
}

// Load builds the configuration from defaults, the YAML file at path and
// ROTA_* environment variables, in that order. An empty path means
// config.yaml in Home, which may be absent.
func Load(path string) (*Config, error) {
	home, err := Home()
	if err != nil {
		return nil, err
	}
	cfg := Default(home)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(home, "config.yaml")
	}
	buf, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.New("invalid config: databasePath is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.MaxScanWeeks <= 0 {
		return fmt.Errorf("invalid config: maxScanWeeks must be positive (got %d)", c.MaxScanWeeks)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.LogFormat != logging.FormatText && c.LogFormat != logging.FormatJSON {
		return fmt.Errorf("invalid config: logFormat must be 'text' or 'json' (got %q)", c.LogFormat)
	}
	if c.WatchInterval < time.Second {
		return fmt.Errorf("invalid config: watchInterval must be at least 1s (got %s)", c.WatchInterval)
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid config: unknown timezone %q", c.Timezone)
	}
	return loc, nil
}

// Save writes cfg as YAML to path, creating the directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
