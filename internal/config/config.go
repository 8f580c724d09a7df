// Package config loads the server configuration: embedded defaults, then an
// optional yaml file, then GAMECORE_* environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/gamecore/internal/core/observability/log"
	"github.com/zeusync/gamecore/internal/core/tick"
)

//go:embed defaults.yaml
var defaultsYAML []byte

const EnvPrefix = "GAMECORE_"

var ErrInvalid = errors.New("invalid configuration")

// Path is the yaml file layered over the defaults; empty means none.
type Path string

type Config struct {
	Name            string        `yaml:"name" env:"NAME"`
	TickRate        int           `yaml:"tick_rate" env:"TICK_RATE"`
	AllowHostAccess bool          `yaml:"allow_host_access" env:"ALLOW_HOST_ACCESS"`
	MaxCatchUp      int           `yaml:"max_catch_up" env:"MAX_CATCH_UP"`
	TimerResolution time.Duration `yaml:"timer_resolution" env:"TIMER_RESOLUTION"`

	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Console   ConsoleConfig   `yaml:"console" envPrefix:"CONSOLE_"`
	Remote    RemoteConfig    `yaml:"remote" envPrefix:"REMOTE_"`
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

type LogConfig struct {
	Level    string   `yaml:"level" env:"LEVEL"`
	Encoding string   `yaml:"encoding" env:"ENCODING"`
	Outputs  []string `yaml:"outputs" env:"OUTPUTS" envSeparator:","`
}

type ConsoleConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Hinted selects the line-editing front end when stdin is a terminal.
	Hinted bool `yaml:"hinted" env:"HINTED"`
}

type RemoteConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

type TelemetryConfig struct {
	PerfCSV string `yaml:"perf_csv" env:"PERF_CSV"`
}

// Load layers path (when set) and the environment over the embedded
// defaults and validates the result.
func Load(path Path) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(string(path))
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.TickRate < tick.MinTickRate || c.TickRate > tick.MaxTickRate {
		errs = append(errs, fmt.Errorf("tick_rate: %w: got %d, want [%d, %d]",
			tick.ErrInvalidTickRate, c.TickRate, tick.MinTickRate, tick.MaxTickRate))
	}
	if c.MaxCatchUp < 0 {
		errs = append(errs, fmt.Errorf("max_catch_up: must not be negative, got %d", c.MaxCatchUp))
	}
	if c.TimerResolution < 0 {
		errs = append(errs, fmt.Errorf("timer_resolution: must not be negative, got %s", c.TimerResolution))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.encoding: unknown encoding %q", c.Log.Encoding))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Logger converts the log section for log.NewWithConfig. Call after
// Validate.
func (c *Config) Logger() log.Config {
	level, _ := log.ParseLevel(c.Log.Level)
	return log.Config{
		Level:    level,
		Encoding: c.Log.Encoding,
		Outputs:  c.Log.Outputs,
	}
}
