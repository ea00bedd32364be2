package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every configurable value for the panel.
type Config struct {
	// Inspected context
	BufferPath  string        // buffer dump written by the instrumented app
	EvalTimeout time.Duration // deadline for a single evaluation

	// Polling
	PollInterval  time.Duration // period of the poll timer
	ReloadOnEmpty bool          // reload once when the first poll finds nothing

	// Journal
	JournalDSN string // ":memory:" or a file to export cycles into

	// Output
	LogLevel  string // debug|info|warn|error
	ShowChart bool
}

// Load reads configuration from (in decreasing priority):
//  1. command-line flags (handled in main - not part of this pkg)
//  2. environment variables (e.g. PERFPANEL_POLLINTERVAL)
//  3. a yaml file (./configs/config.yaml) if it exists.
//
// It returns a fully populated *Config or an error.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("BufferPath", "./perf-buffer.json")
	v.SetDefault("EvalTimeout", "1s")
	v.SetDefault("PollInterval", "2s")
	v.SetDefault("ReloadOnEmpty", true)
	v.SetDefault("JournalDSN", ":memory:")
	v.SetDefault("LogLevel", "info")
	v.SetDefault("ShowChart", true)

	v.SetEnvPrefix("perfpanel")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Optional yaml file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot default sensibly.
func (c *Config) Validate() error {
	if c.BufferPath == "" {
		return fmt.Errorf("BufferPath must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("PollInterval must be positive, got %s", c.PollInterval)
	}
	if c.EvalTimeout < 0 {
		return fmt.Errorf("EvalTimeout must not be negative, got %s", c.EvalTimeout)
	}
	return nil
}
