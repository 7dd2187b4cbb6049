package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fglog/fglog-go/internal/logfinder"
	"github.com/fglog/fglog-go/pkg/fglog"
)

// Default values for configuration.
const (
	DefaultFormat = "jsonl"
	DefaultAddr   = "127.0.0.1:8765"
)

// EnvFeedToken overrides serve.token.
const EnvFeedToken = "FGLOG_FEED_TOKEN"

// Config is the optional YAML configuration file. Command-line flags take
// precedence over every value here.
type Config struct {
	LogDir       string        `yaml:"log_dir"`
	LogFile      string        `yaml:"log_file"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Format       string        `yaml:"format"`
	Checkpoint   string        `yaml:"checkpoint"`
	Serve        ServeConfig   `yaml:"serve"`
}

// ServeConfig configures the WebSocket feed.
type ServeConfig struct {
	Addr           string   `yaml:"addr"`
	Token          string   `yaml:"token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DefaultConfig returns a configuration with defaults applied.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: fglog.DefaultPollInterval,
		Format:       DefaultFormat,
		Serve:        ServeConfig{Addr: DefaultAddr},
	}
}

// LoadConfig reads and validates a configuration file. An empty path yields
// the defaults with environment overrides applied.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	if dir := os.Getenv(logfinder.EnvLogDir); dir != "" {
		c.LogDir = dir
	}
	if token := os.Getenv(EnvFeedToken); token != "" {
		c.Serve.Token = token
	}
}

// Validate checks a configuration for errors.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return errors.New("poll_interval: must be positive")
	}
	if !ValidFormats[c.Format] {
		return fmt.Errorf("format: invalid format %q (must be jsonl or pretty)", c.Format)
	}
	if c.Serve.Addr == "" {
		return errors.New("serve.addr: is required")
	}
	return nil
}
