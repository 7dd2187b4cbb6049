package fglog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fglog/fglog-go/pkg/fglog/status"
)

// DefaultPollInterval is how often the producer and the consumer wake up.
const DefaultPollInterval = 500 * time.Millisecond

// WatchOption configures a Watcher using the functional options pattern.
type WatchOption func(*watchConfig)

type watchConfig struct {
	logDir       string
	logFile      string
	pollInterval time.Duration
	logger       *slog.Logger
	status       *status.Status
	filter       *typeFilter
	checkpoint   *Checkpoint
}

func applyWatchOptions(opts []WatchOption) *watchConfig {
	cfg := &watchConfig{pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = discardLogger()
	}
	if cfg.status == nil {
		cfg.status = new(status.Status)
	}
	return cfg
}

func (c *watchConfig) validate() error {
	if c.pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.pollInterval)
	}
	if cp := c.checkpoint; cp != nil && cp.Offset < 0 {
		return fmt.Errorf("checkpoint offset must be non-negative, got %d", cp.Offset)
	}
	return nil
}

// WithLogDir sets the client log directory.
// If not set, FGLOG_LOGDIR is consulted, then the default install locations.
func WithLogDir(dir string) WatchOption {
	return func(c *watchConfig) {
		c.logDir = dir
	}
}

// WithLogFile sets the live log file name inside the log directory.
// Default: Player.log. The previous file is derived from it.
func WithLogFile(name string) WatchOption {
	return func(c *watchConfig) {
		c.logFile = name
	}
}

// WithPollInterval sets how often the log is read and committed lines are
// folded. Default: 500ms.
func WithPollInterval(interval time.Duration) WatchOption {
	return func(c *watchConfig) {
		c.pollInterval = interval
	}
}

// WithLogger sets the slog logger for debug output.
// If nil (default), logging is disabled.
func WithLogger(logger *slog.Logger) WatchOption {
	return func(c *watchConfig) {
		c.logger = logger
	}
}

// WithStatus shares s with the watcher. The watcher records show flags and
// the last ping in it. If not set, the watcher allocates its own; see
// Watcher.Status.
func WithStatus(s *status.Status) WatchOption {
	return func(c *watchConfig) {
		c.status = s
	}
}

// WithIncludeTypes filters events to only include the specified types.
// If called multiple times, only the last call takes effect.
func WithIncludeTypes(types ...EventType) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &typeFilter{}
		}
		c.filter.include = typeSet(types)
	}
}

// WithExcludeTypes filters out events of the specified types.
// Exclude takes precedence over include.
// If called multiple times, only the last call takes effect.
func WithExcludeTypes(types ...EventType) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &typeFilter{}
		}
		c.filter.exclude = typeSet(types)
	}
}

// WithCheckpoint resumes reading from a position previously returned by
// Watcher.Checkpoint instead of from the start of the previous log.
func WithCheckpoint(cp Checkpoint) WatchOption {
	return func(c *watchConfig) {
		c.checkpoint = &cp
	}
}

// ParseOption configures ParseFile.
type ParseOption func(*parseConfig)

type parseConfig struct {
	filter      *typeFilter
	since       time.Time
	until       time.Time
	stopOnError bool
	logger      *slog.Logger
}

func applyParseOptions(opts []ParseOption) *parseConfig {
	cfg := &parseConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = discardLogger()
	}
	return cfg
}

// WithParseIncludeTypes filters events to only include the specified types.
func WithParseIncludeTypes(types ...EventType) ParseOption {
	return func(c *parseConfig) {
		if c.filter == nil {
			c.filter = &typeFilter{}
		}
		c.filter.include = typeSet(types)
	}
}

// WithParseExcludeTypes filters out events of the specified types.
func WithParseExcludeTypes(types ...EventType) ParseOption {
	return func(c *parseConfig) {
		if c.filter == nil {
			c.filter = &typeFilter{}
		}
		c.filter.exclude = typeSet(types)
	}
}

// WithParseTimeRange keeps only events within the time range. Shows are
// placed by their start; since is inclusive, until is exclusive.
// Zero values are ignored (no filtering for that boundary).
func WithParseTimeRange(since, until time.Time) ParseOption {
	return func(c *parseConfig) {
		c.since = since
		c.until = until
	}
}

// WithParseStopOnError stops parsing on the first malformed line instead of
// skipping it.
func WithParseStopOnError(stop bool) ParseOption {
	return func(c *parseConfig) {
		c.stopOnError = stop
	}
}

// WithParseLogger sets the slog logger for skipped lines.
func WithParseLogger(logger *slog.Logger) ParseOption {
	return func(c *parseConfig) {
		c.logger = logger
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
