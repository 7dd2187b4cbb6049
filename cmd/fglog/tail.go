package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fglog/fglog-go/pkg/fglog"
)

var (
	// tail flags
	logDir           string
	logFile          string
	format           string
	tailIncludeTypes []string
	tailExcludeTypes []string
	pollInterval     time.Duration
	checkpointPath   string
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Monitor the Fall Guys log and output shows",
	Long: `Follow the Fall Guys client log and output an event for every
completed show.

The previous session's log (Player-prev.log) is read first, then the live
log is followed. Events are output as JSON Lines by default.

Examples:
  # Monitor with default settings (auto-detect log directory)
  fglog tail

  # Only completed shows, human-readable
  fglog tail --include-types rounds_parsed --format pretty

  # Resume where the last run stopped
  fglog tail --checkpoint ~/.fglog-checkpoint.json

  # Pipe to jq for filtering
  fglog tail | jq 'select(.type == "rounds_parsed") | .rounds[-1]'`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVarP(&logDir, "log-dir", "d", "",
		"Fall Guys log directory (auto-detected if not specified)")
	tailCmd.Flags().StringVar(&logFile, "log-file", "",
		"Live log file name (default Player.log)")
	tailCmd.Flags().StringVarP(&format, "format", "f", DefaultFormat,
		"Output format: jsonl, pretty")
	tailCmd.Flags().StringSliceVar(&tailIncludeTypes, "include-types", nil,
		"Event types to include (comma-separated: log_date,rounds_parsed,rounds_preview)")
	tailCmd.Flags().StringSliceVar(&tailExcludeTypes, "exclude-types", nil,
		"Event types to exclude (comma-separated)")
	tailCmd.Flags().DurationVar(&pollInterval, "poll-interval", fglog.DefaultPollInterval,
		"How often the log is polled")
	tailCmd.Flags().StringVar(&checkpointPath, "checkpoint", "",
		"File to resume from and save the read position to")

	registerEventTypeCompletion(tailCmd, "include-types")
	registerEventTypeCompletion(tailCmd, "exclude-types")
}

func runTail(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	applyTailFlags(cmd, cfg)

	if !ValidFormats[cfg.Format] {
		return fmt.Errorf("invalid format %q: must be one of: jsonl, pretty", cfg.Format)
	}
	includes, excludes, err := eventTypeFlags(tailIncludeTypes, tailExcludeTypes)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	watchOpts := []fglog.WatchOption{
		fglog.WithLogDir(cfg.LogDir),
		fglog.WithLogFile(cfg.LogFile),
		fglog.WithPollInterval(cfg.PollInterval),
		fglog.WithLogger(logger),
	}
	if len(includes) > 0 {
		watchOpts = append(watchOpts, fglog.WithIncludeTypes(includes...))
	}
	if len(excludes) > 0 {
		watchOpts = append(watchOpts, fglog.WithExcludeTypes(excludes...))
	}
	if cfg.Checkpoint != "" {
		cp, ok, err := readCheckpoint(cfg.Checkpoint)
		if err != nil {
			return err
		}
		if ok {
			logger.Debug("resuming", "path", cp.Path, "offset", cp.Offset)
			watchOpts = append(watchOpts, fglog.WithCheckpoint(cp))
		}
	}

	watcher, err := fglog.NewWatcher(watchOpts...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	events, errs, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	save := func() {
		if cfg.Checkpoint == "" {
			return
		}
		if err := writeCheckpoint(cfg.Checkpoint, watcher.Checkpoint()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	defer save()

	out := cmd.OutOrStdout()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := OutputEvent(cfg.Format, ev, out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			if ev.Type == fglog.EventRoundsParsed {
				save()
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// applyTailFlags lets explicitly set flags override the config file.
func applyTailFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if flags.Changed("log-dir") {
		cfg.LogDir = logDir
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("format") {
		cfg.Format = format
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = pollInterval
	}
	if flags.Changed("checkpoint") {
		cfg.Checkpoint = checkpointPath
	}
}

// readCheckpoint loads a saved position. A missing file is not an error.
func readCheckpoint(path string) (fglog.Checkpoint, bool, error) {
	var cp fglog.Checkpoint
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided checkpoint path is expected
	if errors.Is(err, fs.ErrNotExist) {
		return cp, false, nil
	}
	if err != nil {
		return cp, false, fmt.Errorf("reading checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, &cp); err != nil {
		return cp, false, fmt.Errorf("parsing checkpoint: %w", err)
	}
	return cp, true, nil
}

// writeCheckpoint replaces the checkpoint file atomically.
func writeCheckpoint(path string, cp fglog.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".fglog-checkpoint-*")
	if err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return nil
}
