package main

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fglog/fglog-go/pkg/fglog"
)

var (
	// parse flags
	parseLogDir       string
	parseLogFile      string
	parseIncludeTypes []string
	parseExcludeTypes []string
	parseSince        string
	parseUntil        string
	parseFormat       string
	parseStopOnError  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [files...]",
	Short: "Parse Fall Guys log files (batch mode)",
	Long: `Parse complete Fall Guys log files and output events.

Unlike 'tail', this command reads each file once without following it.
With no arguments, Player-prev.log and then Player.log are read from the
log directory.

Examples:
  # Parse the logs in the auto-detected directory
  fglog parse

  # Only shows that started within a time range
  fglog parse --since "2024-01-15T12:00:00Z" --until "2024-01-16T00:00:00Z"

  # Parse specific files
  fglog parse Player-prev.log Player.log

  # Count crowns
  fglog parse --include-types rounds_parsed | jq -s 'map(.rounds[-1].crown) | map(select(.)) | length'`,
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseLogDir, "log-dir", "d", "",
		"Fall Guys log directory (auto-detected if not specified)")
	parseCmd.Flags().StringVar(&parseLogFile, "log-file", "",
		"Live log file name (default Player.log)")
	parseCmd.Flags().StringSliceVar(&parseIncludeTypes, "include-types", nil,
		"Event types to include (comma-separated: log_date,rounds_parsed)")
	parseCmd.Flags().StringSliceVar(&parseExcludeTypes, "exclude-types", nil,
		"Event types to exclude (comma-separated)")
	parseCmd.Flags().StringVar(&parseSince, "since", "",
		"Only events at/after timestamp (RFC3339 format, e.g., 2024-01-15T12:00:00Z)")
	parseCmd.Flags().StringVar(&parseUntil, "until", "",
		"Only events before timestamp (RFC3339 format)")
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", DefaultFormat,
		"Output format: jsonl, pretty")
	parseCmd.Flags().BoolVar(&parseStopOnError, "stop-on-error", false,
		"Stop on first error instead of skipping")

	registerEventTypeCompletion(parseCmd, "include-types")
	registerEventTypeCompletion(parseCmd, "exclude-types")
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-dir") {
		cfg.LogDir = parseLogDir
	}
	if cmd.Flags().Changed("log-file") {
		cfg.LogFile = parseLogFile
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = parseFormat
	}

	if !ValidFormats[cfg.Format] {
		return fmt.Errorf("invalid format %q: must be one of: jsonl, pretty", cfg.Format)
	}
	includes, excludes, err := eventTypeFlags(parseIncludeTypes, parseExcludeTypes)
	if err != nil {
		return err
	}
	sinceTime, untilTime, err := parseTimeRange(parseSince, parseUntil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []fglog.ParseOption{fglog.WithParseLogger(newLogger())}
	if len(includes) > 0 {
		opts = append(opts, fglog.WithParseIncludeTypes(includes...))
	}
	if len(excludes) > 0 {
		opts = append(opts, fglog.WithParseExcludeTypes(excludes...))
	}
	if !sinceTime.IsZero() || !untilTime.IsZero() {
		opts = append(opts, fglog.WithParseTimeRange(sinceTime, untilTime))
	}
	if parseStopOnError {
		opts = append(opts, fglog.WithParseStopOnError(true))
	}

	var seqs []iter.Seq2[fglog.Event, error]
	if len(args) > 0 {
		for _, path := range args {
			seqs = append(seqs, fglog.ParseFile(ctx, path, opts...))
		}
	} else {
		seqs = append(seqs, fglog.ParseDir(ctx, cfg.LogDir, cfg.LogFile, opts...))
	}

	out := cmd.OutOrStdout()
	for _, seq := range seqs {
		for ev, err := range seq {
			if err != nil {
				// Ctrl+C: exit silently
				if errors.Is(err, context.Canceled) && ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("parse error: %w", err)
			}
			if err := OutputEvent(cfg.Format, ev, out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		}
	}
	return nil
}

// parseTimeRange parses since and until strings into time.Time values.
func parseTimeRange(since, until string) (time.Time, time.Time, error) {
	var sinceTime, untilTime time.Time
	var err error

	if since != "" {
		sinceTime, err = time.Parse(time.RFC3339, since)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --since format: %w (expected RFC3339, e.g., 2024-01-15T12:00:00Z)", err)
		}
	}

	if until != "" {
		untilTime, err = time.Parse(time.RFC3339, until)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --until format: %w (expected RFC3339, e.g., 2024-01-15T12:00:00Z)", err)
		}
	}

	if !sinceTime.IsZero() && !untilTime.IsZero() && sinceTime.After(untilTime) {
		return time.Time{}, time.Time{}, fmt.Errorf("--since must be before --until")
	}

	return sinceTime, untilTime, nil
}
