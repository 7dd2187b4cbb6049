package fglog

import (
	"context"
	"errors"
	"iter"
	"os"
	"time"

	"github.com/fglog/fglog-go/internal/logfinder"
	"github.com/fglog/fglog-go/internal/logline"
	"github.com/fglog/fglog-go/internal/parser"
	"github.com/fglog/fglog-go/internal/tailer"
)

// ParseFile parses a complete log file and returns an iterator over its
// events: a LogDate event for each client start and a RoundsParsed event
// for each completed show. Previews are never produced. The file is read
// lazily on first iteration.
//
// The iterator yields (Event, error) pairs. When an error occurs:
//   - File open errors: yields (Event{}, error) once and stops
//   - Malformed lines: skipped by default, or yields a *ParseError and stops
//     if WithParseStopOnError is set
//   - Context cancellation: yields (Event{}, ctx.Err()) and stops
//
// Example:
//
//	for ev, err := range fglog.ParseFile(ctx, "Player-prev.log") {
//	    if err != nil {
//	        log.Printf("error: %v", err)
//	        break
//	    }
//	    fmt.Printf("show with %d rounds\n", len(ev.Rounds))
//	}
func ParseFile(ctx context.Context, path string, opts ...ParseOption) iter.Seq2[Event, error] {
	if path == "" {
		return func(yield func(Event, error) bool) {
			yield(Event{}, errors.New("fglog: path required"))
		}
	}

	cfg := applyParseOptions(opts)

	return func(yield func(Event, error) bool) {
		lines, err := tailer.Scan(ctx, path, 0, &logline.Resolver{}, nil)
		if err != nil {
			yield(Event{}, err)
			return
		}

		var (
			st        parser.State
			lastStart time.Time
		)
		emit := func(ev Event) bool {
			if !cfg.allows(ev) {
				return true
			}
			return yield(ev, nil)
		}

		for _, l := range lines {
			if err := ctx.Err(); err != nil {
				yield(Event{}, err)
				return
			}

			if d, ok := logline.ParsePreStart(l.Text); ok && l.Valid && !d.Equal(lastStart) {
				lastStart = d
				if !emit(Event{Type: EventLogDate, Date: d}) {
					return
				}
			}

			res, err := st.Fold(l)
			if err != nil {
				if cfg.stopOnError {
					yield(Event{}, err)
					return
				}
				cfg.logger.Debug("skipping malformed line", "error", err)
				continue
			}
			if res.Completed && !emit(Event{Type: EventRoundsParsed, Rounds: res.Rounds}) {
				return
			}
		}
	}
}

// ParseFileAll is a convenience function that parses a log file and collects
// all events into a slice. Stops on first error and returns events collected
// so far.
func ParseFileAll(ctx context.Context, path string, opts ...ParseOption) ([]Event, error) {
	events := make([]Event, 0, 16)
	for ev, err := range ParseFile(ctx, path, opts...) {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// ParseDir parses the previous and then the live log in dir, skipping
// whichever does not exist. An empty dir is auto-detected as for
// WithLogDir; name is the live log file name, empty for Player.log.
//
// Errors follow ParseFile, except that a file that fails to open is skipped
// unless WithParseStopOnError is set. ErrNoLogFiles is yielded when neither
// file exists.
func ParseDir(ctx context.Context, dir, name string, opts ...ParseOption) iter.Seq2[Event, error] {
	cfg := applyParseOptions(opts)

	return func(yield func(Event, error) bool) {
		logDir, err := logfinder.FindLogDir(dir)
		if err != nil {
			yield(Event{}, err)
			return
		}
		live, prev, err := logfinder.FindLogFiles(logDir, name)
		if err != nil {
			yield(Event{}, err)
			return
		}

		for _, path := range []string{prev, live} {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			for ev, err := range ParseFile(ctx, path, opts...) {
				if err != nil {
					if cfg.stopOnError || ctx.Err() != nil {
						yield(Event{}, err)
						return
					}
					cfg.logger.Debug("skipping log file", "path", path, "error", err)
					break
				}
				if !yield(ev, nil) {
					return
				}
			}
		}
	}
}

func (c *parseConfig) allows(ev Event) bool {
	if !c.filter.Allows(ev.Type) {
		return false
	}
	t := eventTime(ev)
	if t.IsZero() {
		return c.since.IsZero() && c.until.IsZero()
	}
	if !c.since.IsZero() && t.Before(c.since) {
		return false
	}
	if !c.until.IsZero() && !t.Before(c.until) {
		return false
	}
	return true
}

// eventTime places an event on the timeline: its date, or the start of the
// show it carries.
func eventTime(ev Event) time.Time {
	if len(ev.Rounds) == 0 {
		return ev.Date
	}
	if r := ev.Rounds[0]; !r.ShowStart.IsZero() {
		return r.ShowStart
	}
	return ev.Rounds[0].Start
}
