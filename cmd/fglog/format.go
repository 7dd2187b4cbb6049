package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/fglog/fglog-go/pkg/fglog"
)

// ValidFormats lists the supported output formats.
var ValidFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

const prettyTime = "2006-01-02 15:04:05"

var (
	colorHeader     = color.New(color.Bold)
	colorQualified  = color.New(color.FgGreen)
	colorEliminated = color.New(color.FgRed)
	colorCrown      = color.New(color.Bold, color.FgHiYellow)
	colorPreview    = color.New(color.FgCyan)
)

// setColorMode applies --color: auto leaves terminal detection in place.
func setColorMode(mode string) error {
	switch mode {
	case "", "auto":
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid color mode %q: must be one of: auto, always, never", mode)
	}
	return nil
}

// OutputEvent writes ev to w in the given format.
func OutputEvent(format string, ev fglog.Event, w io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(ev, w)
	case "pretty":
		return OutputPretty(ev, w)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputJSON writes ev as a single JSON line.
func OutputJSON(ev fglog.Event, w io.Writer) error {
	return json.NewEncoder(w).Encode(ev)
}

// OutputPretty writes ev in a human-readable form.
func OutputPretty(ev fglog.Event, w io.Writer) error {
	switch ev.Type {
	case fglog.EventLogDate:
		_, err := fmt.Fprintf(w, "[%s] * Client started %s\n",
			ev.Date.Format(prettyTime), ev.Date.Format(time.DateOnly))
		return err

	case fglog.EventRoundsPreview:
		_, err := fmt.Fprintf(w, "[%s] %s\n", showTime(ev).Format(prettyTime),
			colorPreview.Sprintf("~ Show in progress: %s", roundCount(len(ev.Rounds))))
		return err

	case fglog.EventRoundsParsed:
		var b strings.Builder
		fmt.Fprintf(&b, "[%s] %s\n", showTime(ev).Format(prettyTime),
			colorHeader.Sprintf("# Show finished: %s", roundCount(len(ev.Rounds))))
		for _, r := range ev.Rounds {
			b.WriteString("    ")
			b.WriteString(prettyRound(r))
			b.WriteByte('\n')
		}
		_, err := io.WriteString(w, b.String())
		return err

	default:
		_, err := fmt.Fprintf(w, "[%s] %s\n", showTime(ev).Format(prettyTime), ev.Type)
		return err
	}
}

func prettyRound(r fglog.Round) string {
	name := r.Name
	if name == "" {
		name = r.SceneName
	}
	line := fmt.Sprintf("%d. %s", r.Round, name)
	if r.Position > 0 {
		line += fmt.Sprintf(" #%d", r.Position)
	}
	if r.Kudos > 0 {
		line += fmt.Sprintf(" (%d kudos)", r.Kudos)
	}

	switch {
	case r.Crown:
		return line + " " + colorCrown.Sprint("CROWN")
	case r.Qualified:
		return line + " " + colorQualified.Sprint("qualified")
	default:
		return line + " " + colorEliminated.Sprint("eliminated")
	}
}

func showTime(ev fglog.Event) time.Time {
	if len(ev.Rounds) > 0 {
		if !ev.Rounds[0].ShowStart.IsZero() {
			return ev.Rounds[0].ShowStart
		}
		return ev.Rounds[0].Start
	}
	return ev.Date
}

func roundCount(n int) string {
	if n == 1 {
		return "1 round"
	}
	return fmt.Sprintf("%d rounds", n)
}
