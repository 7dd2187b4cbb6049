// Package logline provides the physical line type read from a Fall Guys
// client log and the resolver that turns time-only prefixes into absolute
// timestamps.
package logline

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// prefixLen is the length of the "HH:MM:SS.fff" prefix. The colon that
// terminates it sits at this index.
const prefixLen = 12

// Line is one line read from the log file.
type Line struct {
	// TimeOfDay is parsed from the fixed prefix; zero if the line is invalid.
	TimeOfDay time.Duration

	// Date is the absolute timestamp once resolved against a reference date.
	// The zero value means unset.
	Date time.Time

	// Text is the line content. For a composite block it holds the joined
	// physical lines separated by '\n'.
	Text string

	// Valid reports whether the line starts with a parseable time prefix.
	Valid bool

	// Offset is the file position immediately after this line.
	Offset int64
}

// New builds a Line from raw text and the reader position after it.
func New(text string, offset int64) Line {
	l := Line{Text: text, Offset: offset}
	if hasTimePrefix(text) {
		if d, err := parseTimeOfDay(text[:prefixLen]); err == nil {
			l.TimeOfDay = d
			l.Valid = true
		}
	}
	return l
}

// String implements fmt.Stringer.
func (l Line) String() string {
	return fmt.Sprintf("%s: %s (%d)", l.TimeOfDay, l.Text, l.Offset)
}

// hasTimePrefix reports whether the first colon is at index 2, the next one
// from index 3 at 5 and the next one from index 6 at 12.
func hasTimePrefix(s string) bool {
	return strings.IndexByte(s, ':') == 2 &&
		len(s) > 3 && strings.IndexByte(s[3:], ':')+3 == 5 &&
		len(s) > 6 && strings.IndexByte(s[6:], ':')+6 == prefixLen
}

// parseTimeOfDay parses "HH:MM:SS" with an optional fractional part.
func parseTimeOfDay(s string) (time.Duration, error) {
	h, err := strconv.Atoi(s[0:2])
	if err != nil {
		return 0, fmt.Errorf("hours: %w", err)
	}
	m, err := strconv.Atoi(s[3:5])
	if err != nil {
		return 0, fmt.Errorf("minutes: %w", err)
	}
	sec, err := strconv.ParseFloat(s[6:], 64)
	if err != nil {
		return 0, fmt.Errorf("seconds: %w", err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec >= 60 {
		return 0, fmt.Errorf("time of day out of range: %q", s)
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
	return d + time.Duration(sec*float64(time.Second)).Round(time.Millisecond), nil
}
