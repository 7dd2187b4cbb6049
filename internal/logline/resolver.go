package logline

import (
	"strings"
	"time"
)

// preStartMarker precedes the absolute date-time written once per client
// process start.
const preStartMarker = "[GlobalGameStateClient].PreStart called at "

// preStartLen is the length of the date-time that follows preStartMarker.
const preStartLen = 19

// preStartLayouts are the date-time layouts the client has been seen to use.
var preStartLayouts = []string{
	"01/02/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05",
}

// Resolver combines time-only lines with a tracked reference date.
// The zero value has no reference date; lines keep an unset Date until a
// process start marker is seen or Ref is seeded.
type Resolver struct {
	Ref time.Time
}

// Resolve stamps line.Date from the reference date, advancing the reference
// across midnight. When the line carries a process start date it becomes the
// new reference and is returned with ok set; callers report it as a new log
// date.
func (r *Resolver) Resolve(line *Line) (started time.Time, ok bool) {
	if !line.Valid {
		return time.Time{}, false
	}

	if d, found := ParsePreStart(line.Text); found {
		r.Ref = d
		started, ok = d, true
	}

	if r.Ref.IsZero() {
		return started, ok
	}

	ref := r.Ref
	if secondOfDay(ref) > int(line.TimeOfDay/time.Second) {
		ref = ref.AddDate(0, 0, 1)
	}
	y, m, d := ref.Date()
	r.Ref = time.Date(y, m, d, 0, 0, 0, 0, ref.Location()).Add(line.TimeOfDay)
	line.Date = r.Ref
	return started, ok
}

// ParsePreStart extracts the absolute date-time from a process start line.
func ParsePreStart(text string) (time.Time, bool) {
	i := strings.Index(text, preStartMarker)
	if i <= 0 {
		return time.Time{}, false
	}
	start := i + len(preStartMarker)
	if len(text) < start+preStartLen {
		return time.Time{}, false
	}
	raw := text[start : start+preStartLen]
	for _, layout := range preStartLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func secondOfDay(t time.Time) int {
	h, m, s := t.Clock()
	return h*3600 + m*60 + s
}
