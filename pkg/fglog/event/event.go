// Package event defines the Event and Round types emitted by the fglog watcher.
//
// This package is separated from the main fglog package to avoid import cycles
// between pkg/fglog and internal/parser.
package event

import (
	"sort"
	"strings"
	"time"
)

// Type represents the type of watcher event.
type Type string

const (
	// LogDate indicates a new reference date was read from a client start marker.
	LogDate Type = "log_date"

	// RoundsParsed carries the authoritative rounds of a completed show.
	RoundsParsed Type = "rounds_parsed"

	// RoundsPreview carries the in-progress rounds of the current show.
	// A later RoundsParsed event may contradict it.
	RoundsPreview Type = "rounds_preview"
)

// allTypes is the canonical list of all event types.
var allTypes = []Type{LogDate, RoundsParsed, RoundsPreview}

// TypeNames returns a sorted list of all valid event type names.
func TypeNames() []string {
	names := make([]string, len(allTypes))
	for i, t := range allTypes {
		names[i] = string(t)
	}
	sort.Strings(names)
	return names
}

var typeByName = func() map[string]Type {
	m := make(map[string]Type, len(allTypes))
	for _, t := range allTypes {
		m[string(t)] = t
	}
	return m
}()

// ParseType converts a string to Type if valid.
// It is case-insensitive and trims leading/trailing whitespace.
func ParseType(name string) (Type, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	t, ok := typeByName[name]
	return t, ok
}

// Event is a notification raised by the watcher.
type Event struct {
	// Type is the event type.
	Type Type `json:"type"`

	// SessionID identifies the Watch call that produced the event.
	SessionID string `json:"session_id,omitempty"`

	// Date is the new reference date (LogDate only).
	Date time.Time `json:"date,omitzero"`

	// Rounds holds the rounds of a show (RoundsParsed and RoundsPreview).
	Rounds []Round `json:"rounds,omitempty"`
}

// Round is one level attempt within a show.
type Round struct {
	SceneName string `json:"scene_name"`
	Name      string `json:"name"`
	// Round is the 1-based position of the round within its show.
	Round int `json:"round"`

	Start     time.Time  `json:"start,omitzero"`
	End       time.Time  `json:"end,omitzero"`
	Finish    *time.Time `json:"finish,omitempty"`
	ShowStart time.Time  `json:"show_start,omitzero"`
	ShowEnd   time.Time  `json:"show_end,omitzero"`

	// Position is the finishing position; 0 until resolved.
	Position  int  `json:"position,omitempty"`
	Score     int  `json:"score,omitempty"`
	Qualified bool `json:"qualified"`
	Tier      int  `json:"tier,omitempty"`
	Kudos     int  `json:"kudos,omitempty"`
	Crown     bool `json:"crown,omitempty"`

	InParty      bool `json:"in_party"`
	PrivateLobby bool `json:"private_lobby"`
	Playing      bool `json:"playing"`
	Players      int  `json:"players,omitempty"`
	GameDuration int  `json:"game_duration,omitempty"`
}

// Clone returns a deep copy of r.
func (r *Round) Clone() Round {
	c := *r
	if r.Finish != nil {
		f := *r.Finish
		c.Finish = &f
	}
	return c
}
