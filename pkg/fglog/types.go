package fglog

import "github.com/fglog/fglog-go/pkg/fglog/event"

// Re-export event types for convenience.
// Users can import just "github.com/fglog/fglog-go/pkg/fglog"
// and use fglog.Event, fglog.EventRoundsParsed, etc.

// Event is a notification raised by the watcher or by ParseFile.
type Event = event.Event

// EventType represents the type of event.
type EventType = event.Type

// Round is one level attempt within a show.
type Round = event.Round

// Event type constants.
const (
	EventLogDate       = event.LogDate
	EventRoundsParsed  = event.RoundsParsed
	EventRoundsPreview = event.RoundsPreview
)
