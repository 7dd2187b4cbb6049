package main

import (
	"fmt"
	"strings"

	"github.com/fglog/fglog-go/pkg/fglog"
	"github.com/fglog/fglog-go/pkg/fglog/event"
)

// ValidEventTypeNames returns a sorted list of valid event type names.
func ValidEventTypeNames() []string {
	return event.TypeNames()
}

// NormalizeEventTypes converts CLI string values to event types.
// Names are case-insensitive and trimmed; duplicates are dropped.
func NormalizeEventTypes(values []string) ([]fglog.EventType, error) {
	if len(values) == 0 {
		return nil, nil
	}

	result := make([]fglog.EventType, 0, len(values))
	seen := make(map[fglog.EventType]struct{})

	for _, raw := range values {
		if strings.TrimSpace(raw) == "" {
			return nil, fmt.Errorf("empty event type provided (input: %q); valid types: %s", raw, strings.Join(ValidEventTypeNames(), ", "))
		}

		t, ok := event.ParseType(raw)
		if !ok {
			return nil, fmt.Errorf("unknown event type %q (valid: %s)", raw, strings.Join(ValidEventTypeNames(), ", "))
		}

		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		result = append(result, t)
	}

	return result, nil
}

// RejectOverlap returns an error if any event type is in both includes and excludes.
func RejectOverlap(includes, excludes []fglog.EventType) error {
	ex := make(map[fglog.EventType]struct{}, len(excludes))
	for _, t := range excludes {
		ex[t] = struct{}{}
	}
	for _, t := range includes {
		if _, ok := ex[t]; ok {
			return fmt.Errorf("event type %q cannot be both included and excluded", t)
		}
	}
	return nil
}

// eventTypeFlags validates the include/exclude pair of a command.
func eventTypeFlags(include, exclude []string) (includes, excludes []fglog.EventType, err error) {
	if includes, err = NormalizeEventTypes(include); err != nil {
		return nil, nil, err
	}
	if excludes, err = NormalizeEventTypes(exclude); err != nil {
		return nil, nil, err
	}
	if err := RejectOverlap(includes, excludes); err != nil {
		return nil, nil, err
	}
	return includes, excludes, nil
}
