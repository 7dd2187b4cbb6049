package main

import (
	"slices"
	"testing"

	"github.com/fglog/fglog-go/pkg/fglog"
	"github.com/fglog/fglog-go/pkg/fglog/event"
)

func TestValidEventTypeNames(t *testing.T) {
	names := ValidEventTypeNames()

	if len(names) != len(event.TypeNames()) {
		t.Errorf("ValidEventTypeNames() returned %d names, want %d", len(names), len(event.TypeNames()))
	}
	if !slices.IsSorted(names) {
		t.Errorf("ValidEventTypeNames() not sorted: %v", names)
	}
	for _, name := range []string{"log_date", "rounds_parsed", "rounds_preview"} {
		if !slices.Contains(names, name) {
			t.Errorf("ValidEventTypeNames() missing %q", name)
		}
	}
}

func TestNormalizeEventTypes(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []fglog.EventType
		wantErr bool
	}{
		{
			name:  "empty input",
			input: nil,
			want:  nil,
		},
		{
			name:  "single valid type",
			input: []string{"rounds_parsed"},
			want:  []fglog.EventType{fglog.EventRoundsParsed},
		},
		{
			name:  "multiple valid types",
			input: []string{"log_date", "rounds_parsed", "rounds_preview"},
			want:  []fglog.EventType{fglog.EventLogDate, fglog.EventRoundsParsed, fglog.EventRoundsPreview},
		},
		{
			name:  "case insensitive",
			input: []string{"ROUNDS_PARSED", "Log_Date"},
			want:  []fglog.EventType{fglog.EventRoundsParsed, fglog.EventLogDate},
		},
		{
			name:  "with whitespace",
			input: []string{" rounds_parsed ", "  log_date  "},
			want:  []fglog.EventType{fglog.EventRoundsParsed, fglog.EventLogDate},
		},
		{
			name:  "duplicates removed",
			input: []string{"rounds_parsed", "rounds_parsed", "log_date"},
			want:  []fglog.EventType{fglog.EventRoundsParsed, fglog.EventLogDate},
		},
		{
			name:    "invalid type",
			input:   []string{"player_join"},
			wantErr: true,
		},
		{
			name:    "mixed valid and invalid",
			input:   []string{"rounds_parsed", "invalid"},
			wantErr: true,
		},
		{
			name:    "empty string error",
			input:   []string{""},
			wantErr: true,
		},
		{
			name:    "whitespace only error",
			input:   []string{"   "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeEventTypes(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("NormalizeEventTypes() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !slices.Equal(got, tt.want) {
				t.Errorf("NormalizeEventTypes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRejectOverlap(t *testing.T) {
	tests := []struct {
		name     string
		includes []fglog.EventType
		excludes []fglog.EventType
		wantErr  bool
	}{
		{
			name:     "no overlap",
			includes: []fglog.EventType{fglog.EventRoundsParsed},
			excludes: []fglog.EventType{fglog.EventRoundsPreview},
		},
		{
			name: "empty lists",
		},
		{
			name:     "overlap",
			includes: []fglog.EventType{fglog.EventRoundsParsed, fglog.EventLogDate},
			excludes: []fglog.EventType{fglog.EventRoundsParsed},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RejectOverlap(tt.includes, tt.excludes)
			if (err != nil) != tt.wantErr {
				t.Errorf("RejectOverlap() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
