package logline

import (
	"testing"
	"time"
)

func TestNew_Validity(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantTime  time.Duration
	}{
		{
			name:      "standard prefix",
			input:     "12:34:56.789: [GameSession] Changing state from Countdown to Playing",
			wantValid: true,
			wantTime:  12*time.Hour + 34*time.Minute + 56*time.Second + 789*time.Millisecond,
		},
		{
			name:      "midnight",
			input:     "00:00:00.000: hello",
			wantValid: true,
		},
		{
			name:  "no fraction so third colon is misplaced",
			input: "00:00:01 [StateGameLoading] Loading game level scene Track1 ",
		},
		{
			name:  "colon at wrong position",
			input: "1:23:45.678: text",
		},
		{
			name:  "empty",
			input: "",
		},
		{
			name:  "too short",
			input: "12:",
		},
		{
			name:  "colons right but digits wrong",
			input: "ab:cd:ef.ghi: text",
		},
		{
			name:  "hour out of range",
			input: "25:00:00.000: text",
		},
		{
			name:  "plain text",
			input: "Client address: 127.0.0.1, RTT: 42ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.input, 10)
			if got.Valid != tt.wantValid {
				t.Fatalf("New(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.TimeOfDay != tt.wantTime {
				t.Errorf("New(%q).TimeOfDay = %v, want %v", tt.input, got.TimeOfDay, tt.wantTime)
			}
			if got.Offset != 10 {
				t.Errorf("Offset = %d, want 10", got.Offset)
			}
			if !got.Date.IsZero() {
				t.Errorf("Date = %v, want unset", got.Date)
			}
		})
	}
}

func TestNew_ValidIffColonPositions(t *testing.T) {
	// Every valid-looking prefix is accepted exactly when the colons sit at
	// 2, 5 and 12.
	for _, input := range []string{
		"01:02:03.004: a",
		"23:59:59.999: b",
		"10:10:10.100:",
	} {
		if !New(input, 0).Valid {
			t.Errorf("New(%q).Valid = false, want true", input)
		}
	}
	for _, input := range []string{
		"01:02:03.04: a",
		"01:02:03.0045: a",
		"0102:03.004: a",
		"01:0203.004:: a",
	} {
		if New(input, 0).Valid {
			t.Errorf("New(%q).Valid = true, want false", input)
		}
	}
}

func TestResolver_Rollover(t *testing.T) {
	ref := time.Date(2024, 3, 10, 23, 59, 50, 0, time.UTC)
	r := Resolver{Ref: ref}

	line := New("00:00:05.000: after midnight", 0)
	if _, changed := r.Resolve(&line); changed {
		t.Error("Resolve() reported a new date for a plain line")
	}

	want := time.Date(2024, 3, 11, 0, 0, 5, 0, time.UTC)
	if !line.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", line.Date, want)
	}
	if !r.Ref.Equal(want) {
		t.Errorf("Ref = %v, want %v", r.Ref, want)
	}
}

func TestResolver_SameDay(t *testing.T) {
	r := Resolver{Ref: time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)}

	line := New("10:00:00.250: same second", 0)
	r.Resolve(&line)
	want := time.Date(2024, 3, 10, 10, 0, 0, int(250*time.Millisecond), time.UTC)
	if !line.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", line.Date, want)
	}

	line = New("11:30:00.000: later", 0)
	r.Resolve(&line)
	want = time.Date(2024, 3, 10, 11, 30, 0, 0, time.UTC)
	if !line.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", line.Date, want)
	}
}

func TestResolver_NoReference(t *testing.T) {
	var r Resolver
	line := New("12:00:00.000: anything", 0)
	if _, ok := r.Resolve(&line); ok {
		t.Error("Resolve() ok = true, want false")
	}
	if !line.Date.IsZero() {
		t.Errorf("Date = %v, want unset", line.Date)
	}
}

func TestResolver_PreStart(t *testing.T) {
	var r Resolver
	line := New("09:15:02.000: [GlobalGameStateClient].PreStart called at 04/08/2021 09:15:02", 0)
	started, ok := r.Resolve(&line)
	if !ok {
		t.Fatal("Resolve() ok = false, want true for PreStart line")
	}
	want := time.Date(2021, 4, 8, 9, 15, 2, 0, time.UTC)
	if !started.Equal(want) {
		t.Errorf("started = %v, want %v", started, want)
	}
	if !line.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", line.Date, want)
	}

	next := New("09:16:00.000: next", 0)
	r.Resolve(&next)
	if want := time.Date(2021, 4, 8, 9, 16, 0, 0, time.UTC); !next.Date.Equal(want) {
		t.Errorf("next Date = %v, want %v", next.Date, want)
	}
}

func TestParsePreStart(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{
			name:  "us layout",
			input: "01:00:00.000: [GlobalGameStateClient].PreStart called at 12/31/2023 01:00:00",
			want:  time.Date(2023, 12, 31, 1, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "iso layout",
			input: "01:00:00.000: [GlobalGameStateClient].PreStart called at 2023-12-31 01:00:00 extra",
			want:  time.Date(2023, 12, 31, 1, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "truncated",
			input: "01:00:00.000: [GlobalGameStateClient].PreStart called at 12/31",
		},
		{
			name:  "garbage date",
			input: "01:00:00.000: [GlobalGameStateClient].PreStart called at not-a-date-at-all!!",
		},
		{
			name:  "no marker",
			input: "01:00:00.000: hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePreStart(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParsePreStart() ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParsePreStart() = %v, want %v", got, tt.want)
			}
		})
	}
}
