package tailer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fglog/fglog-go/internal/logline"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Player.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readAll(t *testing.T, r *Reader) ([]string, []int64) {
	t.Helper()
	var (
		lines []string
		pos   []int64
	)
	for {
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			return lines, pos
		}
		if err != nil {
			t.Fatalf("ReadLine() error = %v", err)
		}
		lines = append(lines, line)
		pos = append(pos, r.Position())
	}
}

func TestReader_LinesAndOffsets(t *testing.T) {
	path := writeLog(t, "one\ntwo\r\nthree\n")

	r, err := Open(context.Background(), path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	lines, pos := readAll(t, r)
	wantLines := []string{"one", "two", "three"}
	wantPos := []int64{4, 9, 15}
	if strings.Join(lines, "|") != strings.Join(wantLines, "|") {
		t.Errorf("lines = %q, want %q", lines, wantLines)
	}
	for i := range wantPos {
		if i >= len(pos) || pos[i] != wantPos[i] {
			t.Fatalf("positions = %v, want %v", pos, wantPos)
		}
	}
}

func TestReader_FromOffset(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthree\n")

	r, err := Open(context.Background(), path, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	lines, pos := readAll(t, r)
	if len(lines) != 2 || lines[0] != "two" || lines[1] != "three" {
		t.Errorf("lines = %q, want [two three]", lines)
	}
	if len(pos) != 2 || pos[1] != 14 {
		t.Errorf("positions = %v, want last 14", pos)
	}
}

func TestReader_WithholdsPartialLine(t *testing.T) {
	path := writeLog(t, "one\ntwo\npart")

	r, err := Open(context.Background(), path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	lines, _ := readAll(t, r)
	if len(lines) != 2 || lines[1] != "two" {
		t.Errorf("lines = %q, want [one two]", lines)
	}
	if got := r.Position(); got != 8 {
		t.Errorf("Position() = %d, want 8", got)
	}
}

func TestReader_EmptyFile(t *testing.T) {
	path := writeLog(t, "")

	r, err := Open(context.Background(), path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if _, err := r.ReadLine(); !errors.Is(err, io.EOF) {
		t.Errorf("ReadLine() error = %v, want io.EOF", err)
	}
}

func TestReader_MissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.log"), 0)
	if err == nil {
		t.Fatal("Open() error = nil, want error")
	}
}

func TestReader_CloseIdempotent(t *testing.T) {
	path := writeLog(t, "one\n")

	r, err := Open(context.Background(), path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := r.ReadLine(); !errors.Is(err, io.EOF) {
		t.Errorf("ReadLine() after Close error = %v, want io.EOF", err)
	}
}

func TestScan_FiltersAndResolves(t *testing.T) {
	content := strings.Join([]string{
		"10:00:00.000: [GlobalGameStateClient].PreStart called at 2024-03-10 10:00:00",
		"engine noise without timestamp",
		"10:00:01.000: [StateMatchmaking] Begin matchmaking solo",
		"Client address: 10.0.0.1, RTT: 42ms",
		"",
	}, "\n")
	path := writeLog(t, content)

	var starts []time.Time
	var res logline.Resolver
	lines, err := Scan(context.Background(), path, 0, &res, func(d time.Time) {
		starts = append(starts, d)
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3: %q", len(lines), lines)
	}
	if lines[2].Valid {
		t.Error("ping line Valid = true, want false")
	}
	want := time.Date(2024, 3, 10, 10, 0, 1, 0, time.UTC)
	if !lines[1].Date.Equal(want) {
		t.Errorf("lines[1].Date = %v, want %v", lines[1].Date, want)
	}
	if len(starts) != 1 || !starts[0].Equal(time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("starts = %v, want one 2024-03-10 10:00:00", starts)
	}
	if got := lines[len(lines)-1].Offset; got != int64(len(content)) {
		t.Errorf("last Offset = %d, want %d", got, len(content))
	}
}

func TestScan_JoinsEpisode(t *testing.T) {
	head := "10:05:00.000: == [CompletedEpisodeDto] ==\n" +
		"[Round 1] Track1\n" +
		"\n" +
		"> Position: 3\n"
	tail := "10:05:01.000: [StateMainMenu] Loading scene MainMenu\n"
	path := writeLog(t, head+tail)

	lines, err := Scan(context.Background(), path, 0, &logline.Resolver{}, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}

	ep := lines[0]
	want := "10:05:00.000: == [CompletedEpisodeDto] ==\n[Round 1] Track1\n> Position: 3\n"
	if ep.Text != want {
		t.Errorf("episode Text = %q, want %q", ep.Text, want)
	}
	// The block and the line that terminated it end at the same offset.
	total := int64(len(head + tail))
	if ep.Offset != total || lines[1].Offset != total {
		t.Errorf("offsets = %d, %d, want both %d", ep.Offset, lines[1].Offset, total)
	}
}

func TestScan_UnterminatedEpisode(t *testing.T) {
	content := "10:04:59.000: [GameSession] Changing state from Playing to GameOver\n" +
		"10:05:00.000: == [CompletedEpisodeDto] ==\n" +
		"[Round 1] Track1\n"
	path := writeLog(t, content)

	lines, err := Scan(context.Background(), path, 0, &logline.Resolver{}, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1 (block not yet complete)", len(lines))
	}
	if !strings.Contains(lines[0].Text, "GameOver") {
		t.Errorf("lines[0] = %q", lines[0].Text)
	}
}

func TestScan_Cancelled(t *testing.T) {
	path := writeLog(t, "10:00:00.000: a\n10:00:01.000: b\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, path, 0, &logline.Resolver{}, nil)
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want nil or context.Canceled", err)
	}
}

func TestReader_ReadFailure(t *testing.T) {
	// A directory opens fine but every read fails.
	r, err := Open(context.Background(), t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	_, err = r.ReadLine()
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("ReadLine() error = %v, want read failure", err)
	}
	if _, err := r.ReadLine(); !errors.Is(err, io.EOF) {
		t.Errorf("ReadLine() after failure error = %v, want io.EOF", err)
	}
}

func TestScan_ReadFailure(t *testing.T) {
	lines, err := Scan(context.Background(), t.TempDir(), 0, &logline.Resolver{}, nil)
	if err == nil {
		t.Fatal("Scan() error = nil, want read failure")
	}
	if len(lines) != 0 {
		t.Errorf("len(lines) = %d, want 0", len(lines))
	}
}
