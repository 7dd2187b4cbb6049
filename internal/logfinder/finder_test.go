package logfinder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func evalDir(t *testing.T, dir string) string {
	t.Helper()
	// e.g. /var -> /private/var on macOS
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return dir
	}
	return want
}

func TestPrevPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Player.log", "Player-prev.log"},
		{filepath.Join("logs", "Player.log"), filepath.Join("logs", "Player-prev.log")},
		{"output.txt", "output-prev.txt"},
		{"noext", "noext-prev"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := PrevPath(tt.in); got != tt.want {
				t.Errorf("PrevPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFindLogFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Player-prev.log"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	live, prev, err := FindLogFiles(dir, "")
	if err != nil {
		t.Fatalf("FindLogFiles() error = %v", err)
	}
	if filepath.Base(live) != "Player.log" {
		t.Errorf("live = %q, want Player.log", live)
	}
	if filepath.Base(prev) != "Player-prev.log" {
		t.Errorf("prev = %q, want Player-prev.log", prev)
	}
}

func TestFindLogFiles_CustomName(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "client.log"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	live, prev, err := FindLogFiles(dir, "client.log")
	if err != nil {
		t.Fatalf("FindLogFiles() error = %v", err)
	}
	if filepath.Base(live) != "client.log" || filepath.Base(prev) != "client-prev.log" {
		t.Errorf("FindLogFiles() = %q, %q", live, prev)
	}
}

func TestFindLogFiles_NoFiles(t *testing.T) {
	_, _, err := FindLogFiles(t.TempDir(), "")
	if !errors.Is(err, ErrNoLogFiles) {
		t.Errorf("FindLogFiles() error = %v, want %v", err, ErrNoLogFiles)
	}
}

func TestFindLogDir_EnvVar(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvLogDir, dir)

	got, err := FindLogDir("")
	if err != nil {
		t.Fatalf("FindLogDir() error = %v", err)
	}
	if want := evalDir(t, dir); got != want {
		t.Errorf("FindLogDir() = %v, want %v", got, want)
	}
}

func TestFindLogDir_Explicit(t *testing.T) {
	dir := t.TempDir()

	// Explicit takes priority over env.
	t.Setenv(EnvLogDir, "/some/other/path")

	got, err := FindLogDir(dir)
	if err != nil {
		t.Fatalf("FindLogDir() error = %v", err)
	}
	if want := evalDir(t, dir); got != want {
		t.Errorf("FindLogDir() = %v, want %v", got, want)
	}
}

func TestFindLogDir_ExplicitInvalid(t *testing.T) {
	_, err := FindLogDir("/nonexistent/path")
	if !errors.Is(err, ErrLogDirNotFound) {
		t.Errorf("FindLogDir() error = %v, want %v", err, ErrLogDirNotFound)
	}
}

func TestFindLogDir_EnvVarInvalid(t *testing.T) {
	t.Setenv(EnvLogDir, "/nonexistent/path")

	_, err := FindLogDir("")
	if !errors.Is(err, ErrLogDirNotFound) {
		t.Errorf("FindLogDir() error = %v, want %v", err, ErrLogDirNotFound)
	}
}

func TestResolveLogDir_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "Player.log")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := resolveLogDir(file); got != "" {
		t.Errorf("resolveLogDir(file) = %q, want empty", got)
	}
}
