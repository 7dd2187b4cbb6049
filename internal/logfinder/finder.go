// Package logfinder locates the Fall Guys client log directory and files.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvLogDir is the environment variable name for specifying log directory.
const EnvLogDir = "FGLOG_LOGDIR"

// DefaultLogFile is the name the client gives its live log.
const DefaultLogFile = "Player.log"

// Sentinel errors.
var (
	ErrLogDirNotFound = errors.New("log directory not found")
	ErrNoLogFiles     = errors.New("no log files found")
)

// DefaultLogDirs returns candidate client log directories in priority order.
func DefaultLogDirs() []string {
	var dirs []string

	if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
		dirs = append(dirs, filepath.Join(userProfile, "AppData", "LocalLow", "Mediatonic", "FallGuys_client"))
	}

	// Proton and Wine keep the Windows layout under the prefix.
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, filepath.Join(home, ".steam", "steam", "steamapps", "compatdata",
			"1097150", "pfx", "drive_c", "users", "steamuser", "AppData", "LocalLow", "Mediatonic", "FallGuys_client"))
	}

	return dirs
}

// FindLogDir returns the client log directory.
//
// Priority:
//  1. explicit (if non-empty)
//  2. FGLOG_LOGDIR environment variable
//  3. Auto-detect from DefaultLogDirs()
//
// Returns ErrLogDirNotFound if no valid directory is found.
// The returned path has symlinks resolved.
func FindLogDir(explicit string) (string, error) {
	if explicit != "" {
		if resolved := resolveLogDir(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s is not a directory", ErrLogDirNotFound, explicit)
	}

	if envDir := os.Getenv(EnvLogDir); envDir != "" {
		if resolved := resolveLogDir(envDir); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to invalid directory", ErrLogDirNotFound, EnvLogDir)
	}

	for _, dir := range DefaultLogDirs() {
		if resolved := resolveLogDir(dir); resolved != "" {
			return resolved, nil
		}
	}

	return "", ErrLogDirNotFound
}

// PrevPath returns the path of the log the client rotated away on its last
// start: "Player.log" becomes "Player-prev.log".
func PrevPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-prev" + ext
}

// FindLogFiles returns the live and previous log paths for name inside dir.
// An empty name means DefaultLogFile. ErrNoLogFiles is returned when neither
// file exists yet.
func FindLogFiles(dir, name string) (live, prev string, err error) {
	if name == "" {
		name = DefaultLogFile
	}
	live = filepath.Join(dir, name)
	prev = PrevPath(live)

	if !isFile(live) && !isFile(prev) {
		return live, prev, fmt.Errorf("%w in %s", ErrNoLogFiles, dir)
	}
	return live, prev, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// resolveLogDir resolves symlinks and checks that dir is a directory.
// Returns the resolved path if valid, empty string otherwise.
func resolveLogDir(dir string) string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ""
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	return resolved
}
