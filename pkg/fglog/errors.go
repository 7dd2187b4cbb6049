package fglog

import (
	"errors"

	"github.com/fglog/fglog-go/internal/logfinder"
	"github.com/fglog/fglog-go/internal/parser"
)

// Sentinel errors returned by this package.
var (
	// ErrLogDirNotFound is returned when the client log directory
	// cannot be found or accessed.
	ErrLogDirNotFound = logfinder.ErrLogDirNotFound

	// ErrNoLogFiles is returned when neither the live nor the previous log
	// exists in the log directory.
	ErrNoLogFiles = logfinder.ErrNoLogFiles

	// ErrWatcherClosed is returned by Watch after Close has been called.
	ErrWatcherClosed = errors.New("fglog: watcher closed")

	// ErrAlreadyWatching is returned by a second call to Watch.
	ErrAlreadyWatching = errors.New("fglog: already watching")
)

// ParseError is a line whose marker matched but whose payload was malformed.
// It wraps the underlying cause, usually a *strconv.NumError.
type ParseError = parser.ParseError
