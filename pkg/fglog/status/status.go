// Package status holds process-wide client state observed while parsing a
// Fall Guys log: whether a show is running, whether one just ended, and the
// last server ping.
package status

import "sync/atomic"

// Status is safe for concurrent use. The zero value is ready to use.
type Status struct {
	inShow    atomic.Bool
	showEnded atomic.Bool
	lastPing  atomic.Int64
}

// InShow reports whether the client is currently in a show.
func (s *Status) InShow() bool { return s.inShow.Load() }

// SetInShow records whether the client is in a show.
func (s *Status) SetInShow(v bool) { s.inShow.Store(v) }

// ShowEnded reports whether a show has completed since the flag was last cleared.
func (s *Status) ShowEnded() bool { return s.showEnded.Load() }

// SetShowEnded sets or clears the show-ended flag.
// Collaborators clear it once they have handled the completed show.
func (s *Status) SetShowEnded(v bool) { s.showEnded.Store(v) }

// LastPing returns the last observed round-trip time in milliseconds.
func (s *Status) LastPing() int { return int(s.lastPing.Load()) }

// SetLastPing records a round-trip time in milliseconds.
func (s *Status) SetLastPing(ms int) { s.lastPing.Store(int64(ms)) }
