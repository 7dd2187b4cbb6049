// Package parser folds classified Fall Guys log lines into round records.
//
// A State is a single-owner value: the watcher keeps one advisory State per
// read pass and one long-lived authoritative State, and never shares a State
// or its rounds between goroutines.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fglog/fglog-go/internal/logline"
	"github.com/fglog/fglog-go/pkg/fglog/event"
	"github.com/fglog/fglog-go/pkg/fglog/status"
)

// Markers recognised in the client log.
const (
	markerLoadingScene    = "[StateGameLoading] Loading game level scene"
	markerFinishedLoading = "[StateGameLoading] Finished loading game level"
	markerAssumedToBe     = ", assumed to be "
	markerMatchmaking     = "[StateMatchmaking] Begin matchmaking"
	markerMainMenuToLobby = "[GameStateMachine] Replacing FGClient.StateMainMenu with FGClient.StatePrivateLobby"
	markerPrivateLobby    = "StatePrivateLobby"
	markerDuration        = "NetworkGameOptions: durationInSeconds="
	markerAddedPlayer     = "[ClientGameManager] Added player "
	markerPlayersInSystem = " players in system."
	markerBootstrap       = "[ClientGameManager] Handling bootstrap for local player FallGuy ["
	markerUnspawn         = "[ClientGameManager] Handling unspawn for player FallGuy ["
	markerObjective       = "[ClientGameSession] NumPlayersAchievingObjective="
	markerClientAddress   = "Client address: "
	markerRTT             = "RTT: "
	markerCountdown       = "[GameSession] Changing state from Countdown to Playing"
	markerGameOver        = "[GameSession] Changing state from Playing to GameOver"
	markerEliminated      = "Changing local player state to: SpectatingEliminated"
	markerDisconnecting   = "[GlobalGameStateClient] SwitchToDisconnectingState"
	markerLobbyToMainMenu = "[GameStateMachine] Replacing FGClient.StatePrivateLobby with FGClient.StateMainMenu"
	markerMainMenu        = "[StateMainMenu] Loading scene MainMenu"
	markerEpisode         = " == [CompletedEpisodeDto] =="
)

// ParseError reports a recognised marker whose payload could not be parsed.
// The line is discarded; parser state is left as it was before the line.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is the outcome of folding one line.
type Result struct {
	// Completed is true when the line confirmed a whole show.
	Completed bool

	// Rounds holds copies of the completed show's rounds.
	Rounds []event.Round
}

// State is the carried state of the round state machine.
// The zero value is ready to use.
type State struct {
	Current *event.Round
	Rounds  []*event.Round

	CountingPlayers  bool
	InParty          bool
	PrivateLobby     bool
	AwaitingPosition bool

	PlayerID     string
	LastPing     int
	GameDuration int

	// Status receives show flags when non-nil.
	Status *status.Status
}

// IsShowBoundary reports whether text marks the start of a new show:
// matchmaking or moving from the main menu into a private lobby.
func IsShowBoundary(text string) bool {
	return indexFold(text, markerMatchmaking) >= 0 || indexFold(text, markerMainMenuToLobby) >= 0
}

// IsPing reports whether text is a client address line that may carry a ping.
func IsPing(text string) bool {
	return indexFold(text, markerClientAddress) >= 0
}

// IsEpisode reports whether text opens a CompletedEpisodeDto block.
func IsEpisode(text string) bool {
	return indexFold(text, markerEpisode) >= 0
}

// Snapshot returns copies of the rounds of the current show.
func (s *State) Snapshot() []event.Round {
	rounds := make([]event.Round, len(s.Rounds))
	for i, r := range s.Rounds {
		rounds[i] = r.Clone()
	}
	return rounds
}

// Fold applies one line to the state. Markers are tried in a fixed priority
// order and the first match wins; unmatched lines are ignored.
func (s *State) Fold(line logline.Line) (Result, error) {
	text := line.Text
	var idx int

	switch {
	case has(text, markerLoadingScene, &idx):
		s.loadingScene(text[idx+len(markerLoadingScene):])

	case s.Current != nil && has(text, markerFinishedLoading, &idx):
		s.finishedLoading(text[idx+len(markerFinishedLoading):], line.Date)

	case has(text, markerMatchmaking, &idx) || has(text, markerMainMenuToLobby, &idx):
		s.beginShow(text, idx, line.Date)

	case has(text, markerDuration, &idx):
		n, err := leadingInt(text[idx+len(markerDuration):])
		if err != nil {
			return Result{}, &ParseError{Line: text, Err: fmt.Errorf("duration: %w", err)}
		}
		s.GameDuration = n

	case s.Current != nil && s.CountingPlayers && has(text, markerAddedPlayer, nil) && has(text, markerPlayersInSystem, &idx):
		head := text[:idx]
		if n, err := strconv.Atoi(head[strings.LastIndexByte(head, ' ')+1:]); err == nil {
			s.Current.Players = n
		}

	case has(text, markerBootstrap, &idx):
		rest := text[idx+len(markerBootstrap):]
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return Result{}, &ParseError{Line: text, Err: fmt.Errorf("player id not terminated")}
		}
		s.PlayerID = rest[:end]

	case s.Current != nil && s.PlayerID != "" && has(text, markerUnspawn+s.PlayerID+"]", nil):
		if s.Current.End.IsZero() {
			s.Current.Finish = timePtr(line.Date)
		} else {
			s.Current.Finish = timePtr(s.Current.End)
		}
		s.AwaitingPosition = true

	case s.Current != nil && s.AwaitingPosition && has(text, markerObjective, &idx):
		n, err := strconv.Atoi(strings.TrimSpace(text[idx+len(markerObjective):]))
		if err != nil {
			return Result{}, &ParseError{Line: text, Err: fmt.Errorf("position: %w", err)}
		}
		if n > 0 {
			s.AwaitingPosition = false
			s.Current.Position = n
		}

	case has(text, markerClientAddress, nil):
		if !has(text, markerRTT, &idx) {
			break
		}
		rest := text[idx+len(markerRTT):]
		ms := strings.Index(rest, "ms")
		if ms < 0 {
			return Result{}, &ParseError{Line: text, Err: fmt.Errorf("ping not terminated")}
		}
		n, err := strconv.Atoi(strings.TrimSpace(rest[:ms]))
		if err != nil {
			return Result{}, &ParseError{Line: text, Err: fmt.Errorf("ping: %w", err)}
		}
		s.LastPing = n

	case s.Current != nil && has(text, markerCountdown, nil):
		s.Current.Start = line.Date
		s.Current.Playing = true
		s.CountingPlayers = false

	case s.Current != nil && (has(text, markerGameOver, nil) ||
		has(text, markerEliminated, nil) ||
		has(text, markerDisconnecting, nil) ||
		has(text, markerLobbyToMainMenu, nil)):
		closeRound(s.Current, line.Date)

	case has(text, markerMainMenu, nil):
		if s.Current != nil {
			closeRound(s.Current, line.Date)
		}
		s.AwaitingPosition = false
		s.CountingPlayers = false
		s.setInShow(false)

	case has(text, markerEpisode, nil):
		return s.completeEpisode(line)
	}

	return Result{}, nil
}

func (s *State) loadingScene(rest string) {
	rest = strings.TrimLeft(rest, " ")
	if end := strings.IndexByte(rest, ' '); end >= 0 {
		rest = rest[:end]
	}
	s.Current = &event.Round{SceneName: rest}
	s.AwaitingPosition = false
	s.Rounds = append(s.Rounds, s.Current)
}

func (s *State) finishedLoading(rest string, date time.Time) {
	if hasPrefixFold(rest, markerAssumedToBe) {
		rest = rest[len(markerAssumedToBe):]
	} else {
		rest = strings.TrimLeft(rest, " ")
	}
	if end := strings.Index(rest, ". "); end >= 0 {
		rest = rest[:end]
	}

	r := s.Current
	r.Name = rest
	r.Round = len(s.Rounds)
	r.Start = date
	r.InParty = s.InParty
	r.PrivateLobby = s.PrivateLobby
	r.GameDuration = s.GameDuration
	s.CountingPlayers = true
}

func (s *State) beginShow(text string, idx int, date time.Time) {
	s.PrivateLobby = strings.Contains(text, markerPrivateLobby)
	payload := ""
	if start := idx + len(markerMatchmaking); start < len(text) {
		payload = strings.TrimSpace(text[start:])
	}
	s.InParty = s.PrivateLobby || !strings.EqualFold(payload, "solo")

	if s.Current != nil {
		closeRound(s.Current, date)
	}
	s.AwaitingPosition = false
	s.setInShow(true)
	s.Rounds = nil
	s.Current = nil
}

func (s *State) setInShow(v bool) {
	if s.Status != nil {
		s.Status.SetInShow(v)
	}
}

func closeRound(r *event.Round, date time.Time) {
	if r.End.IsZero() {
		r.End = date
	}
	r.Playing = false
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// leadingInt parses the integer that runs up to the next space.
func leadingInt(s string) (int, error) {
	if end := strings.IndexByte(s, ' '); end >= 0 {
		s = s[:end]
	}
	return strconv.Atoi(s)
}

// has reports whether marker occurs in text, ignoring ASCII case, and stores
// its index in idx when idx is non-nil.
func has(text, marker string, idx *int) bool {
	i := indexFold(text, marker)
	if i < 0 {
		return false
	}
	if idx != nil {
		*idx = i
	}
	return true
}

// indexFold is strings.Index with ASCII case folding. Byte offsets are
// preserved, unlike searching a lowered copy.
func indexFold(s, substr string) int {
	n := len(substr)
	if n == 0 {
		return 0
	}
	first := lower(substr[0])
	for i := 0; i+n <= len(s); i++ {
		if lower(s[i]) != first {
			continue
		}
		if equalFoldASCII(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && equalFoldASCII(s[:len(prefix)], prefix)
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lower(a[i]) != lower(b[i]) {
			return false
		}
	}
	return true
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
