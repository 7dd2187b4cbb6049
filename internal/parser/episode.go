package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fglog/fglog-go/internal/logline"
)

// Episode summary prefixes.
const (
	episodeRound       = "[Round "
	episodePosition    = "> Position: "
	episodeTeamScore   = "> Team Score: "
	episodeQualified   = "> Qualified: "
	episodeBonusTier   = "> Bonus Tier: "
	episodeKudos       = "> Kudos: "
	episodeBonusKudos  = "> Bonus Kudos: "
	episodeBonusTierSz = len(episodeBonusTier) + 1
)

type detailKind int

const (
	detailPosition detailKind = iota
	detailScore
	detailQualified
	detailTier
	detailKudos
)

type detail struct {
	kind  detailKind
	value int
}

// episodeSection is one "[Round N] name" header and the details under it.
type episodeSection struct {
	round   int // 1-based
	details []detail
}

// completeEpisode validates a CompletedEpisodeDto block against the tracked
// rounds and, only if the whole block is consistent, applies it.
// A block that does not match yet leaves the state untouched.
func (s *State) completeEpisode(line logline.Line) (Result, error) {
	if s.Current == nil {
		return Result{}, nil
	}

	sections, ok, err := s.readEpisode(line.Text)
	if err != nil {
		return Result{}, &ParseError{Line: line.Text, Err: err}
	}
	if !ok {
		return Result{}, nil
	}

	for _, sec := range sections {
		r := s.Rounds[sec.round-1]
		r.Playing = false
		r.Round = sec.round
		s.PrivateLobby = r.PrivateLobby
		s.InParty = r.InParty

		if r.End.IsZero() {
			r.End = line.Date
		}
		if r.Start.IsZero() {
			r.Start = r.End
		}
		if r.Finish == nil {
			r.Finish = timePtr(r.End)
		}

		for _, d := range sec.details {
			switch d.kind {
			case detailPosition:
				r.Position = d.value
			case detailScore:
				r.Score = d.value
			case detailQualified:
				r.Qualified = d.value != 0
				if !r.Qualified {
					r.Finish = nil
				}
			case detailTier:
				r.Tier = d.value
			case detailKudos:
				r.Kudos += d.value
			}
		}
	}

	showStart := s.Rounds[0].Start
	last := s.Rounds[len(s.Rounds)-1]
	showEnd := last.End
	for _, r := range s.Rounds {
		r.ShowStart = showStart
		r.ShowEnd = showEnd
	}
	if last.Qualified {
		last.Crown = true
	}

	s.Current = nil
	if s.Status != nil {
		s.Status.SetInShow(false)
		s.Status.SetShowEnded(true)
	}
	return Result{Completed: true, Rounds: s.Snapshot()}, nil
}

// readEpisode parses the block and checks it against the tracked rounds
// without modifying them. ok is false when a header refers to an unknown
// round, names a different level, or rounds are still missing.
func (s *State) readEpisode(text string) (sections []episodeSection, ok bool, err error) {
	maxRound := 0
	for _, raw := range strings.Split(text, "\n") {
		l := strings.TrimSpace(raw)

		if hasPrefixFold(l, episodeRound) {
			num, name, valid := parseRoundHeader(l)
			if !valid || num < 1 || num > len(s.Rounds) {
				return nil, false, nil
			}
			tracked := s.Rounds[num-1]
			if tracked.Name == "" || !strings.EqualFold(tracked.Name, name) {
				return nil, false, nil
			}
			maxRound = max(maxRound, num)
			sections = append(sections, episodeSection{round: num})
			continue
		}
		if len(sections) == 0 {
			continue
		}

		d, matched, err := parseDetail(l)
		if err != nil {
			return nil, false, err
		}
		if matched {
			cur := &sections[len(sections)-1]
			cur.details = append(cur.details, d)
		}
	}

	if len(s.Rounds) > maxRound {
		return nil, false, nil
	}
	return sections, true, nil
}

// parseRoundHeader accepts "[Round N] name" with a 1-based N and the
// client's own "[Round N | name]" with a 0-based N.
func parseRoundHeader(l string) (round int, name string, ok bool) {
	rest := l[len(episodeRound):]
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, "", false
	}
	n, err := strconv.Atoi(rest[:i])
	if err != nil {
		return 0, "", false
	}
	rest = rest[i:]

	switch {
	case strings.HasPrefix(rest, " | ") && strings.HasSuffix(rest, "]"):
		return n + 1, rest[3 : len(rest)-1], true
	case strings.HasPrefix(rest, "]"):
		return n, strings.TrimSpace(rest[1:]), true
	}
	return 0, "", false
}

func parseDetail(l string) (detail, bool, error) {
	switch {
	case hasPrefixFold(l, episodePosition):
		return intDetail(detailPosition, l[len(episodePosition):], "position")
	case hasPrefixFold(l, episodeTeamScore):
		return intDetail(detailScore, l[len(episodeTeamScore):], "team score")
	case hasPrefixFold(l, episodeQualified):
		v := 0
		if len(l) > len(episodeQualified) && l[len(episodeQualified)] == 'T' {
			v = 1
		}
		return detail{kind: detailQualified, value: v}, true, nil
	case hasPrefixFold(l, episodeBonusTier):
		if len(l) != episodeBonusTierSz {
			return detail{}, false, nil
		}
		c := l[len(episodeBonusTier)]
		if c < '0' || c > '9' {
			return detail{}, false, fmt.Errorf("bonus tier: unexpected %q", c)
		}
		return detail{kind: detailTier, value: int(c-'0') + 1}, true, nil
	case hasPrefixFold(l, episodeKudos):
		return intDetail(detailKudos, l[len(episodeKudos):], "kudos")
	case hasPrefixFold(l, episodeBonusKudos):
		return intDetail(detailKudos, l[len(episodeBonusKudos):], "bonus kudos")
	}
	return detail{}, false, nil
}

func intDetail(kind detailKind, raw, field string) (detail, bool, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return detail{}, false, fmt.Errorf("%s: %w", field, err)
	}
	return detail{kind: kind, value: n}, true, nil
}
