package fglog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fglog/fglog-go/internal/logline"
	"github.com/fglog/fglog-go/internal/parser"
	"github.com/fglog/fglog-go/internal/tailer"
	"github.com/fglog/fglog-go/pkg/fglog/status"
)

// Checkpoint is a resumable read position: every show in Path before Offset
// has been delivered on the events channel, and LastDate is the reference
// date in effect at Offset.
type Checkpoint struct {
	Path     string    `json:"path" yaml:"path"`
	Offset   int64     `json:"offset" yaml:"offset"`
	LastDate time.Time `json:"last_date,omitzero" yaml:"last_date,omitempty"`
}

// producer reads the log each cycle and moves the lines that belong to
// finished shows into the shared buffer.
type producer struct {
	live string
	buf  *lineBuffer
	out  *emitter
	st   *status.Status
	log  *slog.Logger

	mu        sync.Mutex
	path      string
	offset    int64
	lastDate  time.Time
	onLive    bool
	lastStart time.Time
}

func newProducer(live, prev string, cp *Checkpoint, buf *lineBuffer, out *emitter, st *status.Status, logger *slog.Logger) *producer {
	p := &producer{
		live: live,
		buf:  buf,
		out:  out,
		st:   st,
		log:  logger,
		path: prev,
	}
	if cp != nil && cp.Path != "" {
		p.path = cp.Path
		p.offset = cp.Offset
		p.lastDate = cp.LastDate
		p.onLive = cp.Path == live
	}
	return p
}

func (p *producer) checkpoint() Checkpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Checkpoint{Path: p.path, Offset: p.offset, LastDate: p.lastDate}
}

// cycle runs one poll pass. The first successful pass reads the previous
// log; every later pass reads the live log. A failed pass is retried on the
// same file.
func (p *producer) cycle(ctx context.Context) error {
	if err := p.pass(ctx); err != nil {
		return err
	}
	p.advanceToLive()
	return nil
}

func (p *producer) pass(ctx context.Context) error {
	p.mu.Lock()
	path, offset, lastDate := p.path, p.offset, p.lastDate
	p.mu.Unlock()

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat log: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("log %s is a directory", path)
	}

	if offset > info.Size() {
		p.log.Debug("log truncated, rereading", "path", path, "offset", offset, "size", info.Size())
		offset = 0
	}
	if info.Size() <= offset {
		p.store(offset, lastDate)
		return nil
	}

	res := logline.Resolver{Ref: lastDate}
	var dateErr error
	lines, err := tailer.Scan(ctx, path, offset, &res, func(d time.Time) {
		if dateErr == nil {
			dateErr = p.started(ctx, d)
		}
	})
	if err != nil {
		return fmt.Errorf("reading log: %w", err)
	}
	if dateErr != nil {
		return dateErr
	}

	offset, lastDate = p.commit(path, lines, offset, lastDate)
	p.store(offset, lastDate)
	return nil
}

// commit folds lines through a throwaway parser state, pushes every line up
// to the last completed show into the buffer and returns the offset the next
// pass should start from.
func (p *producer) commit(path string, lines []logline.Line, offset int64, lastDate time.Time) (int64, time.Time) {
	var advisory parser.State
	done, boundary := -1, -1

	for i, l := range lines {
		if parser.IsShowBoundary(l.Text) {
			boundary = i
		}
		res, err := advisory.Fold(l)
		if err != nil {
			p.log.Debug("advisory parse", "error", err)
			continue
		}
		if res.Completed {
			done = i
		}
	}

	if done >= 0 {
		end := lines[done].Offset
		n := done + 1
		// The line that closed the episode block shares its offset.
		for n < len(lines) && lines[n].Offset <= end {
			n++
		}
		offset, lastDate = end, lines[done].Date
		p.buf.push(lines[:n], Checkpoint{Path: path, Offset: offset, LastDate: lastDate})
	}

	// Reread an unfinished show from its start next time.
	if boundary > done {
		if boundary > 0 {
			offset = lines[boundary-1].Offset
		}
		lastDate = lines[boundary].Date
	}

	if len(lines) > 0 {
		p.out.offer(Event{Type: EventRoundsPreview, Rounds: advisory.Snapshot()})
	}
	if advisory.LastPing != 0 {
		p.st.SetLastPing(advisory.LastPing)
	}
	return offset, lastDate
}

// started reports a new client start date once.
func (p *producer) started(ctx context.Context, d time.Time) error {
	if d.Equal(p.lastStart) {
		return nil
	}
	p.lastStart = d
	return p.out.send(ctx, Event{Type: EventLogDate, Date: d})
}

func (p *producer) store(offset int64, lastDate time.Time) {
	p.mu.Lock()
	p.offset, p.lastDate = offset, lastDate
	p.mu.Unlock()
}

func (p *producer) advanceToLive() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.onLive {
		return
	}
	p.onLive = true
	p.path = p.live
	p.offset = 0
	// Lands after the previous log's batches.
	p.buf.push(nil, Checkpoint{Path: p.live, LastDate: p.lastDate})
}
