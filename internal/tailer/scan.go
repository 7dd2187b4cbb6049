package tailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fglog/fglog-go/internal/logline"
	"github.com/fglog/fglog-go/internal/parser"
)

// Scan reads path from offset to the end of file and returns the lines the
// parser cares about, in order, with dates resolved by res.
//
// Timestamped lines are kept. Untimestamped lines are dropped unless they
// carry a client address (ping). A CompletedEpisodeDto line absorbs the
// non-empty lines after it up to the next timestamped line; it is only
// returned once that line has been read, with the offset after it. An
// unterminated block ends the scan.
//
// onStart, if non-nil, is called with each process start date seen.
func Scan(ctx context.Context, path string, offset int64, res *logline.Resolver, onStart func(time.Time)) (lines []logline.Line, err error) {
	r, err := Open(ctx, path, offset)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := r.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing log: %w", cerr)
		}
	}()

	var pending *logline.Line

	for {
		var l logline.Line
		if pending != nil {
			l, pending = *pending, nil
		} else {
			text, err := r.ReadLine()
			if errors.Is(err, io.EOF) {
				return lines, nil
			}
			if err != nil {
				return lines, err
			}
			l = logline.New(text, r.Position())
		}

		if !l.Valid {
			if parser.IsPing(l.Text) {
				lines = append(lines, l)
			}
			continue
		}

		if started, ok := res.Resolve(&l); ok && onStart != nil {
			onStart(started)
		}

		if !parser.IsEpisode(l.Text) {
			lines = append(lines, l)
			continue
		}

		next, err := readEpisode(r, &l)
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return lines, err
		}
		lines = append(lines, l)
		pending = &next
	}
}

// readEpisode joins the block body into head and returns the timestamped
// line that terminated it.
func readEpisode(r *Reader, head *logline.Line) (logline.Line, error) {
	var b strings.Builder
	b.WriteString(head.Text)
	b.WriteByte('\n')

	for {
		text, err := r.ReadLine()
		if err != nil {
			return logline.Line{}, err
		}
		next := logline.New(text, r.Position())
		if next.Valid {
			head.Text = b.String()
			head.Offset = next.Offset
			return next, nil
		}
		if text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
	}
}
