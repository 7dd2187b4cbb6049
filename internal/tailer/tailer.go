// Package tailer provides offset-aware reading of Fall Guys log files.
package tailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nxadm/tail"
)

// Reader reads a log file line by line from a byte offset to the current
// end of file, reporting the position after each line.
//
// A final line without a trailing newline is withheld: the writer may still
// be in the middle of it, and Position stays at its start so the next pass
// reads it whole.
type Reader struct {
	t    *tail.Tail
	f    *os.File
	ctx  context.Context
	pos  int64
	next *tail.Line
	done bool

	stopped bool
}

// Open starts reading path at offset. The file is opened read-only and is
// never locked, so the writing process is not blocked.
func Open(ctx context.Context, path string, offset int64) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    false,
		ReOpen:    false,
		Poll:      true,
		MustExist: true,
		Location:  &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening tail: %w", err)
	}

	return &Reader{t: t, f: f, ctx: ctx, pos: offset}, nil
}

// Position returns the file offset immediately after the last line returned
// by ReadLine.
func (r *Reader) Position() int64 {
	return r.pos
}

// ReadLine returns the next complete line without its line terminator.
// It returns io.EOF when no complete line remains.
func (r *Reader) ReadLine() (string, error) {
	if r.done {
		return "", io.EOF
	}

	cur := r.next
	r.next = nil
	if cur == nil {
		var err error
		if cur, err = r.receive(); err != nil {
			return "", r.finish(err)
		}
	}

	// Look one line ahead to learn whether cur is the last line.
	next, err := r.receive()
	switch {
	case err == nil:
		r.next = next
	case errors.Is(err, io.EOF):
		if !r.terminated(cur.SeekInfo.Offset) {
			return "", r.finish(io.EOF)
		}
	default:
		return "", r.finish(err)
	}

	r.pos = cur.SeekInfo.Offset
	return strings.TrimSuffix(cur.Text, "\r"), nil
}

// Close stops reading and releases the file. Safe to call multiple times.
func (r *Reader) Close() error {
	if r.stopped {
		return nil
	}
	r.stopped = true
	r.done = true
	err := r.t.Stop()
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (r *Reader) receive() (*tail.Line, error) {
	select {
	case <-r.ctx.Done():
		return nil, r.ctx.Err()
	case line, ok := <-r.t.Lines:
		if !ok {
			// Lines closes on a read failure too; the tomb holds the reason.
			if err := r.t.Wait(); err != nil {
				return nil, fmt.Errorf("tail: %w", err)
			}
			return nil, io.EOF
		}
		if line.Err != nil {
			return nil, fmt.Errorf("tail: %w", line.Err)
		}
		return line, nil
	}
}

func (r *Reader) finish(err error) error {
	r.done = true
	return err
}

// terminated reports whether the byte before offset is a newline.
func (r *Reader) terminated(offset int64) bool {
	if offset <= 0 {
		return false
	}
	var b [1]byte
	if _, err := r.f.ReadAt(b[:], offset-1); err != nil {
		return false
	}
	return b[0] == '\n'
}
