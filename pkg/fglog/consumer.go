package fglog

import (
	"context"
	"sync"

	"github.com/fglog/fglog-go/internal/logline"
	"github.com/fglog/fglog-go/internal/parser"
)

// batch is one producer commit: the lines of finished shows and the
// position reached once they have all been folded.
type batch struct {
	lines []logline.Line
	cp    Checkpoint
}

// lineBuffer hands committed batches from the producer to the consumer.
type lineBuffer struct {
	mu      sync.Mutex
	batches []batch
}

func (b *lineBuffer) push(lines []logline.Line, cp Checkpoint) {
	b.mu.Lock()
	b.batches = append(b.batches, batch{lines: lines, cp: cp})
	b.mu.Unlock()
}

func (b *lineBuffer) drain() []batch {
	b.mu.Lock()
	defer b.mu.Unlock()
	batches := b.batches
	b.batches = nil
	return batches
}

// len returns the number of lines waiting.
func (b *lineBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, bt := range b.batches {
		n += len(bt.lines)
	}
	return n
}

// consumer folds committed lines with the long-lived parser state and emits
// each completed show. It records a batch's checkpoint only after every
// show in the batch was delivered.
type consumer struct {
	state parser.State
	buf   *lineBuffer
	out   *emitter

	mu sync.Mutex
	cp Checkpoint
}

func (c *consumer) checkpoint() Checkpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cp
}

func (c *consumer) cycle(ctx context.Context) error {
	for _, b := range c.buf.drain() {
		if err := c.fold(ctx, b.lines); err != nil {
			return err
		}
		c.mu.Lock()
		c.cp = b.cp
		c.mu.Unlock()
	}
	return nil
}

func (c *consumer) fold(ctx context.Context, lines []logline.Line) error {
	for _, l := range lines {
		res, err := c.state.Fold(l)
		if err != nil {
			c.out.fail(err)
			continue
		}
		if !res.Completed {
			continue
		}
		if err := c.out.send(ctx, Event{Type: EventRoundsParsed, Rounds: res.Rounds}); err != nil {
			return err
		}
	}
	return nil
}
