package fglog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fglog/fglog-go/internal/logfinder"
	"github.com/fglog/fglog-go/pkg/fglog/status"
)

// Channel capacities. Previews and errors are dropped once these fill up.
const (
	eventBuffer = 64
	errorBuffer = 16
)

// Watcher follows the Fall Guys client log and reports completed shows.
//
// Two loops run while watching. The producer rereads the log from the
// start of the current unfinished show on every poll, and commits lines
// only once a show has completed. The consumer folds committed lines into
// the authoritative parser state. Each loop owns its own parser state; they
// share only the line buffer and the Status. The resumable checkpoint
// follows the consumer.
type Watcher struct {
	cfg    *watchConfig
	logDir string
	buf    lineBuffer
	prod   *producer
	cons   *consumer
	out    *emitter

	mu       sync.Mutex
	closed   bool
	watching bool
	cancel   context.CancelFunc
	doneCh   chan struct{}
}

// NewWatcher creates a watcher.
// Validates options and locates the log directory.
// Does NOT start goroutines (cheap to call). The log files need not exist
// yet; the client creates them on start.
func NewWatcher(opts ...WatchOption) (*Watcher, error) {
	cfg := applyWatchOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	logDir, err := logfinder.FindLogDir(cfg.logDir)
	if err != nil {
		return nil, err
	}

	live, prev, err := logfinder.FindLogFiles(logDir, cfg.logFile)
	if err != nil && !errors.Is(err, logfinder.ErrNoLogFiles) {
		return nil, err
	}

	w := &Watcher{cfg: cfg, logDir: logDir}
	w.out = &emitter{filter: cfg.filter}
	w.prod = newProducer(live, prev, cfg.checkpoint, &w.buf, w.out, cfg.status, cfg.logger)
	w.cons = &consumer{buf: &w.buf, out: w.out, cp: w.prod.checkpoint()}
	w.cons.state.Status = cfg.status

	cfg.logger.Debug("watcher created", "dir", logDir, "live", live, "prev", prev)
	return w, nil
}

// LogDir returns the resolved log directory.
func (w *Watcher) LogDir() string {
	return w.logDir
}

// Status returns the shared status the watcher updates.
func (w *Watcher) Status() *status.Status {
	return w.cfg.status
}

// Checkpoint returns the position just past the last show delivered on the
// events channel. Shows the producer committed but the consumer has not yet
// delivered are not covered, so passing it to WithCheckpoint on a new
// Watcher neither re-emits nor loses a show.
func (w *Watcher) Checkpoint() Checkpoint {
	return w.cons.checkpoint()
}

// Watch starts watching and returns channels.
// Both channels are closed once ctx is cancelled or Close is called.
// Watch can only be called once per Watcher instance.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, <-chan error, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, nil, ErrWatcherClosed
	}
	if w.watching {
		w.mu.Unlock()
		return nil, nil, ErrAlreadyWatching
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	events := make(chan Event, eventBuffer)
	errs := make(chan error, errorBuffer)
	w.out.start(uuid.New().String()[:8], events, errs)
	w.cfg.logger.Debug("watch started", "session", w.out.session)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.loop(gctx, "producer", w.prod.cycle) })
	g.Go(func() error { return w.loop(gctx, "consumer", w.cons.cycle) })

	go func() {
		defer close(w.doneCh)
		defer close(events)
		defer close(errs)
		if err := g.Wait(); err != nil {
			w.cfg.logger.Debug("watch stopped", "error", err)
		}
	}()

	return events, errs, nil
}

// Close stops the watcher and releases resources.
// Safe to call multiple times, and before Watch.
// Blocks until both loops have exited.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	w.buf.drain()
	return nil
}

// loop runs step now and then on every tick until ctx is done. Step errors
// are reported and the loop carries on.
func (w *Watcher) loop(ctx context.Context, name string, step func(context.Context) error) error {
	ticker := time.NewTicker(w.cfg.pollInterval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := runStep(ctx, name, step); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.cfg.logger.Debug("poll failed", "loop", name, "error", err)
			w.out.fail(err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func runStep(ctx context.Context, name string, step func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: recovered panic: %v", name, r)
		}
	}()
	return step(ctx)
}

// emitter applies the type filter, stamps the session ID and delivers
// events.
type emitter struct {
	filter  *typeFilter
	session string
	events  chan<- Event
	errs    chan<- error
}

func (e *emitter) start(session string, events chan<- Event, errs chan<- error) {
	e.session, e.events, e.errs = session, events, errs
}

// send blocks until ev is delivered or ctx is done.
func (e *emitter) send(ctx context.Context, ev Event) error {
	if !e.filter.Allows(ev.Type) {
		return nil
	}
	ev.SessionID = e.session
	select {
	case e.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// offer delivers ev only if the receiver has room.
func (e *emitter) offer(ev Event) {
	if !e.filter.Allows(ev.Type) {
		return
	}
	ev.SessionID = e.session
	select {
	case e.events <- ev:
	default:
	}
}

// fail sends an error non-blocking.
func (e *emitter) fail(err error) {
	select {
	case e.errs <- err:
	default:
	}
}

// Watch is a convenience function that creates a watcher and starts
// watching. The watcher stops when ctx is cancelled.
func Watch(ctx context.Context, opts ...WatchOption) (<-chan Event, <-chan error, error) {
	w, err := NewWatcher(opts...)
	if err != nil {
		return nil, nil, err
	}
	events, errs, err := w.Watch(ctx)
	if err != nil {
		return nil, nil, err
	}
	return events, errs, nil
}
