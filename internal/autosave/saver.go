// Package autosave debounces edits to a single document and writes them
// through a save function, one save at a time.
package autosave

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before pending content is saved.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned by Flush after Close.
var ErrClosed = errors.New("autosave: saver closed")

// Status reports where the saver is in its save cycle.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

// SaveFunc persists one version of the content.
type SaveFunc func(ctx context.Context, content string) error

// Options configure a Saver.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
	// OnStatus is called after every status change, outside the saver's lock.
	OnStatus func(Status)
}

// Saver coalesces rapid content changes. Content that arrives while a save
// is running is held and written once that save returns. Failed content is
// kept so the next Flush retries it.
type Saver struct {
	save     SaveFunc
	debounce time.Duration
	logger   *slog.Logger
	onStatus func(Status)

	mu       sync.Mutex
	timer    *time.Timer
	timerGen uint64
	pending  *string
	inflight chan struct{}
	status   Status
	lastErr  error
	closed   bool
}

// New creates a Saver that writes through save.
func New(save SaveFunc, opts Options) *Saver {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Saver{
		save:     save,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		onStatus: opts.OnStatus,
		status:   StatusIdle,
	}
}

// Change records new content and restarts the debounce timer.
func (s *Saver) Change(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.pending = &content
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(gen) })
}

// Status returns the current save status.
func (s *Saver) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the error of the most recent failed save, cleared by the next
// successful one.
func (s *Saver) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Dirty reports whether there is content not yet written.
func (s *Saver) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil || s.inflight != nil
}

// Closed reports whether Close has been called.
func (s *Saver) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fire runs when the debounce timer armed as gen expires. A timer that was
// replaced by a later Change leaves the pending content to its successor.
func (s *Saver) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.timerGen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if s.closed || s.inflight != nil || s.pending == nil {
			s.mu.Unlock()
			return
		}
		content := s.begin()
		s.mu.Unlock()
		s.notify(StatusSaving)

		err := s.save(context.Background(), content)
		if again := s.finish(content, err); !again || err != nil {
			return
		}
	}
}

// Flush cancels the debounce timer and saves pending content now, waiting
// for any save already in progress. It returns nil once everything changed
// so far is written.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.stopTimer()
	s.mu.Unlock()
	return s.flush(ctx)
}

func (s *Saver) flush(ctx context.Context) error {
	for {
		s.mu.Lock()
		if ch := s.inflight; ch != nil {
			s.mu.Unlock()
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if s.pending == nil {
			s.mu.Unlock()
			return nil
		}
		content := s.begin()
		s.mu.Unlock()
		s.notify(StatusSaving)

		if err := s.save(ctx, content); err != nil {
			s.finish(content, err)
			return err
		}
		s.finish(content, nil)
	}
}

// Close flushes pending content and stops accepting changes.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.stopTimer()
	s.mu.Unlock()

	err := s.flush(ctx)

	s.mu.Lock()
	s.closed = true
	s.stopTimer()
	s.mu.Unlock()
	return err
}

// begin takes the pending content and marks a save in flight. Callers hold mu.
func (s *Saver) begin() string {
	content := *s.pending
	s.pending = nil
	s.inflight = make(chan struct{})
	s.status = StatusSaving
	return content
}

// finish records the outcome of a save and reports whether newer content is
// waiting with no timer armed to pick it up.
func (s *Saver) finish(content string, err error) bool {
	s.mu.Lock()
	close(s.inflight)
	s.inflight = nil
	if err != nil {
		s.status = StatusError
		s.lastErr = err
		if s.pending == nil {
			s.pending = &content
		}
	} else {
		s.status = StatusSaved
		s.lastErr = nil
	}
	status := s.status
	again := s.pending != nil && s.timer == nil && !s.closed
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("autosave failed", "error", err)
	}
	s.notify(status)
	return again
}

func (s *Saver) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *Saver) notify(status Status) {
	if s.onStatus != nil {
		s.onStatus(status)
	}
}
