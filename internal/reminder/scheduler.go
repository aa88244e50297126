// Package reminder polls for due reminders and hands them to the desktop
// notifier, at most once each.
package reminder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskdown/internal/cache"
	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/notify"
	"github.com/nhle/taskdown/internal/permission"
)

// Defaults for the polling loop.
const (
	DefaultInterval = 60 * time.Second
	DefaultWarmup   = 2 * time.Second
)

// NotificationTitle heads every reminder notification.
const NotificationTitle = "Taskdown"

// Source reads due reminders and claims them. query.Client satisfies it.
type Source interface {
	DueReminders(ctx context.Context, now time.Time) ([]model.PendingReminder, error)
	ClaimReminder(ctx context.Context, id string) (bool, error)
}

// Invalidator drops cache keys. cache.Cache satisfies it.
type Invalidator interface {
	Invalidate(keys ...string)
}

// Result summarizes one poll cycle.
type Result struct {
	At         time.Time
	Due        int // candidates returned by the query
	Processed  int // candidates this cycle marked sent
	Delivered  int // notifications shown
	Suppressed int // marked sent without a notification: task done or gone
	Failed     int // delivery or per-candidate errors, logged and skipped
	Err        error
}

// ResultMsg is a tea.Msg sent when a poll cycle completes.
type ResultMsg struct {
	Result
}

// Options configure a Scheduler.
type Options struct {
	Interval time.Duration
	// Warmup delays the first poll after start. Zero means DefaultWarmup; a
	// negative value polls immediately.
	Warmup time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// Scheduler runs the reminder polling loop while notification permission
// is granted.
type Scheduler struct {
	source   Source
	notifier notify.Notifier
	cache    Invalidator
	interval time.Duration
	warmup   time.Duration
	logger   *slog.Logger
	now      func() time.Time

	busy     atomic.Bool
	resultCh chan Result

	mu         sync.Mutex
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	permission permission.Permission
}

// New creates a stopped Scheduler.
func New(src Source, n notify.Notifier, inv Invalidator, opts Options) *Scheduler {
	s := &Scheduler{
		source:     src,
		notifier:   n,
		cache:      inv,
		interval:   opts.Interval,
		warmup:     opts.Warmup,
		logger:     opts.Logger,
		now:        opts.Now,
		resultCh:   make(chan Result, 16),
		permission: permission.Default,
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.warmup == 0 {
		s.warmup = DefaultWarmup
	}
	if s.warmup < 0 {
		s.warmup = 0
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Start reads the permission from p and starts polling if it is granted.
func (s *Scheduler) Start(ctx context.Context, p permission.Provider) error {
	perm, err := p.Permission(ctx)
	if err != nil {
		return err
	}
	s.SetPermission(perm)
	return nil
}

// SetPermission starts the loop on grant and stops it otherwise.
func (s *Scheduler) SetPermission(p permission.Permission) {
	s.mu.Lock()
	s.permission = p
	s.mu.Unlock()

	if p == permission.Granted {
		s.start()
		return
	}
	s.Stop()
}

// Permission returns the last permission the scheduler was given.
func (s *Scheduler) Permission() permission.Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}

func (s *Scheduler) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	s.logger.Info("reminder scheduler started", "interval", s.interval, "warmup", s.warmup)
}

// Stop halts the loop and waits for it to exit. A poll in progress is
// cancelled.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("reminder scheduler stopped")
}

// Running reports whether the polling loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	var wg sync.WaitGroup
	defer wg.Wait()

	tick := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.PollNow(ctx); !ok {
				s.logger.Debug("reminder poll skipped, previous poll still running")
			}
		}()
	}

	warmup := time.NewTimer(s.warmup)
	defer warmup.Stop()
	select {
	case <-ctx.Done():
		return
	case <-warmup.C:
		tick()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

// PollNow runs one poll cycle. It returns false without polling when
// another cycle is still running.
func (s *Scheduler) PollNow(ctx context.Context) (Result, bool) {
	if !s.busy.CompareAndSwap(false, true) {
		return Result{}, false
	}
	defer s.busy.Store(false)

	result := s.poll(ctx)
	s.sendResult(result)
	return result, true
}

func (s *Scheduler) poll(ctx context.Context) Result {
	result := Result{At: s.now()}

	due, err := s.source.DueReminders(ctx, result.At)
	if err != nil {
		s.logger.Error("querying due reminders", "error", err)
		result.Err = err
		return result
	}
	result.Due = len(due)

	keys := []string{cache.KeyPendingReminders}
	for _, r := range due {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			break
		}

		claimed, err := s.source.ClaimReminder(ctx, r.ID)
		if err != nil {
			s.logger.Error("marking reminder sent", "reminder_id", r.ID, "error", err)
			result.Failed++
			continue
		}
		if !claimed {
			continue
		}
		result.Processed++
		keys = append(keys, cache.TaskRemindersKey(r.TaskID))

		if r.TaskMissing() || (r.TaskStatus != nil && *r.TaskStatus == model.StatusDone) {
			result.Suppressed++
			continue
		}

		n := model.Notification{
			ReminderID: r.ID,
			TaskID:     r.TaskID,
			Title:      NotificationTitle,
			Body:       "Due: " + displayTitle(*r.TaskTitle),
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.Warn("reminder notification not delivered",
				"reminder_id", r.ID, "task_id", r.TaskID, "error", err)
			result.Failed++
			continue
		}
		result.Delivered++
	}

	if result.Processed > 0 {
		s.cache.Invalidate(keys...)
	}
	if result.Due > 0 {
		s.logger.Info("reminder poll",
			"due", result.Due, "delivered", result.Delivered,
			"suppressed", result.Suppressed, "failed", result.Failed)
	}
	return result
}

func displayTitle(title string) string {
	if title == "" {
		return "Untitled task"
	}
	return title
}

// sendResult publishes a result without blocking.
func (s *Scheduler) sendResult(r Result) {
	select {
	case s.resultCh <- r:
	default:
	}
}

// Results exposes completed poll cycles.
func (s *Scheduler) Results() <-chan Result {
	return s.resultCh
}

// WaitForResult returns a tea.Cmd that waits for the next poll result.
// Call it again after handling a ResultMsg to keep listening.
func (s *Scheduler) WaitForResult() tea.Cmd {
	return func() tea.Msg {
		r, ok := <-s.resultCh
		if !ok {
			return nil
		}
		return ResultMsg{Result: r}
	}
}
