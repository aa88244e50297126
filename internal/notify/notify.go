// Package notify delivers reminder notifications to the desktop.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/nhle/taskdown/internal/model"
)

// Notifier shows a notification to the user.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// DeliveryError is returned when the desktop refused or failed to show a
// notification.
type DeliveryError struct {
	Backend string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering notification via %s: %v", e.Backend, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsDeliveryError reports whether err (or any error in its chain) is a DeliveryError.
func IsDeliveryError(err error) bool {
	var target *DeliveryError
	return errors.As(err, &target)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n model.Notification) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, n model.Notification) error {
	return f(ctx, n)
}

// LogNotifier writes notifications to a logger instead of the desktop.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs n at info level.
func (l LogNotifier) Notify(_ context.Context, n model.Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("reminder", "title", n.Title, "body", n.Body, "task_id", n.TaskID)
	return nil
}

// AppName labels notifications on platforms that show the sender.
const AppName = "Taskdown"

// DesktopNotifier shows native notifications through beeep.
type DesktopNotifier struct {
	send func(title, body string) error
}

// NewDesktopNotifier returns a notifier for the running platform.
func NewDesktopNotifier() *DesktopNotifier {
	beeep.AppName = AppName
	return &DesktopNotifier{send: func(title, body string) error {
		return beeep.Notify(title, body, "")
	}}
}

// Notify shows n. A cancelled ctx skips delivery.
func (d *DesktopNotifier) Notify(ctx context.Context, n model.Notification) error {
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Backend: "desktop", Err: err}
	}
	if err := d.send(n.Title, n.Body); err != nil {
		return &DeliveryError{Backend: "desktop", Err: err}
	}
	return nil
}

// Multi fans a notification out to several notifiers. Every notifier is
// tried; the errors are joined.
type Multi []Notifier

// Notify calls each notifier in order.
func (m Multi) Notify(ctx context.Context, n model.Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
