package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskdown/internal/model"
)

func TestDesktopNotifierSendsTitleAndBody(t *testing.T) {
	var gotTitle, gotBody string
	d := &DesktopNotifier{send: func(title, body string) error {
		gotTitle, gotBody = title, body
		return nil
	}}

	err := d.Notify(context.Background(), model.Notification{Title: "Taskdown", Body: `Due: say "hi"`})
	require.NoError(t, err)
	assert.Equal(t, "Taskdown", gotTitle)
	assert.Equal(t, `Due: say "hi"`, gotBody)
}

func TestDesktopNotifierWrapsFailures(t *testing.T) {
	noDisplay := errors.New("no display")
	d := &DesktopNotifier{send: func(string, string) error { return noDisplay }}

	err := d.Notify(context.Background(), model.Notification{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.True(t, IsDeliveryError(err))
	assert.ErrorIs(t, err, noDisplay)
}

func TestDesktopNotifierSkipsCancelledContext(t *testing.T) {
	var calls int
	d := &DesktopNotifier{send: func(string, string) error { calls++; return nil }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Notify(ctx, model.Notification{})
	assert.True(t, IsDeliveryError(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestMultiTriesEveryNotifier(t *testing.T) {
	var calls int
	boom := errors.New("boom")
	m := Multi{
		Func(func(context.Context, model.Notification) error { calls++; return boom }),
		Func(func(context.Context, model.Notification) error { calls++; return nil }),
	}

	err := m.Notify(context.Background(), model.Notification{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}
