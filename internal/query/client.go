// Package query is the single entry point for reading and mutating
// projects, tasks and reminders. Reads go through the cache; every mutation
// writes to the store and invalidates the affected cache keys before it
// returns.
package query

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nhle/taskdown/internal/cache"
	"github.com/nhle/taskdown/internal/store"
)

// DefaultTimeout bounds each store call when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Options configure a Client.
type Options struct {
	Timeout time.Duration
	Logger  *slog.Logger
	// ReadOnly is consulted before every mutation. When it reports true the
	// mutation fails with store.ErrReadOnly.
	ReadOnly func() bool
	Now      func() time.Time
}

// Client couples a Store with a Cache. Mutations are serialized so that
// mutations issued in order commit in order.
type Client struct {
	store    store.Store
	cache    *cache.Cache
	timeout  time.Duration
	logger   *slog.Logger
	readOnly func() bool
	now      func() time.Time

	mu sync.Mutex
}

// New creates a Client.
func New(s store.Store, c *cache.Cache, opts Options) *Client {
	client := &Client{
		store:    s,
		cache:    c,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		readOnly: opts.ReadOnly,
		now:      opts.Now,
	}
	if client.timeout <= 0 {
		client.timeout = DefaultTimeout
	}
	if client.logger == nil {
		client.logger = slog.Default()
	}
	if client.readOnly == nil {
		client.readOnly = func() bool { return false }
	}
	if client.now == nil {
		client.now = func() time.Time { return time.Now().UTC() }
	}
	return client
}

// Cache returns the cache the client reads through.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// Store returns the underlying store.
func (c *Client) Store() store.Store {
	return c.store
}

// read runs fn under the store timeout.
func read[T any](ctx context.Context, c *Client, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v, err := fn(ctx)
	if err != nil {
		return v, c.deadline(op, err)
	}
	return v, nil
}

// mutate serializes fn against every other mutation, runs it under the store
// timeout and refuses it while the database is read-only.
func mutate[T any](ctx context.Context, c *Client, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.readOnly() {
		return zero, store.ErrReadOnly
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v, err := fn(ctx)
	if err != nil {
		err = c.deadline(op, err)
		c.logger.Debug("mutation failed", "op", op, "error", err)
		return zero, err
	}
	return v, nil
}

// deadline reports an expired store timeout as an unavailable store.
func (c *Client) deadline(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !store.IsStoreUnavailable(err) {
		return &store.StoreUnavailableError{Op: op, Err: err}
	}
	return err
}
