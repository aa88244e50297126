// Package cache holds query results keyed by string and coordinates their
// invalidation. A load that started before an invalidation of its key never
// writes its result back, so a read is never older than the last completed
// mutation.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// EventKind tells subscribers what happened to a key.
type EventKind string

const (
	// EventInvalidated means the cached result was dropped and must be refetched.
	EventInvalidated EventKind = "invalidated"
	// EventUpdated means the cached result was replaced in place.
	EventUpdated EventKind = "updated"
)

// Event is delivered to subscribers after a change.
type Event struct {
	Kind EventKind
	Keys []string
}

// Has reports whether the event touches key.
func (e Event) Has(key string) bool {
	for _, k := range e.Keys {
		if k == key {
			return true
		}
	}
	return false
}

type entry struct {
	value any
}

// Cache is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]entry
	epoch    uint64
	keyEpoch map[string]uint64
	prefixes map[string]uint64
	group    singleflight.Group

	subMu       sync.RWMutex
	subscribers []chan Event
	bufferSize  int

	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithBufferSize sets the channel buffer size for subscribers.
func WithBufferSize(size int) Option {
	return func(c *Cache) {
		c.bufferSize = size
	}
}

// WithLogger sets the logger used for invalidation traces.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]entry),
		keyEpoch:   make(map[string]uint64),
		prefixes:   make(map[string]uint64),
		bufferSize: 64,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// generation returns the epoch of the latest invalidation covering key.
// Callers hold c.mu.
func (c *Cache) generation(key string) uint64 {
	gen := c.keyEpoch[key]
	for prefix, e := range c.prefixes {
		if e > gen && strings.HasPrefix(key, prefix) {
			gen = e
		}
	}
	return gen
}

// Peek returns the cached value for key without loading.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.value, ok
}

// Load returns the cached value for key or fetches it. Concurrent loads of
// the same key and generation share one fetch. The fetched value is stored
// only if key was not invalidated while the fetch ran.
func Load[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		v, ok := e.value.(T)
		if !ok {
			return zero, fmt.Errorf("cache key %s holds %T", key, e.value)
		}
		return v, nil
	}
	gen := c.generation(key)
	c.mu.Unlock()

	flight := fmt.Sprintf("%s#%d", key, gen)
	result, err, _ := c.group.Do(flight, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.generation(key) == gen {
			c.entries[key] = entry{value: v}
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}

// Set replaces the cached value for key. Loads in flight for key are
// discarded when they finish.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.epoch++
	c.keyEpoch[key] = c.epoch
	c.entries[key] = entry{value: value}
	c.mu.Unlock()

	c.publish(Event{Kind: EventUpdated, Keys: []string{key}})
}

// Invalidate drops the given keys. It returns after the drop is visible to
// every subsequent Load.
func (c *Cache) Invalidate(keys ...string) {
	if len(keys) == 0 {
		return
	}
	c.mu.Lock()
	c.epoch++
	for _, k := range keys {
		c.keyEpoch[k] = c.epoch
		delete(c.entries, k)
	}
	c.mu.Unlock()

	c.logger.Debug("cache invalidated", "keys", keys)
	c.publish(Event{Kind: EventInvalidated, Keys: keys})
}

// InvalidatePrefix drops every key starting with prefix, including keys
// whose loads are still in flight.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	c.epoch++
	c.prefixes[prefix] = c.epoch
	var dropped []string
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			dropped = append(dropped, k)
		}
	}
	c.mu.Unlock()

	c.logger.Debug("cache invalidated", "prefix", prefix, "keys", dropped)
	c.publish(Event{Kind: EventInvalidated, Keys: append(dropped, prefix+"*")})
}

// Snapshot is the state of one key captured before an optimistic write.
type Snapshot struct {
	Key     string
	Value   any
	Present bool
}

// Optimistic atomically captures key's current value and replaces it with
// apply's result. apply must not modify the old value in place. Loads in
// flight for key are discarded.
func (c *Cache) Optimistic(key string, apply func(old any, ok bool) any) Snapshot {
	c.mu.Lock()
	old, ok := c.entries[key]
	snap := Snapshot{Key: key, Value: old.value, Present: ok}
	c.epoch++
	c.keyEpoch[key] = c.epoch
	c.entries[key] = entry{value: apply(old.value, ok)}
	c.mu.Unlock()

	c.publish(Event{Kind: EventUpdated, Keys: []string{key}})
	return snap
}

// Restore puts a snapshot back exactly as it was captured.
func (c *Cache) Restore(s Snapshot) {
	c.mu.Lock()
	c.epoch++
	c.keyEpoch[s.Key] = c.epoch
	if s.Present {
		c.entries[s.Key] = entry{value: s.Value}
	} else {
		delete(c.entries, s.Key)
	}
	c.mu.Unlock()

	c.publish(Event{Kind: EventUpdated, Keys: []string{s.Key}})
}

// Subscribe returns a channel that receives every change event. Sends are
// non-blocking: a subscriber with a full buffer misses events.
func (c *Cache) Subscribe() <-chan Event {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	ch := make(chan Event, c.bufferSize)
	c.subscribers = append(c.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (c *Cache) Unsubscribe(ch <-chan Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for i, sub := range c.subscribers {
		if sub == ch {
			c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

func (c *Cache) publish(e Event) {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}
