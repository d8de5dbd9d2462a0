// Package state holds the client-side mirrors of backend collections. Every
// list here is a cache of the last known server state for the current user's
// view; the backend stays the source of truth and any list can be invalidated
// by refetch at any time.
package state

import (
	"errors"
	"sync"
)

// ErrNotAuthenticated is returned by mutating operations attempted without a
// signed-in user, before any network call is made.
var ErrNotAuthenticated = errors.New("must be logged in")

// collection is the shared shape of a domain store: the mirrored items, a
// loading flag and the last error. Mutations are not idempotent and not
// deduplicated; concurrent duplicate calls produce duplicate records.
type collection[T any] struct {
	mu      sync.Mutex
	items   []T
	loading bool
	err     error
	key     func(T) string
}

// Items returns a copy of the mirrored list.
func (c *collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Loading reports whether a fetch is in flight.
func (c *collection[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the last recorded error, nil when clear.
func (c *collection[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// ClearError dismisses the last error.
func (c *collection[T]) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
}

func (c *collection[T]) begin() {
	c.mu.Lock()
	c.loading = true
	c.err = nil
	c.mu.Unlock()
}

// finish records err (nil on success) and clears the loading flag.
func (c *collection[T]) finish(err error) {
	c.mu.Lock()
	c.loading = false
	c.err = err
	c.mu.Unlock()
}

func (c *collection[T]) fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// replace swaps the whole mirror for a fresh server response.
func (c *collection[T]) replace(items []T) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

// add appends a freshly created record.
func (c *collection[T]) add(item T) {
	c.mu.Lock()
	c.items = append(c.items, item)
	c.mu.Unlock()
}

// put replaces the item with the same key in place; unknown keys are dropped.
func (c *collection[T]) put(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.key(item)
	for i := range c.items {
		if c.key(c.items[i]) == id {
			c.items[i] = item
			return
		}
	}
}

// remove drops the item with the given key.
func (c *collection[T]) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.key(c.items[i]) == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// get returns a copy of the item with the given key.
func (c *collection[T]) get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.key(c.items[i]) == id {
			return c.items[i], true
		}
	}
	var zero T
	return zero, false
}
