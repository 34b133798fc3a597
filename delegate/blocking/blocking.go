// Package blocking decorates a delegate.Cache with per-key miss locking.
//
// A read miss acquires a latch for the key and holds it until a subsequent
// Put or Remove of the same key, blocking every other reader of that key in
// the meantime. The usual flow is: miss, load from the source of truth, Put
// (releases). The transactional layer guarantees the release half: at commit
// every missed key receives its staged value or a null write, and at
// rollback a removal.
//
// The latch is not reentrant. A session that missed a key must write or
// remove it (directly or by ending its unit of work) before reading it
// again, or it blocks on its own latch. Writing a key you never missed
// while another session holds its latch releases their lock; the
// single-owner-per-key discipline of the transactional protocol avoids
// this.
package blocking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/unkn0wn-root/txcache/delegate"
)

// ErrLockTimeout is returned by Get when the latch for a key could not be
// acquired within the configured timeout.
var ErrLockTimeout = errors.New("blocking: lock timeout")

type Cache struct {
	inner   delegate.Cache
	timeout time.Duration

	mu      sync.Mutex
	latches map[string]*latch
}

// latch is a one-token channel: a token in the channel means "held".
// refs counts the holder plus waiters so the map entry can be dropped when
// the last one leaves.
type latch struct {
	ch   chan struct{}
	refs int
}

var _ delegate.Cache = (*Cache)(nil)

// New wraps inner. timeout bounds how long a Get waits for another session's
// latch; 0 means wait until the context is done.
func New(inner delegate.Cache, timeout time.Duration) *Cache {
	return &Cache{
		inner:   inner,
		timeout: timeout,
		latches: make(map[string]*latch),
	}
}

func (c *Cache) ID() string { return c.inner.ID() }

func (c *Cache) Size(ctx context.Context) (int, error) { return c.inner.Size(ctx) }

// Get acquires the key's latch, then reads through. On a hit (or a read
// error) the latch is released immediately; on a clean miss it stays held
// until Put or Remove is called for the key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := c.acquire(ctx, key); err != nil {
		return nil, false, err
	}
	v, ok, err := c.inner.Get(ctx, key)
	if err != nil || ok {
		c.release(key)
	}
	return v, ok, err
}

// Put writes through and releases the key's latch, whether or not the write
// succeeded.
func (c *Cache) Put(ctx context.Context, key string, value []byte) error {
	err := c.inner.Put(ctx, key, value)
	c.release(key)
	return err
}

// Remove deletes through and releases the key's latch.
func (c *Cache) Remove(ctx context.Context, key string) error {
	err := c.inner.Remove(ctx, key)
	c.release(key)
	return err
}

// Clear passes through. Held latches are untouched: their misses still await
// a write or removal.
func (c *Cache) Clear(ctx context.Context) error { return c.inner.Clear(ctx) }

func (c *Cache) acquire(ctx context.Context, key string) error {
	c.mu.Lock()
	l, ok := c.latches[key]
	if !ok {
		l = &latch{ch: make(chan struct{}, 1)}
		c.latches[key] = l
	}
	l.refs++
	c.mu.Unlock()

	if c.timeout <= 0 {
		select {
		case l.ch <- struct{}{}:
			return nil
		case <-ctx.Done():
			c.unregister(key, l)
			return ctx.Err()
		}
	}

	t := time.NewTimer(c.timeout)
	defer t.Stop()
	select {
	case l.ch <- struct{}{}:
		return nil
	case <-t.C:
		c.unregister(key, l)
		return fmt.Errorf("%w: key %q after %s", ErrLockTimeout, key, c.timeout)
	case <-ctx.Done():
		c.unregister(key, l)
		return ctx.Err()
	}
}

// unregister backs out a failed acquire.
func (c *Cache) unregister(key string, l *latch) {
	c.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(c.latches, key)
	}
	c.mu.Unlock()
}

// release drops the token so the next waiter's pending send succeeds.
// Releasing a key with no latch is a no-op, which makes the write path safe
// for keys that never missed.
func (c *Cache) release(key string) {
	c.mu.Lock()
	l, ok := c.latches[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	l.refs--
	if l.refs == 0 {
		delete(c.latches, key)
	}
	c.mu.Unlock()
	select {
	case <-l.ch:
	default:
	}
}
