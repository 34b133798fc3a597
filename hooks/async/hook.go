// Package asynchook decouples hook sinks from the transaction hot path.
// Events are queued to a bounded channel and delivered by worker
// goroutines; when the queue is full events are dropped rather than
// blocking commit or rollback.
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/txcache"
)

type Hooks struct {
	inner txcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ txcache.Hooks = (*Hooks)(nil)

func New(inner txcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers. Call it after the last
// terminal operation that can emit events.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) MissRecorded(id, key string) { h.try(func() { h.inner.MissRecorded(id, key) }) }
func (h *Hooks) ClearDeferred(id string, staged int) {
	h.try(func() { h.inner.ClearDeferred(id, staged) })
}
func (h *Hooks) Committed(id string, writes, unlocks int, cleared bool) {
	h.try(func() { h.inner.Committed(id, writes, unlocks, cleared) })
}
func (h *Hooks) RolledBack(id string, unlocked, failed int) {
	h.try(func() { h.inner.RolledBack(id, unlocked, failed) })
}
func (h *Hooks) UnlockFailed(id, key string, err error) {
	h.try(func() { h.inner.UnlockFailed(id, key, err) })
}
