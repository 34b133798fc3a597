package txcache

import (
	"context"

	"github.com/unkn0wn-root/txcache/delegate"
)

// Buffer stages the effects one unit of work has on a single delegate.
// Writes and clears never reach the delegate before Commit; reads pass
// through and record every clean miss so the terminal operation can release
// any per-key lock a blocking delegate acquired.
//
// Buffer implements delegate.Cache, so it can stand wherever a cache is
// expected. It is not safe for concurrent use; one unit of work owns it.
type Buffer struct {
	delegate delegate.Cache
	log      Logger
	hooks    Hooks

	// pending maps key -> staged value. A nil value is a deliberate null
	// write. Last write for a key wins.
	pending map[string][]byte

	// missed holds every key that cleanly missed on the delegate during
	// this unit of work, including keys that were later written.
	missed map[string]struct{}

	clearPending bool
}

var _ delegate.Cache = (*Buffer)(nil)

// NewBuffer wraps cache. Most callers let a Registry create buffers instead.
func NewBuffer(cache delegate.Cache, opts Options) *Buffer {
	return &Buffer{
		delegate: cache,
		log:      coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:    coalesce[Hooks](opts.Hooks, NopHooks{}),
		pending:  make(map[string][]byte),
		missed:   make(map[string]struct{}),
	}
}

func (b *Buffer) ID() string { return b.delegate.ID() }

func (b *Buffer) Size(ctx context.Context) (int, error) { return b.delegate.Size(ctx) }

// Get queries the delegate and records a clean miss. While a clear is
// pending the cache is logically empty for this unit of work, so even a
// delegate hit reports absent. Delegate errors propagate unchanged and do
// not count as misses.
func (b *Buffer) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := b.delegate.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		if _, seen := b.missed[key]; !seen {
			b.missed[key] = struct{}{}
			b.hooks.MissRecorded(b.ID(), key)
		}
	}
	if b.clearPending {
		return nil, false, nil
	}
	return v, ok, nil
}

// Put stages a write. Nothing reaches the delegate until Commit.
func (b *Buffer) Put(_ context.Context, key string, value []byte) error {
	b.pending[key] = value
	return nil
}

// Remove is unsupported inside a unit of work: removing now would be visible
// to other sessions before commit. It is a documented no-op, not a failure.
func (b *Buffer) Remove(context.Context, string) error { return nil }

// Clear marks the delegate for clearing at commit time and discards writes
// staged so far. Writes staged after this call survive and are flushed after
// the physical clear.
func (b *Buffer) Clear(context.Context) error {
	b.hooks.ClearDeferred(b.ID(), len(b.pending))
	b.clearPending = true
	b.pending = make(map[string][]byte)
	return nil
}

// Commit flushes the staged state into the delegate, in order: the deferred
// clear, then every staged write, then a null write for every missed key
// without a staged value. The last step releases per-key locks held by
// blocking delegates; every miss ends up matched by exactly one write.
//
// A delegate failure propagates as *CommitError and leaves the staged state
// intact: the flush is not atomic, and the owner must still Rollback the
// unit of work to release the remaining miss locks.
func (b *Buffer) Commit(ctx context.Context) error {
	cleared := false
	if b.clearPending {
		if err := b.delegate.Clear(ctx); err != nil {
			return &CommitError{CacheID: b.ID(), Stage: StageClear, Err: err}
		}
		cleared = true
	}
	for k, v := range b.pending {
		if err := b.delegate.Put(ctx, k, v); err != nil {
			return &CommitError{CacheID: b.ID(), Stage: StageFlush, Key: k, Err: err}
		}
	}
	unlocks := 0
	for k := range b.missed {
		if _, staged := b.pending[k]; staged {
			continue
		}
		if err := b.delegate.Put(ctx, k, nil); err != nil {
			return &CommitError{CacheID: b.ID(), Stage: StageUnlock, Key: k, Err: err}
		}
		unlocks++
	}
	b.hooks.Committed(b.ID(), len(b.pending), unlocks, cleared)
	b.reset()
	return nil
}

// Rollback discards every staged write and asks the delegate to remove each
// missed key, which is the lock-release signal for blocking delegates. A
// removal failure is logged and reported through Hooks; the loop always
// reaches every remaining key. Rollback never clears or writes.
func (b *Buffer) Rollback(ctx context.Context) {
	var (
		failedKeys []string
		failedErrs []error
	)
	for k := range b.missed {
		if err := b.delegate.Remove(ctx, k); err != nil {
			failedKeys = append(failedKeys, k)
			failedErrs = append(failedErrs, err)
			b.hooks.UnlockFailed(b.ID(), k, err)
		}
	}
	if len(failedKeys) > 0 {
		uerr := &UnlockError{CacheID: b.ID(), Keys: failedKeys, Errs: failedErrs}
		b.log.Warn("rollback could not unlock every missed key", Fields{
			"cache": b.ID(),
			"keys":  failedKeys,
			"err":   uerr,
		})
	}
	b.hooks.RolledBack(b.ID(), len(b.missed)-len(failedKeys), len(failedKeys))
	b.reset()
}

func (b *Buffer) reset() {
	b.clearPending = false
	b.pending = make(map[string][]byte)
	b.missed = make(map[string]struct{})
}
