package txcache

import (
	"context"

	"github.com/unkn0wn-root/txcache/delegate"
)

// Registry owns the buffers of one unit of work. A unit of work may touch
// several distinct delegates; the registry routes every call to the right
// buffer (creating it lazily) and fans out the terminal operation to all of
// them.
//
// Buffers are keyed by the delegate interface value itself, so identity, not
// content, decides what "the same cache" means: two instances fronting the
// same backend still get two buffers. Delegates must therefore be comparable
// (pointer receivers are).
//
// Registry exposes no Remove; the buffers do not support it either.
type Registry struct {
	opts    Options
	buffers map[delegate.Cache]*Buffer
}

func newRegistry(opts Options) *Registry {
	opts.Logger = coalesce[Logger](opts.Logger, NopLogger{})
	opts.Hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return &Registry{
		opts:    opts,
		buffers: make(map[delegate.Cache]*Buffer),
	}
}

// Buffer returns the buffer wrapping cache, creating one on first use.
func (r *Registry) Buffer(cache delegate.Cache) *Buffer {
	b, ok := r.buffers[cache]
	if !ok {
		b = NewBuffer(cache, r.opts)
		r.buffers[cache] = b
	}
	return b
}

// Get reads key through cache's buffer, recording a miss for later unlock.
func (r *Registry) Get(ctx context.Context, cache delegate.Cache, key string) ([]byte, bool, error) {
	return r.Buffer(cache).Get(ctx, key)
}

// Put stages a write; it reaches cache only when Commit is called.
func (r *Registry) Put(ctx context.Context, cache delegate.Cache, key string, value []byte) error {
	return r.Buffer(cache).Put(ctx, key, value)
}

// Clear stages a full invalidation of cache, applied at commit before any
// staged writes.
func (r *Registry) Clear(ctx context.Context, cache delegate.Cache) error {
	return r.Buffer(cache).Clear(ctx)
}

// Commit flushes every buffer. Buffers for distinct delegates are
// independent, so the order is unspecified. The first failure aborts the
// fan-out and propagates; the owner must then Rollback the unit of work so
// the remaining buffers release their miss locks.
func (r *Registry) Commit(ctx context.Context) error {
	for _, b := range r.buffers {
		if err := b.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Rollback rolls back every buffer, in unspecified order. It never fails;
// per-key unlock errors are logged by the buffers.
func (r *Registry) Rollback(ctx context.Context) {
	for _, b := range r.buffers {
		b.Rollback(ctx)
	}
}
