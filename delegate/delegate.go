// Package delegate defines the storage abstraction the transactional layer
// buffers writes for.
//
// A delegate is a shared, process-level (or remote) cache. The transactional
// layer holds a non-owning reference to it: other sessions may read and write
// the same delegate concurrently, which is exactly why writes are deferred
// until commit.
//
// Identity matters. The registry keys buffers on the Cache interface value
// itself, so implementations must be comparable (pointer receivers are the
// norm) and two distinct instances are treated as two distinct caches even if
// they front the same backend.
//
// A nil value passed to Put is a deliberate "null write". Delegates that lock
// a key on a read miss (see the blocking subpackage) must treat any write to
// that key, nil included, as the release signal.
package delegate

import (
	"context"
	"errors"
)

// ErrSizeUnavailable is returned by Size when the backend cannot report an
// entry count (memcached, ristretto without metrics).
var ErrSizeUnavailable = errors.New("delegate: size unavailable")

// Cache is the capability set the transactional layer consumes.
type Cache interface {
	// ID returns a stable identifier used in logs and errors.
	ID() string

	// Size returns the current entry count, or ErrSizeUnavailable.
	Size(ctx context.Context) (int, error)

	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// IO/remote errors return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key. value may be nil: a null write is a real
	// write and must release any per-key lock held for key.
	Put(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Clear drops every entry owned by this cache.
	Clear(ctx context.Context) error
}
