package blocking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unkn0wn-root/txcache"
	"github.com/unkn0wn-root/txcache/delegate"
)

type memCache struct {
	id string
	m  map[string][]byte
}

var _ delegate.Cache = (*memCache)(nil)

func newMemCache() *memCache { return &memCache{id: "mem", m: make(map[string][]byte)} }

func (c *memCache) ID() string                          { return c.id }
func (c *memCache) Size(context.Context) (int, error)   { return len(c.m), nil }
func (c *memCache) Clear(context.Context) error         { c.m = make(map[string][]byte); return nil }
func (c *memCache) Remove(_ context.Context, key string) error {
	delete(c.m, key)
	return nil
}
func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.m[key]
	return v, ok, nil
}
func (c *memCache) Put(_ context.Context, key string, value []byte) error {
	c.m[key] = value
	return nil
}

type getResult struct {
	ok  bool
	err error
}

// getAsync runs Get in a goroutine and reports its result on a channel.
func getAsync(c *Cache, key string) <-chan getResult {
	done := make(chan getResult, 1)
	go func() {
		_, ok, err := c.Get(context.Background(), key)
		done <- getResult{ok: ok, err: err}
	}()
	return done
}

func assertBlocked(t *testing.T, done <-chan getResult) {
	t.Helper()
	select {
	case r := <-done:
		t.Fatalf("reader should be blocked on the latch, returned %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func awaitResult(t *testing.T, done <-chan getResult) getResult {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("reader was never released")
		return getResult{}
	}
}

func TestMissHoldsLatchUntilPut(t *testing.T) {
	ctx := context.Background()
	c := New(newMemCache(), 0)

	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}

	done := getAsync(c, "k")
	assertBlocked(t, done)

	if err := c.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if r := awaitResult(t, done); !r.ok || r.err != nil {
		t.Fatalf("released reader should hit, got %+v", r)
	}
}

func TestHitDoesNotHoldLatch(t *testing.T) {
	ctx := context.Background()
	u := newMemCache()
	u.m["k"] = []byte("v")
	c := New(u, 0)

	for i := 0; i < 2; i++ {
		if _, ok, err := c.Get(ctx, "k"); !ok || err != nil {
			t.Fatalf("hit %d: ok=%v err=%v", i, ok, err)
		}
	}
}

func TestRemoveReleasesLatch(t *testing.T) {
	ctx := context.Background()
	c := New(newMemCache(), 0)

	_, _, _ = c.Get(ctx, "k") // miss, latch held
	done := getAsync(c, "k")
	assertBlocked(t, done)

	if err := c.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	// the released reader misses in turn and now holds the latch itself
	if r := awaitResult(t, done); r.ok || r.err != nil {
		t.Fatalf("released reader should miss, got %+v", r)
	}
	_ = c.Put(ctx, "k", nil) // hand the latch back
}

func TestAcquireTimeout(t *testing.T) {
	ctx := context.Background()
	c := New(newMemCache(), 30*time.Millisecond)

	_, _, _ = c.Get(ctx, "k") // latch held by the miss

	if _, _, err := c.Get(ctx, "k"); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
	_ = c.Put(ctx, "k", []byte("v"))
}

func TestAcquireHonorsContext(t *testing.T) {
	c := New(newMemCache(), 0)

	_, _, _ = c.Get(context.Background(), "k") // latch held

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, _, err := c.Get(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline, got %v", err)
	}
	_ = c.Put(context.Background(), "k", []byte("v"))
}

func TestCommitReleasesMissLocks(t *testing.T) {
	ctx := context.Background()
	c := New(newMemCache(), 0)
	b := txcache.NewBuffer(c, txcache.Options{})

	if _, ok, err := b.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("expected miss through the buffer, ok=%v err=%v", ok, err)
	}

	done := getAsync(c, "k")
	assertBlocked(t, done)

	// the miss-unlock null write at commit must release the latch
	if err := b.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if r := awaitResult(t, done); !r.ok || r.err != nil {
		t.Fatalf("commit should leave a present null entry, got %+v", r)
	}
}

func TestRollbackReleasesMissLocks(t *testing.T) {
	ctx := context.Background()
	c := New(newMemCache(), 0)
	b := txcache.NewBuffer(c, txcache.Options{})

	_, _, _ = b.Get(ctx, "k")

	done := getAsync(c, "k")
	assertBlocked(t, done)

	b.Rollback(ctx)
	// rollback removes the key: the blocked reader misses and holds the latch
	if r := awaitResult(t, done); r.ok || r.err != nil {
		t.Fatalf("after rollback the reader should miss, got %+v", r)
	}
	_ = c.Put(ctx, "k", nil)
}

func TestStagedWriteWinsOverNullUnlock(t *testing.T) {
	ctx := context.Background()
	u := newMemCache()
	c := New(u, 0)
	b := txcache.NewBuffer(c, txcache.Options{})

	_, _, _ = b.Get(ctx, "k")             // miss, latch held
	_ = b.Put(ctx, "k", []byte("loaded")) // stage the loaded value

	// the flush releases the latch through the real write, not a null one
	if err := b.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	v, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(v) != "loaded" {
		t.Fatalf("expected the staged value after commit, got %q ok=%v err=%v", v, ok, err)
	}
}
