// Package ristretto adapts dgraph-io/ristretto to delegate.Cache.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/txcache/delegate"
)

// Cache fronts a ristretto cache. Ristretto applies writes asynchronously
// and may drop them under admission pressure, so a committed write is not
// guaranteed to be immediately readable; call Wait after commit when
// read-your-writes matters.
type Cache struct {
	name string
	c    *rc.Cache
	ttl  time.Duration
}

var _ delegate.Cache = (*Cache)(nil)

type Config struct {
	Name        string // stable cache id; required
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	TTL         time.Duration // 0 = no expiry
}

func New(cfg Config) (*Cache, error) {
	if cfg.Name == "" {
		return nil, errors.New("ristretto: name is required")
	}
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{name: cfg.Name, c: c, ttl: cfg.TTL}, nil
}

func (p *Cache) ID() string { return p.name }

// Size is not supported: ristretto does not expose a live entry count.
func (p *Cache) Size(context.Context) (int, error) {
	return 0, delegate.ErrSizeUnavailable
}

func (p *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, bok := v.([]byte)
	if !bok {
		// drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (p *Cache) Put(_ context.Context, key string, value []byte) error {
	cost := int64(len(value)) + 1 // nil null writes still need a positive cost
	p.c.SetWithTTL(key, value, cost, p.ttl)
	return nil
}

func (p *Cache) Remove(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

func (p *Cache) Clear(context.Context) error {
	p.c.Clear()
	return nil
}

// Wait blocks until buffered writes have been applied.
func (p *Cache) Wait() { p.c.Wait() }

// Close releases the underlying ristretto cache.
func (p *Cache) Close() {
	p.c.Wait()
	p.c.Close()
}
