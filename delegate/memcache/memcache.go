// Package memcache adapts bradfitz/gomemcache to delegate.Cache.
//
// Entries are prefixed with "<name>:". Note two memcached limitations: keys
// must stay within 250 bytes and contain no whitespace or control
// characters, and Clear flushes the WHOLE memcached instance, not just this
// cache's prefix. Point the client at a dedicated instance if Clear must be
// scoped.
package memcache

import (
	"context"
	"errors"
	"strings"

	mc "github.com/bradfitz/gomemcache/memcache"

	"github.com/unkn0wn-root/txcache/delegate"
)

var ErrInvalidKey = errors.New("memcache delegate: invalid key")

type Cache struct {
	name string
	c    *mc.Client
	ttl  int32 // seconds; 0 = no expiry
}

var _ delegate.Cache = (*Cache)(nil)

type Config struct {
	Name       string // stable cache id, doubles as the key prefix; required
	Client     *mc.Client
	TTLSeconds int32 // 0 = no expiry
}

func New(cfg Config) (*Cache, error) {
	if cfg.Client == nil {
		return nil, errors.New("memcache delegate: nil client")
	}
	if cfg.Name == "" {
		return nil, errors.New("memcache delegate: name is required")
	}
	return &Cache{name: cfg.Name, c: cfg.Client, ttl: cfg.TTLSeconds}, nil
}

func (p *Cache) ID() string { return p.name }

// Size is not supported: the memcached text protocol exposes no cheap
// per-prefix entry count.
func (p *Cache) Size(context.Context) (int, error) {
	return 0, delegate.ErrSizeUnavailable
}

func (p *Cache) key(k string) (string, error) {
	full := p.name + ":" + k
	if len(full) > 250 || strings.ContainsAny(full, " \t\r\n") {
		return "", ErrInvalidKey
	}
	return full, nil
}

func (p *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	k, err := p.key(key)
	if err != nil {
		return nil, false, err
	}
	item, err := p.c.Get(k)
	if errors.Is(err, mc.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return item.Value, true, nil
}

func (p *Cache) Put(_ context.Context, key string, value []byte) error {
	k, err := p.key(key)
	if err != nil {
		return err
	}
	return p.c.Set(&mc.Item{Key: k, Value: value, Expiration: p.ttl})
}

func (p *Cache) Remove(_ context.Context, key string) error {
	k, err := p.key(key)
	if err != nil {
		return err
	}
	err = p.c.Delete(k)
	if errors.Is(err, mc.ErrCacheMiss) {
		return nil
	}
	return err
}

// Clear flushes the whole memcached instance.
func (p *Cache) Clear(context.Context) error { return p.c.FlushAll() }
