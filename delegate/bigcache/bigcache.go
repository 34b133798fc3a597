// Package bigcache adapts allegro/bigcache to delegate.Cache.
package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/txcache/delegate"
)

type Cache struct {
	name string
	c    *bc.BigCache
}

var _ delegate.Cache = (*Cache)(nil)

type Config struct {
	Name               string // stable cache id; required
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Cache, error) {
	if cfg.Name == "" {
		return nil, errors.New("bigcache: name is required")
	}
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Cache{name: cfg.Name, c: c}, nil
}

func (p *Cache) ID() string { return p.name }

func (p *Cache) Size(context.Context) (int, error) { return p.c.Len(), nil }

func (p *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Cache) Put(_ context.Context, key string, value []byte) error {
	return p.c.Set(key, value)
}

func (p *Cache) Remove(_ context.Context, key string) error {
	err := p.c.Delete(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (p *Cache) Clear(context.Context) error { return p.c.Reset() }

// Close releases the underlying bigcache instance.
func (p *Cache) Close() error { return p.c.Close() }
