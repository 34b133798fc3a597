// Package redis adapts redis/go-redis to delegate.Cache.
//
// Every entry lives under "<name>:" so Clear and Size only touch keys this
// cache owns, not the whole database.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/txcache/delegate"
)

var ErrNilClient = errors.New("redis delegate: nil client")

const scanBatch = 512

type Cache struct {
	name        string
	rdb         goredis.UniversalClient
	ttl         time.Duration
	closeClient bool
}

var _ delegate.Cache = (*Cache)(nil)

type Config struct {
	Name        string // stable cache id, doubles as the key prefix; required
	Client      goredis.UniversalClient
	TTL         time.Duration // 0 = no expiry
	CloseClient bool          // set true only if this cache exclusively owns the client
}

func New(cfg Config) (*Cache, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.Name == "" {
		return nil, errors.New("redis delegate: name is required")
	}
	return &Cache{
		name:        cfg.Name,
		rdb:         cfg.Client,
		ttl:         cfg.TTL,
		closeClient: cfg.CloseClient,
	}, nil
}

func (p *Cache) ID() string { return p.name }

func (p *Cache) key(k string) string { return p.name + ":" + k }

func (p *Cache) pattern() string { return p.name + ":*" }

// Size counts this cache's keys with SCAN. It is O(keys) on the server; use
// sparingly on large caches.
func (p *Cache) Size(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := p.rdb.Scan(ctx, cursor, p.pattern(), scanBatch).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

func (p *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, p.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Cache) Put(ctx context.Context, key string, value []byte) error {
	// a nil value is stored as an empty string; it still counts as present
	return p.rdb.Set(ctx, p.key(key), value, p.ttl).Err()
}

func (p *Cache) Remove(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, p.key(key)).Err()
}

// Clear deletes every key under this cache's prefix, batch by batch.
func (p *Cache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := p.rdb.Scan(ctx, cursor, p.pattern(), scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := p.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close releases the redis client only when this cache owns it. Safe to call
// multiple times; repeated calls become no-ops.
func (p *Cache) Close() error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
