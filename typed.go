package txcache

import (
	"context"
	"fmt"

	cd "github.com/unkn0wn-root/txcache/codec"
	"github.com/unkn0wn-root/txcache/delegate"
)

// View is a typed facade over one delegate inside one unit of work. It binds
// a Registry, a delegate and a Codec so callers stage and read values of V
// instead of raw bytes.
//
// A committed null write (the miss-unlock marker) has an empty payload and
// reads back as absent.
type View[V any] struct {
	reg   *Registry
	cache delegate.Cache
	codec cd.Codec[V]
}

func NewView[V any](reg *Registry, cache delegate.Cache, codec cd.Codec[V]) (View[V], error) {
	if reg == nil {
		return View[V]{}, fmt.Errorf("txcache: registry is required")
	}
	if cache == nil {
		return View[V]{}, fmt.Errorf("txcache: delegate is required")
	}
	if codec == nil {
		return View[V]{}, fmt.Errorf("txcache: codec is required")
	}
	return View[V]{reg: reg, cache: cache, codec: codec}, nil
}

func (v View[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	raw, ok, err := v.reg.Get(ctx, v.cache, key)
	if err != nil || !ok {
		return zero, false, err
	}
	if len(raw) == 0 {
		// miss-unlock marker left by an earlier unit of work
		return zero, false, nil
	}
	val, err := v.codec.Decode(raw)
	if err != nil {
		return zero, false, err
	}
	return val, true, nil
}

func (v View[V]) Put(ctx context.Context, key string, value V) error {
	raw, err := v.codec.Encode(value)
	if err != nil {
		return err
	}
	return v.reg.Put(ctx, v.cache, key, raw)
}

func (v View[V]) Clear(ctx context.Context) error {
	return v.reg.Clear(ctx, v.cache)
}
