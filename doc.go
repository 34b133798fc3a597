// Package txcache implements a transactional buffering layer in front of
// shared caches. Writes performed during a unit of work are staged in a
// per-cache buffer and only reach the underlying cache on Commit; Rollback
// discards them. Reads go through to the underlying cache, and every read
// miss is remembered so that delegates which lock a key on miss (see
// delegate/blocking) are guaranteed a matching write or removal when the
// unit of work ends.
//
// Components:
//   - delegate.Cache: the shared byte store being protected (Ristretto,
//     BigCache, Redis, memcached adapters ship in delegate/...).
//   - Buffer: stages writes, misses, and a deferred clear for exactly one
//     delegate.
//   - Registry: one per unit of work; lazily creates a Buffer per distinct
//     delegate and fans out Commit/Rollback.
//   - View[V]: a typed facade over a (Registry, delegate) pair using a
//     pluggable Codec[V].
//
// Commit flush order for each buffer: deferred clear first, then staged
// writes, then a null write for every missed key that has no staged value
// (the miss-unlock step). Rollback removes every missed key instead,
// best-effort.
//
// A unit of work must always end in exactly one Commit or Rollback.
// Abandoning it leaks any per-key locks a blocking delegate acquired on
// misses.
//
// A Registry and its buffers belong to a single logical session; they are
// not safe for concurrent use without external synchronization.
package txcache
