package txcache

// Hooks are lightweight callbacks for high-signal transaction events.
// Implementations MUST be cheap and non-blocking; the buffer calls them
// inline. Wrap with hooks/async to decouple slow sinks.
type Hooks interface {
	// A read missed on the delegate and the key was recorded for unlock.
	MissRecorded(cacheID, key string)

	// Clear was called inside the unit of work; the physical clear is
	// deferred to commit. staged is the number of writes discarded.
	ClearDeferred(cacheID string, staged int)

	// A buffer finished its commit flush.
	// writes = staged writes applied, unlocks = null writes for missed keys,
	// cleared = whether the delegate was cleared first.
	Committed(cacheID string, writes, unlocks int, cleared bool)

	// A buffer finished rolling back. failed counts missed keys whose
	// removal errored (see UnlockFailed for each).
	RolledBack(cacheID string, unlocked, failed int)

	// Removing a missed key during rollback failed. Never fatal.
	UnlockFailed(cacheID, key string, err error)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) MissRecorded(string, string)        {}
func (NopHooks) ClearDeferred(string, int)          {}
func (NopHooks) Committed(string, int, int, bool)   {}
func (NopHooks) RolledBack(string, int, int)        {}
func (NopHooks) UnlockFailed(string, string, error) {}
