package txcache

import (
	"fmt"
)

// Stages of the commit flush, reported in CommitError.
const (
	StageClear  = "clear"
	StageFlush  = "flush"
	StageUnlock = "miss-unlock"
)

// CommitError wraps a delegate failure during Commit. The buffer's staged
// state is left intact when Commit fails, so the owner can (and should)
// still Rollback the unit of work to release per-key locks.
type CommitError struct {
	CacheID string
	Stage   string // StageClear, StageFlush or StageUnlock
	Key     string // empty for StageClear
	Err     error
}

func (e *CommitError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("commit %q: %s failed: %v", e.CacheID, e.Stage, e.Err)
	}
	return fmt.Sprintf("commit %q: %s failed for key %q: %v", e.CacheID, e.Stage, e.Key, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// UnlockError aggregates per-key removal failures from the rollback unlock
// loop. It is never returned to the caller of Rollback; the buffer logs it
// and reports each key through Hooks. The type exists so the whole loop's
// outcome can be carried as one value.
type UnlockError struct {
	CacheID string
	Keys    []string
	Errs    []error
}

func (e *UnlockError) Error() string {
	return fmt.Sprintf("rollback %q: failed to unlock %d missed key(s)", e.CacheID, len(e.Keys))
}

func (e *UnlockError) Unwrap() []error { return e.Errs }
