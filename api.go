package txcache

// Options tune the transactional layer. Every field is optional; zero values
// fall back to no-op implementations.
type Options struct {
	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks
}

// New creates a Registry for one unit of work. The registry must end in
// exactly one Commit or Rollback; create a fresh one (or reuse after a
// terminal call) for the next unit of work.
func New(opts Options) *Registry {
	return newRegistry(opts)
}
