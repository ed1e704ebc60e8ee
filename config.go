package infernal

import (
	"fmt"
	"time"
)

// Size bounds for legion stacks, per spec.md §3 ("Legion" / stack).
const (
	MinStackSize = 256 * 1024
	MaxStackSize = 2 * 1024 * 1024
)

// RunQueueCapacity is the fixed ring capacity of every worker's local run
// queue (spec.md §3 "Run queue").
const RunQueueCapacity = 256

// Config controls the shape of a Scheduler. Use NewConfig with Options to
// build one; the zero Config is not valid on its own, NewConfig always
// fills in spec.md defaults first.
type Config struct {
	// Workers is the fixed number of OS threads backing the scheduler
	// (spec.md §3 "W = 4").
	Workers int

	// StealAttempts is how many sibling workers a worker tries to steal
	// from before parking (spec.md §4.6 step 2, "for k = 1..3").
	StealAttempts int

	// ParkTimeout is how long an idle worker waits on its condition
	// variable before re-checking its queue (spec.md §4.6 step 3, 10ms).
	ParkTimeout time.Duration

	// IdleSleep is the belt-and-braces sleep applied when active legions
	// is observed at zero (spec.md §4.6 step 4, 1ms).
	IdleSleep time.Duration

	Logger Logger
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithWorkers overrides the worker count.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithStealAttempts overrides the steal rotation depth.
func WithStealAttempts(n int) Option {
	return func(c *Config) { c.StealAttempts = n }
}

// WithParkTimeout overrides the per-worker condition-variable timeout.
func WithParkTimeout(d time.Duration) Option {
	return func(c *Config) { c.ParkTimeout = d }
}

// WithIdleSleep overrides the belt-and-braces idle sleep.
func WithIdleSleep(d time.Duration) Option {
	return func(c *Config) { c.IdleSleep = d }
}

// WithLogger installs a Logger scoped to one Scheduler instead of relying
// on the package-wide one set by SetStructuredLogger.
func WithLogger(l Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// NewConfig returns a Config seeded with spec.md defaults, then applies
// opts in order.
func NewConfig(opts ...Option) Config {
	c := Config{
		Workers:       4,
		StealAttempts: 3,
		ParkTimeout:   10 * time.Millisecond,
		IdleSleep:     1 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Logger == nil {
		c.Logger = getGlobalLogger()
	}
	return c
}

// resolveStackSize validates an explicit stack size request (size == 0
// means "use the floor, MinStackSize"). A request below MinStackSize is
// rejected with ErrStackTooSmall rather than silently bumped up, since a
// caller that asked for a specific small size is more likely confused
// about the minimum than happy to get more than it asked for; a request
// above MaxStackSize is clamped down, matching spec.md §3's hard ceiling.
func resolveStackSize(size int) (int, error) {
	if size == 0 {
		return MinStackSize, nil
	}
	if size < MinStackSize {
		return 0, fmt.Errorf("infernal: spawn: %w: requested %d bytes, minimum is %d", ErrStackTooSmall, size, MinStackSize)
	}
	if size > MaxStackSize {
		size = MaxStackSize
	}
	return size, nil
}
