package reactive

import "github.com/dshills/reactor-go/reactive/emit"

// EngineKind selects the propagation strategy a Domain uses to drain a
// turn (spec §4.5/§4.6).
type EngineKind string

const (
	// EngineSequential ticks nodes one at a time, in ascending level order
	// and FIFO within a level. It is the deterministic reference engine
	// and the oracle P6 compares the parallel engine against.
	EngineSequential EngineKind = "sequential"

	// EngineParallel ticks every ready node at the current level
	// concurrently, behind a level barrier, before advancing to the next
	// level.
	EngineParallel EngineKind = "parallel"
)

// MergePolicy controls how an async turn queued while another is still
// propagating is scheduled (spec §9 Open Question: async-merge policy).
type MergePolicy string

const (
	// MergeNone runs queued async turns as two independent, sequential
	// commits (FIFO). This is the default: it never coalesces staged
	// mutations from distinct callers into one commit.
	MergeNone MergePolicy = "none"

	// MergeAdjacent coalesces a run of async turns queued back-to-back
	// while the engine is busy into a single commit that applies their
	// staged mutations in submission order, once the current turn drains.
	MergeAdjacent MergePolicy = "adjacent"
)

// Options configures a Domain. The zero value is invalid; NewDomain always
// applies defaultEngineConfig first, then caller-supplied Option values.
type Options struct {
	Engine      EngineKind
	WorkerCount int
	MergePolicy MergePolicy
	Equality    Equal
	Emitter     emit.Emitter
	Metrics     *Metrics

	// RelaxedBarrier opts in to the non-default mode (spec §4.6) where the
	// parallel engine may start a node before every same-level sibling has
	// finished, provided its own predecessors already committed. Glitch
	// freedom across concurrently-ticking siblings is then the caller's
	// responsibility.
	RelaxedBarrier bool
}

type engineConfig struct {
	opts Options
}

func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		opts: Options{
			Engine:      EngineSequential,
			WorkerCount: 1,
			MergePolicy: MergeNone,
			Equality:    DefaultEqual,
		},
	}
}

// Option mutates an in-progress Domain configuration. Functional options
// mirror the teacher's graph.Option pattern (spec §6's options table).
type Option func(*engineConfig) error

// WithEngine selects the propagation strategy.
func WithEngine(kind EngineKind) Option {
	return func(c *engineConfig) error {
		c.opts.Engine = kind
		return nil
	}
}

// WithWorkerCount bounds the parallel engine's per-level concurrency. It
// is a no-op under EngineSequential. n <= 0 is treated as unbounded within
// a level (every ready node at a level ticks at once).
func WithWorkerCount(n int) Option {
	return func(c *engineConfig) error {
		c.opts.WorkerCount = n
		return nil
	}
}

// WithMergePolicy selects how queued async turns are coalesced.
func WithMergePolicy(p MergePolicy) Option {
	return func(c *engineConfig) error {
		c.opts.MergePolicy = p
		return nil
	}
}

// WithEquality overrides the Domain-wide default change comparator. Node
// kinds may still supply their own per-node Equal that takes precedence.
func WithEquality(eq Equal) Option {
	return func(c *engineConfig) error {
		c.opts.Equality = equalOrDefault(eq)
		return nil
	}
}

// WithEmitter attaches an observability sink (reactive/emit.Emitter) for
// turn/tick/poison events.
func WithEmitter(e emit.Emitter) Option {
	return func(c *engineConfig) error {
		c.opts.Emitter = e
		return nil
	}
}

// WithMetrics attaches a Prometheus metrics recorder.
func WithMetrics(m *Metrics) Option {
	return func(c *engineConfig) error {
		c.opts.Metrics = m
		return nil
	}
}

// WithRelaxedBarrier opts in to the relaxed parallel-scheduling mode
// (spec §4.6).
func WithRelaxedBarrier(relaxed bool) Option {
	return func(c *engineConfig) error {
		c.opts.RelaxedBarrier = relaxed
		return nil
	}
}
