package treemap

import (
	"math/rand/v2"
	"sync"

	"github.com/ValentinKolb/dColl/lib/util"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultCompactionMinDead = 64  // tombstones tolerated regardless of map size
	defaultCompactionRatio   = 1.0 // rebuild once tombstones outnumber live entries
	defaultInitialCapacity   = 16  // arena slots allocated up front
)

// --------------------------------------------------------------------------
// Priority source
// --------------------------------------------------------------------------

// PrioritySource supplies node priorities. *rand.Rand from math/rand/v2 satisfies it.
type PrioritySource interface {
	Uint64() uint64
}

// lockedSource serializes access to a shared generator
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Uint64()
}

// processSource is seeded once per process and shared by all maps that do not
// bring their own source, so maps created in quick succession draw from one stream.
var processSource PrioritySource = &lockedSource{
	rng: rand.New(rand.NewPCG(util.GenerateSeed(), util.GenerateSeed())),
}

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures a TreeMap during initialization
type Options struct {
	// CompactionMinDead is the number of tombstones that is always tolerated.
	CompactionMinDead int
	// CompactionRatio triggers a rebuild once tombstones exceed this share of the
	// live entries (0 = rebuild as soon as CompactionMinDead is exceeded).
	CompactionRatio float64
	// InitialCapacity is the number of node slots allocated up front.
	InitialCapacity int
	// PrioritySource overrides the process-wide priority generator (e.g. for
	// deterministic tests). It is used by one map only and need not be thread-safe.
	// Clones of the map use the process-wide generator.
	PrioritySource PrioritySource
	// OnCompact is called after every rebuild.
	OnCompact func(CompactionStats)
}

// DefaultOptions returns the default TreeMap options
func DefaultOptions() *Options {
	return &Options{
		CompactionMinDead: defaultCompactionMinDead,
		CompactionRatio:   defaultCompactionRatio,
		InitialCapacity:   defaultInitialCapacity,
	}
}

// withDefaults returns a copy of opts with zero values replaced where a zero is not meaningful
func (opts *Options) withDefaults() Options {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.CompactionMinDead < 0 {
		o.CompactionMinDead = 0
	}
	if o.CompactionRatio < 0 {
		o.CompactionRatio = 0
	}
	if o.InitialCapacity <= 0 {
		o.InitialCapacity = defaultInitialCapacity
	}
	if o.PrioritySource == nil {
		o.PrioritySource = processSource
	}
	return o
}
