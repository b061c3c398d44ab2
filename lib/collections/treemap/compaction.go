package treemap

import "time"

// CompactionStats describes a single rebuild and is passed to Options.OnCompact
type CompactionStats struct {
	Reclaimed   int           // tombstoned slots discarded by this rebuild
	Live        int           // entries reinserted into the fresh arena
	Capacity    int           // capacity of the fresh arena
	Compactions uint64        // rebuilds performed by this map so far (including this one)
	Duration    time.Duration // time spent rebuilding
}

// compactor decides when the arena of a treap is rebuilt
type compactor struct {
	minDead     int
	ratio       float64
	compactions uint64
	onCompact   func(CompactionStats)
}

// due reports whether dead tombstones exceed both the absolute floor and the share of live entries
func (c *compactor) due(dead, live int) bool {
	return dead > c.minDead && float64(dead) > c.ratio*float64(live)
}

// finish records a rebuild and notifies the hook
func (c *compactor) finish(stats CompactionStats) CompactionStats {
	c.compactions++
	stats.Compactions = c.compactions
	if c.onCompact != nil {
		c.onCompact(stats)
	}
	return stats
}

// rebuild reinserts every live node of the current arena into a fresh arena.
//
// It walks the storage array rather than the tree: a slot that is not tombstoned
// is linked by construction. Priorities are drawn anew, so the shape of the tree
// changes while its content and in-order sequence stay the same.
func rebuild[K, V any](t *treap[K, V]) CompactionStats {
	start := time.Now()
	old := t.arena
	live := t.len()

	t.arena = newArena[K, V](live)
	t.root = nilIdx
	for i := range old.nodes {
		n := &old.nodes[i]
		if n.tombstoned {
			continue
		}
		t.root, _ = t.insert(t.root, n.key, n.value)
	}

	return CompactionStats{
		Reclaimed: old.dead,
		Live:      t.len(),
		Capacity:  t.arena.capacity(),
		Duration:  time.Since(start),
	}
}
