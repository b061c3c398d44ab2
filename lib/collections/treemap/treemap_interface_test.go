package treemap

import (
	"testing"

	"github.com/ValentinKolb/dColl/lib/collections"
	ctesting "github.com/ValentinKolb/dColl/lib/collections/testing"
)

func TestConformance(t *testing.T) {
	ctesting.RunMapTests(t, "TreeMap", true, func() collections.Map[int, string] {
		return New[int, string](nil)
	})

	// rebuild after every removal
	ctesting.RunMapTests(t, "TreeMap(eager compaction)", true, func() collections.Map[int, string] {
		return New[int, string](&Options{CompactionMinDead: 0, CompactionRatio: 0})
	})
}

func Benchmark(b *testing.B) {
	ctesting.RunMapBenchmarks(b, func() collections.Map[int, string] {
		return New[int, string](nil)
	})
}
