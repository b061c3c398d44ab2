package treap

import (
	"testing"

	"github.com/ValentinKolb/dColl/lib/db"
	dbtesting "github.com/ValentinKolb/dColl/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunOrderedKVDBTests(t, "TreapDB", func() db.OrderedKVDB {
		return NewTreapDB(nil)
	})

	dbtesting.RunOrderedKVDBTests(t, "TreapDB(zstd)", func() db.OrderedKVDB {
		return NewTreapDB(&DBOptions{Compression: CompressionZstd})
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunOrderedKVDBBenchmarks(b, "TreapDB", func() db.OrderedKVDB {
		return NewTreapDB(nil)
	})
}
