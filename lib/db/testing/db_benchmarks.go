package testing

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dColl/lib/db"
)

// benchKeySpace is the number of distinct keys used by the read benchmarks
const benchKeySpace = 10_000

func benchKey(i int) string {
	return fmt.Sprintf("bench-key-%06d", i%benchKeySpace)
}

// prefill writes benchKeySpace keys with 64 byte values
func prefill(database db.KVDB) {
	value := bytes.Repeat([]byte{'v'}, 64)
	for i := 0; i < benchKeySpace; i++ {
		database.Set(benchKey(i), value, 0)
	}
}

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementation
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, factory())
		})

		b.Run("SetWithExpiry", func(b *testing.B) {
			benchmarkSetWithExpiry(b, factory())
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory())
		})

		b.Run("Has(not)", func(b *testing.B) {
			benchmarkHasNot(b, factory())
		})

		b.Run("Delete", func(b *testing.B) {
			benchmarkDelete(b, factory())
		})

		b.Run("SaveLoad", func(b *testing.B) {
			benchmarkSaveLoad(b, factory)
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory())
		})
	})
}

// RunOrderedKVDBBenchmarks runs the KVDB benchmarks plus the scan benchmark
func RunOrderedKVDBBenchmarks(b *testing.B, name string, factory OrderedDBFactory) {
	RunKVDBBenchmarks(b, name, func() db.KVDB { return factory() })

	b.Run(name+"(ordered)", func(b *testing.B) {
		b.Run("Scan100", func(b *testing.B) {
			benchmarkScan(b, factory(), 100)
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkSet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet)

	var idx atomic.Uint64
	value := bytes.Repeat([]byte{'v'}, 64)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := idx.Add(1)
			database.Set(fmt.Sprintf("set-%d", i), value, i)
		}
	})
}

func benchmarkSetWithExpiry(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSetE)

	var idx atomic.Uint64
	value := bytes.Repeat([]byte{'v'}, 64)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := idx.Add(1)
			database.SetE(benchKey(int(i)), value, i, 100, 200)
		}
	})
}

func benchmarkGet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureGet)
	prefill(database)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		for pb.Next() {
			database.Get(benchKey(rnd.IntN(benchKeySpace)))
		}
	})
}

func benchmarkHasNot(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureHas)
	prefill(database)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			database.Has(fmt.Sprintf("missing-%d", i))
			i++
		}
	})
}

func benchmarkDelete(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureDelete)

	keys := make([]string, b.N)
	for i := range keys {
		keys[i] = fmt.Sprintf("delete-%d", i)
		database.Set(keys[i], []byte("v"), 0)
	}

	b.ResetTimer()
	for i, key := range keys {
		database.Delete(key, uint64(i))
	}
}

func benchmarkSaveLoad(b *testing.B, factory DBFactory) {
	database := factory()
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSave|db.FeatureLoad)
	prefill(database)

	var snapshot bytes.Buffer
	b.Run("Save", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			snapshot.Reset()
			if err := database.Save(&snapshot); err != nil {
				b.Fatalf("Save failed: %v", err)
			}
		}
		b.SetBytes(int64(snapshot.Len()))
	})

	b.Run("Load", func(b *testing.B) {
		target := factory()
		defer target.Close()
		data := snapshot.Bytes()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := target.Load(bytes.NewReader(data)); err != nil {
				b.Fatalf("Load failed: %v", err)
			}
		}
	})
}

// benchmarkMixedUsage runs 70% reads, 20% writes and 10% deletes
func benchmarkMixedUsage(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)
	prefill(database)

	var idx atomic.Uint64
	value := bytes.Repeat([]byte{'m'}, 128)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		for pb.Next() {
			key := benchKey(rnd.IntN(benchKeySpace))
			switch op := rnd.IntN(10); {
			case op < 7:
				database.Get(key)
			case op < 9:
				database.Set(key, value, idx.Add(1))
			default:
				database.Delete(key, idx.Add(1))
			}
		}
	})
}

func benchmarkScan(b *testing.B, database db.OrderedKVDB, length int) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureScan)
	prefill(database)

	rnd := rand.New(rand.NewPCG(1, 2))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := 0
		database.Scan(benchKey(rnd.IntN(benchKeySpace)), func(string, []byte) bool {
			n++
			return n < length
		})
	}
}
