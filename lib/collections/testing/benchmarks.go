package testing

import (
	"math/rand/v2"
	"testing"
)

// Benchmark is a named benchmark function
type Benchmark struct {
	Name string
	Fn   func(b *testing.B)
}

// benchKeys is the key space of the benchmarks (a shuffled permutation)
const benchKeys = 1 << 14

func shuffledKeys() []int {
	return rand.New(rand.NewPCG(42, 42)).Perm(benchKeys)
}

// RunMapBenchmarks runs all map benchmarks as sub-benchmarks of b
func RunMapBenchmarks(b *testing.B, factory MapFactory) {
	for _, bm := range MapBenchmarks(factory) {
		b.Run(bm.Name, bm.Fn)
	}
}

// RunListBenchmarks runs all list benchmarks as sub-benchmarks of b
func RunListBenchmarks(b *testing.B, factory ListFactory) {
	for _, bm := range ListBenchmarks(factory) {
		b.Run(bm.Name, bm.Fn)
	}
}

// --------------------------------------------------------------------------
// Map benchmarks
// --------------------------------------------------------------------------

// MapBenchmarks returns the map benchmarks in a stable order
func MapBenchmarks(factory MapFactory) []Benchmark {
	return []Benchmark{
		{"put", func(b *testing.B) {
			keys := shuffledKeys()
			m := factory()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				m.Put(keys[i%benchKeys], "v")
			}
		}},
		{"get", func(b *testing.B) {
			keys := shuffledKeys()
			m := factory()
			for _, k := range keys {
				m.Put(k, "v")
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = m.Get(keys[i%benchKeys])
			}
		}},
		{"remove", func(b *testing.B) {
			keys := shuffledKeys()
			m := factory()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				k := keys[i%benchKeys]
				m.Put(k, "v")
				_ = m.Remove(k)
			}
		}},
		{"iterate", func(b *testing.B) {
			m := factory()
			for _, k := range shuffledKeys() {
				m.Put(k, "v")
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				it := m.Iterator()
				for it.HasNext() {
					_, _ = it.Next()
				}
			}
		}},
	}
}

// --------------------------------------------------------------------------
// List benchmarks
// --------------------------------------------------------------------------

// ListBenchmarks returns the list benchmarks in a stable order
func ListBenchmarks(factory ListFactory) []Benchmark {
	return []Benchmark{
		{"add", func(b *testing.B) {
			l := factory()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if i%benchKeys == 0 {
					l.Clear()
				}
				l.Add(i)
			}
		}},
		{"get", func(b *testing.B) {
			l := factory()
			for i := 0; i < 1024; i++ {
				l.Add(i)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = l.Get(i % 1024)
			}
		}},
		{"iterate", func(b *testing.B) {
			l := factory()
			for i := 0; i < benchKeys; i++ {
				l.Add(i)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				it := l.Iterator()
				for it.HasNext() {
					_, _ = it.Next()
				}
			}
		}},
	}
}
