package testing

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/ValentinKolb/dColl/lib/collections"
)

// MapFactory is a function that creates a new, empty map implementation
type MapFactory func() collections.Map[int, string]

// RunMapTests runs the conformance suite for a collections.Map implementation.
// Set ordered to require that iteration yields keys in increasing order.
func RunMapTests(t *testing.T, name string, ordered bool, factory MapFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory())
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory())
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory())
		})

		t.Run("MissingKey", func(t *testing.T) {
			testMissingKey(t, factory())
		})

		t.Run("ContainsValue", func(t *testing.T) {
			testContainsValue(t, factory())
		})

		t.Run("Clear", func(t *testing.T) {
			testMapClear(t, factory())
		})

		t.Run("Iterator", func(t *testing.T) {
			testMapIterator(t, factory(), ordered)
		})

		t.Run("Churn", func(t *testing.T) {
			testMapChurn(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, m collections.Map[int, string]) {
	if !m.IsEmpty() || m.Size() != 0 {
		t.Fatalf("Expected new map to be empty, got size %d", m.Size())
	}

	m.Put(5, "a")
	m.Put(3, "b")
	m.Put(8, "c")

	if m.Size() != 3 {
		t.Errorf("Expected size 3, got %d", m.Size())
	}

	for k, want := range map[int]string{5: "a", 3: "b", 8: "c"} {
		got, err := m.Get(k)
		if err != nil {
			t.Errorf("Get(%d) failed: %v", k, err)
		}
		if got != want {
			t.Errorf("Get(%d) = %q, expected %q", k, got, want)
		}
		if !m.ContainsKey(k) {
			t.Errorf("Expected ContainsKey(%d) to be true", k)
		}
	}
}

func testOverwrite(t *testing.T, m collections.Map[int, string]) {
	m.Put(1, "v1")
	m.Put(1, "v2")

	if m.Size() != 1 {
		t.Errorf("Overwrite must not change size, got %d", m.Size())
	}

	if got, _ := m.Get(1); got != "v2" {
		t.Errorf("Expected overwritten value v2, got %q", got)
	}
}

func testRemove(t *testing.T, m collections.Map[int, string]) {
	for i := 0; i < 10; i++ {
		m.Put(i, fmt.Sprint(i))
	}

	if err := m.Remove(4); err != nil {
		t.Fatalf("Remove(4) failed: %v", err)
	}

	if m.Size() != 9 {
		t.Errorf("Expected size 9 after remove, got %d", m.Size())
	}
	if m.ContainsKey(4) {
		t.Error("Expected key 4 to be gone after remove")
	}

	m.Put(4, "again")
	if got, _ := m.Get(4); got != "again" {
		t.Errorf("Expected re-added key to hold new value, got %q", got)
	}
}

func testMissingKey(t *testing.T, m collections.Map[int, string]) {
	if _, err := m.Get(10); !errors.Is(err, collections.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound from Get on empty map, got %v", err)
	}
	if err := m.Remove(10); !errors.Is(err, collections.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound from Remove on empty map, got %v", err)
	}

	m.Put(1, "x")
	if _, err := m.Get(10); !errors.Is(err, collections.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound from Get, got %v", err)
	}
	if err := m.Remove(10); !errors.Is(err, collections.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound from Remove, got %v", err)
	}
	if m.Size() != 1 {
		t.Errorf("Failed remove must not change size, got %d", m.Size())
	}
}

func testContainsValue(t *testing.T, m collections.Map[int, string]) {
	m.Put(1, "one")
	m.Put(2, "two")

	if !m.ContainsValue("one") || !m.ContainsValue("two") {
		t.Error("Expected both values to be found")
	}
	if m.ContainsValue("three") {
		t.Error("Expected unknown value not to be found")
	}

	_ = m.Remove(1)
	if m.ContainsValue("one") {
		t.Error("Expected removed value not to be found")
	}
}

func testMapClear(t *testing.T, m collections.Map[int, string]) {
	for i := 0; i < 100; i++ {
		m.Put(i, "v")
	}

	m.Clear()

	if !m.IsEmpty() {
		t.Errorf("Expected map to be empty after Clear, got size %d", m.Size())
	}
	if m.ContainsKey(1) {
		t.Error("Expected no keys after Clear")
	}
	if m.Iterator().HasNext() {
		t.Error("Expected empty iterator after Clear")
	}

	m.Put(1, "v")
	if m.Size() != 1 {
		t.Errorf("Expected map to be usable after Clear, got size %d", m.Size())
	}
}

func testMapIterator(t *testing.T, m collections.Map[int, string], ordered bool) {
	keys := rand.New(rand.NewPCG(1, 2)).Perm(200)
	for _, k := range keys {
		m.Put(k, fmt.Sprint(k))
	}

	seen := make(map[int]bool)
	last := -1
	it := m.Iterator()
	for it.HasNext() {
		e, err := it.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if seen[e.Key] {
			t.Fatalf("Key %d returned twice", e.Key)
		}
		if e.Value != fmt.Sprint(e.Key) {
			t.Errorf("Key %d returned with value %q", e.Key, e.Value)
		}
		if ordered && e.Key <= last {
			t.Fatalf("Keys not strictly increasing: %d after %d", e.Key, last)
		}
		seen[e.Key] = true
		last = e.Key
	}

	if len(seen) != len(keys) {
		t.Errorf("Expected %d entries, iterated %d", len(keys), len(seen))
	}

	if _, err := it.Next(); !errors.Is(err, collections.ErrIteratorExhausted) {
		t.Errorf("Expected ErrIteratorExhausted, got %v", err)
	}
}

func testMapChurn(t *testing.T, m collections.Map[int, string]) {
	for i := 0; i < 10_000; i++ {
		m.Put(i%7, "v")
		if err := m.Remove(i % 7); err != nil {
			t.Fatalf("Remove failed at step %d: %v", i, err)
		}
		if m.Size() != 0 {
			t.Fatalf("Expected empty map at step %d, got size %d", i, m.Size())
		}
	}

	for i := 1; i <= 1000; i++ {
		m.Put(i, fmt.Sprint(i))
	}
	for i := 2; i <= 1000; i += 2 {
		if err := m.Remove(i); err != nil {
			t.Fatalf("Remove(%d) failed: %v", i, err)
		}
	}

	if m.Size() != 500 {
		t.Fatalf("Expected 500 entries, got %d", m.Size())
	}

	it := m.Iterator()
	count := 0
	for it.HasNext() {
		e, _ := it.Next()
		if e.Key%2 == 0 {
			t.Errorf("Removed key %d still returned", e.Key)
		}
		count++
	}
	if count != 500 {
		t.Errorf("Expected 500 iterated entries, got %d", count)
	}
}
