package testing

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/ValentinKolb/dColl/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// OrderedDBFactory is a function that creates a new instance of an OrderedKVDB implementation
type OrderedDBFactory func() db.OrderedKVDB

// RunKVDBTests runs the conformance suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Expire", func(t *testing.T) {
			testExpire(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("SetEIfUnset", func(t *testing.T) {
			testSetEIfUnset(t, factory())
		})

		t.Run("KeyExpiry", func(t *testing.T) {
			testKeyExpiry(t, factory())
		})

		t.Run("StaleWrites", func(t *testing.T) {
			testStaleWrites(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ConcurrentUsage", func(t *testing.T) {
			testConcurrentUsage(t, factory())
		})
	})
}

// RunOrderedKVDBTests runs the KVDB suite plus the ordered scan tests.
func RunOrderedKVDBTests(t *testing.T, name string, factory OrderedDBFactory) {
	RunKVDBTests(t, name, func() db.KVDB { return factory() })

	t.Run(name+"(ordered)", func(t *testing.T) {
		t.Run("ScanOrder", func(t *testing.T) {
			testScanOrder(t, factory())
		})

		t.Run("ScanSkipsExpired", func(t *testing.T) {
			testScanSkipsExpired(t, factory())
		})

		t.Run("ScanSnapshot", func(t *testing.T) {
			testScanSnapshot(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skipf("feature %s not supported", feature)
	}
}

// expectValue fails the test if key does not map to want
func expectValue(t *testing.T, database db.KVDB, key string, want []byte) {
	t.Helper()
	got, ok := database.Get(key)
	if !ok {
		t.Errorf("Expected key %q to exist", key)
		return
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Expected value %q for key %q, got %q", want, key, got)
	}
}

// expectVisibility checks Get and Has for a key at the current write index
func expectVisibility(t *testing.T, database db.KVDB, key string, get, has bool) {
	t.Helper()
	if _, ok := database.Get(key); ok != get {
		t.Errorf("Get(%q) at index %d: got exists=%t, expected %t", key, database.WriteIdx(), ok, get)
	}
	if ok := database.Has(key); ok != has {
		t.Errorf("Has(%q) at index %d: got %t, expected %t", key, database.WriteIdx(), ok, has)
	}
}

// scanKeys collects all keys >= from
func scanKeys(database db.OrderedKVDB, from string) []string {
	var keys []string
	database.Scan(from, func(key string, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	database.Set("key", []byte("value-1"), 0)
	expectValue(t, database, "key", []byte("value-1"))

	database.Set("key", []byte("value-2"), 0)
	expectValue(t, database, "key", []byte("value-2"))

	if _, ok := database.Get("missing"); ok {
		t.Errorf("Expected missing key to return exists=false")
	}

	// the returned value and the value passed to Set are copies
	in := []byte("original")
	database.Set("copy", in, 1)
	in[0] = 'X'
	out, _ := database.Get("copy")
	out[1] = 'Y'
	expectValue(t, database, "copy", []byte("original"))
}

func testExpire(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureExpire|db.FeatureHas)

	database.Set("key", []byte("value"), 1)
	database.Expire("key", 10)
	expectVisibility(t, database, "key", false, true)

	// expiring a missing key must not create it
	database.Expire("missing", 11)
	expectVisibility(t, database, "missing", false, false)

	// a new write revives the key
	database.Set("key", []byte("again"), 12)
	expectValue(t, database, "key", []byte("again"))
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureDelete|db.FeatureHas)

	database.Set("key", []byte("value"), 0)
	database.Delete("key", 0)
	expectVisibility(t, database, "key", false, false)

	database.Delete("missing", 1)
	expectVisibility(t, database, "missing", false, false)

	database.Set("key", []byte("value"), 2)
	expectVisibility(t, database, "key", true, true)
}

func testSetEIfUnset(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSetEIfUnset|db.FeatureGet)

	database.SetEIfUnset("key", []byte("first"), 0, 10, 0)
	database.SetEIfUnset("key", []byte("second"), 5, 20, 0)
	expectValue(t, database, "key", []byte("first"))

	// the ttl of the first write applies
	database.SetWriteIdx(10)
	expectVisibility(t, database, "key", false, true)

	// a deleted key counts as unset
	database.Delete("key", 11)
	database.SetEIfUnset("key", []byte("third"), 12, 0, 0)
	expectValue(t, database, "key", []byte("third"))
}

func testKeyExpiry(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSetE|db.FeatureGet|db.FeatureHas)

	database.SetE("both", []byte("v"), 100, 10, 20)
	database.SetE("delete-only", []byte("v"), 100, 0, 10)
	database.SetE("forever", []byte("v"), 100, 0, 0)

	steps := []struct {
		index                uint64
		key                  string
		expectGet, expectHas bool
	}{
		{109, "both", true, true},
		{109, "delete-only", true, true},
		{110, "both", false, true},
		{110, "delete-only", false, false},
		{119, "both", false, true},
		{120, "both", false, false},
		{1000, "forever", true, true},
	}

	for _, step := range steps {
		database.SetWriteIdx(step.index)
		expectVisibility(t, database, step.key, step.expectGet, step.expectHas)
	}

	// many keys with different ttls
	for i := 0; i < 500; i++ {
		database.SetE(fmt.Sprintf("ttl-%03d", i), []byte("v"), 2000, uint64(i%50), 0)
	}
	for offset := uint64(0); offset <= 50; offset += 5 {
		database.SetWriteIdx(2000 + offset)
		for i := 0; i < 500; i++ {
			ttl := uint64(i % 50)
			_, ok := database.Get(fmt.Sprintf("ttl-%03d", i))
			if expired := ttl > 0 && ttl <= offset; ok == expired {
				t.Fatalf("ttl-%03d at offset %d: exists=%t", i, offset, ok)
			}
		}
	}
}

func testStaleWrites(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureDelete)

	database.Set("key", []byte("new"), 10)
	database.Set("key", []byte("old"), 5)
	expectValue(t, database, "key", []byte("new"))

	database.Delete("key", 7)
	expectValue(t, database, "key", []byte("new"))

	if idx := database.WriteIdx(); idx != 10 {
		t.Errorf("Expected write index 10, got %d", idx)
	}
	database.SetWriteIdx(3)
	if idx := database.WriteIdx(); idx != 10 {
		t.Errorf("Write index decreased to %d", idx)
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	database := factory()
	database2 := factory()
	defer database.Close()
	defer database2.Close()

	requireFeature(t, database, db.FeatureSave|db.FeatureLoad|db.FeatureSetE)

	numEntries := 1000
	for i := 0; i < numEntries; i++ {
		database.Set(fmt.Sprintf("save-%04d", i), []byte(fmt.Sprintf("value-%d", i)), uint64(i))
	}
	database.SetE("expiring", []byte("v"), 2000, 5, 10)
	database.Expire("save-0001", 2001)
	database.Delete("save-0002", 2002)

	var buf bytes.Buffer
	if err := database.Save(&buf); err != nil {
		t.Fatalf("Unexpected error during Save: %v", err)
	}
	if err := database2.Load(&buf); err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}

	if idx := database2.WriteIdx(); idx != database.WriteIdx() {
		t.Errorf("Expected write index %d after Load, got %d", database.WriteIdx(), idx)
	}

	for i := 3; i < numEntries; i++ {
		expectValue(t, database2, fmt.Sprintf("save-%04d", i), []byte(fmt.Sprintf("value-%d", i)))
	}
	expectVisibility(t, database2, "save-0001", false, true)
	expectVisibility(t, database2, "save-0002", false, false)

	// ttls survive the round trip
	expectVisibility(t, database2, "expiring", true, true)
	database2.SetWriteIdx(2005)
	expectVisibility(t, database2, "expiring", false, true)
	database2.SetWriteIdx(2010)
	expectVisibility(t, database2, "expiring", false, false)

	// the source is unchanged
	expectValue(t, database, "save-0000", []byte("value-0"))

	if err := database2.Load(bytes.NewReader([]byte("garbage"))); err == nil {
		t.Errorf("Expected Load to fail for invalid data")
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	database.Set("", []byte("empty key"), 0)
	expectValue(t, database, "", []byte("empty key"))

	database.Set("nil", nil, 0)
	if v, ok := database.Get("nil"); !ok || len(v) != 0 {
		t.Errorf("Expected empty value for nil, got %v (exists=%t)", v, ok)
	}

	largeKey := string(bytes.Repeat([]byte{0}, 1000))
	database.Set(largeKey, []byte("large key"), 0)
	expectValue(t, database, largeKey, []byte("large key"))

	largeValue := make([]byte, 8*1024*1024)
	for i := range largeValue {
		largeValue[i] = byte(i % 251)
	}
	database.Set("large-value", largeValue, 0)
	expectValue(t, database, "large-value", largeValue)
}

func testConcurrentUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	numWorkers := 8
	opsPerWorker := 2000

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				shared := fmt.Sprintf("hot-%d", i%16)
				own := fmt.Sprintf("worker-%d-%d", worker, i)
				switch i % 4 {
				case 0, 1:
					database.Set(own, []byte(own), uint64(i))
					database.Set(shared, []byte(shared), uint64(i))
				case 2:
					database.Get(shared)
				case 3:
					database.Delete(shared, uint64(i))
				}
			}
		}(w)
	}
	wg.Wait()

	// keys only written by one worker must all be present
	for w := 0; w < numWorkers; w++ {
		for i := 0; i < opsPerWorker; i++ {
			if i%4 > 1 {
				continue
			}
			own := fmt.Sprintf("worker-%d-%d", w, i)
			expectValue(t, database, own, []byte(own))
		}
	}
}

// --------------------------------------------------------------------------
// Ordered test functions
// --------------------------------------------------------------------------

func testScanOrder(t *testing.T, database db.OrderedKVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureScan)

	var want []string
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("key-%03d", (i*37)%200)
		database.Set(key, []byte(key), uint64(i))
		want = append(want, key)
	}
	sort.Strings(want)

	if database.Len() != 200 {
		t.Errorf("Expected Len 200, got %d", database.Len())
	}

	got := scanKeys(database, "")
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("Scan from start returned %d keys out of order", len(got))
	}

	got = scanKeys(database, "key-150")
	if len(got) != 50 || got[0] != "key-150" {
		t.Errorf("Scan from key-150 returned %d keys starting at %v", len(got), got[:min(1, len(got))])
	}

	// a start key between two keys
	got = scanKeys(database, "key-0995")
	if len(got) == 0 || got[0] != "key-100" {
		t.Errorf("Expected scan from key-0995 to start at key-100, got %v", got[:min(1, len(got))])
	}

	if got = scanKeys(database, "zzz"); len(got) != 0 {
		t.Errorf("Expected no keys after zzz, got %d", len(got))
	}

	// early stop
	n := 0
	database.Scan("", func(string, []byte) bool {
		n++
		return n < 10
	})
	if n != 10 {
		t.Errorf("Expected Scan to stop after 10 keys, visited %d", n)
	}
}

func testScanSkipsExpired(t *testing.T, database db.OrderedKVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureScan|db.FeatureSetE)

	database.Set("a", []byte("a"), 1)
	database.SetE("b", []byte("b"), 1, 5, 0)
	database.Set("c", []byte("c"), 1)
	database.Set("d", []byte("d"), 1)
	database.Delete("c", 2)

	database.SetWriteIdx(6)
	got := scanKeys(database, "")
	if fmt.Sprint(got) != "[a d]" {
		t.Errorf("Expected [a d], got %v", got)
	}
}

func testScanSnapshot(t *testing.T, database db.OrderedKVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureScan)

	for i := 0; i < 10; i++ {
		database.Set(fmt.Sprintf("k%d", i), []byte("before"), 1)
	}

	visited := 0
	database.Scan("", func(key string, value []byte) bool {
		// writes during the scan are not observed by it
		database.Set(key, []byte("after"), 2)
		database.Set("k99", []byte("new"), 2)
		if string(value) != "before" {
			t.Errorf("Scan observed a write to %s", key)
		}
		visited++
		return true
	})
	if visited != 10 {
		t.Errorf("Expected 10 keys in the snapshot, got %d", visited)
	}
	expectValue(t, database, "k0", []byte("after"))
	expectValue(t, database, "k99", []byte("new"))
}
