package util

import (
	"container/heap"
	"fmt"
	"sort"
	"testing"
)

// TestNewMapHeap tests the creation of a new MapHeap
func TestNewMapHeap(t *testing.T) {
	mh := NewMapHeap[string]()

	if mh == nil {
		t.Fatal("NewMapHeap() returned nil")
	}

	if mh.Len() != 0 {
		t.Errorf("New heap should be empty, but has length %d", mh.Len())
	}

	if len(mh.itemsMap) != 0 {
		t.Errorf("New heap's map should be empty, but has %d items", len(mh.itemsMap))
	}
}

// TestAddItem tests adding items and peeking the minimum
func TestAddItem(t *testing.T) {
	mh := NewMapHeap[string]()

	mh.AddItem("a", 100)
	mh.AddItem("b", 200)
	mh.AddItem("c", 50)

	if mh.Len() != 3 {
		t.Errorf("Heap should have 3 items, but has %d", mh.Len())
	}

	for _, key := range []string{"a", "b", "c"} {
		if !mh.Contains(key) {
			t.Errorf("Heap should contain key %s", key)
		}
	}

	item, exists := mh.Peek()
	if !exists {
		t.Fatal("Peek() should return an item")
	}

	if item.Key != "c" || item.Priority != 50 {
		t.Errorf("Expected min item to be (c,50), got %s", item)
	}
}

// TestUpdateItem tests that re-adding a key moves it inside the heap
func TestUpdateItem(t *testing.T) {
	mh := NewMapHeap[string]()

	mh.AddItem("a", 100)
	mh.AddItem("b", 200)
	mh.AddItem("a", 300)

	item, exists := mh.GetByKey("a")
	if !exists {
		t.Fatal("Item with key a should exist")
	}
	if item.Priority != 300 {
		t.Errorf("Item with key a should have priority 300, got %d", item.Priority)
	}
	if mh.Len() != 2 {
		t.Errorf("Update must not add a second item, heap has %d items", mh.Len())
	}

	min, _ := mh.Peek()
	if min.Key != "b" {
		t.Errorf("Min item should now be key b, got %s", min.Key)
	}

	mh.AddItem("b", 500)
	min, _ = mh.Peek()
	if min.Key != "a" {
		t.Errorf("Min item should now be key a, got %s", min.Key)
	}
}

// TestRemoveByKey tests removing items by key
func TestRemoveByKey(t *testing.T) {
	mh := NewMapHeap[string]()

	mh.AddItem("a", 100)
	mh.AddItem("b", 200)
	mh.AddItem("c", 300)

	priority, exists := mh.RemoveByKey("b")
	if !exists {
		t.Fatal("RemoveByKey should return true for existing key")
	}
	if priority != 200 {
		t.Errorf("RemoveByKey should return priority 200, got %d", priority)
	}
	if mh.Len() != 2 {
		t.Errorf("Heap should have 2 items after removal, has %d", mh.Len())
	}
	if mh.Contains("b") {
		t.Error("Heap should not contain key b after removal")
	}

	if _, exists = mh.RemoveByKey("zzz"); exists {
		t.Error("RemoveByKey should return false for non-existent key")
	}
}

// TestPopOrder tests if items are popped in priority order
func TestPopOrder(t *testing.T) {
	mh := NewMapHeap[string]()

	items := []struct {
		key      string
		priority uint64
	}{
		{"e", 50},
		{"c", 30},
		{"a", 10},
		{"d", 40},
		{"b", 20},
	}

	for _, it := range items {
		mh.AddItem(it.key, it.priority)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].priority < items[j].priority
	})

	for i, expected := range items {
		if mh.Len() == 0 {
			t.Fatalf("Heap empty after %d items, expected %d items", i, len(items))
		}

		got := heap.Pop(mh).(*Item[string])
		if got.Key != expected.key || got.Priority != expected.priority {
			t.Errorf("Pop %d: expected (%s,%d), got %s", i, expected.key, expected.priority, got)
		}
	}

	if len(mh.itemsMap) != 0 {
		t.Errorf("Map should be empty after popping all items, has %d items", len(mh.itemsMap))
	}
}

// TestPeekEmptyHeap tests behavior when peeking an empty heap
func TestPeekEmptyHeap(t *testing.T) {
	mh := NewMapHeap[string]()

	if _, exists := mh.Peek(); exists {
		t.Error("Peek on empty heap should return exists=false")
	}
}

// TestClear tests that Clear empties heap and index
func TestClear(t *testing.T) {
	mh := NewMapHeap[int]()
	for i := 0; i < 10; i++ {
		mh.AddItem(i, uint64(i))
	}

	mh.Clear()

	if mh.Len() != 0 || mh.Contains(3) {
		t.Errorf("Heap should be empty after Clear, has %d items", mh.Len())
	}
}

// TestLargeNumberOfItems drains many items and checks monotonic priorities
func TestLargeNumberOfItems(t *testing.T) {
	mh := NewMapHeap[string]()
	const n = 1000

	for i := 0; i < n; i++ {
		mh.AddItem(fmt.Sprintf("key-%d", i), uint64((i*7919)%n))
	}

	// remove every tenth key by name
	for i := 0; i < n; i += 10 {
		mh.RemoveByKey(fmt.Sprintf("key-%d", i))
	}

	if mh.Len() != n-n/10 {
		t.Fatalf("Expected %d items, got %d", n-n/10, mh.Len())
	}

	var last uint64
	for mh.Len() > 0 {
		item := heap.Pop(mh).(*Item[string])
		if item.Priority < last {
			t.Fatalf("Priorities not monotonic: %d after %d", item.Priority, last)
		}
		last = item.Priority
	}
}
