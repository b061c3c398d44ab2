package testing

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/dColl/lib/collections"
)

// ListFactory is a function that creates a new, empty list implementation
type ListFactory func() collections.List[int]

// RunListTests runs the conformance suite for a collections.List implementation.
func RunListTests(t *testing.T, name string, factory ListFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Add&Get", func(t *testing.T) {
			testAddGet(t, factory())
		})

		t.Run("Insert", func(t *testing.T) {
			testInsert(t, factory())
		})

		t.Run("Set", func(t *testing.T) {
			testSet(t, factory())
		})

		t.Run("RemoveAt", func(t *testing.T) {
			testRemoveAt(t, factory())
		})

		t.Run("Remove&Contains", func(t *testing.T) {
			testRemoveContains(t, factory())
		})

		t.Run("Bounds", func(t *testing.T) {
			testBounds(t, factory())
		})

		t.Run("Clear", func(t *testing.T) {
			testListClear(t, factory())
		})

		t.Run("Iterator", func(t *testing.T) {
			testListIterator(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// expectElements compares the full content of a list, via Get and via the iterator
func expectElements(t *testing.T, l collections.List[int], want ...int) {
	t.Helper()

	if l.Size() != len(want) {
		t.Fatalf("Expected size %d, got %d", len(want), l.Size())
	}
	if l.IsEmpty() != (len(want) == 0) {
		t.Errorf("IsEmpty() = %t with size %d", l.IsEmpty(), l.Size())
	}

	for i, w := range want {
		got, err := l.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if got != w {
			t.Errorf("Get(%d) = %d, expected %d", i, got, w)
		}
	}

	got, err := collections.Collect(l.Iterator())
	if err != nil {
		t.Fatalf("Iteration failed: %v", err)
	}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("Iterator yielded %v, expected %v", got, want)
		}
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testAddGet(t *testing.T, l collections.List[int]) {
	expectElements(t, l)

	for i := 0; i < 100; i++ {
		l.Add(i * 10)
	}

	want := make([]int, 100)
	for i := range want {
		want[i] = i * 10
	}
	expectElements(t, l, want...)
}

func testInsert(t *testing.T, l collections.List[int]) {
	if err := l.Insert(0, 2); err != nil {
		t.Fatalf("Insert into empty list failed: %v", err)
	}
	if err := l.Insert(0, 0); err != nil {
		t.Fatalf("Insert at head failed: %v", err)
	}
	if err := l.Insert(1, 1); err != nil {
		t.Fatalf("Insert in the middle failed: %v", err)
	}
	if err := l.Insert(3, 3); err != nil {
		t.Fatalf("Insert at tail failed: %v", err)
	}

	expectElements(t, l, 0, 1, 2, 3)
}

func testSet(t *testing.T, l collections.List[int]) {
	l.Add(1)
	l.Add(2)

	if err := l.Set(1, 20); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	expectElements(t, l, 1, 20)
}

func testRemoveAt(t *testing.T, l collections.List[int]) {
	for i := 0; i < 5; i++ {
		l.Add(i)
	}

	for _, idx := range []int{4, 0, 1} {
		if err := l.RemoveAt(idx); err != nil {
			t.Fatalf("RemoveAt(%d) failed: %v", idx, err)
		}
	}

	expectElements(t, l, 1, 3)
}

func testRemoveContains(t *testing.T, l collections.List[int]) {
	for _, v := range []int{1, 2, 3, 2} {
		l.Add(v)
	}

	if !l.Contains(2) {
		t.Error("Expected list to contain 2")
	}
	if !l.Remove(2) {
		t.Error("Expected Remove(2) to report true")
	}
	expectElements(t, l, 1, 3, 2)

	if l.Remove(42) {
		t.Error("Expected Remove(42) to report false")
	}
	if l.Contains(42) {
		t.Error("Expected list not to contain 42")
	}
}

func testBounds(t *testing.T, l collections.List[int]) {
	isOOB := func(op string, err error) {
		t.Helper()
		if !errors.Is(err, collections.ErrIndexOutOfBounds) {
			t.Errorf("%s: expected ErrIndexOutOfBounds, got %v", op, err)
		}
	}

	_, err := l.Get(0)
	isOOB("Get on empty list", err)
	isOOB("RemoveAt on empty list", l.RemoveAt(0))
	isOOB("Insert beyond size", l.Insert(1, 1))

	l.Add(1)
	_, err = l.Get(-1)
	isOOB("Get(-1)", err)
	_, err = l.Get(1)
	isOOB("Get(size)", err)
	isOOB("Set(size)", l.Set(1, 1))
	isOOB("RemoveAt(size)", l.RemoveAt(1))

	expectElements(t, l, 1)
}

func testListClear(t *testing.T, l collections.List[int]) {
	for i := 0; i < 50; i++ {
		l.Add(i)
	}

	l.Clear()
	expectElements(t, l)

	l.Add(7)
	expectElements(t, l, 7)
}

func testListIterator(t *testing.T, l collections.List[int]) {
	it := l.Iterator()
	if it.HasNext() {
		t.Error("Expected empty iterator on empty list")
	}
	if _, err := it.Next(); !errors.Is(err, collections.ErrIteratorExhausted) {
		t.Errorf("Expected ErrIteratorExhausted, got %v", err)
	}

	l.Add(1)
	l.Add(2)

	it = l.Iterator()
	for _, want := range []int{1, 2} {
		got, err := it.Next()
		if err != nil || got != want {
			t.Fatalf("Next() = %d, %v, expected %d", got, err, want)
		}
	}
	if _, err := it.Next(); !errors.Is(err, collections.ErrIteratorExhausted) {
		t.Errorf("Expected ErrIteratorExhausted, got %v", err)
	}
}
