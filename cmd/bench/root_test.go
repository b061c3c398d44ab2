package bench

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSelected(t *testing.T) {
	defer func() { benchOnly, benchSkip = nil, nil }()

	benchOnly, benchSkip = nil, nil
	if !selected("treemap", "put") {
		t.Error("everything should run without filters")
	}

	benchOnly = splitList("treemap, hashmap/get")
	for _, tc := range []struct {
		target, name string
		want         bool
	}{
		{"treemap", "put", true},
		{"hashmap", "get", true},
		{"hashmap", "put", false},
		{"arraylist", "add", false},
	} {
		if got := selected(tc.target, tc.name); got != tc.want {
			t.Errorf("selected(%q, %q) = %v, want %v", tc.target, tc.name, got, tc.want)
		}
	}

	benchSkip = splitList("treemap/iterate")
	if selected("treemap", "iterate") {
		t.Error("skip should win over only")
	}
}

func TestWriteResultsToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	results := []result{
		{"treemap/put", testing.BenchmarkResult{N: 1000, T: time.Millisecond}},
		{"treapdb/scan", testing.BenchmarkResult{}},
	}

	if err := writeResultsToCSV(path, results); err != nil {
		t.Fatalf("writeResultsToCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d rows", len(rows))
	}
	if rows[1][0] != "treemap/put" || rows[1][2] != "1000" {
		t.Errorf("unexpected row %v", rows[1])
	}
	if rows[2][2] != "0" {
		t.Errorf("skipped benchmark should report 0 ns/op, got %v", rows[2])
	}
}
