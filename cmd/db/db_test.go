package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/dColl/lib/db/engines/treap"
)

func execute(t *testing.T, args ...string) {
	t.Helper()
	DBCommands.SetArgs(args)
	if err := DBCommands.Execute(); err != nil {
		t.Fatalf("dcoll db %v failed: %v", args, err)
	}
}

func loadFile(t *testing.T, path string) *treap.TreapDB {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	database := treap.NewTreapDB(nil)
	t.Cleanup(func() { database.Close() })
	if err := database.Load(f); err != nil {
		t.Fatalf("failed to load %s: %v", path, err)
	}
	return database
}

func TestCommandsPersistWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	execute(t, "set", "b", "2", "--file", path, "--compression", "lz4")
	execute(t, "set", "a", "1", "--file", path, "--compression", "lz4")
	execute(t, "setE", "c", "3", "1", "0", "--file", path, "--compression", "lz4")
	execute(t, "del", "b", "--file", path, "--compression", "lz4")

	database := loadFile(t, path)
	if got := database.WriteIdx(); got != 4 {
		t.Errorf("expected write index 4, got %d", got)
	}
	if v, ok := database.Get("a"); !ok || string(v) != "1" {
		t.Errorf("expected a=1, got %q (found=%v)", v, ok)
	}
	if database.Has("b") {
		t.Error("b should be deleted")
	}
	// c expired at index 4 but is still present
	if _, ok := database.Get("c"); ok {
		t.Error("c should be expired")
	}
	if !database.Has("c") {
		t.Error("expired key c should still exist")
	}
}

func TestReadCommandsDoNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	execute(t, "get", "missing", "--file", path, "--compression", "none")
	execute(t, "scan", "--file", path, "--compression", "none")

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("read commands should not create %s (err=%v)", path, err)
	}
}

func TestTickAdvancesWriteIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	execute(t, "setE", "k", "v", "0", "5", "--file", path, "--compression", "none")
	execute(t, "tick", "10", "--file", path, "--compression", "none")

	database := loadFile(t, path)
	if got := database.WriteIdx(); got != 11 {
		t.Errorf("expected write index 11, got %d", got)
	}
	if database.Has("k") {
		t.Error("k should be deleted after its deletion index passed")
	}
}

func TestInvalidCompression(t *testing.T) {
	DBCommands.SetArgs([]string{"get", "k", "--file", filepath.Join(t.TempDir(), "x.db"), "--compression", "gzip"})
	if err := DBCommands.Execute(); err == nil {
		t.Error("expected an error for an unknown compression")
	}
}
