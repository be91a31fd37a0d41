// Package testutil provides shared test helpers: temporary workspaces,
// preference databases, and an in-memory storage provider.
package testutil

import (
	"os"
	"testing"

	"github.com/noam/updown/internal/prefs"
	"github.com/noam/updown/internal/storage"
)

// TestPrefs creates a temporary preference store that is automatically
// cleaned up.
func TestPrefs(t *testing.T) *prefs.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "updown-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := prefs.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestWorkspace creates a temporary workspace directory with a local
// storage provider rooted at it.
func TestWorkspace(t *testing.T) (string, *storage.Local) {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewLocal(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	return local.Root(), local
}
