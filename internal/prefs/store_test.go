package prefs

import (
	"path/filepath"
	"testing"
)

func openStore(t *testing.T, dsn string) *Store {
	t.Helper()
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetRemove(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "prefs.db"))

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("Get missing = ok=%v err=%v", ok, err)
	}

	if err := s.Set(KeyPanelWidth, "320"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(KeyPanelWidth)
	if err != nil || !ok || v != "320" {
		t.Fatalf("Get = %q ok=%v err=%v", v, ok, err)
	}

	// Overwrite keeps a single row per key.
	if err := s.Set(KeyPanelWidth, "480"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if v, _, _ := s.Get(KeyPanelWidth); v != "480" {
		t.Errorf("overwritten value = %q", v)
	}

	if err := s.Remove(KeyPanelWidth); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := s.Get(KeyPanelWidth); ok {
		t.Error("removed key should be absent")
	}

	// Removing an absent key is not an error.
	if err := s.Remove("never-set"); err != nil {
		t.Errorf("Remove absent: %v", err)
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "prefs.db")

	s := openStore(t, dsn)
	if err := s.Set(KeyLastFolder, "/vault/notes"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := openStore(t, dsn)
	v, ok, err := reopened.Get(KeyLastFolder)
	if err != nil || !ok || v != "/vault/notes" {
		t.Errorf("Get after reopen = %q ok=%v err=%v", v, ok, err)
	}
}

func TestEmptyValueIsDistinctFromAbsent(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "prefs.db"))

	if err := s.Set("flag", ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get("flag")
	if err != nil || !ok || v != "" {
		t.Errorf("Get = %q ok=%v err=%v, want present empty string", v, ok, err)
	}
}
