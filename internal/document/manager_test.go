package document_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/noam/updown/internal/apperr"
	"github.com/noam/updown/internal/document"
	"github.com/noam/updown/internal/report"
	"github.com/noam/updown/internal/storage"
	"github.com/noam/updown/internal/testutil"
)

type captureReporter struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureReporter) ReportError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *captureReporter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func fixture(t *testing.T) (*testutil.MemProvider, *storage.Registry, *document.Manager, *captureReporter) {
	t.Helper()
	p := testutil.NewMemProvider()
	reg := storage.NewRegistry(p)
	rep := &captureReporter{}
	m := document.NewManager(reg, document.Observer{}, rep)
	return p, reg, m, rep
}

func TestNewDocumentIsCleanAndUntitled(t *testing.T) {
	_, _, m, _ := fixture(t)
	m.New()
	state := m.State()
	if state.ID != "" || state.Content != "" || state.Dirty {
		t.Errorf("state = %+v", state)
	}
	if state.Title != "Untitled" {
		t.Errorf("title = %q", state.Title)
	}
}

func TestOpenLoadsContentClean(t *testing.T) {
	p, _, m, _ := fixture(t)
	id := p.AddFile(p.RootID(), "notes.md", []byte("# hi"))

	if err := m.Open(context.Background(), id, "notes.md"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	state := m.State()
	if state.ID != id || state.Content != "# hi" || state.Dirty {
		t.Errorf("state = %+v", state)
	}
	if state.Title != "notes.md" {
		t.Errorf("title = %q", state.Title)
	}
}

func TestDirtyRecomputedNotLatched(t *testing.T) {
	p, _, m, _ := fixture(t)
	id := p.AddFile(p.RootID(), "notes.md", []byte("base"))
	if err := m.Open(context.Background(), id, ""); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if m.State().Dirty {
		t.Fatal("freshly opened document must be clean")
	}
	m.SetContent("base edited")
	if !m.State().Dirty {
		t.Fatal("edit away from snapshot must mark dirty")
	}
	// Revert (undo) back to the exact snapshot: clean again.
	m.SetContent("base")
	if m.State().Dirty {
		t.Fatal("content equal to snapshot must be clean")
	}
}

func TestDirtyObserverFiresOnTransitionsOnly(t *testing.T) {
	p := testutil.NewMemProvider()
	reg := storage.NewRegistry(p)
	var transitions []bool
	m := document.NewManager(reg, document.Observer{
		DirtyChanged: func(d bool) { transitions = append(transitions, d) },
	}, report.Func(func(string) {}))

	id := p.AddFile(p.RootID(), "a.md", []byte("x"))
	_ = m.Open(context.Background(), id, "")

	m.SetContent("xy")  // clean -> dirty
	m.SetContent("xyz") // still dirty, no event
	m.SetContent("x")   // dirty -> clean

	want := []bool{true, false}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestSaveWritesAndCleans(t *testing.T) {
	p, _, m, _ := fixture(t)
	id := p.AddFile(p.RootID(), "notes.md", []byte("v1"))
	_ = m.Open(context.Background(), id, "")
	m.SetContent("v2")

	if err := m.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if m.State().Dirty {
		t.Error("saved document must be clean")
	}
	got, _ := p.ReadFile(context.Background(), id)
	if string(got) != "v2" {
		t.Errorf("stored content = %q", got)
	}
}

func TestSaveWithoutIdentityRoutesThroughSaveAs(t *testing.T) {
	p, _, m, _ := fixture(t)
	p.SetCaps(p.Capabilities() | storage.CapSaveDialog)
	p.SaveDialogResult = storage.SaveTarget{ParentID: p.RootID(), Name: "new.md"}

	m.New()
	m.SetContent("fresh")
	if err := m.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	state := m.State()
	if state.ID == "" {
		t.Fatal("save-as must assign an identity")
	}
	if state.Dirty {
		t.Error("document must be clean after save-as")
	}
	if state.Title != "new.md" {
		t.Errorf("title = %q", state.Title)
	}

	// A subsequent save writes to the assigned identity without
	// prompting again.
	p.SaveDialogResult = storage.SaveTarget{}
	m.SetContent("fresh 2")
	if err := m.Save(context.Background()); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, _ := p.ReadFile(context.Background(), state.ID)
	if string(got) != "fresh 2" {
		t.Errorf("stored content = %q", got)
	}
}

func TestSaveAsCancelledIsSilent(t *testing.T) {
	p, _, m, rep := fixture(t)
	p.SetCaps(p.Capabilities() | storage.CapSaveDialog)
	p.SaveDialogResult = storage.SaveTarget{} // user dismissed the dialog

	m.New()
	m.SetContent("draft")
	err := m.Save(context.Background())
	if !errors.Is(err, apperr.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if rep.count() != 0 {
		t.Errorf("cancellation must not be reported, got %v", rep.msgs)
	}
	if m.State().ID != "" {
		t.Error("cancelled save-as must not assign identity")
	}
}

func TestSaveAsWithExplicitTarget(t *testing.T) {
	p, _, m, _ := fixture(t)
	m.New()
	m.SetContent("body")

	err := m.SaveAs(context.Background(), storage.SaveTarget{ParentID: p.RootID(), Name: "given.md"})
	if err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	state := m.State()
	if state.ID == "" || state.DisplayName != "given.md" {
		t.Errorf("state = %+v", state)
	}
}

func TestFailedOpenLeavesStateUnchanged(t *testing.T) {
	p, _, m, rep := fixture(t)
	id := p.AddFile(p.RootID(), "keep.md", []byte("keep"))
	_ = m.Open(context.Background(), id, "")

	p.ReadErr = errors.New("disk exploded")
	if err := m.Open(context.Background(), "bogus", ""); err == nil {
		t.Fatal("expected error")
	}
	state := m.State()
	if state.ID != id || state.Content != "keep" {
		t.Errorf("state changed after failed open: %+v", state)
	}
	if rep.count() != 1 {
		t.Errorf("failure should be reported exactly once, got %v", rep.msgs)
	}
}

func TestFailedSaveStaysDirty(t *testing.T) {
	p, _, m, rep := fixture(t)
	id := p.AddFile(p.RootID(), "a.md", []byte("v1"))
	_ = m.Open(context.Background(), id, "")
	m.SetContent("v2")

	p.WriteErr = errors.New("no space")
	if err := m.Save(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !m.State().Dirty {
		t.Error("document must stay dirty after a failed save")
	}
	got, _ := p.ReadFile(context.Background(), id)
	if string(got) != "v1" {
		t.Errorf("stored content = %q, want untouched v1", got)
	}
	if rep.count() != 1 {
		t.Errorf("failure should be reported, got %v", rep.msgs)
	}
	p.WriteErr = nil
}

func TestRefreshDiscardsEdits(t *testing.T) {
	p, _, m, _ := fixture(t)
	id := p.AddFile(p.RootID(), "a.md", []byte("disk"))
	_ = m.Open(context.Background(), id, "")
	m.SetContent("memory edits")

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	state := m.State()
	if state.Content != "disk" || state.Dirty {
		t.Errorf("state = %+v", state)
	}
}

func TestRefreshWithoutIdentityIsReported(t *testing.T) {
	_, _, m, rep := fixture(t)
	m.New()
	if err := m.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if rep.count() != 1 {
		t.Errorf("want one reported error, got %v", rep.msgs)
	}
}

func TestTitleShowsDirtyMarker(t *testing.T) {
	p, _, m, _ := fixture(t)
	id := p.AddFile(p.RootID(), "doc.md", []byte("a"))
	_ = m.Open(context.Background(), id, "doc.md")

	if got := m.Title(); got != "doc.md" {
		t.Errorf("title = %q", got)
	}
	m.SetContent("ab")
	if got := m.Title(); got != "doc.md *" {
		t.Errorf("title = %q", got)
	}
}

func TestGuestSaveReportsSignIn(t *testing.T) {
	reg := storage.NewRegistry(storage.NewGuest())
	rep := &captureReporter{}
	m := document.NewManager(reg, document.Observer{}, rep)
	m.New()
	m.SetContent("in-memory only")

	err := m.Save(context.Background())
	if !errors.Is(err, apperr.ErrCapability) {
		t.Fatalf("err = %v, want ErrCapability", err)
	}
	if rep.count() != 1 {
		t.Fatalf("want one reported error, got %v", rep.msgs)
	}
}

func TestResultAfterProviderSwitchIsDiscarded(t *testing.T) {
	p, reg, m, rep := fixture(t)
	id := p.AddFile(p.RootID(), "a.md", []byte("cloud copy"))
	_ = m.Open(context.Background(), id, "")
	m.SetContent("edited")

	// The provider is switched while the write is in flight; the save
	// completes against the old provider but its result is discarded.
	swapped := false
	p.WriteHook = func() {
		if !swapped {
			swapped = true
			reg.Switch(storage.NewGuest())
		}
	}
	err := m.Save(context.Background())
	if !errors.Is(err, apperr.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if rep.count() != 0 {
		t.Errorf("discarded result must not be reported, got %v", rep.msgs)
	}
	// State still shows the edit; nothing was committed.
	if !m.State().Dirty {
		t.Error("document must remain dirty after a discarded save")
	}
}
