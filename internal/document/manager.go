package document

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/noam/updown/internal/apperr"
	"github.com/noam/updown/internal/report"
	"github.com/noam/updown/internal/storage"
)

// Observer carries the notification channels the core exposes to the
// outside: the title bar listens to both, the recent-files recorder to
// DocumentChanged. Nil funcs are skipped.
type Observer struct {
	DirtyChanged    func(dirty bool)
	DocumentChanged func(id, displayName string)
}

// Manager is the document lifecycle state machine. It holds the single
// open document, orchestrates open/save/save-as/new/refresh through the
// active storage provider, and recomputes the dirty flag on every content
// change.
//
// Failed operations leave the document state exactly as before the call.
// Results that complete after the active provider was switched are
// discarded (reported as apperr.ErrCancelled, which is never surfaced).
type Manager struct {
	mu  sync.Mutex
	reg *storage.Registry
	obs Observer
	rep report.Reporter

	id          string
	displayName string
	content     string
	snapshot    string
	dirty       bool
}

// NewManager creates a lifecycle manager over the given registry. rep
// must not be nil; observer funcs may be.
func NewManager(reg *storage.Registry, obs Observer, rep report.Reporter) *Manager {
	return &Manager{reg: reg, obs: obs, rep: rep}
}

// State returns a snapshot of the open document.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		ID:          m.id,
		DisplayName: m.displayName,
		Content:     m.content,
		Dirty:       m.dirty,
		Title:       title(m.id, m.displayName, m.dirty),
	}
}

// Title returns the current window title.
func (m *Manager) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return title(m.id, m.displayName, m.dirty)
}

// surface reports err to the user unless it is a cancellation, then
// returns it.
func (m *Manager) surface(err error) error {
	if err != nil && !errors.Is(err, apperr.ErrCancelled) {
		m.rep.ReportError(err.Error())
	}
	return err
}

// notify runs the queued observer calls outside the state lock.
func notify(calls []func()) {
	for _, call := range calls {
		call()
	}
}

// New resets to an empty unsaved document.
func (m *Manager) New() {
	m.mu.Lock()
	m.id = ""
	m.displayName = ""
	m.content = ""
	m.snapshot = ""
	wasDirty := m.dirty
	m.dirty = false
	calls := m.changedLocked(wasDirty)
	m.mu.Unlock()
	notify(calls)
}

// changedLocked queues the observer notifications for an identity change
// and, if wasDirty differs from the current flag, a dirty change.
func (m *Manager) changedLocked(wasDirty bool) []func() {
	var calls []func()
	if cb := m.obs.DocumentChanged; cb != nil {
		id, name := m.id, m.displayName
		calls = append(calls, func() { cb(id, name) })
	}
	if m.dirty != wasDirty {
		if cb := m.obs.DirtyChanged; cb != nil {
			d := m.dirty
			calls = append(calls, func() { cb(d) })
		}
	}
	return calls
}

// Open loads the document behind id and replaces identity, content, and
// snapshot atomically. displayName may be empty, in which case the
// identity's basename is shown. On failure the previous document is
// untouched.
func (m *Manager) Open(ctx context.Context, id, displayName string) error {
	p, gen := m.reg.Active()
	if !p.Capabilities().Has(storage.CapRead) {
		return m.surface(fmt.Errorf("open: sign in to open files: %w", apperr.ErrCapability))
	}
	data, err := p.ReadFile(ctx, id)
	if err != nil {
		return m.surface(fmt.Errorf("open %s: %w", title(id, displayName, false), err))
	}

	m.mu.Lock()
	if m.reg.Generation() != gen {
		m.mu.Unlock()
		return fmt.Errorf("open: provider switched: %w", apperr.ErrCancelled)
	}
	m.id = id
	m.displayName = displayName
	m.content = string(data)
	m.snapshot = string(data)
	wasDirty := m.dirty
	m.dirty = false
	calls := m.changedLocked(wasDirty)
	m.mu.Unlock()
	notify(calls)
	return nil
}

// SetContent records an edit from the editing surface and recomputes the
// dirty flag by comparison against the saved snapshot. A recomputation,
// not a one-way mark: undo or a programmatic revert that restores the
// snapshot exactly flips the document back to clean.
func (m *Manager) SetContent(content string) {
	m.mu.Lock()
	m.content = content
	d := content != m.snapshot
	var calls []func()
	if d != m.dirty {
		m.dirty = d
		if cb := m.obs.DirtyChanged; cb != nil {
			calls = append(calls, func() { cb(d) })
		}
	}
	m.mu.Unlock()
	notify(calls)
}

// Save writes the current content back to the document's identity. An
// unsaved document (identity null) routes through SaveAs.
func (m *Manager) Save(ctx context.Context) error {
	m.mu.Lock()
	id := m.id
	content := m.content
	m.mu.Unlock()

	if id == "" {
		return m.SaveAs(ctx, storage.SaveTarget{})
	}

	p, gen := m.reg.Active()
	if !p.Capabilities().Has(storage.CapWrite) {
		return m.surface(fmt.Errorf("save: sign in to save your work: %w", apperr.ErrCapability))
	}
	if err := p.WriteFile(ctx, id, []byte(content)); err != nil {
		return m.surface(fmt.Errorf("save: %w", err))
	}
	return m.committed(gen, id, "", content, false)
}

// SaveAs writes the content to a new target. A zero target consults the
// backend's save dialog; a dismissed dialog is a silent no-op. Hosts
// without a dialog capability supply the target themselves.
func (m *Manager) SaveAs(ctx context.Context, target storage.SaveTarget) error {
	p, gen := m.reg.Active()
	caps := p.Capabilities()

	if target.IsZero() {
		if !caps.Has(storage.CapSaveDialog) {
			return m.surface(fmt.Errorf("save as: no save target supplied: %w", apperr.ErrCapability))
		}
		chosen, err := p.ShowSaveDialog(ctx, m.defaultSaveName())
		if err != nil {
			return m.surface(fmt.Errorf("save as: %w", err))
		}
		if chosen.IsZero() {
			return fmt.Errorf("save as: %w", apperr.ErrCancelled)
		}
		target = chosen
	}

	m.mu.Lock()
	content := m.content
	m.mu.Unlock()

	var id string
	switch {
	case target.ID != "":
		// Existing object chosen for overwrite; identity is preserved.
		if !caps.Has(storage.CapWrite) {
			return m.surface(fmt.Errorf("save as: sign in to save your work: %w", apperr.ErrCapability))
		}
		if err := p.WriteFile(ctx, target.ID, []byte(content)); err != nil {
			return m.surface(fmt.Errorf("save as: %w", err))
		}
		id = target.ID
	default:
		if !caps.Has(storage.CapCreate) {
			return m.surface(fmt.Errorf("save as: sign in to save your work: %w", apperr.ErrCapability))
		}
		newID, err := p.CreateFile(ctx, target.ParentID, target.Name, []byte(content))
		if err != nil {
			return m.surface(fmt.Errorf("save as: %w", err))
		}
		id = newID
	}
	return m.committed(gen, id, target.Name, content, true)
}

// committed applies the post-write state transition: snapshot := the
// content that was written, identity updated, dirty recomputed against
// whatever the content is now (it may have changed while the write was in
// flight). Discarded if the provider switched underneath.
func (m *Manager) committed(gen uint64, id, displayName, written string, identityChanged bool) error {
	m.mu.Lock()
	if m.reg.Generation() != gen {
		m.mu.Unlock()
		return fmt.Errorf("save: provider switched: %w", apperr.ErrCancelled)
	}
	m.id = id
	if displayName != "" {
		m.displayName = displayName
	} else if identityChanged {
		m.displayName = ""
	}
	m.snapshot = written
	wasDirty := m.dirty
	m.dirty = m.content != m.snapshot

	var calls []func()
	if identityChanged {
		calls = m.changedLocked(wasDirty)
	} else if m.dirty != wasDirty {
		if cb := m.obs.DirtyChanged; cb != nil {
			d := m.dirty
			calls = append(calls, func() { cb(d) })
		}
	}
	m.mu.Unlock()
	notify(calls)
	return nil
}

// Refresh re-opens the current identity, discarding uncommitted edits.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	id := m.id
	name := m.displayName
	m.mu.Unlock()

	if id == "" {
		return m.surface(fmt.Errorf("refresh: no file open to refresh"))
	}
	return m.Open(ctx, id, name)
}

func (m *Manager) defaultSaveName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.displayName != "" {
		return m.displayName
	}
	if m.id != "" {
		return basename(m.id)
	}
	return UntitledName + ".md"
}
