package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/noam/updown/internal/apperr"
	"github.com/noam/updown/internal/storage"
)

// MemProvider is an in-memory storage.Provider for tests. Identities are
// opaque uuid strings, like cloud object ids. The capability mask and a
// handful of failure/ordering hooks are settable per test.
type MemProvider struct {
	mu      sync.Mutex
	caps    storage.Capability
	rootID  string
	names   map[string]string
	parents map[string]string
	dirs    map[string]bool
	files   map[string][]byte

	// Injected failures; nil means the operation succeeds.
	ReadErr  error
	WriteErr error
	ListErr  error

	// ListHook, if set, runs inside ListDirectory before it returns.
	// Tests use it to interleave navigations deterministically.
	ListHook func(folderID string)

	// WriteHook, if set, runs inside WriteFile before the write lands.
	// Tests use it to interleave provider switches with saves.
	WriteHook func()

	// Dialog results returned by the Show* methods.
	OpenDialogResult string
	SaveDialogResult storage.SaveTarget
}

// NewMemProvider creates a provider with a root folder and every
// capability except the dialog bits.
func NewMemProvider() *MemProvider {
	p := &MemProvider{
		caps: storage.CapRead | storage.CapWrite | storage.CapCreate |
			storage.CapCreateFolder | storage.CapList | storage.CapParent | storage.CapRoot,
		names:   make(map[string]string),
		parents: make(map[string]string),
		dirs:    make(map[string]bool),
		files:   make(map[string][]byte),
	}
	p.rootID = uuid.NewString()
	p.names[p.rootID] = "root"
	p.dirs[p.rootID] = true
	return p
}

// SetCaps overrides the capability mask.
func (p *MemProvider) SetCaps(caps storage.Capability) { p.caps = caps }

// RootID returns the root folder id.
func (p *MemProvider) RootID() string { return p.rootID }

// AddFolder creates a folder under parent and returns its id.
func (p *MemProvider) AddFolder(parent, name string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := uuid.NewString()
	p.names[id] = name
	p.parents[id] = parent
	p.dirs[id] = true
	return id
}

// AddFile creates a file under parent and returns its id.
func (p *MemProvider) AddFile(parent, name string, content []byte) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := uuid.NewString()
	p.names[id] = name
	p.parents[id] = parent
	p.files[id] = append([]byte(nil), content...)
	return id
}

// Capabilities implements storage.Provider.
func (p *MemProvider) Capabilities() storage.Capability { return p.caps }

// ListDirectory implements storage.Provider.
func (p *MemProvider) ListDirectory(_ context.Context, folderID string) ([]storage.Entry, error) {
	if hook := p.ListHook; hook != nil {
		hook(folderID)
	}
	if p.ListErr != nil {
		return nil, p.ListErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var entries []storage.Entry
	for id, parent := range p.parents {
		if parent != folderID {
			continue
		}
		entries = append(entries, storage.Entry{ID: id, Name: p.names[id], IsDir: p.dirs[id]})
	}
	return storage.FilterSort(entries), nil
}

// ReadFile implements storage.Provider.
func (p *MemProvider) ReadFile(_ context.Context, id string) ([]byte, error) {
	if p.ReadErr != nil {
		return nil, p.ReadErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.files[id]
	if !ok {
		return nil, fmt.Errorf("memprovider: read %s: %w", id, apperr.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// WriteFile implements storage.Provider.
func (p *MemProvider) WriteFile(_ context.Context, id string, content []byte) error {
	if hook := p.WriteHook; hook != nil {
		hook()
	}
	if p.WriteErr != nil {
		return p.WriteErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.files[id]; !ok {
		return fmt.Errorf("memprovider: write %s: %w", id, apperr.ErrNotFound)
	}
	p.files[id] = append([]byte(nil), content...)
	return nil
}

// CreateFile implements storage.Provider.
func (p *MemProvider) CreateFile(_ context.Context, parentID, name string, content []byte) (string, error) {
	if p.WriteErr != nil {
		return "", p.WriteErr
	}
	return p.AddFile(parentID, name, content), nil
}

// CreateFolder implements storage.Provider.
func (p *MemProvider) CreateFolder(_ context.Context, parentID, name string) (string, error) {
	return p.AddFolder(parentID, name), nil
}

// ParentFolder implements storage.Provider.
func (p *MemProvider) ParentFolder(_ context.Context, id string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id == p.rootID {
		return "", nil
	}
	parent, ok := p.parents[id]
	if !ok {
		return "", fmt.Errorf("memprovider: parent of %s: %w", id, apperr.ErrNotFound)
	}
	return parent, nil
}

// RootFolder implements storage.Provider.
func (p *MemProvider) RootFolder(context.Context) (string, error) {
	return p.rootID, nil
}

// ShowOpenDialog implements storage.Provider.
func (p *MemProvider) ShowOpenDialog(context.Context) (string, error) {
	return p.OpenDialogResult, nil
}

// ShowSaveDialog implements storage.Provider.
func (p *MemProvider) ShowSaveDialog(context.Context, string) (storage.SaveTarget, error) {
	return p.SaveDialogResult, nil
}

// Verify MemProvider satisfies storage.Provider at compile time.
var _ storage.Provider = (*MemProvider)(nil)
