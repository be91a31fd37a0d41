// Package storage defines the document storage abstraction: a provider
// contract with an explicit capability descriptor, three backends (local
// file system, cloud object store, read-only guest), and the registry that
// holds the single active backend.
package storage

import "context"

// Capability is a bitmask describing which optional operations a backend
// implements. Callers query capability before invoking an operation rather
// than relying on a dispatch failure.
type Capability uint16

const (
	CapRead Capability = 1 << iota
	CapWrite
	CapCreate
	CapCreateFolder
	CapList
	CapParent
	CapRoot
	CapOpenDialog
	CapSaveDialog
)

// Has reports whether every bit in want is present.
func (c Capability) Has(want Capability) bool { return c&want == want }

// Names returns the human-readable names of the set bits.
func (c Capability) Names() []string {
	all := []struct {
		bit  Capability
		name string
	}{
		{CapRead, "read"},
		{CapWrite, "write"},
		{CapCreate, "create"},
		{CapCreateFolder, "createFolder"},
		{CapList, "list"},
		{CapParent, "parent"},
		{CapRoot, "root"},
		{CapOpenDialog, "openDialog"},
		{CapSaveDialog, "saveDialog"},
	}
	var out []string
	for _, e := range all {
		if c.Has(e.bit) {
			out = append(out, e.name)
		}
	}
	return out
}

// Entry is one item of a directory listing. ID is the backend-scoped
// identifier and is directly usable as a document identity or navigation
// target. Entries are immutable snapshots of a single listing call.
type Entry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	IsDir bool   `json:"isDir"`
}

// SaveTarget is the result of a save dialog. Either ID names an existing
// object chosen for overwrite, or ParentID+Name describe a new file. The
// zero value means the user cancelled.
type SaveTarget struct {
	ID       string `json:"id,omitempty"`
	ParentID string `json:"parentId,omitempty"`
	Name     string `json:"name,omitempty"`
}

// IsZero reports whether the target is empty (dialog cancelled).
func (t SaveTarget) IsZero() bool { return t == SaveTarget{} }

// DialogService is the host-supplied file dialog collaborator. Backends
// constructed without one simply lack the dialog capability bits. A
// cancelled dialog yields an empty id / zero target and a nil error.
type DialogService interface {
	ShowOpenDialog(ctx context.Context) (string, error)
	ShowSaveDialog(ctx context.Context, defaultName string) (SaveTarget, error)
}

// Provider is the storage backend contract. Every backend implements the
// full method set; operations outside its capability mask fail with
// apperr.ErrCapability, but well-behaved callers gate on Capabilities()
// and never reach that path.
//
// ParentFolder returns "" for an id that is already at the root; the
// distinct "backend cannot resolve parents at all" case is expressed by
// the absence of CapParent, never by a sentinel return value.
type Provider interface {
	Capabilities() Capability

	// ListDirectory returns the entries of folderID filtered to visible
	// directories and markdown files, directories first, each group in
	// locale-aware ascending name order.
	ListDirectory(ctx context.Context, folderID string) ([]Entry, error)

	// ReadFile returns the full content of id, all or nothing.
	ReadFile(ctx context.Context, id string) ([]byte, error)

	// WriteFile replaces the content of id. The write is atomic from the
	// caller's perspective: afterwards either the whole new content is
	// visible or the prior content is unchanged.
	WriteFile(ctx context.Context, id string, content []byte) error

	// CreateFile creates a new file under parentID and returns the
	// backend-assigned identity, which may differ from name.
	CreateFile(ctx context.Context, parentID, name string, content []byte) (string, error)

	CreateFolder(ctx context.Context, parentID, name string) (string, error)

	// ParentFolder resolves the live parent of id; "" signals root.
	ParentFolder(ctx context.Context, id string) (string, error)

	// RootFolder returns the backend's root folder id.
	RootFolder(ctx context.Context) (string, error)

	// ShowOpenDialog returns the chosen id, or "" if cancelled.
	ShowOpenDialog(ctx context.Context) (string, error)

	// ShowSaveDialog returns the chosen target, or the zero target if
	// cancelled.
	ShowSaveDialog(ctx context.Context, defaultName string) (SaveTarget, error)
}
