package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/noam/updown/internal/apperr"
)

// Local implements Provider over the local file system. Identities are
// absolute paths confined to the workspace root; parent resolution is pure
// path manipulation and never touches the disk.
type Local struct {
	root    string // absolute workspace root
	dialogs DialogService
}

// NewLocal creates a Local provider rooted at the given directory, which
// must already exist. dialogs may be nil, in which case the dialog
// capability bits are absent.
func NewLocal(root string, dialogs DialogService) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", mapFSError(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &Local{root: abs, dialogs: dialogs}, nil
}

// Root returns the workspace root path.
func (l *Local) Root() string { return l.root }

// Capabilities implements Provider.
func (l *Local) Capabilities() Capability {
	caps := CapRead | CapWrite | CapCreate | CapCreateFolder | CapList | CapParent | CapRoot
	if l.dialogs != nil {
		caps |= CapOpenDialog | CapSaveDialog
	}
	return caps
}

// safeID resolves an identity to an absolute path and rejects any result
// that escapes the workspace root (directory traversal).
func (l *Local) safeID(id string) (string, error) {
	if id == "" {
		return l.root, nil
	}
	abs, err := filepath.Abs(filepath.Clean(id))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if abs != l.root && !strings.HasPrefix(abs, l.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes workspace root: %s", id)
	}
	return abs, nil
}

// mapFSError translates os-level failures into the shared taxonomy.
func mapFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", apperr.ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
}

// ListDirectory implements Provider.
func (l *Local) ListDirectory(_ context.Context, folderID string) ([]Entry, error) {
	abs, err := l.safeID(folderID)
	if err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", folderID, mapFSError(err))
	}
	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		entries = append(entries, Entry{
			ID:    filepath.Join(abs, d.Name()),
			Name:  d.Name(),
			IsDir: d.IsDir(),
		})
	}
	return FilterSort(entries), nil
}

// ReadFile implements Provider.
func (l *Local) ReadFile(_ context.Context, id string) ([]byte, error) {
	abs, err := l.safeID(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", id, mapFSError(err))
	}
	return data, nil
}

// WriteFile implements Provider. The write is atomic: tmp file → fsync →
// rename, so a failure leaves the prior content untouched.
func (l *Local) WriteFile(_ context.Context, id string, content []byte) error {
	abs, err := l.safeID(id)
	if err != nil {
		return err
	}
	return atomicWrite(abs, content)
}

func atomicWrite(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", mapFSError(err))
	}

	tmp, err := os.CreateTemp(dir, ".updown-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", mapFSError(err))
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", mapFSError(err))
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", mapFSError(err))
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", mapFSError(err))
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", mapFSError(err))
	}
	success = true
	return nil
}

// CreateFile implements Provider. The assigned identity is the joined
// path, so for this backend it always reflects the requested name.
func (l *Local) CreateFile(_ context.Context, parentID, name string, content []byte) (string, error) {
	parent, err := l.safeID(parentID)
	if err != nil {
		return "", err
	}
	abs, err := l.safeID(filepath.Join(parent, name))
	if err != nil {
		return "", err
	}
	if err := atomicWrite(abs, content); err != nil {
		return "", err
	}
	return abs, nil
}

// CreateFolder implements Provider.
func (l *Local) CreateFolder(_ context.Context, parentID, name string) (string, error) {
	parent, err := l.safeID(parentID)
	if err != nil {
		return "", err
	}
	abs, err := l.safeID(filepath.Join(parent, name))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("storage: create folder: %w", mapFSError(err))
	}
	return abs, nil
}

// ParentFolder implements Provider. The workspace root has no parent.
func (l *Local) ParentFolder(_ context.Context, id string) (string, error) {
	abs, err := l.safeID(id)
	if err != nil {
		return "", err
	}
	if abs == l.root {
		return "", nil
	}
	return filepath.Dir(abs), nil
}

// RootFolder implements Provider.
func (l *Local) RootFolder(context.Context) (string, error) {
	return l.root, nil
}

// ShowOpenDialog implements Provider.
func (l *Local) ShowOpenDialog(ctx context.Context) (string, error) {
	if l.dialogs == nil {
		return "", fmt.Errorf("open dialog: %w", apperr.ErrCapability)
	}
	return l.dialogs.ShowOpenDialog(ctx)
}

// ShowSaveDialog implements Provider.
func (l *Local) ShowSaveDialog(ctx context.Context, defaultName string) (SaveTarget, error) {
	if l.dialogs == nil {
		return SaveTarget{}, fmt.Errorf("save dialog: %w", apperr.ErrCapability)
	}
	return l.dialogs.ShowSaveDialog(ctx, defaultName)
}

// Verify Local satisfies Provider at compile time.
var _ Provider = (*Local)(nil)
