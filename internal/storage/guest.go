package storage

import (
	"context"
	"fmt"

	"github.com/noam/updown/internal/apperr"
)

// Guest implements Provider for the signed-out state. Documents can be
// edited in memory but nothing persists: every read/write/create fails
// with a capability error carrying a user-facing message, and listings
// are always empty.
type Guest struct{}

// NewGuest creates a Guest provider.
func NewGuest() *Guest { return &Guest{} }

// Capabilities implements Provider.
func (*Guest) Capabilities() Capability { return CapList }

func guestErr(op string) error {
	return fmt.Errorf("%s: sign in to save your work: %w", op, apperr.ErrCapability)
}

// ListDirectory implements Provider. Guest mode has nothing to browse.
func (*Guest) ListDirectory(context.Context, string) ([]Entry, error) {
	return []Entry{}, nil
}

// ReadFile implements Provider.
func (*Guest) ReadFile(context.Context, string) ([]byte, error) {
	return nil, guestErr("read")
}

// WriteFile implements Provider.
func (*Guest) WriteFile(context.Context, string, []byte) error {
	return guestErr("save")
}

// CreateFile implements Provider.
func (*Guest) CreateFile(context.Context, string, string, []byte) (string, error) {
	return "", guestErr("save")
}

// CreateFolder implements Provider.
func (*Guest) CreateFolder(context.Context, string, string) (string, error) {
	return "", guestErr("create folder")
}

// ParentFolder implements Provider.
func (*Guest) ParentFolder(context.Context, string) (string, error) {
	return "", guestErr("resolve parent")
}

// RootFolder implements Provider.
func (*Guest) RootFolder(context.Context) (string, error) {
	return "", guestErr("resolve root")
}

// ShowOpenDialog implements Provider.
func (*Guest) ShowOpenDialog(context.Context) (string, error) {
	return "", guestErr("open")
}

// ShowSaveDialog implements Provider.
func (*Guest) ShowSaveDialog(context.Context, string) (SaveTarget, error) {
	return SaveTarget{}, guestErr("save")
}

// Verify Guest satisfies Provider at compile time.
var _ Provider = (*Guest)(nil)
