package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/noam/updown/internal/apperr"
)

func TestGuestListIsAlwaysEmpty(t *testing.T) {
	g := NewGuest()
	entries, err := g.ListDirectory(context.Background(), "anything")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want empty", entries)
	}
}

func TestGuestPersistenceOpsFailWithCapabilityError(t *testing.T) {
	g := NewGuest()
	ctx := context.Background()

	if _, err := g.ReadFile(ctx, "x"); !errors.Is(err, apperr.ErrCapability) {
		t.Errorf("ReadFile err = %v", err)
	}
	err := g.WriteFile(ctx, "x", []byte("y"))
	if !errors.Is(err, apperr.ErrCapability) {
		t.Errorf("WriteFile err = %v", err)
	}
	if !strings.Contains(err.Error(), "sign in to save") {
		t.Errorf("error should carry the sign-in message, got %q", err)
	}
	if _, err := g.CreateFile(ctx, "p", "n", nil); !errors.Is(err, apperr.ErrCapability) {
		t.Errorf("CreateFile err = %v", err)
	}
}

func TestGuestCapabilities(t *testing.T) {
	caps := NewGuest().Capabilities()
	if !caps.Has(CapList) {
		t.Error("guest should keep the list capability")
	}
	for _, c := range []Capability{CapRead, CapWrite, CapCreate, CapParent, CapRoot} {
		if caps.Has(c) {
			t.Errorf("guest should not have capability %v", c.Names())
		}
	}
}
