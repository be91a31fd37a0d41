// Package navigator maintains the folder browser state: current folder,
// filtered/sorted listing, parent gating, and synchronization with the
// document the lifecycle manager has open.
package navigator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/noam/updown/internal/prefs"
	"github.com/noam/updown/internal/storage"
)

// Listing is the rendered state of the folder panel. HasParent gates the
// ".." pseudo-entry: it is true only when the backend has the parent
// capability and the current folder is not the root.
type Listing struct {
	FolderID  string          `json:"folderId"`
	Entries   []storage.Entry `json:"entries"`
	HasParent bool            `json:"hasParent"`
	ParentID  string          `json:"parentId,omitempty"`
}

// Navigator drives folder navigation over the active storage provider.
//
// Overlapping navigations are possible (the user clicks two folders
// quickly); a monotonically increasing sequence number is snapshotted at
// the start of each navigation and checked again at completion, so only
// the most recently initiated navigation may publish its result. A failed
// directory listing degrades to an empty listing plus a logged warning —
// browsing must stay usable even when one subtree is unreadable.
type Navigator struct {
	reg    *storage.Registry
	kv     prefs.KV
	logger *slog.Logger

	seq atomic.Uint64

	mu        sync.Mutex
	current   Listing
	onListing func(Listing)
}

// New creates a navigator. kv may be nil to disable preference
// persistence (tests); logger may be nil for slog.Default.
func New(reg *storage.Registry, kv prefs.KV, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{reg: reg, kv: kv, logger: logger}
}

// OnListing registers the callback invoked each time a navigation
// publishes a new listing.
func (n *Navigator) OnListing(cb func(Listing)) {
	n.mu.Lock()
	n.onListing = cb
	n.mu.Unlock()
}

// Current returns the last published listing.
func (n *Navigator) Current() Listing {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Start resolves the startup folder and navigates there. Resolution
// order: the provider's root capability when no preference was persisted,
// else the persisted last-visited folder, else the empty root sentinel.
func (n *Navigator) Start(ctx context.Context) error {
	folderID := ""
	persisted := false
	if n.kv != nil {
		if v, ok, err := n.kv.Get(prefs.KeyLastFolder); err != nil {
			n.logger.Warn("navigator: read last folder pref", slog.String("error", err.Error()))
		} else if ok {
			folderID, persisted = v, true
		}
	}
	if !persisted {
		p, _ := n.reg.Active()
		if p.Capabilities().Has(storage.CapRoot) {
			root, err := p.RootFolder(ctx)
			if err != nil {
				n.logger.Warn("navigator: resolve root folder", slog.String("error", err.Error()))
			} else {
				folderID = root
			}
		}
	}
	return n.NavigateTo(ctx, folderID)
}

// NavigateTo makes folderID the current folder, persists it, and fetches
// its listing and parent concurrently. Stale results (superseded by a
// newer navigation, or computed against a provider that has since been
// switched out) are discarded without effect.
func (n *Navigator) NavigateTo(ctx context.Context, folderID string) error {
	seq := n.seq.Add(1)
	p, gen := n.reg.Active()
	caps := p.Capabilities()

	n.mu.Lock()
	n.current.FolderID = folderID
	n.mu.Unlock()

	if n.kv != nil {
		if err := n.kv.Set(prefs.KeyLastFolder, folderID); err != nil {
			n.logger.Warn("navigator: persist last folder", slog.String("error", err.Error()))
		}
	}

	var (
		entries   []storage.Entry
		parentID  string
		hasParent bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := p.ListDirectory(gctx, folderID)
		if err != nil {
			n.logger.Warn("navigator: list directory failed, showing empty listing",
				slog.String("folder", folderID),
				slog.String("error", err.Error()))
			return nil
		}
		entries = list
		return nil
	})
	if caps.Has(storage.CapParent) {
		g.Go(func() error {
			parent, err := p.ParentFolder(gctx, folderID)
			if err != nil {
				n.logger.Warn("navigator: resolve parent failed",
					slog.String("folder", folderID),
					slog.String("error", err.Error()))
				return nil
			}
			parentID = parent
			hasParent = parent != ""
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors; failures degrade above

	if n.seq.Load() != seq || n.reg.Generation() != gen {
		// Superseded by a newer navigation or a provider switch.
		return nil
	}

	if entries == nil {
		entries = []storage.Entry{}
	}
	listing := Listing{
		FolderID:  folderID,
		Entries:   entries,
		HasParent: hasParent,
		ParentID:  parentID,
	}

	n.mu.Lock()
	if n.seq.Load() != seq {
		n.mu.Unlock()
		return nil
	}
	n.current = listing
	cb := n.onListing
	n.mu.Unlock()
	if cb != nil {
		cb(listing)
	}
	return nil
}

// Up navigates to the parent of the current folder. Without a parent (no
// capability, or already at the root) it is a no-op: the ".." affordance
// is never rendered in that state.
func (n *Navigator) Up(ctx context.Context) error {
	n.mu.Lock()
	cur := n.current
	n.mu.Unlock()
	if !cur.HasParent {
		return nil
	}
	return n.NavigateTo(ctx, cur.ParentID)
}

// SyncToFile points the browser at the folder containing the given
// document, skipping the relist when the document is already inside the
// visible folder. Called by the host after every open and save-as.
func (n *Navigator) SyncToFile(ctx context.Context, documentID string) error {
	p, _ := n.reg.Active()
	if !p.Capabilities().Has(storage.CapParent) {
		return nil
	}
	parent, err := p.ParentFolder(ctx, documentID)
	if err != nil {
		n.logger.Warn("navigator: sync to file failed",
			slog.String("document", documentID),
			slog.String("error", err.Error()))
		return nil
	}
	n.mu.Lock()
	same := parent == n.current.FolderID
	n.mu.Unlock()
	if same {
		return nil
	}
	return n.NavigateTo(ctx, parent)
}
