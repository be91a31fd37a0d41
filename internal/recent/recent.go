// Package recent maintains the ordered list of recently opened documents,
// persisted through the preference store.
package recent

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/noam/updown/internal/prefs"
)

// MaxEntries caps the list length; the oldest entry falls off the end.
const MaxEntries = 10

// ExistsFunc reports whether the document behind an identity still
// exists. Entries that fail the check are dropped at load time. A nil
// func keeps everything (opaque cloud ids cannot be probed cheaply).
type ExistsFunc func(id string) bool

// List is the most-recent-first list of opened document identities.
type List struct {
	mu     sync.Mutex
	kv     prefs.KV
	exists ExistsFunc
	items  []string
}

// New creates an empty list persisting through kv.
func New(kv prefs.KV, exists ExistsFunc) *List {
	return &List{kv: kv, exists: exists}
}

// Load restores the persisted list, filtering out entries whose files no
// longer exist.
func (l *List) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, ok, err := l.kv.Get(prefs.KeyRecentFiles)
	if err != nil {
		return fmt.Errorf("recent: load: %w", err)
	}
	if !ok {
		l.items = nil
		return nil
	}
	var stored []string
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		// A corrupt blob is discarded rather than wedging startup.
		l.items = nil
		return nil
	}
	items := make([]string, 0, len(stored))
	for _, id := range stored {
		if l.exists != nil && !l.exists(id) {
			continue
		}
		items = append(items, id)
		if len(items) == MaxEntries {
			break
		}
	}
	l.items = items
	return nil
}

// Add pushes id to the front, removing any previous occurrence, and
// persists the result.
func (l *List) Add(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := make([]string, 0, len(l.items)+1)
	items = append(items, id)
	for _, existing := range l.items {
		if existing != id {
			items = append(items, existing)
		}
	}
	if len(items) > MaxEntries {
		items = items[:MaxEntries]
	}
	l.items = items
	return l.persist()
}

// Clear empties the list and persists the result.
func (l *List) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	return l.persist()
}

// Items returns a copy of the list, most recent first.
func (l *List) Items() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List) persist() error {
	raw, err := json.Marshal(l.items)
	if err != nil {
		return fmt.Errorf("recent: encode: %w", err)
	}
	if err := l.kv.Set(prefs.KeyRecentFiles, string(raw)); err != nil {
		return fmt.Errorf("recent: persist: %w", err)
	}
	return nil
}
