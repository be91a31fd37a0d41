// Package document owns the in-memory document identity and the
// clean/dirty lifecycle: open, save, save-as, new, refresh.
package document

import "strings"

// UntitledName is the display name of a document that has never been
// saved.
const UntitledName = "Untitled"

// State is an immutable snapshot of the open document, as exposed to the
// host UI.
type State struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Content     string `json:"content"`
	Dirty       bool   `json:"dirty"`
	Title       string `json:"title"`
}

// basename returns the final path segment of an identity, accepting both
// slash styles since local identities are native paths.
func basename(id string) string {
	if i := strings.LastIndexAny(id, `/\`); i >= 0 {
		return id[i+1:]
	}
	return id
}

// title derives the window title: display name, else the identity's
// basename, else "Untitled", with a dirty marker appended. The display
// name override exists because a cloud identity is not human-legible.
func title(id, displayName string, dirty bool) string {
	name := displayName
	if name == "" && id != "" {
		name = basename(id)
	}
	if name == "" {
		name = UntitledName
	}
	if dirty {
		name += " *"
	}
	return name
}
