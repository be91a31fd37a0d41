package api

import (
	"github.com/noam/updown/internal/document"
	"github.com/noam/updown/internal/navigator"
	"github.com/noam/updown/internal/storage"
)

// OpenRequest asks the lifecycle manager to open a document. DisplayName
// is optional; the UI passes the listing entry's name so an opaque cloud
// id still gets a readable title.
type OpenRequest struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

// ContentRequest carries an edit from the editing surface.
type ContentRequest struct {
	Content string `json:"content"`
}

// SaveAsRequest names the save target when the host drives the naming
// flow itself. An empty body defers to the backend's save dialog.
type SaveAsRequest = storage.SaveTarget

// NavigateRequest asks the navigator to show a folder.
type NavigateRequest struct {
	ID string `json:"id"`
}

// DocumentState is the document snapshot response (aliased from the
// domain layer).
type DocumentState = document.State

// FolderListing is the folder panel state response (aliased from the
// domain layer).
type FolderListing = navigator.Listing

// CapabilitiesResponse lists the active provider's capabilities.
type CapabilitiesResponse struct {
	Capabilities []string `json:"capabilities"`
}

// PrefResponse is a single preference entry.
type PrefResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PrefRequest sets a preference value.
type PrefRequest struct {
	Value string `json:"value"`
}

// RecentResponse lists recently opened document identities, most recent
// first.
type RecentResponse struct {
	Files []string `json:"files"`
}

// RecentRequest records a document in the recent list.
type RecentRequest struct {
	ID string `json:"id"`
}
