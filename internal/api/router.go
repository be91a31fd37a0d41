package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Document lifecycle.
	r.Get("/document", h.GetDocument)
	r.Post("/document/new", h.NewDocument)
	r.Post("/document/open", h.OpenDocument)
	r.Put("/document/content", h.SetContent)
	r.Post("/document/save", h.SaveDocument)
	r.Post("/document/save-as", h.SaveDocumentAs)
	r.Post("/document/refresh", h.RefreshDocument)

	// Folder navigation.
	r.Get("/folder", h.GetFolder)
	r.Post("/folder/navigate", h.Navigate)
	r.Post("/folder/up", h.NavigateUp)
	r.Post("/folder/sync", h.SyncFolder)

	// Provider capabilities.
	r.Get("/capabilities", h.GetCapabilities)

	// Preferences.
	r.Get("/prefs/{key}", h.GetPref)
	r.Put("/prefs/{key}", h.SetPref)
	r.Delete("/prefs/{key}", h.RemovePref)

	// Recent files.
	r.Get("/recent", h.GetRecent)
	r.Post("/recent", h.AddRecent)
	r.Delete("/recent", h.ClearRecent)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
