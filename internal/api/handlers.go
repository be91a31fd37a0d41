package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noam/updown/internal/document"
	"github.com/noam/updown/internal/navigator"
	"github.com/noam/updown/internal/prefs"
	"github.com/noam/updown/internal/recent"
	"github.com/noam/updown/internal/storage"
)

// Handler holds API route handlers.
type Handler struct {
	docs   *document.Manager
	nav    *navigator.Navigator
	reg    *storage.Registry
	kv     prefs.KV
	recent *recent.List
}

// NewHandler creates a new Handler.
func NewHandler(docs *document.Manager, nav *navigator.Navigator, reg *storage.Registry, kv prefs.KV, rec *recent.List) *Handler {
	return &Handler{docs: docs, nav: nav, reg: reg, kv: kv, recent: rec}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return false
	}
	return true
}

// GetDocument handles GET /document.
func (h *Handler) GetDocument(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.docs.State())
}

// NewDocument handles POST /document/new.
func (h *Handler) NewDocument(w http.ResponseWriter, _ *http.Request) {
	h.docs.New()
	writeJSON(w, http.StatusOK, h.docs.State())
}

// OpenDocument handles POST /document/open. After a successful open the
// navigator is synchronized to the document's parent folder and the
// document is recorded in the recent list.
func (h *Handler) OpenDocument(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if err := h.docs.Open(r.Context(), req.ID, req.DisplayName); err != nil {
		writeError(w, err)
		return
	}
	_ = h.recent.Add(req.ID)
	_ = h.nav.SyncToFile(r.Context(), req.ID)
	writeJSON(w, http.StatusOK, h.docs.State())
}

// SetContent handles PUT /document/content.
func (h *Handler) SetContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.docs.SetContent(req.Content)
	writeJSON(w, http.StatusOK, h.docs.State())
}

// SaveDocument handles POST /document/save.
func (h *Handler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.Save(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	state := h.docs.State()
	_ = h.recent.Add(state.ID)
	_ = h.nav.SyncToFile(r.Context(), state.ID)
	writeJSON(w, http.StatusOK, state)
}

// SaveDocumentAs handles POST /document/save-as. The body may name the
// target; an empty body defers to the backend's save dialog capability.
func (h *Handler) SaveDocumentAs(w http.ResponseWriter, r *http.Request) {
	var req SaveAsRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if err := h.docs.SaveAs(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	state := h.docs.State()
	_ = h.recent.Add(state.ID)
	_ = h.nav.SyncToFile(r.Context(), state.ID)
	writeJSON(w, http.StatusOK, state)
}

// RefreshDocument handles POST /document/refresh.
func (h *Handler) RefreshDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.docs.State())
}

// GetFolder handles GET /folder.
func (h *Handler) GetFolder(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.nav.Current())
}

// Navigate handles POST /folder/navigate.
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.nav.NavigateTo(r.Context(), req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.nav.Current())
}

// NavigateUp handles POST /folder/up.
func (h *Handler) NavigateUp(w http.ResponseWriter, r *http.Request) {
	if err := h.nav.Up(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.nav.Current())
}

// SyncFolder handles POST /folder/sync: point the browser at the folder
// containing the open document.
func (h *Handler) SyncFolder(w http.ResponseWriter, r *http.Request) {
	state := h.docs.State()
	if state.ID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.nav.SyncToFile(r.Context(), state.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.nav.Current())
}

// GetCapabilities handles GET /capabilities.
func (h *Handler) GetCapabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CapabilitiesResponse{Capabilities: h.reg.Capabilities().Names()})
}

// GetPref handles GET /prefs/{key}.
func (h *Handler) GetPref(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, ok, err := h.kv.Get(key)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, PrefResponse{Key: key, Value: value})
}

// SetPref handles PUT /prefs/{key}.
func (h *Handler) SetPref(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req PrefRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.kv.Set(key, req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PrefResponse{Key: key, Value: req.Value})
}

// RemovePref handles DELETE /prefs/{key}.
func (h *Handler) RemovePref(w http.ResponseWriter, r *http.Request) {
	if err := h.kv.Remove(chi.URLParam(r, "key")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRecent handles GET /recent.
func (h *Handler) GetRecent(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RecentResponse{Files: h.recent.Items()})
}

// AddRecent handles POST /recent.
func (h *Handler) AddRecent(w http.ResponseWriter, r *http.Request) {
	var req RecentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if err := h.recent.Add(req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RecentResponse{Files: h.recent.Items()})
}

// ClearRecent handles DELETE /recent.
func (h *Handler) ClearRecent(w http.ResponseWriter, _ *http.Request) {
	if err := h.recent.Clear(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
