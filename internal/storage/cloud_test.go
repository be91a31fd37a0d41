package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/noam/updown/internal/apperr"
)

// fakeObjectStore is an in-memory stand-in for the cloud API, speaking
// the same routes the Cloud provider calls.
type fakeObjectStore struct {
	mu    sync.Mutex
	token string

	rootID  string
	names   map[string]string
	parents map[string]string
	folders map[string]bool
	content map[string][]byte
}

func newFakeObjectStore(token string) *fakeObjectStore {
	s := &fakeObjectStore{
		token:   token,
		names:   make(map[string]string),
		parents: make(map[string]string),
		folders: make(map[string]bool),
		content: make(map[string][]byte),
	}
	s.rootID = uuid.NewString()
	s.names[s.rootID] = "My Files"
	s.folders[s.rootID] = true
	return s
}

func (s *fakeObjectStore) addFile(parent, name string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.names[id] = name
	s.parents[id] = parent
	s.content[id] = data
	return id
}

func (s *fakeObjectStore) addFolder(parent, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.names[id] = name
	s.parents[id] = parent
	s.folders[id] = true
	return id
}

func (s *fakeObjectStore) meta(id string) map[string]any {
	return map[string]any{
		"id":       id,
		"name":     s.names[id],
		"parentId": s.parents[id],
		"folder":   s.folders[id],
	}
}

func (s *fakeObjectStore) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()

		path := strings.TrimPrefix(r.URL.Path, "/api/")
		switch {
		case path == "root":
			_ = json.NewEncoder(w).Encode(s.meta(s.rootID))

		case strings.HasSuffix(path, "/children"):
			id := strings.TrimSuffix(strings.TrimPrefix(path, "items/"), "/children")
			if r.Method == http.MethodPost {
				var req struct {
					Name    string `json:"name"`
					Folder  bool   `json:"folder"`
					Content string `json:"content"`
				}
				_ = json.NewDecoder(r.Body).Decode(&req)
				newID := uuid.NewString()
				s.names[newID] = req.Name
				s.parents[newID] = id
				if req.Folder {
					s.folders[newID] = true
				} else {
					s.content[newID] = []byte(req.Content)
				}
				_ = json.NewEncoder(w).Encode(s.meta(newID))
				return
			}
			var items []map[string]any
			for child, parent := range s.parents {
				if parent == id {
					items = append(items, s.meta(child))
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"items": items})

		case strings.HasSuffix(path, "/content"):
			id := strings.TrimSuffix(strings.TrimPrefix(path, "items/"), "/content")
			data, ok := s.content[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if r.Method == http.MethodPut {
				body, _ := io.ReadAll(r.Body)
				s.content[id] = body
				w.WriteHeader(http.StatusNoContent)
				return
			}
			_, _ = w.Write(data)

		case strings.HasPrefix(path, "items/"):
			id := strings.TrimPrefix(path, "items/")
			if _, ok := s.names[id]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(s.meta(id))

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newCloudFixture(t *testing.T) (*fakeObjectStore, *Cloud) {
	t.Helper()
	store := newFakeObjectStore("good-token")
	srv := httptest.NewServer(store.handler())
	t.Cleanup(srv.Close)

	c, err := NewCloud(srv.URL, StaticToken("good-token"), srv.Client(), nil)
	if err != nil {
		t.Fatalf("NewCloud: %v", err)
	}
	return store, c
}

func TestCloudWriteReadRoundTrip(t *testing.T) {
	store, c := newCloudFixture(t)
	ctx := context.Background()
	id := store.addFile(store.rootID, "notes.md", []byte("v1"))

	if err := c.WriteFile(ctx, id, []byte("# updated\n")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := c.ReadFile(ctx, id)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "# updated\n" {
		t.Errorf("content = %q", got)
	}
}

func TestCloudWritePreservesIdentity(t *testing.T) {
	store, c := newCloudFixture(t)
	ctx := context.Background()
	id := store.addFile(store.rootID, "notes.md", []byte("v1"))

	if err := c.WriteFile(ctx, id, []byte("v2")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// The same id still resolves; overwrite never reassigns identity.
	if _, err := c.ReadFile(ctx, id); err != nil {
		t.Errorf("ReadFile after overwrite: %v", err)
	}
}

func TestCloudCreateFileAssignsServerID(t *testing.T) {
	store, c := newCloudFixture(t)
	ctx := context.Background()

	id, err := c.CreateFile(ctx, store.rootID, "draft.md", []byte("d"))
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if id == "" || id == "draft.md" {
		t.Errorf("id = %q, want an opaque server-assigned id", id)
	}
	got, err := c.ReadFile(ctx, id)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "d" {
		t.Errorf("content = %q", got)
	}
}

func TestCloudListDirectoryFiltersAndSorts(t *testing.T) {
	store, c := newCloudFixture(t)
	ctx := context.Background()
	store.addFile(store.rootID, "b.md", nil)
	store.addFile(store.rootID, "photo.jpg", nil)
	store.addFolder(store.rootID, "archive")
	store.addFolder(store.rootID, ".hidden")

	entries, err := c.ListDirectory(ctx, store.rootID)
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	want := []string{"archive", "b.md"}
	if len(entries) != len(want) {
		t.Fatalf("entries = %v", entries)
	}
	for i, name := range want {
		if entries[i].Name != name {
			t.Errorf("entry %d = %q, want %q", i, entries[i].Name, name)
		}
	}
}

func TestCloudParentIsLiveLookup(t *testing.T) {
	store, c := newCloudFixture(t)
	ctx := context.Background()
	folderA := store.addFolder(store.rootID, "a")
	folderB := store.addFolder(store.rootID, "b")
	id := store.addFile(folderA, "notes.md", nil)

	parent, err := c.ParentFolder(ctx, id)
	if err != nil {
		t.Fatalf("ParentFolder: %v", err)
	}
	if parent != folderA {
		t.Errorf("parent = %q, want %q", parent, folderA)
	}

	// Reparent out of band; the next lookup must see the move.
	store.mu.Lock()
	store.parents[id] = folderB
	store.mu.Unlock()

	parent, err = c.ParentFolder(ctx, id)
	if err != nil {
		t.Fatalf("ParentFolder after move: %v", err)
	}
	if parent != folderB {
		t.Errorf("parent = %q, want %q", parent, folderB)
	}
}

func TestCloudUnauthorizedIsAuthError(t *testing.T) {
	store := newFakeObjectStore("good-token")
	srv := httptest.NewServer(store.handler())
	defer srv.Close()

	c, err := NewCloud(srv.URL, StaticToken("expired"), srv.Client(), nil)
	if err != nil {
		t.Fatalf("NewCloud: %v", err)
	}
	_, err = c.ReadFile(context.Background(), "whatever")
	if !errors.Is(err, apperr.ErrAuth) {
		t.Errorf("err = %v, want ErrAuth", err)
	}
	if errors.Is(err, apperr.ErrIO) {
		t.Error("auth failure must be distinct from ErrIO")
	}
}

func TestCloudMissingObjectIsNotFound(t *testing.T) {
	_, c := newCloudFixture(t)
	_, err := c.ReadFile(context.Background(), uuid.NewString())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCloudRootFolder(t *testing.T) {
	store, c := newCloudFixture(t)
	root, err := c.RootFolder(context.Background())
	if err != nil {
		t.Fatalf("RootFolder: %v", err)
	}
	if root != store.rootID {
		t.Errorf("root = %q, want %q", root, store.rootID)
	}
}
