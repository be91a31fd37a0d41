package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/noam/updown/internal/apperr"
)

// TokenSource supplies the bearer credential attached to every cloud
// request. Token acquisition (OAuth flows, refresh) happens behind this
// interface, outside the storage layer.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed credential.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// Cloud implements Provider over an HTTP object-store API. Identities are
// opaque object ids assigned by the server; overwriting a document
// replaces its content while preserving its id. Parent resolution is a
// remote round trip on every call: objects can be reparented out of band,
// so no parent chain is ever cached.
type Cloud struct {
	base    url.URL
	client  *http.Client
	tokens  TokenSource
	dialogs DialogService
}

// NewCloud creates a Cloud provider for the API at baseURL. httpClient may
// be nil to use http.DefaultClient; dialogs may be nil.
func NewCloud(baseURL string, tokens TokenSource, httpClient *http.Client, dialogs DialogService) (*Cloud, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("storage: cloud base URL is empty")
	}
	if tokens == nil {
		return nil, fmt.Errorf("storage: cloud token source is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse cloud base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Cloud{base: *u, client: httpClient, tokens: tokens, dialogs: dialogs}, nil
}

// Capabilities implements Provider.
func (c *Cloud) Capabilities() Capability {
	caps := CapRead | CapWrite | CapCreate | CapCreateFolder | CapList | CapParent | CapRoot
	if c.dialogs != nil {
		caps |= CapOpenDialog | CapSaveDialog
	}
	return caps
}

// itemMeta mirrors the wire representation of a stored object.
type itemMeta struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
	Folder   bool   `json:"folder"`
}

func (c *Cloud) endpoint(segments ...string) string {
	u := c.base
	u.Path = path.Join(append([]string{u.Path, "api"}, segments...)...)
	return u.String()
}

// do issues an authenticated request and maps the response status into the
// shared error taxonomy. The returned body must be closed by the caller.
func (c *Cloud) do(ctx context.Context, method, rawURL, contentType string, body io.Reader) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("storage: build request: %w", err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: acquire token: %w: %v", apperr.ErrAuth, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: %s %s: %w: %v", method, rawURL, apperr.ErrIO, err)
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp.Body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("storage: %s %s: status %d: %w", method, rawURL, resp.StatusCode, apperr.ErrAuth)
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("storage: %s %s: %w", method, rawURL, apperr.ErrNotFound)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("storage: %s %s: status %d: %w", method, rawURL, resp.StatusCode, apperr.ErrIO)
	}
}

func (c *Cloud) getJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.do(ctx, http.MethodGet, rawURL, "", nil)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("storage: decode response: %w: %v", apperr.ErrIO, err)
	}
	return nil
}

// ListDirectory implements Provider. Filtering and ordering are applied
// client-side so cloud listings match local ones.
func (c *Cloud) ListDirectory(ctx context.Context, folderID string) ([]Entry, error) {
	var payload struct {
		Items []itemMeta `json:"items"`
	}
	if err := c.getJSON(ctx, c.endpoint("items", folderID, "children"), &payload); err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(payload.Items))
	for _, it := range payload.Items {
		entries = append(entries, Entry{ID: it.ID, Name: it.Name, IsDir: it.Folder})
	}
	return FilterSort(entries), nil
}

// ReadFile implements Provider.
func (c *Cloud) ReadFile(ctx context.Context, id string) ([]byte, error) {
	body, err := c.do(ctx, http.MethodGet, c.endpoint("items", id, "content"), "", nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("storage: read content: %w: %v", apperr.ErrIO, err)
	}
	return data, nil
}

// WriteFile implements Provider. The upload replaces the object's content
// in place; its id never changes on overwrite.
func (c *Cloud) WriteFile(ctx context.Context, id string, content []byte) error {
	body, err := c.do(ctx, http.MethodPut, c.endpoint("items", id, "content"), "text/markdown", bytes.NewReader(content))
	if err != nil {
		return err
	}
	return body.Close()
}

func (c *Cloud) createItem(ctx context.Context, parentID, name string, folder bool, content []byte) (string, error) {
	reqBody, err := json.Marshal(map[string]any{
		"name":    name,
		"folder":  folder,
		"content": string(content),
	})
	if err != nil {
		return "", fmt.Errorf("storage: encode create request: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, c.endpoint("items", parentID, "children"), "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	defer body.Close()
	var meta itemMeta
	if err := json.NewDecoder(body).Decode(&meta); err != nil {
		return "", fmt.Errorf("storage: decode create response: %w: %v", apperr.ErrIO, err)
	}
	return meta.ID, nil
}

// CreateFile implements Provider. The returned identity is the
// server-assigned object id, not the display name.
func (c *Cloud) CreateFile(ctx context.Context, parentID, name string, content []byte) (string, error) {
	return c.createItem(ctx, parentID, name, false, content)
}

// CreateFolder implements Provider.
func (c *Cloud) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	return c.createItem(ctx, parentID, name, true, nil)
}

// ParentFolder implements Provider. Always a live lookup; two calls close
// together may legitimately disagree if the object moved in between.
func (c *Cloud) ParentFolder(ctx context.Context, id string) (string, error) {
	var meta itemMeta
	if err := c.getJSON(ctx, c.endpoint("items", id), &meta); err != nil {
		return "", err
	}
	return meta.ParentID, nil
}

// RootFolder implements Provider.
func (c *Cloud) RootFolder(ctx context.Context) (string, error) {
	var meta itemMeta
	if err := c.getJSON(ctx, c.endpoint("root"), &meta); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// Stat returns the metadata of an object; the host uses it to resolve a
// human-readable name for an opaque id.
func (c *Cloud) Stat(ctx context.Context, id string) (Entry, error) {
	var meta itemMeta
	if err := c.getJSON(ctx, c.endpoint("items", id), &meta); err != nil {
		return Entry{}, err
	}
	return Entry{ID: meta.ID, Name: meta.Name, IsDir: meta.Folder}, nil
}

// ShowOpenDialog implements Provider.
func (c *Cloud) ShowOpenDialog(ctx context.Context) (string, error) {
	if c.dialogs == nil {
		return "", fmt.Errorf("open dialog: %w", apperr.ErrCapability)
	}
	return c.dialogs.ShowOpenDialog(ctx)
}

// ShowSaveDialog implements Provider.
func (c *Cloud) ShowSaveDialog(ctx context.Context, defaultName string) (SaveTarget, error) {
	if c.dialogs == nil {
		return SaveTarget{}, fmt.Errorf("save dialog: %w", apperr.ErrCapability)
	}
	return c.dialogs.ShowSaveDialog(ctx, defaultName)
}

// Verify Cloud satisfies Provider at compile time.
var _ Provider = (*Cloud)(nil)
