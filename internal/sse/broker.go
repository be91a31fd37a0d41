// Package sse implements a Server-Sent Events broker pushing core
// notifications (document identity/dirty changes, folder listings,
// external workspace changes, user-facing errors) to the host UI.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Event types published by the core.
const (
	EventDocumentChanged = "document.changed"
	EventDocumentDirty   = "document.dirty"
	EventFolderListing   = "folder.listing"
	EventFolderChanged   = "folder.changed"
	EventError           = "error"
)

type folderChangeReq struct {
	path string
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable
// state (clients + folder-change throttle timestamp). Public methods
// communicate with this loop through channels, so no mutexes are required.
type Broker struct {
	folderMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	folderCh      chan folderChangeReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. folderThrottle is the minimum
// interval between folder.changed broadcasts; watcher bursts (a save is
// several fs events) collapse into one notification.
func NewBroker(folderThrottle time.Duration) *Broker {
	if folderThrottle <= 0 {
		folderThrottle = time.Second
	}

	b := &Broker{
		folderMin:     folderThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		folderCh:      make(chan folderChangeReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastFolder time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		msg := fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)
		raw := []byte(msg)

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.folderCh:
			now := time.Now()
			if now.Sub(lastFolder) >= b.folderMin {
				lastFolder = now
				broadcast(Event{Type: EventFolderChanged, Data: map[string]string{"path": req.path}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishDocumentChanged broadcasts a document identity change.
func (b *Broker) PublishDocumentChanged(id, displayName string) {
	b.Publish(Event{Type: EventDocumentChanged, Data: map[string]string{
		"id":          id,
		"displayName": displayName,
	}})
}

// PublishDirtyChanged broadcasts a dirty flag transition.
func (b *Broker) PublishDirtyChanged(dirty bool) {
	b.Publish(Event{Type: EventDocumentDirty, Data: map[string]bool{"dirty": dirty}})
}

// PublishError broadcasts a user-facing error message.
func (b *Broker) PublishError(msg string) {
	b.Publish(Event{Type: EventError, Data: map[string]string{"message": msg}})
}

// PublishFolderChanged broadcasts a throttled external-change
// notification for the workspace.
func (b *Broker) PublishFolderChanged(path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.folderCh <- folderChangeReq{path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
