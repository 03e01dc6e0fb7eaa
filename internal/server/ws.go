package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// CursorHandler broadcasts the feed's cursor messages via WebSocket.
type CursorHandler struct {
	feed    *Feed
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	stopCh  chan struct{}
	once    sync.Once
}

// NewCursorHandler creates a CursorHandler and starts broadcasting.
func NewCursorHandler(feed *Feed) *CursorHandler {
	h := &CursorHandler{
		feed:    feed,
		clients: make(map[*websocket.Conn]bool),
		stopCh:  make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests. A new client first
// receives the latest message, if any.
func (h *CursorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	if msg, seq := h.feed.Cursor(); seq > 0 {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.TextMessage, msg)
	}
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *CursorHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops broadcasting and disconnects every client.
func (h *CursorHandler) Close() {
	h.once.Do(func() {
		close(h.stopCh)

		h.mu.Lock()
		for conn := range h.clients {
			conn.Close()
		}
		h.mu.Unlock()
	})
}

// broadcast sends each new cursor message to all connected clients.
func (h *CursorHandler) broadcast() {
	var last uint64
	for {
		changed := h.feed.Changed()
		msg, seq := h.feed.Cursor()

		if seq != last {
			last = seq
			h.mu.RLock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.TextMessage, msg)
			}
			h.mu.RUnlock()
		}

		if h.feed.Closed() {
			return
		}
		select {
		case <-h.stopCh:
			return
		case <-changed:
		}
	}
}
