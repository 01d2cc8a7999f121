package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WatchManager streams a key's latest state to every client currently
// watching that key. It is not a replication channel — see
// SPEC_FULL.md §13 — purely a convenience for clients that want to
// avoid polling GET after every write. Grounded on the teacher's
// ChangeStreamManager, narrowed from per-collection filtered streams
// to per-key subscriber sets.
type WatchManager struct {
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[string]map[*websocket.Conn]struct{}
}

// WatchEvent is the JSON payload pushed to every subscriber of Key.
type WatchEvent struct {
	Key   string      `json:"key"`
	Op    string      `json:"op"` // "put", "delete", "gset_add", "rga_insert", "rga_delete"
	Value interface{} `json:"value,omitempty"`
}

func NewWatchManager() *WatchManager {
	return &WatchManager{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[string]map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the connection and subscribes it to key.
func (m *WatchManager) ServeHTTP(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := m.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("watch: upgrade failed: %v", err)
			return
		}

		m.mu.Lock()
		if m.subs[key] == nil {
			m.subs[key] = make(map[*websocket.Conn]struct{})
		}
		m.subs[key][conn] = struct{}{}
		m.mu.Unlock()

		go m.readLoop(key, conn)
	}
}

// readLoop drains control frames (ping/pong, close) until the client
// disconnects, then removes it from its key's subscriber set.
func (m *WatchManager) readLoop(key string, conn *websocket.Conn) {
	defer func() {
		m.mu.Lock()
		delete(m.subs[key], conn)
		if len(m.subs[key]) == 0 {
			delete(m.subs, key)
		}
		m.mu.Unlock()
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes event to every client currently watching event.Key,
// dropping (and closing) any connection whose write fails.
func (m *WatchManager) Broadcast(event WatchEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns := m.subs[event.Key]
	for conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			conn.Close()
			delete(conns, conn)
		}
	}
}

// Close disconnects every subscriber, used during server shutdown.
func (m *WatchManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, conns := range m.subs {
		for conn := range conns {
			conn.Close()
		}
		delete(m.subs, key)
	}
	return nil
}
