package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/starkcad/internal/app"
	"github.com/ayusman/starkcad/internal/metrics"
)

// BroadcastInterval is how often the hub checks for a new state (~15 FPS).
const BroadcastInterval = 66 * time.Millisecond

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StateSource publishes the HUD state. *app.App implements it.
type StateSource interface {
	State() app.State
}

// StateHub pushes the interaction state to WebSocket clients whenever a tick
// produced a new one.
type StateHub struct {
	source   StateSource
	metrics  *metrics.Manager
	interval time.Duration

	mu       sync.RWMutex
	clients  map[*websocket.Conn]*sync.Mutex
	lastTick uint64
	lastAt   time.Time

	runMu  sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

// NewStateHub creates a stopped hub. m may be nil.
func NewStateHub(src StateSource, m *metrics.Manager) *StateHub {
	return &StateHub{
		source:   src,
		metrics:  m,
		interval: BroadcastInterval,
		clients:  make(map[*websocket.Conn]*sync.Mutex),
	}
}

// ServeHTTP upgrades the request and registers the client. The current state
// is sent immediately.
func (h *StateHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	lock := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = lock
	h.metrics.WSClients(len(h.clients))
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.metrics.WSClients(len(h.clients))
		h.mu.Unlock()
	}()

	if msg, err := json.Marshal(h.source.State()); err == nil {
		h.send(conn, lock, msg)
	}

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *StateHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Start launches the broadcast loop. Starting a running hub is a no-op.
func (h *StateHub) Start() {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	if h.stopCh != nil {
		return
	}
	h.stopCh = make(chan struct{})
	h.done = make(chan struct{})
	go h.run(h.stopCh, h.done)
}

// Stop halts the broadcast loop and disconnects every client.
func (h *StateHub) Stop() {
	h.runMu.Lock()
	if h.stopCh == nil {
		h.runMu.Unlock()
		return
	}
	close(h.stopCh)
	done := h.done
	h.stopCh = nil
	h.done = nil
	h.runMu.Unlock()
	<-done

	h.mu.Lock()
	for conn := range h.clients {
		conn.Close()
	}
	h.mu.Unlock()
}

func (h *StateHub) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.broadcast()
		}
	}
}

// broadcast sends the state if it changed since the last send.
func (h *StateHub) broadcast() {
	if h.Clients() == 0 {
		return
	}

	state := h.source.State()
	if state.Tick == h.lastTick && state.UpdatedAt.Equal(h.lastAt) {
		return
	}
	h.lastTick, h.lastAt = state.Tick, state.UpdatedAt

	msg, err := json.Marshal(state)
	if err != nil {
		log.Printf("server: encode state: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, lock := range h.clients {
		h.send(conn, lock, msg)
	}
}

func (h *StateHub) send(conn *websocket.Conn, lock *sync.Mutex, msg []byte) {
	lock.Lock()
	defer lock.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		conn.Close()
	}
}
