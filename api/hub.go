package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// Message is what the hub sends to browsers.
type Message struct {
	Type  string `json:"type"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

// Message types.
const (
	MessageStyle     = "style"
	MessageAttribute = "attribute"
)

// Hub is a render target that forwards applied styles to every connected
// websocket client. Late joiners get the latest style and attributes.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	style   string
	attrs   map[string]string
}

// NewHub creates a Hub without clients.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := new(Hub)
	h.log = log.Named("hub")
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	h.clients = make(map[*websocket.Conn]bool)
	h.attrs = make(map[string]string)
	return h
}

// AppendStyle broadcasts cssText.
func (h *Hub) AppendStyle(cssText string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.style = cssText
	h.broadcast(Message{Type: MessageStyle, Value: cssText})
}

// SetAttribute broadcasts an attribute change.
func (h *Hub) SetAttribute(name, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attrs[name] = value
	h.broadcast(Message{Type: MessageAttribute, Name: name, Value: value})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast must be called with mu held. Clients that fail a write are
// dropped.
func (h *Hub) broadcast(m Message) {
	for conn := range h.clients {
		if err := h.send(conn, m); err != nil {
			h.log.Debug("Dropping client", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) send(conn *websocket.Conn, m Message) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(m)
}

// ServeHTTP upgrades the request and keeps the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	for name, value := range h.attrs {
		if err = h.send(conn, Message{Type: MessageAttribute, Name: name, Value: value}); err != nil {
			break
		}
	}
	if err == nil && h.style != "" {
		err = h.send(conn, Message{Type: MessageStyle, Value: h.style})
	}
	if err != nil {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = true
	h.mu.Unlock()
	h.log.Debug("Client connected", zap.String("remote", r.RemoteAddr))

	// Nothing is expected from clients; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
	h.log.Debug("Client disconnected", zap.String("remote", r.RemoteAddr))
}
