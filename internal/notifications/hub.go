// Package notifications delivers real-time reply events to connected WebSocket
// clients, fanning out across instances through Redis when it is available.
package notifications

import (
	"context"
	"errors"
	"sync"

	"xweeter/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const defaultMaxConns = 10000

var (
	errHubClosed     = errors.New("hub is shut down")
	errConnLimitFull = errors.New("server connection limit reached")
)

// Hub tracks every connected WebSocket client. Reply events go to all of them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	maxConns int
	closed   bool
	log      *observability.WSLogger
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		maxConns: defaultMaxConns,
		log:      observability.NewWSLogger("replies"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "reply hub" }

// Register adds a connection to the hub. The caller runs the client's pumps.
func (h *Hub) Register(conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, errHubClosed
	}
	if len(h.clients) >= h.maxConns {
		h.mu.Unlock()
		return nil, errConnLimitFull
	}

	client := NewClient(h, conn, uuid.NewString())
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	h.log.LogConnect(context.Background(), client.ID)
	return client, nil
}

// UnregisterClient removes a client. Unknown clients are ignored.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if ok {
		observability.WebSocketConnectionsTotal.Dec()
		h.log.LogDisconnect(context.Background(), client.ID, "unregistered")
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll queues message for every connected client without blocking.
// It returns how many clients it was offered to.
func (h *Hub) BroadcastAll(message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.TrySend(message)
	}
	return len(h.clients)
}

// StartWiring forwards every broadcast published through n to this hub's clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartBroadcastSubscriber(ctx, func(payload string) {
		h.BroadcastAll([]byte(payload))
	})
}

// Shutdown closes every connection with a going-away frame.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for client := range clients {
		observability.WebSocketConnectionsTotal.Dec()
		if client.Conn == nil {
			continue
		}
		if err := client.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
			h.log.LogError(ctx, client.ID, err, "close_frame")
		}
		_ = client.Conn.Close()
	}

	h.log.LogLifecycle(ctx, "shutdown", map[string]interface{}{"closed_clients": len(clients)})
	return nil
}
