// Package websocket pushes view-model snapshots to connected browsers.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"taskgate/internal/infrastructure"
)

// Message types
const (
	TypeState = "state"
)

// Message is the envelope of every server-to-client frame
type Message struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// StateFunc returns the state sent to a client when it connects
type StateFunc func() any

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// pending holds the newest unsent message per type. A newer message of
	// the same type replaces the older one, so the latest state always goes out.
	pendingMu sync.Mutex
	pending   map[string][]byte
	notify    chan struct{}

	mu      sync.RWMutex
	logger  *slog.Logger
	state   StateFunc
	metrics *hubMetrics

	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewHub creates a Hub. state may be nil; meter may be nil.
func NewHub(logger *slog.Logger, state StateFunc, meter metric.Meter) (*Hub, error) {
	metrics, err := newHubMetrics(meter)
	if err != nil {
		return nil, err
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		pending:    make(map[string][]byte),
		notify:     make(chan struct{}, 1),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		state:      state,
		metrics:    metrics,
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}, nil
}

// Run is the hub's main loop. It returns when ctx is done, after closing
// every client's send channel.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.stopped)
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub shutting down")
			return nil

		case <-h.quit:
			h.logger.Info("Hub stopped")
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			cctx := client.context()
			h.metrics.connected(cctx)
			h.logger.InfoContext(cctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			if h.state != nil {
				if data, err := encode(TypeState, h.state()); err == nil {
					h.deliver(client, data)
				} else {
					h.logger.ErrorContext(cctx, "Error marshaling initial state", slog.String("error", err.Error()))
				}
			}

		case client := <-h.unregister:
			h.remove(client, "closed")

		case <-h.notify:
			h.flush()
		}
	}
}

// flush delivers every pending message to all clients
func (h *Hub) flush() {
	h.pendingMu.Lock()
	messages := make([][]byte, 0, len(h.pending))
	for messageType, message := range h.pending {
		messages = append(messages, message)
		delete(h.pending, messageType)
	}
	h.pendingMu.Unlock()

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, message := range messages {
		for _, client := range clients {
			h.deliver(client, message)
		}
		h.logger.Debug("Broadcast delivered",
			slog.Int("client_count", len(clients)),
			slog.Int("message_size", len(message)))
	}
}

// deliver queues message to client, disconnecting it when its buffer is full
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
		h.metrics.sent(client.context(), 1)
	default:
		h.metrics.dropped(client.context(), "client")
		h.logger.WarnContext(client.context(), "Client send buffer full, disconnecting",
			slog.String("client_id", client.id))
		h.remove(client, "slow")
	}
}

func (h *Hub) remove(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	cctx := client.context()
	h.metrics.disconnected(cctx, time.Since(client.connectedAt), reason)
	h.logger.InfoContext(cctx, "Client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Stop ends Run without a context cancellation
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.quit) })
}

// Broadcast sends a typed message to all clients. It never blocks. A message
// still waiting to be delivered is replaced by a newer one of the same type.
func (h *Hub) Broadcast(messageType string, data any) {
	message, err := encode(messageType, data)
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", messageType))
		return
	}

	h.pendingMu.Lock()
	_, replaced := h.pending[messageType]
	h.pending[messageType] = message
	h.pendingMu.Unlock()

	if replaced {
		h.metrics.dropped(context.Background(), "superseded")
		h.logger.Debug("Pending broadcast superseded",
			slog.String("message_type", messageType))
	}

	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// BroadcastState sends a state message to all clients
func (h *Hub) BroadcastState(state any) {
	h.Broadcast(TypeState, state)
}

// Register adds a client. It returns false if the hub is no longer running.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stopped:
		return false
	}
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func encode(messageType string, data any) ([]byte, error) {
	return json.Marshal(Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
