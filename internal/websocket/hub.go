package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// TypeConnection is sent to every client right after it registers
const TypeConnection = "connection"

const (
	broadcastBuffer = 256
	sendBuffer      = 256
)

type envelope struct {
	eventType string
	payload   []byte
}

// Config tunes client keepalive. Zero values use the package defaults.
type Config struct {
	PingPeriod time.Duration
	PongWait   time.Duration
}

func (c Config) withDefaults() Config {
	if c.PongWait <= 0 {
		c.PongWait = pongWait
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = (c.PongWait * 9) / 10
	}
	return c
}

// Hub maintains the set of active clients and fans pipeline events out to
// them. Slow clients whose send queue is full are disconnected.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
}

// NewHub creates a hub. metrics may be nil.
func NewHub(cfg Config, logger *slog.Logger, metrics *Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan envelope, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		cfg:        cfg.withDefaults(),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
	}
}

// Start runs the hub loop in a goroutine. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop ends the hub loop and closes every client queue
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.quit)
	h.mu.Unlock()

	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.logger.Info("Hub stopped")
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()

	for {
		select {
		case <-h.quit:
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.recordConnect(ctx)

			h.logger.Info("Client registered",
				slog.String("client_id", c.id),
				slog.String("remote_addr", c.remoteAddr),
				slog.Int("total_clients", count))

			if msg, err := h.encode(TypeConnection, "", "connected", map[string]interface{}{
				"client_id": c.id,
			}); err == nil {
				select {
				case c.send <- msg:
				default:
					h.metrics.recordDropped(ctx, "queue_full")
				}
			}

		case c := <-h.unregister:
			h.remove(ctx, c, "client closed")

		case m := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()

			delivered := 0
			for _, c := range clients {
				select {
				case c.send <- m.payload:
					delivered++
				default:
					h.metrics.recordDropped(ctx, "slow_client")
					h.remove(ctx, c, "send queue full")
				}
			}
			h.metrics.recordSent(ctx, m.eventType, delivered)
			h.logger.Debug("Broadcast",
				slog.String("type", m.eventType),
				slog.Int("delivered", delivered),
				slog.Int("clients", len(clients)))
		}
	}
}

func (h *Hub) remove(ctx context.Context, c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}

	lifetime := time.Since(c.connectedAt)
	h.metrics.recordDisconnect(ctx, lifetime)
	h.logger.Info("Client unregistered",
		slog.String("client_id", c.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", lifetime),
		slog.Int("total_clients", count))
}

// Register adds a client. It returns without registering once the hub is
// stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// BroadcastUpdate queues an event for every connected client. It never
// blocks: when the queue is full or the hub is stopped the event is dropped.
func (h *Hub) BroadcastUpdate(eventType, step, status string, data interface{}) {
	select {
	case <-h.quit:
		return
	default:
	}

	payload, err := h.encode(eventType, step, status, data)
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("type", eventType),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- envelope{eventType: eventType, payload: payload}:
	default:
		h.metrics.recordDropped(context.Background(), "broadcast_full")
		h.logger.Warn("Broadcast queue full, dropping event", slog.String("type", eventType))
	}
}

func (h *Hub) encode(eventType, step, status string, data interface{}) ([]byte, error) {
	msg := map[string]interface{}{
		"type":      eventType,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if step != "" {
		msg["step"] = step
	}
	if status != "" {
		msg["status"] = status
	}
	if data != nil {
		msg["data"] = data
	}
	return json.Marshal(msg)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
