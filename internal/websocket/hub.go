package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/topicstream/domain"
	"github.com/satriahrh/topicstream/domain/entities"
	"github.com/satriahrh/topicstream/domain/repositories"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Subscribers only send control frames and snapshot requests
	maxMessageSize = 4 * 1024

	sendBufferSize      = 16
	broadcastBufferSize = 64
)

var upgrader = websocket.Upgrader{
	// The server binds to localhost and serves browser dashboards from any origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of subscribed clients and pushes every published
// result to them.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Encoded messages for every client.
	broadcast chan []byte

	// Snapshot requests from clients.
	snapshots chan *Client

	// Closed when Run returns.
	done chan struct{}

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	results repositories.ResultRepository
	logger  *zap.Logger
}

var _ repositories.ResultNotifier = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(results repositories.ResultRepository, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBufferSize),
		snapshots:  make(chan *Client),
		done:       make(chan struct{}),
		results:    results,
		logger:     logger,
	}
}

// Run starts the hub's main loop and disconnects every client when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("clientID", client.id))

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))

		case message := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for _, client := range h.clients {
				select {
				case client.send <- WriteData{Type: websocket.TextMessage, Payload: message}:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				h.logger.Warn("Dropping slow client", zap.String("clientID", client.id))
				h.remove(client)
			}

		case client := <-h.snapshots:
			h.mu.RLock()
			_, registered := h.clients[client.id]
			h.mu.RUnlock()
			if registered {
				client.sendSnapshot(ctx)
			}

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.id]; ok {
		delete(h.clients, client.id)
		close(client.send)
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify queues result for every subscriber. It never blocks the pipeline.
func (h *Hub) Notify(result entities.Result) {
	payload, err := json.Marshal(domain.NewResultMessage(domain.MessageTypeResult, result))
	if err != nil {
		h.logger.Error("Failed to encode result message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("Broadcast queue full, dropping result", zap.String("resultID", result.ID))
	}
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	id     string
	logger *zap.Logger
}

// HandleWebSocket upgrades the request and subscribes the peer to results.
// The latest result is sent first as a snapshot.
func HandleWebSocket(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan WriteData, sendBufferSize),
		id:     uuid.NewString(),
		logger: logger,
	}

	// Queued before registering so the snapshot always precedes broadcasts
	client.sendSnapshot(c.Request().Context())

	select {
	case client.hub.register <- client:
	case <-client.hub.done:
		conn.Close()
		return nil
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

func (c *Client) sendSnapshot(ctx context.Context) {
	latest, err := c.hub.results.Latest(ctx)
	if err != nil {
		c.logger.Error("Failed to load latest result", zap.Error(err))
		return
	}

	payload, err := json.Marshal(domain.NewResultMessage(domain.MessageTypeSnapshot, latest))
	if err != nil {
		c.logger.Error("Failed to encode snapshot", zap.Error(err))
		return
	}

	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Send buffer full, skipping snapshot", zap.String("clientID", c.id))
	}
}

// readPump keeps the connection alive and answers snapshot requests
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		if messageType != websocket.TextMessage {
			c.logger.Warn("Received unsupported message type", zap.Int("type", messageType))
			continue
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			c.logger.Warn("Failed to parse message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case domain.MessageTypeSnapshot:
			select {
			case c.hub.snapshots <- c:
			case <-c.hub.done:
				return
			}
		default:
			c.logger.Warn("Unknown message type", zap.String("type", msg.Type))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
