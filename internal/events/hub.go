package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"podbench/internal/logging"
)

// Event types broadcast by the pipeline.
const (
	TypeStageStart     = "stage_start"
	TypeStageComplete  = "stage_complete"
	TypeStageFailure   = "stage_failure"
	TypeEpisodeCreated = "episode_created"
	TypeEpisodeDeleted = "episode_deleted"
)

// Event is one notification frame sent to connected clients.
type Event struct {
	Type         string    `json:"type"`
	EpisodeID    string    `json:"episode_id"`
	JobID        int64     `json:"job_id,omitempty"`
	Stage        string    `json:"stage,omitempty"`
	Status       string    `json:"status,omitempty"`
	ErrorMessage string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Hub fans pipeline events out to connected websocket clients. Delivery is
// best effort; a slow or gone client is dropped rather than allowed to stall
// the pipeline.
type Hub struct {
	logger     *slog.Logger
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.Mutex
}

// NewHub creates a Hub. Run must be called before clients connect.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		logger:     logging.NewComponentLogger(logger, "events"),
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", logging.Int("clients", count))
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				_ = conn.Close()
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected", logging.Int("clients", count))
		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Debug("dropping websocket client", logging.Error(err))
					_ = conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}

// Register adds a client connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	if h == nil {
		return
	}
	h.register <- conn
}

// Unregister removes a client connection from the hub.
func (h *Hub) Unregister(conn *websocket.Conn) {
	if h == nil {
		return
	}
	h.unregister <- conn
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish broadcasts an event to every connected client. Publishing never
// blocks; when the hub is saturated the event is dropped.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("marshal event", logging.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Debug("event dropped, broadcast queue full",
			logging.String(logging.FieldEventType, event.Type))
	}
}
