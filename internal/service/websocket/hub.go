package websocket

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"facecounter/internal/logger"
)

type client struct {
	id   string
	conn *websocket.Conn
}

// HubService fans messages out to connected viewers.
type HubService struct {
	clients    map[string]*websocket.Conn
	broadcast  chan []byte
	register   chan client
	unregister chan string
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[string]*websocket.Conn),
		broadcast:  make(chan []byte, 16),
		register:   make(chan client),
		unregister: make(chan string),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client connection.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for id, conn := range h.clients {
				conn.Close()
				delete(h.clients, id)
			}
			h.mutex.Unlock()
			return

		case c := <-h.register:
			h.mutex.Lock()
			h.clients[c.id] = c.conn
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client %s connected. Total: %d", c.id, total)

		case id := <-h.unregister:
			h.mutex.Lock()
			if conn, ok := h.clients[id]; ok {
				delete(h.clients, id)
				conn.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client %s disconnected. Total: %d", id, total)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for id, conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message to %s: %v", id, err)
					delete(h.clients, id)
					conn.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register adds a viewer connection and returns its id. It returns an
// empty id when the hub has stopped.
func (h *HubService) Register(conn *websocket.Conn) string {
	c := client{id: uuid.NewString(), conn: conn}
	select {
	case h.register <- c:
		return c.id
	case <-h.done:
		conn.Close()
		return ""
	}
}

// Unregister removes and closes a viewer connection.
func (h *HubService) Unregister(id string) {
	select {
	case h.unregister <- id:
	case <-h.done:
	}
}

// Broadcast queues a message for every viewer. Messages are dropped when
// the queue is full.
func (h *HubService) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Debug("Broadcast queue full, message dropped")
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
