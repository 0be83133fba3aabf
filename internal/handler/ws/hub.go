package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"MarketPulse/internal/domain/models"
	xlogger "MarketPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboards connect cross-origin
	},
}

// Message is the stream wire format.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub fans freshly recorded day snapshots out to connected stream clients.
// Each connection gets its own write mutex: gorilla conns allow one concurrent
// writer only.
type Hub struct {
	logger    *xlogger.Logger
	mu        sync.RWMutex
	clients   map[*websocket.Conn]bool
	writeLock map[*websocket.Conn]*sync.Mutex
}

func NewHub(logger *xlogger.Logger) *Hub {
	return &Hub{
		logger:    logger,
		clients:   make(map[*websocket.Conn]bool),
		writeLock: make(map[*websocket.Conn]*sync.Mutex),
	}
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/stream", h.Serve)
}

// Serve upgrades the connection and holds it open until the client leaves.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.writeLock[conn] = &sync.Mutex{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("stream client connected", xlogger.Int("total", total))

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.writeLock, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug("stream client disconnected", xlogger.Int("remaining", remaining))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("stream read error", xlogger.Error(err))
			}
			return nil
		}
	}
}

// NotifySnapshot broadcasts one recorded day snapshot to every client.
func (h *Hub) NotifySnapshot(day models.DaySnapshot) {
	h.broadcast(Message{Type: "snapshot", Payload: day})
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal stream message failed", xlogger.Error(err))
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	locks := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
		locks = append(locks, h.writeLock[conn])
	}
	h.mu.RUnlock()

	for i, conn := range conns {
		locks[i].Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		locks[i].Unlock()

		if err != nil {
			h.logger.Warn("stream write failed", xlogger.Error(err))
		}
	}
}

// ClientCount reports the number of connected stream clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
