// Package feed fans committed trades out to websocket subscribers.
package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

type Hub struct {
	upgrader    websocket.Upgrader
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subscribers: make(map[*subscriber]struct{}),
		logger:      logger,
	}
}

// ServeHTTP upgrades the request and streams every broadcast event until the peer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("subscriber joined", zap.String("remote", r.RemoteAddr))

	go h.write(s)
	h.read(s)
}

// read drains control frames and returns once the connection fails.
func (h *Hub) read(s *subscriber) {
	defer h.remove(s)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) write(s *subscriber) {
	defer s.conn.Close()
	for message := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Debug("write to subscriber failed", zap.Error(err))
			return
		}
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.send)
	}
}

// Broadcast sends event as JSON to every subscriber. Subscribers whose buffer is full are
// dropped.
func (h *Hub) Broadcast(event any) error {
	message, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subscribers {
		select {
		case s.send <- message:
		default:
			h.logger.Warn("dropping slow subscriber")
			delete(h.subscribers, s)
			close(s.send)
		}
	}
	return nil
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subscribers {
		delete(h.subscribers, s)
		close(s.send)
	}
}
