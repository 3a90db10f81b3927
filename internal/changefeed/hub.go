// Package changefeed pushes row changes to connected realtime clients over
// websockets. Each change is encoded once and fanned out to every
// subscriber; a subscriber that falls behind is disconnected and is
// expected to reconnect and refetch.
package changefeed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rpggio/syncteam/internal/remote"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInbound     = 4096
	defaultBacklog = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 32 * 1024,
	// Subscribers present a bearer token, never cookies.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type subscriber struct {
	userID string
	send   chan []byte
}

// Hub tracks realtime subscribers.
type Hub struct {
	mu      sync.Mutex
	subs    map[*subscriber]struct{}
	backlog int
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:    make(map[*subscriber]struct{}),
		backlog: defaultBacklog,
		logger:  logger,
	}
}

// Publish sends ch to every subscriber without blocking.
func (h *Hub) Publish(ch remote.Change) {
	msg, err := json.Marshal(ch)
	if err != nil {
		h.logger.Error("encoding change", "table", ch.Table, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.send <- msg:
		default:
			h.logger.Warn("dropping slow realtime subscriber", "user_id", sub.userID)
			delete(h.subs, sub)
			close(sub.send)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.send)
	}
}

func (h *Hub) add(userID string) *subscriber {
	sub := &subscriber{userID: userID, send: make(chan []byte, h.backlog)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.send)
	}
}

// Serve upgrades the request and streams changes until either side goes
// away. The caller has already authenticated userID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Debug("realtime upgrade failed", "error", err)
		return
	}

	sub := h.add(userID)
	h.logger.Debug("realtime subscriber connected", "user_id", userID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.write(conn, sub)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxInbound)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(sub)
	<-done
	h.logger.Debug("realtime subscriber disconnected", "user_id", userID)
}

func (h *Hub) write(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
