// Package monitor streams rover status to remote observers over websockets.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/itohio/gorover/internal/log"
	"github.com/itohio/gorover/pkg/rover"
)

// Message is the JSON form of a rover.Status.
type Message struct {
	Run       string    `json:"run"`
	Time      time.Time `json:"time"`
	Control   string    `json:"control"`
	Motor     string    `json:"motor"`
	Direction string    `json:"direction"`
	Color     string    `json:"color"`
	Distance  uint16    `json:"distance_cm"`
	Voltage   uint16    `json:"voltage_mv"`
}

// NewMessage converts a status snapshot.
func NewMessage(run string, at time.Time, s rover.Status) Message {
	return Message{
		Run:       run,
		Time:      at,
		Control:   s.Control.String(),
		Motor:     s.Motor.String(),
		Direction: s.Direction.String(),
		Color:     s.Color.String(),
		Distance:  s.Distance,
		Voltage:   s.Voltage,
	}
}

// Hub keeps the connected websocket clients and fans status updates out to
// them. Slow clients are dropped rather than stalling the publisher.
type Hub struct {
	run      string
	upgrader websocket.Upgrader

	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}

	mu   sync.RWMutex
	last []byte
}

// New creates a hub tagging every message with the run id.
func New(run string) *Hub {
	return &Hub{
		run: run,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			last := h.last
			h.mu.Unlock()
			if last != nil {
				c.send <- last
			}
			log.Info("monitor client connected", "addr", c.conn.RemoteAddr().String(), "clients", count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("monitor client disconnected", "clients", count)

		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					delete(h.clients, c)
					close(c.send)
					log.Warn("monitor dropped slow client", "addr", c.conn.RemoteAddr().String())
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish broadcasts the status. It never blocks; when the broadcast buffer
// is full the update is dropped, and the next one supersedes it anyway.
func (h *Hub) Publish(s rover.Status) {
	data, err := json.Marshal(NewMessage(h.run, time.Now(), s))
	if err != nil {
		log.Error("failed to encode status", "err", err)
		return
	}

	h.mu.Lock()
	h.last = data
	h.mu.Unlock()

	select {
	case h.broadcast <- data:
	default:
		log.Debug("monitor broadcast full, dropping status")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handler returns the monitor HTTP routes: /ws streams status messages,
// /status returns the latest one.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/status", h.serveStatus)
	return mux
}

func (h *Hub) serveStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	last := h.last
	h.mu.RUnlock()

	if last == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(last)
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := newClient(h, conn)
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	c.readPump()
}
