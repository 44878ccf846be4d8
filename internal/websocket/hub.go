package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub fans events out to every open tab.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	done       chan struct{}
	log        *zap.Logger
	handlers   map[string]func(*Message)
}

// Message is one event on the wire
type Message struct {
	Type      string          `json:"type"`
	Action    string          `json:"action,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Event types
const (
	MsgAlbumsChanged   = "albums.changed"
	MsgMessagesChanged = "messages.changed"
	MsgHeartBurst      = "heart.burst"
	MsgCelebrate       = "celebrate"
)

// NewHub creates a new WebSocket hub
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
		handlers:   make(map[string]func(*Message)),
	}
}

// Handle routes messages of the given type sent by a tab to fn. Types with
// no handler are dropped.
func (h *Hub) Handle(msgType string, fn func(*Message)) {
	h.mu.Lock()
	h.handlers[msgType] = fn
	h.mu.Unlock()
}

// Run processes registrations and broadcasts until ctx is cancelled. A hub
// runs once.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("tab connected", zap.Int("clients", n))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			payload := mustMarshal(h.log, message)
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// slow tab; it reconnects and resyncs
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues an event for every tab. It never blocks; when the queue is
// full the event is dropped.
func (h *Hub) Publish(msgType, action string, data any) {
	msg := &Message{Type: msgType, Action: action, Timestamp: time.Now()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			h.log.Warn("encode event", zap.String("type", msgType), zap.Error(err))
			return
		}
		msg.Data = raw
	}

	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("event queue full, dropping", zap.String("type", msgType))
	}
}

// ClientCount reports connected tabs.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) dispatch(msg *Message) {
	h.mu.RLock()
	fn := h.handlers[msg.Type]
	h.mu.RUnlock()
	if fn == nil {
		h.log.Debug("ignoring tab message", zap.String("type", msg.Type))
		return
	}
	fn(msg)
}

func mustMarshal(log *zap.Logger, v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error("failed to marshal", zap.Error(err))
		return []byte("{}")
	}
	return b
}
