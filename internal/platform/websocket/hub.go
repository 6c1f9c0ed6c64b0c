// Package websocket pushes tracking board updates to connected browsers.
// Clients subscribe to topics and receive every event published on them;
// the most recent event per topic is retained and replayed on subscribe so a
// freshly opened board renders without waiting for the next refresh.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event is a message delivered to WebSocket clients.
type Event struct {
	Type         string          `json:"type"`
	Topic        string          `json:"topic"`
	ResourceType string          `json:"resourceType"`
	ResourceID   string          `json:"resourceId,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// ClientMessage is an inbound control message from a client.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// EventPublisher publishes events to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Client is a single WebSocket connection.
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
}

// NewClient returns a client with a buffered send queue.
func NewClient(id string, buffer int) *Client {
	return &Client{ID: id, Send: make(chan []byte, buffer)}
}

// Hub tracks clients and their topic subscriptions.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*Client]struct{} // topic -> subscribers
	all      map[*Client]struct{}
	retained map[string][]byte // topic -> last encoded event
	dropped  int
	logger   zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:  make(map[string]map[*Client]struct{}),
		all:      make(map[*Client]struct{}),
		retained: make(map[string][]byte),
		logger:   logger.With().Str("component", "websocket").Logger(),
	}
}

// Register adds a client and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	h.subscribeLocked(client, client.Topics)
}

// Unregister removes a client from every topic and closes its Send channel.
// Unregistering twice is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	h.unsubscribeLocked(client, client.Topics)
	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds topics to a registered client and replays the retained
// event of each one.
func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	fresh := make([]string, 0, len(topics))
	for _, t := range topics {
		if _, already := h.clients[t][client]; !already {
			fresh = append(fresh, t)
		}
	}
	h.subscribeLocked(client, fresh)
	client.Topics = append(client.Topics, fresh...)
}

// Unsubscribe removes topics from a registered client.
func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.unsubscribeLocked(client, topics)

	remove := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		remove[t] = struct{}{}
	}
	kept := client.Topics[:0]
	for _, t := range client.Topics {
		if _, rm := remove[t]; !rm {
			kept = append(kept, t)
		}
	}
	client.Topics = kept
}

func (h *Hub) subscribeLocked(client *Client, topics []string) {
	for _, topic := range topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
		if data, ok := h.retained[topic]; ok {
			h.deliver(client, data)
		}
	}
}

func (h *Hub) unsubscribeLocked(client *Client, topics []string) {
	for _, topic := range topics {
		if subscribers, ok := h.clients[topic]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.clients, topic)
			}
		}
	}
}

// ProcessMessage dispatches a client control message.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case ActionSubscribe:
		h.Subscribe(client, msg.Topics)
	case ActionUnsubscribe:
		h.Unsubscribe(client, msg.Topics)
	default:
		h.logger.Debug().Str("client_id", client.ID).Str("action", msg.Action).Msg("ignoring unknown action")
	}
}

// Publish retains event as the latest on its topic and fans it out to the
// topic's subscribers. Slow clients whose queue is full miss the event.
func (h *Hub) Publish(_ context.Context, event Event) error {
	if event.Topic == "" {
		return fmt.Errorf("publish %s: empty topic", event.Type)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.retained[event.Topic] = data
	for client := range h.clients[event.Topic] {
		h.deliver(client, data)
	}
	return nil
}

// deliver must be called with mu held for writing.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		h.dropped++
		h.logger.Warn().Str("client_id", client.ID).Msg("client queue full, event dropped")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of clients subscribed to topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// Dropped returns how many deliveries were skipped because a client queue
// was full.
func (h *Hub) Dropped() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}
