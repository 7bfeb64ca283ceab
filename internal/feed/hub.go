// Package feed broadcasts notices about changes to the society's data (an event was
// finalized or reverted, a player was added) to anyone listening, e.g. a results page
// that wants to refresh itself.
//
// Architecture:
//   - The Hub runs in its own goroutine (started with "go hub.Run(ctx)")
//   - Each listener is a Client subscribed to one topic ("society" for everything, or an event ID)
//   - Publishers call Publish; the Hub copies the message into each subscriber's Send channel
//   - The HTTP layer drains Send and writes it out as Server-Sent Events
//
// Go channels are used for communication between goroutines, so the client map is only
// touched by the Run goroutine plus read-locked snapshots.
package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// TopicAll is the topic every notice is published to.
const TopicAll = "society"

// Notice kinds.
const (
	KindEventFinalized   = "event.finalized"
	KindEventUnfinalized = "event.unfinalized"
	KindPlayerAdded      = "player.added"
)

// Notice is the payload sent to listeners.
type Notice struct {
	Kind     string    `json:"kind"`
	EventID  string    `json:"eventId,omitempty"`
	PlayerID string    `json:"playerId,omitempty"`
	Revision string    `json:"revision"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// Client is one listener.
type Client struct {
	Topic string      // Which topic this client is subscribed to
	Send  chan []byte // Buffered channel of outgoing messages; closed by the Hub on unregister
}

// NewClient creates a client with a reasonably sized buffer.
func NewClient(topic string) *Client {
	return &Client{Topic: topic, Send: make(chan []byte, 16)}
}

// message is one payload destined for a topic.
type message struct {
	topic string
	data  []byte
}

// Hub tracks clients per topic and fans messages out to them.
type Hub struct {
	// clients maps a topic to the set of clients subscribed to it.
	clients map[string]map[*Client]bool

	broadcast  chan *message
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // Closed when Run returns

	mu sync.RWMutex
}

// NewHub creates a Hub. Call Run in a goroutine before publishing.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then closes
// every client's Send channel so their writers stop.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for topic, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.clients, topic)
			}
			h.mu.Unlock()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Topic] == nil {
				h.clients[client.Topic] = make(map[*Client]bool)
			}
			h.clients[client.Topic][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients[msg.topic] {
				select {
				case client.Send <- msg.data:
				default:
					// Buffer full: the client isn't keeping up, drop it.
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				h.remove(client)
			}
		}
	}
}

// remove drops a client and closes its Send channel if it is still registered.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.Topic)
	}
}

// Publish sends n to TopicAll and, when it concerns an event, to that event's topic.
// It never blocks on slow clients; if the hub's own queue is full the notice is dropped.
func (h *Hub) Publish(n Notice) {
	data, err := json.Marshal(n)
	if err != nil {
		return
	}

	topics := []string{TopicAll}
	if n.EventID != "" {
		topics = append(topics, n.EventID)
	}

	for _, topic := range topics {
		select {
		case h.broadcast <- &message{topic: topic, data: data}:
		default:
		}
	}
}

// Register subscribes a client. If the hub has stopped, the client's Send is closed
// straight away so its writer exits.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister unsubscribes a client. Safe to call for a client that was already dropped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers returns how many clients are listening on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}
