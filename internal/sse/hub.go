package sse

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"matchpulse/internal/config"
	"matchpulse/internal/metrics"
	"matchpulse/internal/model"
)

var ErrHubStopped = errors.New("hub stopped")

// Client is one push connection. Room is the subscriber id it listens for.
type Client struct {
	ID   string
	Room string
	Ch   chan model.NotificationEvent
}

type registration struct {
	client *Client
	done   chan struct{}
}

type unregistration struct {
	id   string
	done chan struct{}
}

type Hub struct {
	register   chan registration
	unregister chan unregistration
	done       chan struct{}
	buffer     int

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	conns map[string]*Client

	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewHub(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *Hub {
	buffer := cfg.SSEClientBuffer
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		register:   make(chan registration),
		unregister: make(chan unregistration),
		done:       make(chan struct{}),
		buffer:     buffer,
		rooms:      make(map[string]map[*Client]struct{}),
		conns:      make(map[string]*Client),
		metrics:    m,
		log:        logger,
	}
}

// Subscribe registers connectionID in the room of subscriberID.
func (h *Hub) Subscribe(ctx context.Context, connectionID, subscriberID string) (*Client, error) {
	client := &Client{
		ID:   connectionID,
		Room: subscriberID,
		Ch:   make(chan model.NotificationEvent, h.buffer),
	}
	reg := registration{client: client, done: make(chan struct{})}
	select {
	case h.register <- reg:
		<-reg.done
		return client, nil
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Unsubscribe removes the connection and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unsubscribe(connectionID string) {
	req := unregistration{id: connectionID, done: make(chan struct{})}
	select {
	case h.unregister <- req:
		<-req.done
	case <-h.done:
	}
}

// Publish fans event out to every connection of subscriberID without
// blocking. A full connection buffer drops the event for that connection
// only. It returns how many connections received the event; zero means the
// subscriber is offline and the event is gone.
func (h *Hub) Publish(subscriberID string, event model.NotificationEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.rooms[subscriberID] {
		select {
		case client.Ch <- event:
			delivered++
		default:
			h.log.Warn("dropping event for slow connection",
				zap.String("subscriber_id", subscriberID),
				zap.String("connection_id", client.ID),
				zap.Int64("event_id", event.ID),
			)
			h.metrics.EventsDropped.Inc()
		}
	}
	h.metrics.EventsDelivered.Add(float64(delivered))
	return delivered
}

// Connections returns the number of open connections of subscriberID.
func (h *Hub) Connections(subscriberID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[subscriberID])
}

func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case reg := <-h.register:
			h.addClient(reg.client)
			close(reg.done)
		case req := <-h.unregister:
			h.removeClient(req.id)
			close(req.done)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[client.ID]; ok {
		h.dropLocked(old)
	}
	if h.rooms[client.Room] == nil {
		h.rooms[client.Room] = make(map[*Client]struct{})
	}
	h.rooms[client.Room][client] = struct{}{}
	h.conns[client.ID] = client
	h.metrics.Connections.Inc()
}

func (h *Hub) removeClient(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.conns[id]; ok {
		h.dropLocked(client)
	}
}

// dropLocked must be called with h.mu held for writing, which also keeps
// Publish from sending on the channel being closed.
func (h *Hub) dropLocked(client *Client) {
	delete(h.conns, client.ID)
	if room := h.rooms[client.Room]; room != nil {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, client.Room)
		}
	}
	close(client.Ch)
	h.metrics.Connections.Dec()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.conns {
		h.dropLocked(client)
	}
	close(h.done)
}
