package realtime

import (
	"context"

	"docgen"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Hub routes batch progress to the clients following each batch.
type Hub struct {
	clients       map[*Client]bool
	subscriptions map[uuid.UUID]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan broadcastMsg
	done        chan struct{}

	logger zerolog.Logger
}

type subscription struct {
	client  *Client
	batchID uuid.UUID
}

type broadcastMsg struct {
	batchID uuid.UUID
	payload []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[uuid.UUID]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan subscription),
		unsubscribe:   make(chan subscription),
		broadcast:     make(chan broadcastMsg, 256),
		done:          make(chan struct{}),
		logger:        docgen.Logger,
	}
}

// Publish queues payload for every subscriber of batchID. It reports false
// once the hub has stopped.
func (h *Hub) Publish(batchID uuid.UUID, payload []byte) bool {
	return enqueue(h.done, h.broadcast, broadcastMsg{batchID: batchID, payload: payload})
}

// enqueue sends v on ch unless the hub stops first.
func enqueue[T any](done <-chan struct{}, ch chan<- T, v T) bool {
	select {
	case <-done:
		return false
	default:
	}
	select {
	case ch <- v:
		return true
	case <-done:
		return false
	}
}

// Run serves the hub until ctx is done. Pending and later sends to a
// stopped hub are dropped.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
			}
			h.clients = map[*Client]bool{}
			h.subscriptions = map[uuid.UUID]map[*Client]bool{}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug().Int("clients", len(h.clients)).Msg("Client registered")

		case client := <-h.unregister:
			h.remove(client)

		case sub := <-h.subscribe:
			if !h.clients[sub.client] {
				continue
			}
			if _, ok := h.subscriptions[sub.batchID]; !ok {
				h.subscriptions[sub.batchID] = make(map[*Client]bool)
			}
			h.subscriptions[sub.batchID][sub.client] = true
			h.logger.Debug().Str("batchId", sub.batchID.String()).Int("subscribers", len(h.subscriptions[sub.batchID])).Msg("Client subscribed")

		case sub := <-h.unsubscribe:
			if subs, ok := h.subscriptions[sub.batchID]; ok {
				delete(subs, sub.client)
				if len(subs) == 0 {
					delete(h.subscriptions, sub.batchID)
				}
			}

		case msg := <-h.broadcast:
			for client := range h.subscriptions[msg.batchID] {
				select {
				case client.send <- msg.payload:
				default:
					// Client buffer full, drop it
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	for batchID, subs := range h.subscriptions {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, batchID)
		}
	}
	h.logger.Debug().Int("clients", len(h.clients)).Msg("Client unregistered")
}
