// Package bridge connects the store to the web UI: it pushes store events to
// every attached UI over a websocket and turns the frames a UI sends back into
// store commands.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mahaj/harmonium/pkg/model"
)

var ErrHubClosed = errors.New("bridge hub closed")

type directFrame struct {
	client  *Client
	payload []byte
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	direct     chan directFrame
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	commands Commands
	presence Presence
	log      *slog.Logger
}

func NewHub(log *slog.Logger, commands Commands, presence Presence) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		direct:     make(chan directFrame, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		commands:   commands,
		presence:   presence,
		log:        log,
	}
}

// Notify pushes the event to every attached UI. It only fails once the hub
// has stopped or ctx is cancelled.
func (h *Hub) Notify(ctx context.Context, event model.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %d: %w", event.ID, err)
	}
	select {
	case h.broadcast <- payload:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(context.Background(), client)
			}
			h.log.Info("Bridge hub stopped")
			return

		case client := <-h.register:
			h.flush(ctx)
			h.clients[client] = true
			if err := h.presence.Join(ctx, client.ID); err != nil {
				h.log.Warn("Failed to record presence", "conn_id", client.ID, "error", err)
			}
			h.log.Info("UI attached", "conn_id", client.ID, "session_id", client.SessionID)
			h.replay(ctx, client)

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(ctx, client)
				h.log.Info("UI detached", "conn_id", client.ID)
			}

		case r := <-h.direct:
			if h.clients[r.client] {
				h.deliver(ctx, r.client, r.payload)
			}

		case payload := <-h.broadcast:
			for client := range h.clients {
				h.deliver(ctx, client, payload)
			}
		}
	}
}

// flush delivers queued broadcasts to the clients already attached, so that a
// client attaching now does not receive events its snapshot already covers.
func (h *Hub) flush(ctx context.Context) {
	for {
		select {
		case payload := <-h.broadcast:
			for client := range h.clients {
				h.deliver(ctx, client, payload)
			}
		default:
			return
		}
	}
}

// replay brings a freshly attached client up to date before it sees any
// later broadcast. A client whose buffer cannot hold the whole snapshot is
// dropped rather than left half populated.
func (h *Hub) replay(ctx context.Context, client *Client) {
	for _, evt := range h.commands.Snapshot() {
		payload, err := json.Marshal(evt)
		if err != nil {
			h.log.Error("Failed to marshal snapshot event", "event", evt.Name, "error", err)
			continue
		}
		select {
		case client.send <- payload:
		default:
			h.log.Warn("Snapshot does not fit client buffer, dropping UI", "conn_id", client.ID)
			h.drop(ctx, client)
			return
		}
	}
}

// deliver never blocks: a client that cannot keep up is disconnected.
func (h *Hub) deliver(ctx context.Context, client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.log.Warn("Dropping slow UI", "conn_id", client.ID)
		h.drop(ctx, client)
	}
}

func (h *Hub) drop(ctx context.Context, client *Client) {
	delete(h.clients, client)
	close(client.send)
	if err := h.presence.Leave(ctx, client.ID); err != nil {
		h.log.Warn("Failed to delete presence", "conn_id", client.ID, "error", err)
	}
}

// reply sends a frame to a single client, routed through Run so that it never
// races with the client being dropped.
func (h *Hub) reply(client *Client, event model.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("Failed to marshal reply", "event", event.Name, "error", err)
		return
	}
	select {
	case h.direct <- directFrame{client: client, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
