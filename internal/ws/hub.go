// Package ws streams channel state changes to websocket subscribers.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/mdfeed/internal/gap"
)

// AllChannels is the group that receives the events of every channel.
const AllChannels = "*"

// Event is one channel state transition as sent to subscribers.
type Event struct {
	Type    string    `json:"type"`
	Channel string    `json:"channel"`
	From    gap.State `json:"from"`
	To      gap.State `json:"to"`
	Time    time.Time `json:"time"`
}

// Hub manages WebSocket connections and channel subscriptions.
type Hub struct {
	clients    map[*Client]bool
	groups     map[string]map[*Client]bool // channel id -> clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan *GroupMessage
	mu         sync.RWMutex
	logger     *zap.Logger

	now func() time.Time
}

// GroupMessage represents a message to broadcast to a group.
type GroupMessage struct {
	Group   string
	Payload []byte
}

// NewHub creates a new Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		groups:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *GroupMessage, 256),
		logger:     logger,
		now:        time.Now,
	}
}

// Run processes hub events. Call this in a goroutine.
// Returns when context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down")
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", zap.String("connID", client.connID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for group := range client.groups {
					h.removeFromGroup(client, group)
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", zap.String("connID", client.connID))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.recipients(msg.Group) {
				select {
				case client.send <- msg.Payload:
				default:
					// Buffer full, schedule disconnect
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// recipients returns the subscribers of group plus those of AllChannels.
// Callers hold h.mu.
func (h *Hub) recipients(group string) map[*Client]bool {
	out := make(map[*Client]bool, len(h.groups[group])+len(h.groups[AllChannels]))
	for c := range h.groups[group] {
		out[c] = true
	}
	for c := range h.groups[AllChannels] {
		out[c] = true
	}
	return out
}

// shutdown gracefully closes all client connections.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.groups = make(map[string]map[*Client]bool)
}

func (h *Hub) removeFromGroup(client *Client, group string) {
	if clients, ok := h.groups[group]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.groups, group)
		}
	}
}

// JoinGroup subscribes a client to a channel's events.
func (h *Hub) JoinGroup(client *Client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[group] == nil {
		h.groups[group] = make(map[*Client]bool)
	}
	h.groups[group][client] = true
	client.groups[group] = true

	h.logger.Debug("client joined group",
		zap.String("connID", client.connID),
		zap.String("group", group),
	)
}

// LeaveGroup removes a client from a group.
func (h *Hub) LeaveGroup(client *Client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromGroup(client, group)
	delete(client.groups, group)

	h.logger.Debug("client left group",
		zap.String("connID", client.connID),
		zap.String("group", group),
	)
}

// GetActiveGroups returns all groups with at least one subscriber.
func (h *Hub) GetActiveGroups() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var groups []string
	for group, clients := range h.groups {
		if len(clients) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// Broadcast queues payload for the subscribers of group. It never blocks;
// the message is dropped when the hub is backed up.
func (h *Hub) Broadcast(group string, payload []byte) bool {
	select {
	case h.broadcast <- &GroupMessage{Group: group, Payload: payload}:
		return true
	default:
		return false
	}
}

// OnChannelStateChanged publishes a state transition. It runs under the
// channel lock, so it only encodes and queues.
func (h *Hub) OnChannelStateChanged(channelID string, prev, next gap.State) {
	payload, err := json.Marshal(Event{
		Type:    "state",
		Channel: channelID,
		From:    prev,
		To:      next,
		Time:    h.now().UTC(),
	})
	if err != nil {
		h.logger.Error("encoding state event", zap.Error(err))
		return
	}
	if !h.Broadcast(channelID, payload) {
		h.logger.Warn("state event dropped, hub backed up",
			zap.String("channel", channelID),
			zap.Stringer("state", next),
		)
	}
}

var _ gap.StateListener = (*Hub)(nil)
