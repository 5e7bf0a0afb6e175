package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4 * 1024

	// Send buffer size per client.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client represents a WebSocket client connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	connID string
	groups map[string]bool
	logger *zap.Logger
}

// upstream is a subscription request from a client.
type upstream struct {
	Type  string  `json:"type"`
	Group string  `json:"group"`
	AckID *uint64 `json:"ackId,omitempty"`
}

type connectedMessage struct {
	Type   string `json:"type"`
	ConnID string `json:"connId"`
}

type ackMessage struct {
	Type    string `json:"type"`
	AckID   uint64 `json:"ackId"`
	Success bool   `json:"success"`
}

// ServeWS upgrades the request and subscribes the connection to every
// channel named by a "channel" query parameter. Without one the client
// receives all channels.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		connID: uuid.New().String(),
		groups: make(map[string]bool),
		logger: h.logger,
	}

	h.register <- client

	channels := r.URL.Query()["channel"]
	if len(channels) == 0 {
		channels = []string{AllChannels}
	}
	for _, ch := range channels {
		h.JoinGroup(client, ch)
	}

	connected, _ := json.Marshal(connectedMessage{Type: "connected", ConnID: client.connID})
	client.send <- connected

	// Start read/write pumps
	go client.writePump()
	go client.readPump()
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed, send close message
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming upstream message.
func (c *Client) handleMessage(data []byte) {
	var msg upstream
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Debug("failed to parse upstream message",
			zap.String("connID", c.connID),
			zap.Error(err),
		)
		return
	}

	switch msg.Type {
	case "joinGroup":
		ok := msg.Group != ""
		if ok {
			c.hub.JoinGroup(c, msg.Group)
		}
		c.ack(msg.AckID, ok)

	case "leaveGroup":
		c.hub.LeaveGroup(c, msg.Group)
		c.ack(msg.AckID, true)

	case "ping":
		c.queue([]byte(`{"type":"pong"}`))

	default:
		c.logger.Debug("unknown upstream message",
			zap.String("connID", c.connID),
			zap.String("type", msg.Type),
		)
	}
}

func (c *Client) ack(id *uint64, success bool) {
	if id == nil {
		return
	}
	b, _ := json.Marshal(ackMessage{Type: "ack", AckID: *id, Success: success})
	c.queue(b)
}

// queue sends without blocking the read pump; a full buffer drops the reply.
func (c *Client) queue(b []byte) {
	select {
	case c.send <- b:
	default:
	}
}
