package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufSize    = 256
)

// Client is one WebSocket connection following batches.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// incomingMsg is a command from the client.
type incomingMsg struct {
	Action  string `json:"action"` // "subscribe" or "unsubscribe"
	BatchID string `json:"batchId"`
}

// outgoingMsg is the envelope sent to the client.
type outgoingMsg struct {
	Type    string          `json:"type"`
	BatchID string          `json:"batchId"`
	Payload json.RawMessage `json:"payload"`
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
}

// ReadPump reads commands until the connection closes.
func (c *Client) ReadPump() {
	defer func() {
		enqueue(c.hub.done, c.hub.unregister, c)
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			break
		}
		c.handle(message)
	}
}

func (c *Client) handle(message []byte) {
	var msg incomingMsg
	if err := json.Unmarshal(message, &msg); err != nil {
		c.hub.logger.Debug().Err(err).Msg("Ignoring malformed WebSocket message")
		return
	}

	id, err := uuid.Parse(msg.BatchID)
	if err != nil {
		c.hub.logger.Debug().Str("batchId", msg.BatchID).Msg("Ignoring subscription with invalid batch id")
		return
	}

	switch msg.Action {
	case "subscribe":
		c.follow(id)
	case "unsubscribe":
		enqueue(c.hub.done, c.hub.unsubscribe, subscription{client: c, batchID: id})
	default:
		c.hub.logger.Debug().Str("action", msg.Action).Msg("Unknown WebSocket action")
	}
}

func (c *Client) follow(batchID uuid.UUID) {
	enqueue(c.hub.done, c.hub.subscribe, subscription{client: c, batchID: batchID})
}

// WritePump writes queued messages and keeps the connection alive.
func (c *Client) WritePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
