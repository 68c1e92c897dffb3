package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/plutopoly/backend/internal/game/manager"
	"github.com/plutopoly/backend/internal/game/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

// Client represents one WebSocket connection, either joined to a game room
// or browsing the lobby (empty gameID).
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	gameID    string
	playerID  string
	sessionID string

	// Outbound queues drained in priority order by the write pump.
	highPriority   chan []byte
	normalPriority chan []byte
	lowPriority    chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps an upgraded connection and starts its pumps.
func NewClient(hub *Hub, conn *websocket.Conn, gameID, playerID, sessionID string) *Client {
	client := &Client{
		hub:            hub,
		conn:           conn,
		gameID:         gameID,
		playerID:       playerID,
		sessionID:      sessionID,
		highPriority:   make(chan []byte, 64),
		normalPriority: make(chan []byte, 64),
		lowPriority:    make(chan []byte, 64),
		done:           make(chan struct{}),
	}

	hub.register <- client
	go client.writePump()
	go client.readPump()

	return client
}

// send queues an outbound message; full queues drop rather than block the
// hub loop.
func (c *Client) send(message []byte, priority string) {
	var queue chan []byte
	switch priority {
	case PriorityHigh:
		queue = c.highPriority
	case PriorityLow:
		queue = c.lowPriority
	default:
		queue = c.normalPriority
	}

	select {
	case queue <- message:
	case <-c.done:
	default:
		c.hub.logger.Warnw("Client send queue full, dropping message",
			"gameId", c.gameID, "player", c.playerID, "priority", priority)
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// inboundMessage is the envelope clients send over the socket
type inboundMessage struct {
	Type   string             `json:"type"`
	Action *models.GameAction `json:"action,omitempty"`
}

// readPump reads messages from the connection and dispatches them. One
// goroutine per connection; exits on any read error.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warnw("Unexpected websocket close",
					"gameId", c.gameID, "player", c.playerID, "error", err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.send(c.hub.marshalError(c.gameID, "malformed message"), PriorityNormal)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg inboundMessage) {
	switch msg.Type {
	case "action":
		c.handleAction(msg.Action)
	case "ping":
		c.send([]byte(`{"type":"pong"}`), PriorityLow)
	default:
		c.hub.logger.Debugw("Ignoring unknown message type",
			"type", msg.Type, "player", c.playerID)
	}
}

// handleAction routes a game command into the manager. The resulting state
// reaches the whole room through the queue worker; the acting client gets
// an immediate direct response as well.
func (c *Client) handleAction(action *models.GameAction) {
	if action == nil || c.gameID == "" {
		c.send(c.hub.marshalError(c.gameID, "no action supplied"), PriorityNormal)
		return
	}

	// The socket identity wins over whatever the payload claims.
	action.GameID = c.gameID
	action.PlayerID = c.playerID

	state, err := c.hub.gameManager.ProcessGameAction(*action)
	if err != nil {
		detail := "action failed"
		if errors.Is(err, manager.ErrGameNotFound) || errors.Is(err, manager.ErrGameNotActive) || errors.Is(err, manager.ErrUnknownAction) {
			detail = err.Error()
		}
		c.send(c.hub.marshalError(c.gameID, detail), PriorityNormal)
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type":   "state_update",
		"gameId": c.gameID,
		"state":  state,
	})
	if err != nil {
		c.hub.logger.Errorw("Failed to marshal state update", "gameId", c.gameID, "error", err)
		return
	}
	c.send(payload, PriorityHigh)
}

// writePump drains the priority queues to the connection and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		message, ok := c.nextMessage(ticker.C)
		if message == nil {
			if !ok {
				return
			}
			// Ping tick.
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// nextMessage blocks for the next outbound message, preferring higher
// priority queues. A nil message with ok=true means a ping is due; ok=false
// means the client is closing.
func (c *Client) nextMessage(ping <-chan time.Time) ([]byte, bool) {
	// Drain high priority first without blocking.
	select {
	case msg := <-c.highPriority:
		return msg, true
	default:
	}

	select {
	case msg := <-c.highPriority:
		return msg, true
	case msg := <-c.normalPriority:
		return msg, true
	case msg := <-c.lowPriority:
		return msg, true
	case <-ping:
		return nil, true
	case <-c.done:
		return nil, false
	}
}
