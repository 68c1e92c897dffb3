// Package websocket maintains the live client connections: one room per
// game plus a lobby channel for players browsing open games. The hub only
// moves bytes; game decisions stay in the manager.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/game/manager"
)

// Message priority levels
const (
	PriorityHigh   = "high"   // State updates, turn events
	PriorityNormal = "normal" // Player status changes
	PriorityLow    = "low"    // Chat, cosmetic updates
)

// BroadcastMessage is a payload addressed to a game room or the lobby
type BroadcastMessage struct {
	GameID   string // empty means the lobby
	Payload  []byte
	Priority string
}

// Hub maintains the set of active WebSocket connections and broadcasts
// messages to them.
type Hub struct {
	ctx         context.Context
	logger      *zap.SugaredLogger
	gameManager *manager.GameManager

	// clients by gameID -> playerID -> client
	clients      map[string]map[string]*Client
	lobbyClients map[*Client]bool
	clientsMutex sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
}

// NewHub creates a new hub
func NewHub(ctx context.Context, gameManager *manager.GameManager, logger *zap.SugaredLogger) *Hub {
	return &Hub{
		ctx:          ctx,
		logger:       logger,
		gameManager:  gameManager,
		clients:      make(map[string]map[string]*Client),
		lobbyClients: make(map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		broadcast:    make(chan *BroadcastMessage, 256),
	}
}

// Run processes register, unregister and broadcast events until the context
// is cancelled.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// BroadcastToGame sends a message to every client in a game room.
func (h *Hub) BroadcastToGame(gameID string, message []byte) {
	h.enqueue(&BroadcastMessage{GameID: gameID, Payload: message, Priority: PriorityHigh})
}

// BroadcastToLobby sends a message to every client browsing the lobby.
func (h *Hub) BroadcastToLobby(message []byte) {
	h.enqueue(&BroadcastMessage{Payload: message, Priority: PriorityNormal})
}

func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warnw("Broadcast queue full, dropping message", "gameId", msg.GameID)
	}
}

func (h *Hub) addClient(client *Client) {
	h.clientsMutex.Lock()
	if client.gameID == "" {
		h.lobbyClients[client] = true
	} else {
		room, ok := h.clients[client.gameID]
		if !ok {
			room = make(map[string]*Client)
			h.clients[client.gameID] = room
		}
		// A reconnecting player replaces their previous connection.
		if prev, ok := room[client.playerID]; ok && prev != client {
			prev.close()
		}
		room[client.playerID] = client
	}
	h.clientsMutex.Unlock()

	if client.gameID != "" {
		h.gameManager.PlayerConnected(client.gameID, client.playerID, client.sessionID)
	}
	h.logger.Infow("Client connected", "gameId", client.gameID, "player", client.playerID, "session", client.sessionID)
}

func (h *Hub) removeClient(client *Client) {
	h.clientsMutex.Lock()
	removed := false
	if client.gameID == "" {
		if h.lobbyClients[client] {
			delete(h.lobbyClients, client)
			removed = true
		}
	} else if room, ok := h.clients[client.gameID]; ok {
		// Only drop the room entry if it still points at this client; a
		// reconnection may already have replaced it.
		if room[client.playerID] == client {
			delete(room, client.playerID)
			removed = true
			if len(room) == 0 {
				delete(h.clients, client.gameID)
			}
		}
	}
	h.clientsMutex.Unlock()

	client.close()
	if removed && client.gameID != "" {
		h.gameManager.PlayerDisconnected(client.gameID, client.playerID)
	}
}

func (h *Hub) deliver(msg *BroadcastMessage) {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	if msg.GameID == "" {
		for client := range h.lobbyClients {
			client.send(msg.Payload, msg.Priority)
		}
		return
	}
	for _, client := range h.clients[msg.GameID] {
		client.send(msg.Payload, msg.Priority)
	}
}

// SendToPlayer sends a message to one player in a game, if connected.
func (h *Hub) SendToPlayer(gameID, playerID string, message []byte) {
	h.clientsMutex.RLock()
	client := h.clients[gameID][playerID]
	h.clientsMutex.RUnlock()

	if client != nil {
		client.send(message, PriorityHigh)
	}
}

// ConnectedPlayers returns the IDs of the players currently connected to a
// game room.
func (h *Hub) ConnectedPlayers(gameID string) []string {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	var ids []string
	for playerID := range h.clients[gameID] {
		ids = append(ids, playerID)
	}
	return ids
}

func (h *Hub) closeAll() {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	for _, room := range h.clients {
		for _, client := range room {
			client.close()
		}
	}
	for client := range h.lobbyClients {
		client.close()
	}
	h.clients = make(map[string]map[string]*Client)
	h.lobbyClients = make(map[*Client]bool)
}

func (h *Hub) marshalError(gameID, detail string) []byte {
	payload, err := json.Marshal(map[string]string{
		"type":   "error",
		"gameId": gameID,
		"error":  detail,
	})
	if err != nil {
		return []byte(`{"type":"error"}`)
	}
	return payload
}
