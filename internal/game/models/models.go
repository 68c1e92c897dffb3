// Package models defines the persisted game documents and the action
// envelope exchanged between clients and the game manager. The rules state
// itself lives in the engine package; these types wrap it with the lobby
// and session bookkeeping the service needs.
package models

import (
	"time"

	"github.com/plutopoly/backend/internal/game/engine"
)

// GameStatus represents the lifecycle state of a game
type GameStatus string

const (
	// GameStatusLobby means the game is accepting players
	GameStatusLobby GameStatus = "LOBBY"
	// GameStatusActive means the game is in progress
	GameStatusActive GameStatus = "ACTIVE"
	// GameStatusCompleted means the game finished with a winner
	GameStatusCompleted GameStatus = "COMPLETED"
	// GameStatusAbandoned means the game was abandoned before completion
	GameStatusAbandoned GameStatus = "ABANDONED"
)

// PlayerStatus represents a player's connection state
type PlayerStatus string

const (
	PlayerStatusActive       PlayerStatus = "ACTIVE"
	PlayerStatusDisconnected PlayerStatus = "DISCONNECTED"
	PlayerStatusLeft         PlayerStatus = "LEFT"
)

// LobbyPlayer is a seat in a game lobby. Once the game starts the seat's
// ID, Name, Color and Token seed the corresponding engine player.
type LobbyPlayer struct {
	ID             string       `json:"id" bson:"id"`
	UserID         string       `json:"userId" bson:"userId"`
	Name           string       `json:"name" bson:"name"`
	Color          string       `json:"color" bson:"color"`
	Token          string       `json:"token" bson:"token"`
	Ready          bool         `json:"ready" bson:"ready"`
	IsHost         bool         `json:"isHost" bson:"isHost"`
	Status         PlayerStatus `json:"status" bson:"status"`
	SessionID      string       `json:"sessionId,omitempty" bson:"-"`
	JoinedAt       time.Time    `json:"joinedAt" bson:"joinedAt"`
	DisconnectedAt *time.Time   `json:"disconnectedAt,omitempty" bson:"disconnectedAt,omitempty"`
}

// Game is the persisted game document: lobby metadata plus, once the game
// has started, the full engine state.
type Game struct {
	ID           string            `json:"id" bson:"_id"`
	Code         string            `json:"code" bson:"code"`
	Name         string            `json:"name" bson:"name"`
	Status       GameStatus        `json:"status" bson:"status"`
	HostID       string            `json:"hostId" bson:"hostId"`
	MaxPlayers   int               `json:"maxPlayers" bson:"maxPlayers"`
	Players      []LobbyPlayer     `json:"players" bson:"players"`
	State        *engine.GameState `json:"state,omitempty" bson:"state,omitempty"`
	WinnerID     string            `json:"winnerId,omitempty" bson:"winnerId,omitempty"`
	CreatedAt    time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt" bson:"updatedAt"`
	LastActivity time.Time         `json:"lastActivity" bson:"lastActivity"`
}

// PlayerByID returns the lobby seat with the given ID, or nil.
func (g *Game) PlayerByID(id string) *LobbyPlayer {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

// ActiveCount returns the number of seats not marked as left.
func (g *Game) ActiveCount() int {
	n := 0
	for i := range g.Players {
		if g.Players[i].Status != PlayerStatusLeft {
			n++
		}
	}
	return n
}

// ActionType identifies a game command issued by a player
type ActionType string

const (
	ActionRoll           ActionType = "roll"
	ActionConfirmPending ActionType = "confirm_pending"
	ActionDeclinePending ActionType = "decline_pending"
	ActionUpgrade        ActionType = "upgrade"
	ActionMortgage       ActionType = "mortgage"
	ActionRedeem         ActionType = "redeem"
	ActionProposeTrade   ActionType = "propose_trade"
	ActionAcceptTrade    ActionType = "accept_trade"
	ActionRejectTrade    ActionType = "reject_trade"
	ActionPayJailFine    ActionType = "pay_jail_fine"
	ActionUseJailCard    ActionType = "use_jail_card"
	ActionDismissCard    ActionType = "dismiss_card"
)

// TradeOffer is the wire form of a trade proposal
type TradeOffer struct {
	ToID      string   `json:"toId"`
	CashGive  int      `json:"cashGive"`
	CashGet   int      `json:"cashGet"`
	TilesGive []string `json:"tilesGive"`
	TilesGet  []string `json:"tilesGet"`
}

// GameAction is a command envelope from a player. TileID is set for the
// property commands, Trade for trade proposals.
type GameAction struct {
	GameID   string      `json:"gameId"`
	PlayerID string      `json:"playerId"`
	Type     ActionType  `json:"type"`
	TileID   string      `json:"tileId,omitempty"`
	Trade    *TradeOffer `json:"trade,omitempty"`
}
