package engine

import (
	"github.com/plutopoly/backend/internal/game/board"
)

// Phase is the coarse lifecycle of a game.
type Phase string

const (
	PhaseLobby   Phase = "LOBBY"
	PhaseSetup   Phase = "SETUP"
	PhaseRolling Phase = "ROLLING"
	// PhaseTrading is reserved; trades resolve without a phase change.
	PhaseTrading Phase = "TRADING"
	PhaseSummary Phase = "SUMMARY"
)

// Fixed game rules. These are deliberately constants, not configuration.
const (
	// StartingFunds is dealt to every player at setup.
	StartingFunds = 1500
	// PassStartBonus is credited when a forward move wraps past Start.
	PassStartBonus = 200
	// JailFine is the single canonical fine, for both the voluntary payment
	// and the forced third-turn payment.
	JailFine = 50
	// MaxLevel is the landmark development tier.
	MaxLevel = 5

	maxDoubles   = 3
	maxJailTurns = 3
	maxLogLines  = 6
)

// Player is one active participant. Removed permanently on bankruptcy.
type Player struct {
	ID          string `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	Color       string `json:"color" bson:"color"`
	Token       string `json:"token" bson:"token"`
	Funds       int    `json:"funds" bson:"funds"`
	Position    int    `json:"position" bson:"position"`
	InJail      bool   `json:"inJail" bson:"inJail"`
	JailTurns   int    `json:"jailTurns" bson:"jailTurns"`
	HasJailCard bool   `json:"hasJailCard" bson:"hasJailCard"`
}

// PropertyState tracks the mutable side of one ownable tile. An empty
// OwnerID means the tile is unowned.
type PropertyState struct {
	OwnerID   string `json:"ownerId" bson:"ownerId"`
	Level     int    `json:"level" bson:"level"`
	Mortgaged bool   `json:"mortgaged" bson:"mortgaged"`
}

// PendingKind tags the PendingAction variant.
type PendingKind string

const (
	PendingPurchase PendingKind = "PURCHASE"
	PendingUpgrade  PendingKind = "UPGRADE"
)

// PendingAction is a blocking offer awaiting player confirmation. While one
// is set, no roll is accepted. NextTurn is only meaningful for purchases: it
// is the turn index pre-computed at offer time, so confirming later cannot
// re-derive it incorrectly. NextLevel is only meaningful for upgrades.
type PendingAction struct {
	Kind      PendingKind `json:"kind" bson:"kind"`
	TileID    string      `json:"tileId" bson:"tileId"`
	PlayerID  string      `json:"playerId" bson:"playerId"`
	Price     int         `json:"price" bson:"price"`
	NextLevel int         `json:"nextLevel,omitempty" bson:"nextLevel,omitempty"`
	NextTurn  int         `json:"nextTurn" bson:"nextTurn"`
}

// TradeProposal is the single outstanding peer-to-peer offer. Cash and tile
// sets are expressed from the sender's point of view: Give flows from the
// sender to the recipient, Get flows back.
type TradeProposal struct {
	FromID    string   `json:"fromId" bson:"fromId"`
	ToID      string   `json:"toId" bson:"toId"`
	CashGive  int      `json:"cashGive" bson:"cashGive"`
	CashGet   int      `json:"cashGet" bson:"cashGet"`
	TilesGive []string `json:"tilesGive,omitempty" bson:"tilesGive,omitempty"`
	TilesGet  []string `json:"tilesGet,omitempty" bson:"tilesGet,omitempty"`
}

// DrawnCard is the last drawn event card, kept for display until dismissed.
type DrawnCard struct {
	Deck string     `json:"deck" bson:"deck"`
	Card board.Card `json:"card" bson:"card"`
}

// GameState is the root aggregate. Every transition replaces it with a new
// snapshot; nothing outside the engine may mutate one.
type GameState struct {
	Phase        Phase                    `json:"phase" bson:"phase"`
	Players      []Player                 `json:"players" bson:"players"`
	TurnIndex    int                      `json:"turnIndex" bson:"turnIndex"`
	LastRoll     [2]int                   `json:"lastRoll" bson:"lastRoll"`
	DoubleStreak int                      `json:"doubleStreak" bson:"doubleStreak"`
	Properties   map[string]PropertyState `json:"properties" bson:"properties"`
	Pending      *PendingAction           `json:"pending,omitempty" bson:"pending,omitempty"`
	Trade        *TradeProposal           `json:"trade,omitempty" bson:"trade,omitempty"`
	ChanceCursor int                      `json:"chanceCursor" bson:"chanceCursor"`
	ChestCursor  int                      `json:"chestCursor" bson:"chestCursor"`
	DrawnCard    *DrawnCard               `json:"drawnCard,omitempty" bson:"drawnCard,omitempty"`
	Log          []string                 `json:"log" bson:"log"`
	Trail        []int                    `json:"trail" bson:"trail"`
	WinnerID     string                   `json:"winnerId,omitempty" bson:"winnerId,omitempty"`
}

// Clone returns a deep copy. Transitions operate on a clone and install it
// only once they complete, so observers never see a half-applied state.
func (s *GameState) Clone() *GameState {
	c := *s
	c.Players = append([]Player(nil), s.Players...)
	c.Properties = make(map[string]PropertyState, len(s.Properties))
	for id, ps := range s.Properties {
		c.Properties[id] = ps
	}
	if s.Pending != nil {
		pa := *s.Pending
		c.Pending = &pa
	}
	if s.Trade != nil {
		tr := *s.Trade
		tr.TilesGive = append([]string(nil), s.Trade.TilesGive...)
		tr.TilesGet = append([]string(nil), s.Trade.TilesGet...)
		c.Trade = &tr
	}
	if s.DrawnCard != nil {
		dc := *s.DrawnCard
		c.DrawnCard = &dc
	}
	c.Log = append([]string(nil), s.Log...)
	c.Trail = append([]int(nil), s.Trail...)
	return &c
}

// PlayerByID returns a copy of the player with the given id.
func (s *GameState) PlayerByID(id string) (Player, bool) {
	p, idx := s.playerByID(id)
	if idx < 0 {
		return Player{}, false
	}
	return *p, true
}

// CurrentPlayer returns a copy of the player whose turn it is.
func (s *GameState) CurrentPlayer() (Player, bool) {
	p := s.currentPlayer()
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

// playerByID returns a pointer into the player list, or (nil, -1). The
// pointer is invalidated by any change to the list; callers that remove
// players must re-fetch.
func (s *GameState) playerByID(id string) (*Player, int) {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i], i
		}
	}
	return nil, -1
}

func (s *GameState) currentPlayer() *Player {
	if len(s.Players) == 0 {
		return nil
	}
	return &s.Players[s.TurnIndex%len(s.Players)]
}

// ownedTiles returns the ids of every tile owned by a player, in board
// order, so downstream effects resolve deterministically.
func (s *GameState) ownedTiles(playerID string, catalog *board.Catalog) []string {
	var ids []string
	for pos := 0; pos < catalog.Size(); pos++ {
		tile := catalog.TileAt(pos)
		if !tile.Ownable() {
			continue
		}
		if s.Properties[tile.ID].OwnerID == playerID {
			ids = append(ids, tile.ID)
		}
	}
	return ids
}

// checkWinner transitions to the summary phase once one player remains.
func (s *GameState) checkWinner() {
	if len(s.Players) != 1 || s.WinnerID != "" {
		return
	}
	s.WinnerID = s.Players[0].ID
	s.Phase = PhaseSummary
	s.appendLog("%s wins the game", s.Players[0].Name)
}
