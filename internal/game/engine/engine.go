// Package engine implements the turn-resolution core of the game: a single
// authoritative state aggregate advanced by pure transitions. Every public
// command takes the current snapshot, produces a complete next snapshot and
// installs it atomically; rule violations are defensive no-ops, never
// errors. The engine knows nothing about transport or storage.
package engine

import (
	"sync"

	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/game/board"
)

// PlayerSetup describes one participant at game start.
type PlayerSetup struct {
	ID    string
	Name  string
	Color string
	Token string
}

// Engine is the single mutation gate for one game. All commands serialize
// on its mutex; observers only ever see complete snapshots.
type Engine struct {
	catalog *board.Catalog
	roller  Roller
	logger  *zap.SugaredLogger

	mu    sync.Mutex
	state *GameState
}

// New creates an engine for a fresh game: every player dealt the starting
// funds at position zero, every ownable tile unowned, first player to move.
// The logger may be nil.
func New(catalog *board.Catalog, roller Roller, logger *zap.SugaredLogger, players []PlayerSetup) *Engine {
	s := &GameState{
		Phase:      PhaseRolling,
		Players:    make([]Player, 0, len(players)),
		Properties: make(map[string]PropertyState),
	}
	for _, ps := range players {
		s.Players = append(s.Players, Player{
			ID:    ps.ID,
			Name:  ps.Name,
			Color: ps.Color,
			Token: ps.Token,
			Funds: StartingFunds,
		})
	}
	for pos := 0; pos < catalog.Size(); pos++ {
		if tile := catalog.TileAt(pos); tile.Ownable() {
			s.Properties[tile.ID] = PropertyState{}
		}
	}
	s.appendLog("game started with %d players", len(players))

	return &Engine{
		catalog: catalog,
		roller:  roller,
		logger:  logger,
		state:   s,
	}
}

// Resume creates an engine over a previously persisted state, for picking
// a game back up after a restart.
func Resume(catalog *board.Catalog, roller Roller, logger *zap.SugaredLogger, state *GameState) *Engine {
	return &Engine{
		catalog: catalog,
		roller:  roller,
		logger:  logger,
		state:   state.Clone(),
	}
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// transition clones the current state, applies fn to the clone and installs
// the result, so no observer sees a half-applied transition.
func (e *Engine) transition(fn func(*GameState)) *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.state.Clone()
	fn(next)
	e.state = next
	return next.Clone()
}

// Roll resolves one dice roll for the current player. Ignored unless the
// caller is the current player in the rolling phase with nothing pending.
func (e *Engine) Roll(playerID string) *GameState {
	return e.transition(func(s *GameState) {
		cur := s.currentPlayer()
		if cur == nil || cur.ID != playerID {
			return
		}
		s.applyRoll(e.catalog, e.roller)
		if e.logger != nil {
			e.logger.Debugw("roll resolved", "player", playerID, "dice", s.LastRoll)
		}
	})
}

// ConfirmPending accepts the outstanding purchase or development offer.
// Only the player the offer was made to may confirm.
func (e *Engine) ConfirmPending(playerID string) *GameState {
	return e.transition(func(s *GameState) {
		if s.Pending == nil || s.Pending.PlayerID != playerID {
			return
		}
		s.confirmPending(e.catalog)
	})
}

// DeclinePending refuses the outstanding offer.
func (e *Engine) DeclinePending(playerID string) *GameState {
	return e.transition(func(s *GameState) {
		if s.Pending == nil || s.Pending.PlayerID != playerID {
			return
		}
		s.declinePending(e.catalog)
	})
}

// RequestUpgrade raises a development offer for a tile the player fully
// controls. Development happens between rolls and never moves the turn.
func (e *Engine) RequestUpgrade(playerID, tileID string) *GameState {
	return e.transition(func(s *GameState) {
		s.requestUpgrade(e.catalog, playerID, tileID)
	})
}

// Mortgage flags an undeveloped owned tile and credits its mortgage value.
func (e *Engine) Mortgage(playerID, tileID string) *GameState {
	return e.transition(func(s *GameState) {
		s.mortgageTile(e.catalog, playerID, tileID)
	})
}

// Redeem lifts a mortgage at 110% of the mortgage value.
func (e *Engine) Redeem(playerID, tileID string) *GameState {
	return e.transition(func(s *GameState) {
		s.redeemTile(e.catalog, playerID, tileID)
	})
}

// ProposeTrade stores a peer-to-peer offer; at most one may be outstanding.
func (e *Engine) ProposeTrade(tp TradeProposal) *GameState {
	return e.transition(func(s *GameState) {
		s.proposeTrade(tp)
	})
}

// AcceptTrade executes the outstanding proposal; recipient only.
func (e *Engine) AcceptTrade(playerID string) *GameState {
	return e.transition(func(s *GameState) {
		s.acceptTrade(playerID)
	})
}

// RejectTrade clears the outstanding proposal; the recipient rejects, the
// sender withdraws.
func (e *Engine) RejectTrade(playerID string) *GameState {
	return e.transition(func(s *GameState) {
		s.rejectTrade(playerID)
	})
}

// PayJailFine is the voluntary pre-roll fine payment.
func (e *Engine) PayJailFine(playerID string) *GameState {
	return e.transition(func(s *GameState) {
		s.payJailFine(playerID)
	})
}

// UseJailCard consumes a held release card to leave jail.
func (e *Engine) UseJailCard(playerID string) *GameState {
	return e.transition(func(s *GameState) {
		s.useJailCard(playerID)
	})
}

// DismissDrawnCard clears the display-only drawn card.
func (e *Engine) DismissDrawnCard() *GameState {
	return e.transition(func(s *GameState) {
		s.DrawnCard = nil
	})
}
