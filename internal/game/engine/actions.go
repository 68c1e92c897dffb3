package engine

import (
	"github.com/plutopoly/backend/internal/game/board"
)

// confirmPending resolves the outstanding offer in the affirmative. An
// unaffordable purchase or upgrade degrades to a decline; either way the
// offer is cleared and, for purchases, the turn moves to the index computed
// when the offer was raised.
func (s *GameState) confirmPending(catalog *board.Catalog) {
	pending := s.Pending
	if pending == nil {
		return
	}
	p, _ := s.playerByID(pending.PlayerID)
	tile := catalog.TileByID(pending.TileID)
	if p == nil || tile == nil {
		s.clearPending()
		return
	}

	switch pending.Kind {
	case PendingPurchase:
		if p.Funds >= pending.Price {
			p.Funds -= pending.Price
			ps := s.Properties[tile.ID]
			ps.OwnerID = p.ID
			s.Properties[tile.ID] = ps
			s.appendLog("%s buys %s for %d", p.Name, tile.Name, pending.Price)
		} else {
			s.appendLog("%s cannot afford %s", p.Name, tile.Name)
		}
	case PendingUpgrade:
		if p.Funds >= pending.Price {
			p.Funds -= pending.Price
			ps := s.Properties[tile.ID]
			ps.Level = pending.NextLevel
			s.Properties[tile.ID] = ps
			s.appendLog("%s develops %s to level %d", p.Name, tile.Name, pending.NextLevel)
		} else {
			s.appendLog("%s cannot afford to develop %s", p.Name, tile.Name)
		}
	}
	s.clearPending()
}

// declinePending drops the outstanding offer without touching funds or
// ownership. Purchases still advance the turn to the pre-computed index.
func (s *GameState) declinePending(catalog *board.Catalog) {
	pending := s.Pending
	if pending == nil {
		return
	}
	if tile := catalog.TileByID(pending.TileID); tile != nil {
		if p, _ := s.playerByID(pending.PlayerID); p != nil {
			switch pending.Kind {
			case PendingPurchase:
				s.appendLog("%s declines to buy %s", p.Name, tile.Name)
			case PendingUpgrade:
				s.appendLog("%s declines to develop %s", p.Name, tile.Name)
			}
		}
	}
	s.clearPending()
}

// clearPending removes the offer and, for purchases, applies the stored turn
// target. Development happens between rolls and never moves the turn.
func (s *GameState) clearPending() {
	pending := s.Pending
	s.Pending = nil
	if pending == nil || pending.Kind != PendingPurchase {
		return
	}
	n := len(s.Players)
	if n == 0 {
		return
	}
	next := pending.NextTurn % n
	if next != s.TurnIndex {
		s.DoubleStreak = 0
	}
	s.TurnIndex = next
	s.checkWinner()
}

// requestUpgrade raises a development offer for a tile. It is a no-op
// unless the player owns the tile and its whole color group, the tile is
// unmortgaged, development is below the landmark tier, and no other offer
// is outstanding. Levels below the landmark cost the flat house fee; the
// landmark costs double.
func (s *GameState) requestUpgrade(catalog *board.Catalog, playerID, tileID string) {
	if s.Pending != nil || s.Phase != PhaseRolling {
		return
	}
	p, _ := s.playerByID(playerID)
	tile := catalog.TileByID(tileID)
	if p == nil || tile == nil || tile.Type != board.TileProperty {
		return
	}
	ps := s.Properties[tileID]
	if ps.OwnerID != playerID || ps.Mortgaged || ps.Level >= MaxLevel {
		return
	}
	if !s.ownsGroup(catalog, playerID, tile.Group) {
		return
	}

	nextLevel := ps.Level + 1
	price := tile.HouseCost
	if nextLevel == MaxLevel {
		price *= 2
	}
	s.Pending = &PendingAction{
		Kind:      PendingUpgrade,
		TileID:    tileID,
		PlayerID:  playerID,
		Price:     price,
		NextLevel: nextLevel,
		NextTurn:  s.TurnIndex,
	}
	s.appendLog("%s may develop %s to level %d for %d", p.Name, tile.Name, nextLevel, price)
}

// mortgageTile flags an undeveloped owned tile as mortgaged and credits its
// mortgage value. Mortgaged tiles accrue no rent.
func (s *GameState) mortgageTile(catalog *board.Catalog, playerID, tileID string) {
	p, _ := s.playerByID(playerID)
	tile := catalog.TileByID(tileID)
	if p == nil || tile == nil || !tile.Ownable() {
		return
	}
	ps := s.Properties[tileID]
	if ps.OwnerID != playerID || ps.Mortgaged || ps.Level != 0 {
		return
	}

	value := tile.Mortgage
	if value == 0 {
		value = (tile.Price + 1) / 2
	}
	p.Funds += value
	ps.Mortgaged = true
	s.Properties[tileID] = ps
	s.appendLog("%s mortgages %s for %d", p.Name, tile.Name, value)
}

// redeemTile lifts a mortgage at 110% of the mortgage value, rounded up.
func (s *GameState) redeemTile(catalog *board.Catalog, playerID, tileID string) {
	p, _ := s.playerByID(playerID)
	tile := catalog.TileByID(tileID)
	if p == nil || tile == nil {
		return
	}
	ps := s.Properties[tileID]
	if ps.OwnerID != playerID || !ps.Mortgaged {
		return
	}

	value := tile.Mortgage
	if value == 0 {
		value = (tile.Price + 1) / 2
	}
	cost := (value*11 + 9) / 10
	if p.Funds < cost {
		s.appendLog("%s cannot afford to redeem %s", p.Name, tile.Name)
		return
	}
	p.Funds -= cost
	ps.Mortgaged = false
	s.Properties[tileID] = ps
	s.appendLog("%s redeems %s for %d", p.Name, tile.Name, cost)
}

// payJailFine is the voluntary pre-roll payment. Unlike the forced
// third-turn fine it requires the player to actually afford it.
func (s *GameState) payJailFine(playerID string) {
	p, _ := s.playerByID(playerID)
	if p == nil || !p.InJail || p.Funds < JailFine {
		return
	}
	p.Funds -= JailFine
	p.InJail = false
	p.JailTurns = 0
	s.appendLog("%s pays the %d fine and leaves jail", p.Name, JailFine)
}

// useJailCard consumes a held release card to leave jail.
func (s *GameState) useJailCard(playerID string) {
	p, _ := s.playerByID(playerID)
	if p == nil || !p.InJail || !p.HasJailCard {
		return
	}
	p.HasJailCard = false
	p.InJail = false
	p.JailTurns = 0
	s.appendLog("%s uses a release card and leaves jail", p.Name)
}
