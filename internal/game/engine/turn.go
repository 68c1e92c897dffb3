package engine

import (
	"github.com/plutopoly/backend/internal/game/board"
)

// Roller is the engine's source of dice rolls. *dice.Roller satisfies it;
// tests substitute a scripted implementation.
type Roller interface {
	Roll(sides int) int
	Pair() (int, int)
}

// applyRoll is the turn-resolution transition. It consumes one dice roll for
// the current player and drives movement, tile effects, card draws,
// bankruptcy bookkeeping and turn advancement. A roll is only accepted in
// the rolling phase with no pending action.
func (s *GameState) applyRoll(catalog *board.Catalog, roller Roller) {
	if s.Phase != PhaseRolling || s.Pending != nil {
		return
	}
	p := s.currentPlayer()
	if p == nil {
		return
	}

	d1, d2 := roller.Pair()
	s.LastRoll = [2]int{d1, d2}
	s.Trail = nil
	s.appendLog("%s rolls %d and %d", p.Name, d1, d2)

	startedInJail := p.InJail
	doubles := d1 == d2

	// A turn that begins in jail never earns a doubles continuation, so the
	// streak only ticks for free players.
	if !startedInJail && doubles {
		s.DoubleStreak++
		if s.DoubleStreak >= maxDoubles {
			s.appendLog("%s rolled three doubles in a row", p.Name)
			s.sendToJail(catalog, p)
			s.advanceTurn()
			return
		}
	}

	if startedInJail {
		out := s.resolveJail(d1, d2)
		if out.Removed {
			// The fine bankrupted the player; the turn index already points
			// at the next survivor.
			s.DoubleStreak = 0
			return
		}
		if !out.CanMove {
			s.advanceTurn()
			return
		}
	}

	// Movement.
	steps := d1 + d2
	path, wrapped := forwardSteps(p.Position, steps, catalog.Size())
	s.Trail = append(s.Trail, path...)
	p.Position = path[len(path)-1]
	if wrapped {
		p.Funds += PassStartBonus
		s.appendLog("%s passes Start and collects %d", p.Name, PassStartBonus)
	}

	tile := catalog.TileAt(p.Position)
	s.appendLog("%s lands on %s", p.Name, tile.Name)

	actorID := p.ID
	goAgain := doubles && !startedInJail
	removed := false

	switch {
	case tile.Ownable():
		removed = s.resolveOwnable(catalog, tile, actorID, steps, goAgain)
		if s.Pending != nil {
			// Turn advancement is frozen until the purchase offer resolves.
			return
		}
	case tile.Type == board.TileTax:
		s.appendLog("%s pays %d for %s", p.Name, tile.Tax, tile.Name)
		res := s.pay(actorID, "", tile.Tax)
		removed = res.BankruptID == actorID
	case tile.Type == board.TileChance, tile.Type == board.TileChest:
		removed = s.drawCard(catalog, roller, actorID, tile.Type)
	case tile.Type == board.TileGoToJail:
		if p := s.mustPlayer(actorID); p != nil {
			s.sendToJail(catalog, p)
		}
	}

	if removed {
		// A removed player cannot take further tile effects or go again; the
		// index was renormalized during bankruptcy.
		s.DoubleStreak = 0
		return
	}

	// Landing in jail (go-to-jail tile or card) cancels any continuation.
	if cur := s.mustPlayer(actorID); cur != nil && !cur.InJail && goAgain {
		s.appendLog("%s rolled doubles and goes again", cur.Name)
		return
	}
	s.advanceTurn()
}

// resolveOwnable handles landing on a buyable tile: raise a purchase offer
// if unowned, collect rent if held by someone else, otherwise nothing.
// Returns true if rent bankrupted the acting player.
func (s *GameState) resolveOwnable(catalog *board.Catalog, tile *board.Tile, actorID string, steps int, goAgain bool) bool {
	ps := s.Properties[tile.ID]
	p := s.mustPlayer(actorID)
	if p == nil {
		return false
	}

	if ps.OwnerID == "" {
		// Pre-compute where the turn goes after the offer resolves, so a
		// later confirm cannot re-derive it against a changed list.
		next := s.TurnIndex
		if !goAgain {
			next = (s.TurnIndex + 1) % len(s.Players)
		}
		s.Pending = &PendingAction{
			Kind:     PendingPurchase,
			TileID:   tile.ID,
			PlayerID: actorID,
			Price:    tile.Price,
			NextTurn: next,
		}
		s.appendLog("%s may buy %s for %d", p.Name, tile.Name, tile.Price)
		return false
	}

	if ps.OwnerID == actorID || ps.Mortgaged {
		return false
	}

	owner, _ := s.playerByID(ps.OwnerID)
	if owner == nil {
		return false
	}
	rent := s.rentFor(catalog, tile, ps, steps)
	s.appendLog("%s pays %d rent to %s", p.Name, rent, owner.Name)
	res := s.pay(actorID, ps.OwnerID, rent)
	return res.BankruptID == actorID
}

// rentFor computes the rent owed for landing on an owned, unmortgaged tile.
// Railways charge the per-terminal fee times the owner's terminal count;
// utilities charge the dice total times 4 (one held) or 10 (both held);
// properties charge the development-tier rent, doubled at level zero when
// the owner holds the whole color group.
func (s *GameState) rentFor(catalog *board.Catalog, tile *board.Tile, ps PropertyState, steps int) int {
	switch tile.Type {
	case board.TileRailway:
		return tile.BaseRent() * s.groupCount(catalog, tile.Group, ps.OwnerID)
	case board.TileUtility:
		if s.groupCount(catalog, tile.Group, ps.OwnerID) > 1 {
			return steps * 10
		}
		return steps * 4
	default:
		if ps.Level == 0 && s.ownsGroup(catalog, ps.OwnerID, tile.Group) {
			return tile.BaseRent() * 2
		}
		return tile.RentAt(ps.Level)
	}
}

// groupCount returns how many tiles of a group a player owns.
func (s *GameState) groupCount(catalog *board.Catalog, group, playerID string) int {
	n := 0
	for _, t := range catalog.Group(group) {
		if s.Properties[t.ID].OwnerID == playerID {
			n++
		}
	}
	return n
}

// ownsGroup reports whether a player holds every tile of a group.
func (s *GameState) ownsGroup(catalog *board.Catalog, playerID, group string) bool {
	tiles := catalog.Group(group)
	if len(tiles) == 0 {
		return false
	}
	return s.groupCount(catalog, group, playerID) == len(tiles)
}

// sendToJail forces a player onto the jail tile, recording the pass-through
// trail for animation without the pass-start bonus, and cancels any doubles
// continuation.
func (s *GameState) sendToJail(catalog *board.Catalog, p *Player) {
	path, _ := forwardTo(p.Position, catalog.JailPosition(), catalog.Size())
	s.Trail = append(s.Trail, path...)
	p.Position = catalog.JailPosition()
	p.InJail = true
	p.JailTurns = 0
	s.DoubleStreak = 0
	s.appendLog("%s goes to jail", p.Name)
}

// advanceTurn resets the doubles streak and hands the turn to the next
// surviving player.
func (s *GameState) advanceTurn() {
	s.DoubleStreak = 0
	if n := len(s.Players); n > 0 {
		s.TurnIndex = (s.TurnIndex + 1) % n
	}
	s.checkWinner()
}

// mustPlayer is playerByID without the index, for the common re-fetch after
// a payment may have shuffled the list.
func (s *GameState) mustPlayer(id string) *Player {
	p, _ := s.playerByID(id)
	return p
}
