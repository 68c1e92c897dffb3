package engine

import (
	"github.com/plutopoly/backend/internal/game/board"
)

// cardOutcome is what a resolved card hands back to the turn engine.
// FollowUp is a board position the engine must apply after the card resolves
// (the card moved the player again after the dice already did), or -1.
// Removed means the card's payment bankrupted the acting player.
type cardOutcome struct {
	FollowUp int
	Removed  bool
}

// drawCard pulls the next card from a deck cursor, records it for display
// and applies its effect. Cursors are monotonic and wrap, so a deck cycles
// exhaustively before any card repeats. Returns true if the acting player
// was removed.
func (s *GameState) drawCard(catalog *board.Catalog, roller Roller, playerID string, tt board.TileType) bool {
	var card board.Card
	var deck string
	if tt == board.TileChance {
		card = catalog.ChanceCard(s.ChanceCursor)
		s.ChanceCursor++
		deck = "chance"
	} else {
		card = catalog.ChestCard(s.ChestCursor)
		s.ChestCursor++
		deck = "treasury"
	}
	s.DrawnCard = &DrawnCard{Deck: deck, Card: card}

	if p, _ := s.playerByID(playerID); p != nil {
		s.appendLog("%s draws: %s", p.Name, card.Title)
	}

	out := s.applyCard(catalog, roller, playerID, card)
	if out.Removed {
		return true
	}
	if out.FollowUp >= 0 {
		if p, _ := s.playerByID(playerID); p != nil {
			p.Position = out.FollowUp
		}
	}
	return false
}

// applyCard applies exactly one card effect to the acting player. Teleport
// variants compute the forward trail and pass-start bonus here but leave the
// position change to the caller via FollowUp.
func (s *GameState) applyCard(catalog *board.Catalog, roller Roller, playerID string, card board.Card) cardOutcome {
	out := cardOutcome{FollowUp: -1}
	p, _ := s.playerByID(playerID)
	if p == nil {
		return out
	}

	switch card.Effect {
	case board.EffectCollect:
		p.Funds += card.Amount
		s.appendLog("%s collects %d", p.Name, card.Amount)

	case board.EffectPay:
		s.appendLog("%s pays %d", p.Name, card.Amount)
		res := s.pay(playerID, "", card.Amount)
		out.Removed = res.BankruptID == playerID

	case board.EffectGoto:
		target := catalog.TileByID(card.Target)
		if target == nil {
			return out
		}
		path, wrapped := forwardTo(p.Position, target.Position, catalog.Size())
		s.Trail = append(s.Trail, path...)
		if wrapped {
			p.Funds += PassStartBonus
			s.appendLog("%s passes Start and collects %d", p.Name, PassStartBonus)
		}
		s.appendLog("%s moves to %s", p.Name, target.Name)
		out.FollowUp = target.Position

	case board.EffectMove:
		if card.Offset > 0 {
			path, wrapped := forwardSteps(p.Position, card.Offset, catalog.Size())
			s.Trail = append(s.Trail, path...)
			if wrapped {
				p.Funds += PassStartBonus
				s.appendLog("%s passes Start and collects %d", p.Name, PassStartBonus)
			}
			out.FollowUp = path[len(path)-1]
		} else if card.Offset < 0 {
			path := backwardSteps(p.Position, -card.Offset, catalog.Size())
			s.Trail = append(s.Trail, path...)
			out.FollowUp = path[len(path)-1]
		}
		if out.FollowUp >= 0 {
			s.appendLog("%s moves to %s", p.Name, catalog.TileAt(out.FollowUp).Name)
		}

	case board.EffectAdvanceNearest:
		dest := catalog.NearestAhead(p.Position, card.TileType)
		if dest < 0 {
			return out
		}
		path, wrapped := forwardTo(p.Position, dest, catalog.Size())
		s.Trail = append(s.Trail, path...)
		if wrapped {
			p.Funds += PassStartBonus
			s.appendLog("%s passes Start and collects %d", p.Name, PassStartBonus)
		}
		s.appendLog("%s advances to %s", p.Name, catalog.TileAt(dest).Name)
		out.FollowUp = dest

	case board.EffectRepairs:
		fee := s.repairAssessment(catalog, playerID, card.HouseFee, card.HotelFee)
		if fee == 0 {
			s.appendLog("%s owns no developments to repair", p.Name)
			return out
		}
		s.appendLog("%s is assessed %d for repairs", p.Name, fee)
		res := s.pay(playerID, "", fee)
		out.Removed = res.BankruptID == playerID

	case board.EffectJailFree:
		p.HasJailCard = true
		s.appendLog("%s keeps a jail release card", p.Name)

	case board.EffectGoToJail:
		s.sendToJail(catalog, p)

	case board.EffectLuck:
		d1, d2 := roller.Pair()
		if d1 == d2 {
			p.Funds += card.Reward
			s.appendLog("%s rolls %d and %d: doubles, wins %d", p.Name, d1, d2, card.Reward)
		} else {
			s.appendLog("%s rolls %d and %d: no doubles, pays %d", p.Name, d1, d2, card.Penalty)
			res := s.pay(playerID, "", card.Penalty)
			out.Removed = res.BankruptID == playerID
		}
	}

	return out
}

// repairAssessment totals the repair bill across a player's holdings:
// each development level below the landmark tier costs the per-level fee,
// a landmark costs the flat top-tier fee.
func (s *GameState) repairAssessment(catalog *board.Catalog, playerID string, houseFee, hotelFee int) int {
	total := 0
	for _, tileID := range s.ownedTiles(playerID, catalog) {
		ps := s.Properties[tileID]
		switch {
		case ps.Level == MaxLevel:
			total += hotelFee
		case ps.Level > 0:
			total += ps.Level * houseFee
		}
	}
	return total
}
