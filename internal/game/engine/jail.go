package engine

// jailOutcome reports how a jailed player's turn begins. CanMove means the
// dice movement for this turn proceeds; Removed means the forced fine
// bankrupted the player out of the game.
type jailOutcome struct {
	CanMove bool
	Removed bool
}

// resolveJail runs the per-turn jail state machine for the current player.
// A held release card frees immediately (card consumed); doubles free with
// movement; otherwise the stay counter ticks up and on the third turn the
// fine is collected by force, releasing the player whether or not they can
// cover it.
func (s *GameState) resolveJail(d1, d2 int) jailOutcome {
	p := s.currentPlayer()
	if p == nil || !p.InJail {
		return jailOutcome{CanMove: true}
	}

	if p.HasJailCard {
		p.HasJailCard = false
		p.InJail = false
		p.JailTurns = 0
		s.appendLog("%s uses a release card and leaves jail", p.Name)
		return jailOutcome{CanMove: true}
	}

	if d1 == d2 {
		p.InJail = false
		p.JailTurns = 0
		s.appendLog("%s rolls doubles and leaves jail", p.Name)
		return jailOutcome{CanMove: true}
	}

	p.JailTurns++
	if p.JailTurns < maxJailTurns {
		s.appendLog("%s stays in jail (turn %d of %d)", p.Name, p.JailTurns, maxJailTurns)
		return jailOutcome{}
	}

	// Third failed turn: the fine is paid whether affordable or not, and the
	// player is released either way.
	id, name := p.ID, p.Name
	p.InJail = false
	p.JailTurns = 0
	s.appendLog("%s pays the %d fine and leaves jail", name, JailFine)
	res := s.pay(id, "", JailFine)
	if res.BankruptID == id {
		return jailOutcome{Removed: true}
	}
	return jailOutcome{CanMove: true}
}
