package engine

// proposeTrade stores a peer-to-peer offer if it is well formed: no other
// proposal outstanding, both parties known and distinct, something actually
// on the table, the cash covered, and every listed tile owned by the side
// offering it. A bad proposal changes nothing.
func (s *GameState) proposeTrade(tp TradeProposal) {
	if s.Trade != nil {
		return
	}
	from, _ := s.playerByID(tp.FromID)
	to, _ := s.playerByID(tp.ToID)
	if from == nil || to == nil || tp.FromID == tp.ToID {
		return
	}
	if tp.CashGive <= 0 && tp.CashGet <= 0 && len(tp.TilesGive) == 0 && len(tp.TilesGet) == 0 {
		return
	}
	if !s.tradeSideValid(tp.FromID, tp.CashGive, tp.TilesGive) {
		return
	}
	if !s.tradeSideValid(tp.ToID, tp.CashGet, tp.TilesGet) {
		return
	}

	stored := tp
	stored.TilesGive = append([]string(nil), tp.TilesGive...)
	stored.TilesGet = append([]string(nil), tp.TilesGet...)
	s.Trade = &stored
	s.appendLog("%s proposes a trade to %s", from.Name, to.Name)
}

// acceptTrade executes the outstanding proposal. Only the recipient may
// accept. Funds and ownership are re-validated against the current state —
// it may have drifted since the offer was made — and any mismatch voids the
// trade with no asset movement. On success the cash and every listed tile
// swap atomically.
func (s *GameState) acceptTrade(actorID string) {
	tp := s.Trade
	if tp == nil || actorID != tp.ToID {
		return
	}
	s.Trade = nil

	from, _ := s.playerByID(tp.FromID)
	to, _ := s.playerByID(tp.ToID)
	if from == nil || to == nil {
		s.appendLog("trade cancelled: a party left the game")
		return
	}
	if !s.tradeSideValid(tp.FromID, tp.CashGive, tp.TilesGive) ||
		!s.tradeSideValid(tp.ToID, tp.CashGet, tp.TilesGet) {
		s.appendLog("trade between %s and %s is void", from.Name, to.Name)
		return
	}

	from.Funds += tp.CashGet - tp.CashGive
	to.Funds += tp.CashGive - tp.CashGet
	for _, tileID := range tp.TilesGive {
		ps := s.Properties[tileID]
		ps.OwnerID = tp.ToID
		s.Properties[tileID] = ps
	}
	for _, tileID := range tp.TilesGet {
		ps := s.Properties[tileID]
		ps.OwnerID = tp.FromID
		s.Properties[tileID] = ps
	}
	s.appendLog("%s and %s complete a trade", from.Name, to.Name)
}

// rejectTrade clears the outstanding proposal. The recipient rejects it;
// the sender withdraws it. Anyone else is ignored.
func (s *GameState) rejectTrade(actorID string) {
	tp := s.Trade
	if tp == nil {
		return
	}
	from, _ := s.playerByID(tp.FromID)
	to, _ := s.playerByID(tp.ToID)
	switch actorID {
	case tp.ToID:
		s.Trade = nil
		if from != nil && to != nil {
			s.appendLog("%s rejects the trade from %s", to.Name, from.Name)
		}
	case tp.FromID:
		s.Trade = nil
		if from != nil {
			s.appendLog("%s withdraws the trade offer", from.Name)
		}
	}
}

// tradeSideValid checks one side of a proposal: the cash amount is
// non-negative, the party can cover it, and they still own every tile they
// listed. A negative amount would move money the wrong way.
func (s *GameState) tradeSideValid(playerID string, cash int, tiles []string) bool {
	p, _ := s.playerByID(playerID)
	if p == nil {
		return false
	}
	if cash < 0 || p.Funds < cash {
		return false
	}
	for _, tileID := range tiles {
		if s.Properties[tileID].OwnerID != playerID {
			return false
		}
	}
	return true
}
