package engine

// payResult reports the fallout of a payment. RemovedIndex is the bankrupt
// player's index in the list as it was before removal, or -1; BankruptID is
// the removed player's id, or empty.
type payResult struct {
	RemovedIndex int
	BankruptID   string
}

// pay moves amount from payer to receiver. An empty receiverID means the
// bank. A payer who cannot cover the full amount hands over everything they
// have (the creditor never receives more than the debtor held) and goes
// bankrupt. Amounts of zero or less are no-ops.
func (s *GameState) pay(payerID, receiverID string, amount int) payResult {
	res := payResult{RemovedIndex: -1}
	if amount <= 0 {
		return res
	}
	payer, _ := s.playerByID(payerID)
	if payer == nil {
		return res
	}

	if payer.Funds >= amount {
		payer.Funds -= amount
		if receiver, _ := s.playerByID(receiverID); receiver != nil {
			receiver.Funds += amount
		}
		return res
	}

	// Partial payment: the payer is wiped out and leaves the game.
	remaining := payer.Funds
	payer.Funds = 0
	if receiver, _ := s.playerByID(receiverID); receiver != nil {
		receiver.Funds += remaining
	}
	s.appendLog("%s cannot pay %d and goes bankrupt", payer.Name, amount)
	res.RemovedIndex = s.handleBankruptcy(payerID, receiverID)
	res.BankruptID = payerID
	return res
}

// handleBankruptcy removes the bankrupt player and settles their estate:
// every owned tile goes to the creditor if there is one, otherwise back to
// the unowned pool with development and mortgage state cleared. Returns the
// removed player's pre-removal index, or -1 if the id was unknown.
func (s *GameState) handleBankruptcy(bankruptID, creditorID string) int {
	bankrupt, idx := s.playerByID(bankruptID)
	if bankrupt == nil {
		return -1
	}

	for tileID, ps := range s.Properties {
		if ps.OwnerID != bankruptID {
			continue
		}
		if creditorID != "" {
			ps.OwnerID = creditorID
		} else {
			ps = PropertyState{}
		}
		s.Properties[tileID] = ps
	}

	name := bankrupt.Name
	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
	s.TurnIndex = renormalizeTurnIndex(s.TurnIndex, idx, len(s.Players))

	if creditor, _ := s.playerByID(creditorID); creditor != nil {
		s.appendLog("%s's assets pass to %s", name, creditor.Name)
	} else {
		s.appendLog("%s's assets return to the bank", name)
	}
	s.checkWinner()
	return idx
}

// renormalizeTurnIndex shifts a current-turn index after the player at
// removedIndex was deleted from the list, which now has newLen entries.
// Removing a player at or before the current index would otherwise make the
// index point one player too far ahead.
func renormalizeTurnIndex(oldIndex, removedIndex, newLen int) int {
	if newLen <= 0 {
		return 0
	}
	idx := oldIndex
	if removedIndex >= 0 && removedIndex < oldIndex {
		idx--
	}
	idx %= newLen
	if idx < 0 {
		idx += newLen
	}
	return idx
}
