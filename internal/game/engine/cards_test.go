package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plutopoly/backend/internal/game/board"
)

func TestCardCollect(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 500})

	out := s.applyCard(catalog, script(1), "p1", board.Card{Effect: board.EffectCollect, Amount: 150})
	assert.Equal(t, -1, out.FollowUp)
	assert.Equal(t, 650, s.Players[0].Funds)
}

func TestCardPayCanBankrupt(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog,
		Player{ID: "p1", Name: "Alice", Funds: 30},
		Player{ID: "p2", Name: "Bob", Funds: 100},
	)

	out := s.applyCard(catalog, script(1), "p1", board.Card{Effect: board.EffectPay, Amount: 75})
	assert.True(t, out.Removed)
	require.Len(t, s.Players, 1)
	assert.Equal(t, "p2", s.Players[0].ID)
}

func TestCardGotoWrapsPastStart(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 500, Position: 36})

	// Advance to Start from position 36 wraps the origin.
	out := s.applyCard(catalog, script(1), "p1", board.Card{Effect: board.EffectGoto, Target: "start"})
	assert.Equal(t, 0, out.FollowUp)
	assert.Equal(t, 500+PassStartBonus, s.Players[0].Funds)
	assert.Equal(t, []int{37, 38, 39, 0}, s.Trail)
}

func TestCardGotoForwardNoWrap(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 500, Position: 5})

	out := s.applyCard(catalog, script(1), "p1", board.Card{Effect: board.EffectGoto, Target: "lighthouse-avenue"})
	assert.Equal(t, 21, out.FollowUp)
	assert.Equal(t, 500, s.Players[0].Funds)
}

func TestCardMoveBackwardNoBonus(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 500, Position: 2})

	out := s.applyCard(catalog, script(1), "p1", board.Card{Effect: board.EffectMove, Offset: -3})
	assert.Equal(t, 39, out.FollowUp)
	assert.Equal(t, 500, s.Players[0].Funds)
	assert.Equal(t, []int{1, 0, 39}, s.Trail)
}

func TestCardMoveForwardWrapPaysBonus(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 500, Position: 39})

	out := s.applyCard(catalog, script(1), "p1", board.Card{Effect: board.EffectMove, Offset: 2})
	assert.Equal(t, 1, out.FollowUp)
	assert.Equal(t, 500+PassStartBonus, s.Players[0].Funds)
}

func TestCardAdvanceNearestWraps(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 500, Position: 36})

	// Railways sit at 5, 15, 25, 35; from 36 the nearest is 5, past Start.
	out := s.applyCard(catalog, script(1), "p1", board.Card{Effect: board.EffectAdvanceNearest, TileType: board.TileRailway})
	assert.Equal(t, 5, out.FollowUp)
	assert.Equal(t, 500+PassStartBonus, s.Players[0].Funds)
}

func TestCardRepairsAssessment(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 1000})
	s.Properties["old-wharf-lane"] = PropertyState{OwnerID: "p1", Level: 3}
	s.Properties["cannery-row"] = PropertyState{OwnerID: "p1", Level: MaxLevel}
	s.Properties["gullport-avenue"] = PropertyState{OwnerID: "p1"} // undeveloped, free

	out := s.applyCard(catalog, script(1), "p1", board.Card{
		Effect: board.EffectRepairs, HouseFee: 25, HotelFee: 100,
	})
	assert.False(t, out.Removed)
	// 3 levels at 25 plus one landmark at 100.
	assert.Equal(t, 1000-3*25-100, s.Players[0].Funds)
}

func TestCardJailFree(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 500})

	s.applyCard(catalog, script(1), "p1", board.Card{Effect: board.EffectJailFree})
	assert.True(t, s.Players[0].HasJailCard)
}

func TestCardGoToJail(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 500, Position: 36})
	s.DoubleStreak = 1

	out := s.applyCard(catalog, script(1), "p1", board.Card{Effect: board.EffectGoToJail})
	assert.Equal(t, -1, out.FollowUp)
	p := s.Players[0]
	assert.True(t, p.InJail)
	assert.Equal(t, catalog.JailPosition(), p.Position)
	assert.Equal(t, 0, s.DoubleStreak)
	// The pass-through trail crosses Start but earns no bonus.
	assert.Contains(t, s.Trail, 0)
	assert.Equal(t, 500, p.Funds)
}

func TestCardLuck(t *testing.T) {
	catalog := testCatalog(t)
	card := board.Card{Effect: board.EffectLuck, Reward: 100, Penalty: 50}

	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 500})
	s.applyCard(catalog, script(4, 4), "p1", card)
	assert.Equal(t, 600, s.Players[0].Funds)

	s = newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 500})
	s.applyCard(catalog, script(4, 2), "p1", card)
	assert.Equal(t, 450, s.Players[0].Funds)
}

func TestDrawCardAdvancesCursorsIndependently(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 5000})

	s.drawCard(catalog, script(1, 2), "p1", board.TileChest)
	require.NotNil(t, s.DrawnCard)
	assert.Equal(t, "treasury", s.DrawnCard.Deck)
	assert.Equal(t, catalog.ChestCard(0).ID, s.DrawnCard.Card.ID)
	assert.Equal(t, 1, s.ChestCursor)
	assert.Equal(t, 0, s.ChanceCursor)

	s.drawCard(catalog, script(1, 2), "p1", board.TileChest)
	assert.Equal(t, catalog.ChestCard(1).ID, s.DrawnCard.Card.ID)
	assert.Equal(t, 2, s.ChestCursor)
}

func TestDrawCardAppliesFollowUpPosition(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 500, Position: 7})
	// Cursor 0 of the chance deck is Advance to Start.
	require.Equal(t, board.EffectGoto, catalog.ChanceCard(0).Effect)

	removed := s.drawCard(catalog, script(1, 2), "p1", board.TileChance)
	assert.False(t, removed)
	assert.Equal(t, 0, s.Players[0].Position)
	assert.Equal(t, 500+PassStartBonus, s.Players[0].Funds)
}
