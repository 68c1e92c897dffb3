package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestUpgradeNeedsFullGroup(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog,
		Player{ID: "p1", Name: "Alice", Funds: 1500},
		Player{ID: "p2", Name: "Bob", Funds: 1500},
	)
	s.Properties["old-wharf-lane"] = PropertyState{OwnerID: "p1"}
	// cannery-row, the rest of BROWN, is unowned.

	s.requestUpgrade(catalog, "p1", "old-wharf-lane")
	assert.Nil(t, s.Pending)

	s.Properties["cannery-row"] = PropertyState{OwnerID: "p1"}
	s.requestUpgrade(catalog, "p1", "old-wharf-lane")
	require.NotNil(t, s.Pending)
	assert.Equal(t, PendingUpgrade, s.Pending.Kind)
	assert.Equal(t, 1, s.Pending.NextLevel)
	assert.Equal(t, 50, s.Pending.Price)
}

func TestUpgradeGuards(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog,
		Player{ID: "p1", Name: "Alice", Funds: 1500},
		Player{ID: "p2", Name: "Bob", Funds: 1500},
	)
	s.Properties["old-wharf-lane"] = PropertyState{OwnerID: "p1"}
	s.Properties["cannery-row"] = PropertyState{OwnerID: "p1"}

	// Not the owner.
	s.requestUpgrade(catalog, "p2", "old-wharf-lane")
	assert.Nil(t, s.Pending)

	// Mortgaged tiles cannot be developed.
	s.Properties["old-wharf-lane"] = PropertyState{OwnerID: "p1", Mortgaged: true}
	s.requestUpgrade(catalog, "p1", "old-wharf-lane")
	assert.Nil(t, s.Pending)

	// Landmark tier is the ceiling.
	s.Properties["old-wharf-lane"] = PropertyState{OwnerID: "p1", Level: MaxLevel}
	s.requestUpgrade(catalog, "p1", "old-wharf-lane")
	assert.Nil(t, s.Pending)

	// Railways have no development track.
	s.Properties["north-ferry"] = PropertyState{OwnerID: "p1"}
	s.requestUpgrade(catalog, "p1", "north-ferry")
	assert.Nil(t, s.Pending)

	// Unknown tile ids are ignored.
	s.requestUpgrade(catalog, "p1", "no-such-tile")
	assert.Nil(t, s.Pending)
}

func TestLandmarkUpgradeCostsDouble(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 1500})
	s.Properties["old-wharf-lane"] = PropertyState{OwnerID: "p1", Level: 4}
	s.Properties["cannery-row"] = PropertyState{OwnerID: "p1"}

	s.requestUpgrade(catalog, "p1", "old-wharf-lane")
	require.NotNil(t, s.Pending)
	assert.Equal(t, MaxLevel, s.Pending.NextLevel)
	assert.Equal(t, 100, s.Pending.Price, "the landmark tier doubles the house fee")
}

func TestConfirmUpgradeKeepsTurnOrder(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog,
		Player{ID: "p1", Name: "Alice", Funds: 1500},
		Player{ID: "p2", Name: "Bob", Funds: 1500},
	)
	s.TurnIndex = 1 // development between rolls, not on the developer's turn
	s.Properties["old-wharf-lane"] = PropertyState{OwnerID: "p1"}
	s.Properties["cannery-row"] = PropertyState{OwnerID: "p1"}

	s.requestUpgrade(catalog, "p1", "old-wharf-lane")
	require.NotNil(t, s.Pending)

	s.confirmPending(catalog)
	assert.Nil(t, s.Pending)
	assert.Equal(t, 1, s.Properties["old-wharf-lane"].Level)
	assert.Equal(t, 1450, s.Players[0].Funds)
	assert.Equal(t, 1, s.TurnIndex)
	assert.Equal(t, 0, s.DoubleStreak)
}

func TestDeclineUpgradeChangesNothing(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog,
		Player{ID: "p1", Name: "Alice", Funds: 1500},
		Player{ID: "p2", Name: "Bob", Funds: 1500},
	)
	s.Properties["old-wharf-lane"] = PropertyState{OwnerID: "p1"}
	s.Properties["cannery-row"] = PropertyState{OwnerID: "p1"}

	s.requestUpgrade(catalog, "p1", "old-wharf-lane")
	require.NotNil(t, s.Pending)

	s.declinePending(catalog)
	assert.Nil(t, s.Pending)
	assert.Equal(t, 0, s.Properties["old-wharf-lane"].Level)
	assert.Equal(t, 1500, s.Players[0].Funds)
	assert.Equal(t, 0, s.TurnIndex)
}

func TestMortgageCreditsValue(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 100})
	s.Properties["north-ferry"] = PropertyState{OwnerID: "p1"}

	s.mortgageTile(catalog, "p1", "north-ferry")
	assert.True(t, s.Properties["north-ferry"].Mortgaged)
	assert.Equal(t, 200, s.Players[0].Funds)
}

func TestMortgageGuards(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog,
		Player{ID: "p1", Name: "Alice", Funds: 100},
		Player{ID: "p2", Name: "Bob", Funds: 100},
	)
	s.Properties["north-ferry"] = PropertyState{OwnerID: "p1"}

	// Not the owner.
	s.mortgageTile(catalog, "p2", "north-ferry")
	assert.False(t, s.Properties["north-ferry"].Mortgaged)

	// Developed tiles cannot be mortgaged.
	s.Properties["old-wharf-lane"] = PropertyState{OwnerID: "p1", Level: 2}
	s.mortgageTile(catalog, "p1", "old-wharf-lane")
	assert.False(t, s.Properties["old-wharf-lane"].Mortgaged)

	// Already mortgaged.
	s.Properties["east-ferry"] = PropertyState{OwnerID: "p1", Mortgaged: true}
	funds := s.Players[0].Funds
	s.mortgageTile(catalog, "p1", "east-ferry")
	assert.Equal(t, funds, s.Players[0].Funds)
}

func TestRedeemCostsTenPercentPremium(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 150})
	s.Properties["north-ferry"] = PropertyState{OwnerID: "p1", Mortgaged: true}

	s.redeemTile(catalog, "p1", "north-ferry")
	assert.False(t, s.Properties["north-ferry"].Mortgaged)
	assert.Equal(t, 150-110, s.Players[0].Funds, "mortgage 100 redeems at 110")
}

func TestRedeemRequiresFunds(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 109})
	s.Properties["north-ferry"] = PropertyState{OwnerID: "p1", Mortgaged: true}

	s.redeemTile(catalog, "p1", "north-ferry")
	assert.True(t, s.Properties["north-ferry"].Mortgaged)
	assert.Equal(t, 109, s.Players[0].Funds)
}

func TestMortgagedTileBlocksUpgradeUntilRedeemed(t *testing.T) {
	catalog := testCatalog(t)
	s := newTestState(catalog, Player{ID: "p1", Name: "Alice", Funds: 1500})
	s.Properties["old-wharf-lane"] = PropertyState{OwnerID: "p1", Mortgaged: true}
	s.Properties["cannery-row"] = PropertyState{OwnerID: "p1"}

	s.requestUpgrade(catalog, "p1", "old-wharf-lane")
	assert.Nil(t, s.Pending)

	s.redeemTile(catalog, "p1", "old-wharf-lane")
	s.requestUpgrade(catalog, "p1", "old-wharf-lane")
	assert.NotNil(t, s.Pending)
}
