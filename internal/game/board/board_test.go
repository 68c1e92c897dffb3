package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, Size, c.Size())
	assert.Equal(t, 10, c.JailPosition())

	start := c.TileAt(0)
	assert.Equal(t, TileStart, start.Type)
	assert.Equal(t, "start", start.ID)

	goToJail := c.TileAt(30)
	assert.Equal(t, TileGoToJail, goToJail.Type)
}

func TestTileLookups(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	tile := c.TileByID("royal-crescent")
	require.NotNil(t, tile)
	assert.Equal(t, 39, tile.Position)
	assert.Equal(t, 400, tile.Price)

	assert.Nil(t, c.TileByID("no-such-tile"))

	// Positions wrap in both directions.
	assert.Equal(t, c.TileAt(0), c.TileAt(40))
	assert.Equal(t, c.TileAt(39), c.TileAt(-1))
}

func TestGroupsAreComplete(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Len(t, c.Group("BROWN"), 2)
	assert.Len(t, c.Group("LIGHT_BLUE"), 3)
	assert.Len(t, c.Group("DARK_BLUE"), 2)
	assert.Len(t, c.Group("RAILWAY"), 4)
	assert.Len(t, c.Group("UTILITY"), 2)
	assert.Empty(t, c.Group("NO_SUCH_GROUP"))

	for _, tile := range c.Group("ORANGE") {
		assert.Equal(t, TileProperty, tile.Type)
		assert.Equal(t, "ORANGE", tile.Group)
	}
}

func TestOwnable(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.True(t, c.TileByID("old-wharf-lane").Ownable())
	assert.True(t, c.TileByID("north-ferry").Ownable())
	assert.True(t, c.TileByID("harbor-power").Ownable())
	assert.False(t, c.TileByID("start").Ownable())
	assert.False(t, c.TileByID("income-tax").Ownable())
	assert.False(t, c.TileByID("jail").Ownable())
}

func TestRentSchedule(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	tile := c.TileByID("old-wharf-lane")
	assert.Equal(t, 2, tile.BaseRent())
	assert.Equal(t, 2, tile.RentAt(0))
	assert.Equal(t, 160, tile.RentAt(4))
	assert.Equal(t, 250, tile.RentAt(5))
	// Out-of-range levels clamp to the schedule.
	assert.Equal(t, 250, tile.RentAt(9))
	assert.Equal(t, 2, tile.RentAt(-1))

	utility := c.TileByID("harbor-power")
	assert.Equal(t, 0, utility.BaseRent())
}

func TestNearestAhead(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	// Railways sit at 5, 15, 25, 35.
	assert.Equal(t, 5, c.NearestAhead(0, TileRailway))
	assert.Equal(t, 15, c.NearestAhead(5, TileRailway))
	assert.Equal(t, 5, c.NearestAhead(36, TileRailway)) // wraps past start

	// Utilities sit at 12 and 28.
	assert.Equal(t, 12, c.NearestAhead(0, TileUtility))
	assert.Equal(t, 28, c.NearestAhead(12, TileUtility))
	assert.Equal(t, 12, c.NearestAhead(28, TileUtility)) // wraps past start

	assert.Equal(t, -1, c.NearestAhead(0, TileType("BOGUS")))
}

func TestDeckCursorsCycleExhaustively(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	seen := make(map[string]bool)
	for cursor := 0; cursor < c.ChanceDeckSize(); cursor++ {
		card := c.ChanceCard(cursor)
		assert.False(t, seen[card.ID], "card %s repeated before deck was exhausted", card.ID)
		seen[card.ID] = true
	}
	// The cursor wraps back to the first card only after a full cycle.
	assert.Equal(t, c.ChanceCard(0).ID, c.ChanceCard(c.ChanceDeckSize()).ID)

	seen = make(map[string]bool)
	for cursor := 0; cursor < c.ChestDeckSize(); cursor++ {
		card := c.ChestCard(cursor)
		assert.False(t, seen[card.ID], "card %s repeated before deck was exhausted", card.ID)
		seen[card.ID] = true
	}
}

func TestGotoTargetsResolve(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	for cursor := 0; cursor < c.ChanceDeckSize(); cursor++ {
		card := c.ChanceCard(cursor)
		if card.Effect == EffectGoto {
			assert.NotNil(t, c.TileByID(card.Target), "card %s", card.ID)
		}
	}
	for cursor := 0; cursor < c.ChestDeckSize(); cursor++ {
		card := c.ChestCard(cursor)
		if card.Effect == EffectGoto {
			assert.NotNil(t, c.TileByID(card.Target), "card %s", card.ID)
		}
	}
}
