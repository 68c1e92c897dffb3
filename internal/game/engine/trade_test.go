package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tradeState(t *testing.T) *GameState {
	t.Helper()
	catalog := testCatalog(t)
	s := newTestState(catalog,
		Player{ID: "p1", Name: "Alice", Funds: 500},
		Player{ID: "p2", Name: "Bob", Funds: 500},
	)
	s.Properties["old-wharf-lane"] = PropertyState{OwnerID: "p1"}
	s.Properties["north-ferry"] = PropertyState{OwnerID: "p2"}
	return s
}

func TestProposeTradeStoresOffer(t *testing.T) {
	s := tradeState(t)

	s.proposeTrade(TradeProposal{
		FromID:    "p1",
		ToID:      "p2",
		TilesGive: []string{"old-wharf-lane"},
		CashGet:   100,
	})
	require.NotNil(t, s.Trade)
	assert.Equal(t, "p1", s.Trade.FromID)
	assert.Equal(t, "p2", s.Trade.ToID)
}

func TestProposeTradeRejections(t *testing.T) {
	cases := []struct {
		name string
		tp   TradeProposal
	}{
		{"unknown recipient", TradeProposal{FromID: "p1", ToID: "ghost", CashGive: 50}},
		{"self trade", TradeProposal{FromID: "p1", ToID: "p1", CashGive: 50}},
		{"empty offer", TradeProposal{FromID: "p1", ToID: "p2"}},
		{"sender lacks cash", TradeProposal{FromID: "p1", ToID: "p2", CashGive: 600}},
		{"recipient lacks cash", TradeProposal{FromID: "p1", ToID: "p2", CashGet: 600}},
		{"sender offers tile they do not own", TradeProposal{FromID: "p1", ToID: "p2", TilesGive: []string{"north-ferry"}}},
		{"asks for tile recipient does not own", TradeProposal{FromID: "p1", ToID: "p2", TilesGet: []string{"old-wharf-lane"}}},
		{"negative cash give", TradeProposal{FromID: "p1", ToID: "p2", CashGive: -100, TilesGive: []string{"old-wharf-lane"}}},
		{"negative cash get", TradeProposal{FromID: "p1", ToID: "p2", CashGet: -100, TilesGet: []string{"north-ferry"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := tradeState(t)
			s.proposeTrade(tc.tp)
			assert.Nil(t, s.Trade)
		})
	}
}

func TestProposeTradeOnlyOneOutstanding(t *testing.T) {
	s := tradeState(t)

	s.proposeTrade(TradeProposal{FromID: "p1", ToID: "p2", CashGive: 50})
	require.NotNil(t, s.Trade)

	s.proposeTrade(TradeProposal{FromID: "p2", ToID: "p1", CashGive: 10})
	assert.Equal(t, "p1", s.Trade.FromID, "a second proposal is rejected while one is pending")
}

func TestAcceptTradeSwapsAtomically(t *testing.T) {
	s := tradeState(t)

	s.proposeTrade(TradeProposal{
		FromID:    "p1",
		ToID:      "p2",
		TilesGive: []string{"old-wharf-lane"},
		CashGet:   100,
	})
	require.NotNil(t, s.Trade)

	s.acceptTrade("p2")
	assert.Nil(t, s.Trade)
	assert.Equal(t, "p2", s.Properties["old-wharf-lane"].OwnerID)
	assert.Equal(t, 600, s.Players[0].Funds)
	assert.Equal(t, 400, s.Players[1].Funds)
}

func TestAcceptTradeOnlyRecipient(t *testing.T) {
	s := tradeState(t)

	s.proposeTrade(TradeProposal{FromID: "p1", ToID: "p2", CashGive: 50})
	s.acceptTrade("p1")
	assert.NotNil(t, s.Trade, "the sender cannot accept their own offer")
	assert.Equal(t, 500, s.Players[0].Funds)
}

func TestAcceptTradeVoidsOnStaleFunds(t *testing.T) {
	s := tradeState(t)

	s.proposeTrade(TradeProposal{
		FromID:    "p1",
		ToID:      "p2",
		TilesGive: []string{"old-wharf-lane"},
		CashGet:   100,
	})
	require.NotNil(t, s.Trade)

	// The recipient's funds drain between offer and acceptance.
	s.Players[1].Funds = 40
	s.acceptTrade("p2")

	assert.Nil(t, s.Trade, "the void offer is cleared")
	assert.Equal(t, "p1", s.Properties["old-wharf-lane"].OwnerID)
	assert.Equal(t, 500, s.Players[0].Funds)
	assert.Equal(t, 40, s.Players[1].Funds)
}

func TestAcceptTradeVoidsOnStaleOwnership(t *testing.T) {
	s := tradeState(t)

	s.proposeTrade(TradeProposal{
		FromID:    "p1",
		ToID:      "p2",
		TilesGive: []string{"old-wharf-lane"},
		CashGet:   100,
	})
	require.NotNil(t, s.Trade)

	// The tile changes hands before acceptance.
	s.Properties["old-wharf-lane"] = PropertyState{OwnerID: "p2"}
	s.acceptTrade("p2")

	assert.Nil(t, s.Trade)
	assert.Equal(t, 500, s.Players[0].Funds)
	assert.Equal(t, 500, s.Players[1].Funds)
}

func TestTradeBothDirections(t *testing.T) {
	s := tradeState(t)

	s.proposeTrade(TradeProposal{
		FromID:    "p1",
		ToID:      "p2",
		CashGive:  150,
		TilesGive: []string{"old-wharf-lane"},
		TilesGet:  []string{"north-ferry"},
	})
	require.NotNil(t, s.Trade)

	s.acceptTrade("p2")
	assert.Equal(t, "p2", s.Properties["old-wharf-lane"].OwnerID)
	assert.Equal(t, "p1", s.Properties["north-ferry"].OwnerID)
	assert.Equal(t, 350, s.Players[0].Funds)
	assert.Equal(t, 650, s.Players[1].Funds)
}

func TestNegativeCashNeverMovesFunds(t *testing.T) {
	s := tradeState(t)
	s.Players[0].Funds = 0
	s.Players[1].Funds = 50

	// A broke sender sweetens a tile offer with negative cash, which would
	// drain the recipient below zero if it went through.
	s.proposeTrade(TradeProposal{
		FromID:    "p1",
		ToID:      "p2",
		CashGive:  -100,
		TilesGive: []string{"old-wharf-lane"},
	})
	assert.Nil(t, s.Trade)

	// Even a proposal smuggled past the entry check is voided at acceptance.
	s.Trade = &TradeProposal{
		FromID:    "p1",
		ToID:      "p2",
		CashGive:  -100,
		TilesGive: []string{"old-wharf-lane"},
	}
	s.acceptTrade("p2")
	assert.Nil(t, s.Trade)
	assert.Equal(t, 0, s.Players[0].Funds)
	assert.Equal(t, 50, s.Players[1].Funds)
	assert.Equal(t, "p1", s.Properties["old-wharf-lane"].OwnerID)
}

func TestRejectAndWithdraw(t *testing.T) {
	s := tradeState(t)

	s.proposeTrade(TradeProposal{FromID: "p1", ToID: "p2", CashGive: 50})
	require.NotNil(t, s.Trade)

	// A bystander cannot clear it.
	s.rejectTrade("ghost")
	assert.NotNil(t, s.Trade)

	// The recipient rejects.
	s.rejectTrade("p2")
	assert.Nil(t, s.Trade)

	// The sender withdraws.
	s.proposeTrade(TradeProposal{FromID: "p1", ToID: "p2", CashGive: 50})
	require.NotNil(t, s.Trade)
	s.rejectTrade("p1")
	assert.Nil(t, s.Trade)
}
