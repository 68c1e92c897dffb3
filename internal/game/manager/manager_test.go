package manager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/config"
	"github.com/plutopoly/backend/internal/game/board"
	"github.com/plutopoly/backend/internal/game/engine"
	"github.com/plutopoly/backend/internal/game/models"
	"github.com/plutopoly/backend/internal/game/utils"
)

// newTestManager builds a manager with no storage attached; games live only
// in memory, which is all the lifecycle logic needs.
func newTestManager(t *testing.T) *GameManager {
	t.Helper()

	catalog, err := board.Load()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Game.MaxPlayers = 4
	cfg.Game.MinimumPlayersToStart = 2
	cfg.Game.IdleGameExpiryDuration = 24

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return NewGameManager(ctx, nil, nil, catalog, cfg, zap.NewNop().Sugar())
}

func lobbyWithTwo(t *testing.T, gm *GameManager) *models.Game {
	t.Helper()
	game, err := gm.CreateGame("host", "Alice", "Friday Night", 4)
	require.NoError(t, err)
	_, err = gm.JoinGame(game.ID, "guest", "Bob", "blue", "ship")
	require.NoError(t, err)
	require.NoError(t, gm.SetReady(game.ID, "guest", true))
	return game
}

func TestCreateGameSeatsHost(t *testing.T) {
	gm := newTestManager(t)

	game, err := gm.CreateGame("host", "Alice", "Friday Night", 4)
	require.NoError(t, err)

	assert.Equal(t, models.GameStatusLobby, game.Status)
	assert.True(t, utils.IsValidRoomCode(game.Code))
	require.Len(t, game.Players, 1)
	assert.True(t, game.Players[0].IsHost)
	assert.Equal(t, "host", game.HostID)

	byCode, err := gm.GetGameByCode(game.Code)
	require.NoError(t, err)
	assert.Equal(t, game.ID, byCode.ID)
}

func TestJoinGameGuards(t *testing.T) {
	gm := newTestManager(t)
	game, err := gm.CreateGame("host", "Alice", "Small Table", 2)
	require.NoError(t, err)

	_, err = gm.JoinGame(game.ID, "host", "Alice", "", "")
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	_, err = gm.JoinGame(game.ID, "guest", "Bob", "blue", "ship")
	require.NoError(t, err)

	_, err = gm.JoinGame(game.ID, "third", "Carol", "green", "hat")
	assert.ErrorIs(t, err, ErrGameFull)

	_, err = gm.JoinGame("no-such-game", "guest", "Bob", "", "")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestStartGameRequiresHostAndReadiness(t *testing.T) {
	gm := newTestManager(t)
	game, err := gm.CreateGame("host", "Alice", "Friday Night", 4)
	require.NoError(t, err)

	_, err = gm.StartGame(game.ID, "host")
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = gm.JoinGame(game.ID, "guest", "Bob", "blue", "ship")
	require.NoError(t, err)

	_, err = gm.StartGame(game.ID, "guest")
	assert.ErrorIs(t, err, ErrNotHost)

	_, err = gm.StartGame(game.ID, "host")
	assert.ErrorIs(t, err, ErrPlayersNotReady)

	require.NoError(t, gm.SetReady(game.ID, "guest", true))
	started, err := gm.StartGame(game.ID, "host")
	require.NoError(t, err)

	assert.Equal(t, models.GameStatusActive, started.Status)
	require.NotNil(t, started.State)
	require.Len(t, started.State.Players, 2)
	assert.Equal(t, engine.StartingFunds, started.State.Players[0].Funds)

	// A started game no longer accepts players.
	_, err = gm.JoinGame(game.ID, "late", "Dave", "", "")
	assert.ErrorIs(t, err, ErrGameNotInLobby)
}

func TestProcessGameActionRoutesToEngine(t *testing.T) {
	gm := newTestManager(t)
	game := lobbyWithTwo(t, gm)

	_, err := gm.ProcessGameAction(models.GameAction{
		GameID:   game.ID,
		PlayerID: "host",
		Type:     models.ActionRoll,
	})
	assert.ErrorIs(t, err, ErrGameNotActive)

	_, err = gm.StartGame(game.ID, "host")
	require.NoError(t, err)

	state, err := gm.ProcessGameAction(models.GameAction{
		GameID:   game.ID,
		PlayerID: "host",
		Type:     models.ActionRoll,
	})
	require.NoError(t, err)
	assert.NotEqual(t, [2]int{0, 0}, state.LastRoll)

	_, err = gm.ProcessGameAction(models.GameAction{
		GameID:   game.ID,
		PlayerID: "host",
		Type:     "no-such-action",
	})
	assert.ErrorIs(t, err, ErrUnknownAction)

	snapshot, err := gm.GameSnapshot(game.ID)
	require.NoError(t, err)
	assert.Equal(t, state.LastRoll, snapshot.LastRoll)
}

func TestTradeActionRequiresOffer(t *testing.T) {
	gm := newTestManager(t)
	game := lobbyWithTwo(t, gm)
	_, err := gm.StartGame(game.ID, "host")
	require.NoError(t, err)

	_, err = gm.ProcessGameAction(models.GameAction{
		GameID:   game.ID,
		PlayerID: "host",
		Type:     models.ActionProposeTrade,
	})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestLeaveGameHandsOverHost(t *testing.T) {
	gm := newTestManager(t)
	game := lobbyWithTwo(t, gm)

	require.NoError(t, gm.LeaveGame(game.ID, "host"))

	got, err := gm.GetGame(game.ID)
	require.NoError(t, err)
	require.Len(t, got.Players, 1)
	assert.Equal(t, "guest", got.HostID)
	assert.True(t, got.Players[0].IsHost)

	require.NoError(t, gm.LeaveGame(game.ID, "guest"))
	got, err = gm.GetGame(game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusAbandoned, got.Status)
}

func TestResetGameStatus(t *testing.T) {
	gm := newTestManager(t)
	game := lobbyWithTwo(t, gm)

	err := gm.ResetGameStatus(game.ID, "guest")
	assert.ErrorIs(t, err, ErrGameNotInLobby, "only abandoned games can be reset")

	session := gm.session(game.ID)
	session.mutex.Lock()
	session.Game.Status = models.GameStatusAbandoned
	session.mutex.Unlock()

	require.NoError(t, gm.ResetGameStatus(game.ID, "guest"))

	got, err := gm.GetGame(game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusLobby, got.Status)
	assert.Equal(t, "guest", got.HostID)
	for _, seat := range got.Players {
		assert.False(t, seat.Ready)
	}
}

func TestDisconnectKeepsSeat(t *testing.T) {
	gm := newTestManager(t)
	game := lobbyWithTwo(t, gm)

	gm.PlayerConnected(game.ID, "guest", "session-1")
	gm.PlayerDisconnected(game.ID, "guest")

	got, err := gm.GetGame(game.ID)
	require.NoError(t, err)
	seat := got.PlayerByID("guest")
	require.NotNil(t, seat)
	assert.Equal(t, models.PlayerStatusDisconnected, seat.Status)
	assert.NotNil(t, seat.DisconnectedAt)

	gm.PlayerConnected(game.ID, "guest", "session-2")
	got, err = gm.GetGame(game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerStatusActive, got.PlayerByID("guest").Status)
}

func TestGetActiveGamesListsLobbies(t *testing.T) {
	gm := newTestManager(t)
	lobbyWithTwo(t, gm)

	games := gm.GetActiveGames()
	require.Len(t, games, 1)
	assert.Equal(t, models.GameStatusLobby, games[0].Status)
}
