package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/api"
	"github.com/plutopoly/backend/internal/config"
	"github.com/plutopoly/backend/internal/game/board"
	"github.com/plutopoly/backend/internal/game/manager"
	"github.com/plutopoly/backend/internal/game/websocket"
)

// TestServerInitialization verifies that the full component graph can be
// wired without backing stores: nil MongoDB and Redis clients keep the
// manager memory-only, which is how the handler tests run too.
func TestServerInitialization(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := zap.NewNop().Sugar()

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.Port, "default server port")

	catalog, err := board.Load()
	require.NoError(t, err)

	gameManager := manager.NewGameManager(ctx, nil, nil, catalog, cfg, logger)
	require.NotNil(t, gameManager)

	hub := websocket.NewHub(ctx, gameManager, logger)
	require.NotNil(t, hub)
	gameManager.SetWebSocketHub(hub)

	server := api.NewServer(cfg, gameManager, hub, nil, nil, logger)
	require.NotNil(t, server)

	// The manager is usable immediately; exercise a lobby round trip.
	game, err := gameManager.CreateGame("host-1", "Host", "Wiring Check", 4)
	require.NoError(t, err)

	fetched, err := gameManager.GetGame(game.ID)
	require.NoError(t, err)
	assert.Equal(t, game.Code, fetched.Code)
}
