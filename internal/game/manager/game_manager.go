// Package manager owns the game lifecycle: lobbies, seats, starting games,
// routing player actions into the engine and persisting the results.
package manager

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/config"
	"github.com/plutopoly/backend/internal/game/board"
	"github.com/plutopoly/backend/internal/game/dice"
	"github.com/plutopoly/backend/internal/game/engine"
	"github.com/plutopoly/backend/internal/game/models"
	"github.com/plutopoly/backend/internal/game/utils"
)

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameNotInLobby   = errors.New("game is not accepting players")
	ErrGameNotActive    = errors.New("game is not in progress")
	ErrGameFull         = errors.New("game is full")
	ErrNotHost          = errors.New("only the host may do this")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrPlayersNotReady  = errors.New("not all players are ready")
	ErrAlreadyJoined    = errors.New("player already joined this game")
	ErrUnknownAction    = errors.New("unknown action type")
)

// WebSocketHub is the broadcast surface the manager pushes updates through
type WebSocketHub interface {
	BroadcastToGame(gameID string, message []byte)
	BroadcastToLobby(message []byte)
}

// MessageQueue is the async delivery surface for game events
type MessageQueue interface {
	EnqueueGameStart(gameID, hostID string) error
	EnqueueStateUpdate(gameID string, state *engine.GameState) error
	EnqueuePlayerUpdate(gameID string, player models.LobbyPlayer) error
}

// GameSession pairs a game document with its live engine. The engine is nil
// while the game is still in the lobby.
type GameSession struct {
	Game   *models.Game
	Engine *engine.Engine
	mutex  sync.RWMutex
}

// GameManager is responsible for managing game sessions
type GameManager struct {
	ctx         context.Context
	mongoClient *mongo.Client
	redisClient *redis.Client
	logger      *zap.SugaredLogger
	catalog     *board.Catalog
	cfg         *config.Config

	sessions map[string]*GameSession
	mutex    sync.RWMutex

	wsHub        WebSocketHub
	messageQueue MessageQueue
}

// NewGameManager creates a new game manager instance. The MongoDB and Redis
// clients may be nil, in which case games live only in memory.
func NewGameManager(ctx context.Context, mongoClient *mongo.Client, redisClient *redis.Client, catalog *board.Catalog, cfg *config.Config, logger *zap.SugaredLogger) *GameManager {
	gm := &GameManager{
		ctx:         ctx,
		mongoClient: mongoClient,
		redisClient: redisClient,
		logger:      logger,
		catalog:     catalog,
		cfg:         cfg,
		sessions:    make(map[string]*GameSession),
	}

	gm.abandonLobbyGamesOnRestart()
	gm.loadActiveGamesFromDB()

	go gm.runCleanupTask()

	return gm
}

// SetWebSocketHub sets the WebSocket hub for the game manager
func (gm *GameManager) SetWebSocketHub(hub WebSocketHub) {
	gm.wsHub = hub
}

// SetMessageQueue sets the message queue for the game manager
func (gm *GameManager) SetMessageQueue(queue MessageQueue) {
	gm.messageQueue = queue
}

// CreateGame creates a new lobby with the given host seated as its first
// (and host) player.
func (gm *GameManager) CreateGame(hostUserID, hostName, gameName string, maxPlayers int) (*models.Game, error) {
	if maxPlayers <= 0 || maxPlayers > gm.cfg.Game.MaxPlayers {
		maxPlayers = gm.cfg.Game.MaxPlayers
	}

	code, err := utils.GenerateRoomCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	game := &models.Game{
		ID:         uuid.New().String(),
		Code:       code,
		Name:       gameName,
		Status:     models.GameStatusLobby,
		HostID:     hostUserID,
		MaxPlayers: maxPlayers,
		Players: []models.LobbyPlayer{{
			ID:       hostUserID,
			UserID:   hostUserID,
			Name:     hostName,
			IsHost:   true,
			Status:   models.PlayerStatusActive,
			JoinedAt: now,
		}},
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActivity: now,
	}

	gm.mutex.Lock()
	gm.sessions[game.ID] = &GameSession{Game: game}
	gm.mutex.Unlock()

	gm.persistGame(game)
	gm.logger.Infow("Game created", "gameId", game.ID, "code", game.Code, "host", hostUserID)

	return copyGame(game), nil
}

// GetGame returns a copy of the game with the given ID.
func (gm *GameManager) GetGame(gameID string) (*models.Game, error) {
	session := gm.session(gameID)
	if session == nil {
		return nil, ErrGameNotFound
	}
	session.mutex.RLock()
	defer session.mutex.RUnlock()
	return copyGame(session.Game), nil
}

// GetGameByCode returns a copy of the game with the given room code.
func (gm *GameManager) GetGameByCode(code string) (*models.Game, error) {
	if !utils.IsValidRoomCode(code) {
		return nil, ErrGameNotFound
	}

	gm.mutex.RLock()
	defer gm.mutex.RUnlock()
	for _, session := range gm.sessions {
		session.mutex.RLock()
		match := session.Game.Code == code
		var game *models.Game
		if match {
			game = copyGame(session.Game)
		}
		session.mutex.RUnlock()
		if match {
			return game, nil
		}
	}
	return nil, ErrGameNotFound
}

// JoinGame seats a player in a lobby.
func (gm *GameManager) JoinGame(gameID, userID, name, color, token string) (*models.Game, error) {
	session := gm.session(gameID)
	if session == nil {
		return nil, ErrGameNotFound
	}

	session.mutex.Lock()
	defer session.mutex.Unlock()

	game := session.Game
	if game.Status != models.GameStatusLobby {
		return nil, ErrGameNotInLobby
	}
	if game.PlayerByID(userID) != nil {
		return nil, ErrAlreadyJoined
	}
	if game.ActiveCount() >= game.MaxPlayers {
		return nil, ErrGameFull
	}

	game.Players = append(game.Players, models.LobbyPlayer{
		ID:       userID,
		UserID:   userID,
		Name:     name,
		Color:    color,
		Token:    token,
		Status:   models.PlayerStatusActive,
		JoinedAt: time.Now(),
	})
	gm.touch(game)
	gm.persistGame(game)

	gm.logger.Infow("Player joined game", "gameId", gameID, "player", userID)
	gm.broadcastLobbyUpdate(game)

	return copyGame(game), nil
}

// SetReady marks a lobby seat as ready or not ready.
func (gm *GameManager) SetReady(gameID, playerID string, ready bool) error {
	session := gm.session(gameID)
	if session == nil {
		return ErrGameNotFound
	}

	session.mutex.Lock()
	defer session.mutex.Unlock()

	game := session.Game
	if game.Status != models.GameStatusLobby {
		return ErrGameNotInLobby
	}
	seat := game.PlayerByID(playerID)
	if seat == nil {
		return ErrGameNotFound
	}

	seat.Ready = ready
	gm.touch(game)
	gm.persistGame(game)
	gm.broadcastLobbyUpdate(game)

	if gm.messageQueue != nil {
		if err := gm.messageQueue.EnqueuePlayerUpdate(gameID, *seat); err != nil {
			gm.logger.Warnw("Failed to enqueue player update", "gameId", gameID, "error", err)
		}
	}
	return nil
}

// LeaveGame removes a player from a lobby. If the host leaves, the oldest
// remaining seat inherits the lobby.
func (gm *GameManager) LeaveGame(gameID, playerID string) error {
	session := gm.session(gameID)
	if session == nil {
		return ErrGameNotFound
	}

	session.mutex.Lock()
	defer session.mutex.Unlock()

	game := session.Game
	if game.Status != models.GameStatusLobby {
		return ErrGameNotInLobby
	}

	idx := -1
	for i := range game.Players {
		if game.Players[i].ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrGameNotFound
	}

	wasHost := game.Players[idx].IsHost
	game.Players = append(game.Players[:idx], game.Players[idx+1:]...)

	if len(game.Players) == 0 {
		game.Status = models.GameStatusAbandoned
	} else if wasHost {
		game.Players[0].IsHost = true
		game.HostID = game.Players[0].ID
	}

	gm.touch(game)
	gm.persistGame(game)
	gm.broadcastLobbyUpdate(game)

	gm.logger.Infow("Player left game", "gameId", gameID, "player", playerID)
	return nil
}

// StartGame moves a lobby into play: host only, enough seats, everyone
// ready. The lobby seats seed the engine's player list in join order.
func (gm *GameManager) StartGame(gameID, playerID string) (*models.Game, error) {
	session := gm.session(gameID)
	if session == nil {
		return nil, ErrGameNotFound
	}

	session.mutex.Lock()
	defer session.mutex.Unlock()

	game := session.Game
	if game.Status != models.GameStatusLobby {
		return nil, ErrGameNotInLobby
	}
	if game.HostID != playerID {
		return nil, ErrNotHost
	}
	if game.ActiveCount() < gm.cfg.Game.MinimumPlayersToStart {
		return nil, ErrNotEnoughPlayers
	}

	var setups []engine.PlayerSetup
	for i := range game.Players {
		seat := &game.Players[i]
		if seat.Status == models.PlayerStatusLeft {
			continue
		}
		if !seat.Ready && !seat.IsHost {
			return nil, ErrPlayersNotReady
		}
		setups = append(setups, engine.PlayerSetup{
			ID:    seat.ID,
			Name:  seat.Name,
			Color: seat.Color,
			Token: seat.Token,
		})
	}

	session.Engine = engine.New(gm.catalog, gm.newRoller(), gm.logger, setups)
	game.Status = models.GameStatusActive
	game.State = session.Engine.Snapshot()
	gm.touch(game)
	gm.persistGame(game)

	gm.logger.Infow("Game started", "gameId", gameID, "players", len(setups))

	if gm.messageQueue != nil {
		if err := gm.messageQueue.EnqueueGameStart(gameID, game.HostID); err != nil {
			gm.logger.Warnw("Failed to enqueue game start", "gameId", gameID, "error", err)
		}
	}
	gm.broadcastGameEvent(game, "game_started")

	return copyGame(game), nil
}

// ProcessGameAction routes a player command into the engine and returns the
// resulting snapshot. Commands the rules reject leave the state unchanged;
// that unchanged snapshot is still returned.
func (gm *GameManager) ProcessGameAction(action models.GameAction) (*engine.GameState, error) {
	session := gm.session(action.GameID)
	if session == nil {
		return nil, ErrGameNotFound
	}

	session.mutex.Lock()
	defer session.mutex.Unlock()

	game := session.Game
	eng := session.Engine
	if game.Status != models.GameStatusActive || eng == nil {
		return nil, ErrGameNotActive
	}

	var state *engine.GameState
	switch action.Type {
	case models.ActionRoll:
		state = eng.Roll(action.PlayerID)
	case models.ActionConfirmPending:
		state = eng.ConfirmPending(action.PlayerID)
	case models.ActionDeclinePending:
		state = eng.DeclinePending(action.PlayerID)
	case models.ActionUpgrade:
		state = eng.RequestUpgrade(action.PlayerID, action.TileID)
	case models.ActionMortgage:
		state = eng.Mortgage(action.PlayerID, action.TileID)
	case models.ActionRedeem:
		state = eng.Redeem(action.PlayerID, action.TileID)
	case models.ActionProposeTrade:
		if action.Trade == nil {
			return nil, ErrUnknownAction
		}
		state = eng.ProposeTrade(engine.TradeProposal{
			FromID:    action.PlayerID,
			ToID:      action.Trade.ToID,
			CashGive:  action.Trade.CashGive,
			CashGet:   action.Trade.CashGet,
			TilesGive: action.Trade.TilesGive,
			TilesGet:  action.Trade.TilesGet,
		})
	case models.ActionAcceptTrade:
		state = eng.AcceptTrade(action.PlayerID)
	case models.ActionRejectTrade:
		state = eng.RejectTrade(action.PlayerID)
	case models.ActionPayJailFine:
		state = eng.PayJailFine(action.PlayerID)
	case models.ActionUseJailCard:
		state = eng.UseJailCard(action.PlayerID)
	case models.ActionDismissCard:
		state = eng.DismissDrawnCard()
	default:
		return nil, ErrUnknownAction
	}

	game.State = state
	if state.WinnerID != "" && game.Status != models.GameStatusCompleted {
		game.Status = models.GameStatusCompleted
		game.WinnerID = state.WinnerID
		gm.logger.Infow("Game completed", "gameId", game.ID, "winner", state.WinnerID)
	}
	gm.touch(game)
	gm.persistGame(game)
	gm.cacheState(game.ID, state)

	if gm.messageQueue != nil {
		if err := gm.messageQueue.EnqueueStateUpdate(game.ID, state); err != nil {
			gm.logger.Warnw("Failed to enqueue state update", "gameId", game.ID, "error", err)
		}
	}

	return state, nil
}

// cacheState keeps the latest snapshot in Redis so reconnecting clients can
// be served without touching MongoDB.
func (gm *GameManager) cacheState(gameID string, state *engine.GameState) {
	if gm.redisClient == nil {
		return
	}
	payload, err := json.Marshal(state)
	if err != nil {
		gm.logger.Errorw("Failed to marshal state for cache", "gameId", gameID, "error", err)
		return
	}
	key := "game:" + gameID + ":state"
	if err := gm.redisClient.Set(gm.ctx, key, payload, 24*time.Hour).Err(); err != nil {
		gm.logger.Warnw("Failed to cache game state", "gameId", gameID, "error", err)
	}
}

// CachedState returns the last cached snapshot for a game, or nil when the
// cache has no entry.
func (gm *GameManager) CachedState(gameID string) *engine.GameState {
	if gm.redisClient == nil {
		return nil
	}
	payload, err := gm.redisClient.Get(gm.ctx, "game:"+gameID+":state").Bytes()
	if err != nil {
		return nil
	}
	var state engine.GameState
	if err := json.Unmarshal(payload, &state); err != nil {
		gm.logger.Warnw("Failed to decode cached game state", "gameId", gameID, "error", err)
		return nil
	}
	return &state
}

// GameSnapshot returns the current engine state of an active game.
func (gm *GameManager) GameSnapshot(gameID string) (*engine.GameState, error) {
	session := gm.session(gameID)
	if session == nil {
		return nil, ErrGameNotFound
	}

	session.mutex.RLock()
	eng := session.Engine
	session.mutex.RUnlock()

	if eng == nil {
		return nil, ErrGameNotActive
	}
	return eng.Snapshot(), nil
}

// PlayerConnected records a live websocket session for a player.
func (gm *GameManager) PlayerConnected(gameID, playerID, sessionID string) {
	session := gm.session(gameID)
	if session == nil {
		return
	}

	session.mutex.Lock()
	defer session.mutex.Unlock()

	seat := session.Game.PlayerByID(playerID)
	if seat == nil {
		return
	}
	seat.SessionID = sessionID
	seat.Status = models.PlayerStatusActive
	seat.DisconnectedAt = nil
	gm.touch(session.Game)
}

// PlayerDisconnected marks a player's seat as disconnected. The seat is
// kept so the player can rejoin; active games never remove players for
// connectivity reasons.
func (gm *GameManager) PlayerDisconnected(gameID, playerID string) {
	session := gm.session(gameID)
	if session == nil {
		return
	}

	session.mutex.Lock()
	defer session.mutex.Unlock()

	seat := session.Game.PlayerByID(playerID)
	if seat == nil {
		return
	}
	now := time.Now()
	seat.Status = models.PlayerStatusDisconnected
	seat.DisconnectedAt = &now
	seat.SessionID = ""
	gm.touch(session.Game)
	gm.broadcastLobbyUpdate(session.Game)

	gm.logger.Infow("Player disconnected", "gameId", gameID, "player", playerID)
}

func (gm *GameManager) newRoller() engine.Roller {
	return dice.New(nil)
}

func (gm *GameManager) session(gameID string) *GameSession {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()
	return gm.sessions[gameID]
}

func (gm *GameManager) touch(game *models.Game) {
	now := time.Now()
	game.UpdatedAt = now
	game.LastActivity = now
}

// persistGame writes the game document through to MongoDB. Callers hold the
// session lock. Without a MongoDB client games are memory-only.
func (gm *GameManager) persistGame(game *models.Game) {
	if gm.mongoClient == nil {
		return
	}

	coll := gm.mongoClient.Database(gm.cfg.MongoDB.Database).Collection(gm.cfg.MongoDB.GamesColl)
	opts := options.Replace().SetUpsert(true)
	if _, err := coll.ReplaceOne(gm.ctx, bson.M{"_id": game.ID}, game, opts); err != nil {
		gm.logger.Errorw("Failed to persist game", "gameId", game.ID, "error", err)
	}
}

// broadcastGameEvent pushes a typed event with the full game document to
// every client in the game room.
func (gm *GameManager) broadcastGameEvent(game *models.Game, event string) {
	if gm.wsHub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"type": event,
		"game": game,
	})
	if err != nil {
		gm.logger.Errorw("Failed to marshal game event", "gameId", game.ID, "error", err)
		return
	}
	gm.wsHub.BroadcastToGame(game.ID, payload)
}

func (gm *GameManager) broadcastLobbyUpdate(game *models.Game) {
	gm.broadcastGameEvent(game, "lobby_update")
}

func copyGame(game *models.Game) *models.Game {
	c := *game
	c.Players = append([]models.LobbyPlayer(nil), game.Players...)
	if game.State != nil {
		c.State = game.State.Clone()
	}
	return &c
}
