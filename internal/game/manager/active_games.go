package manager

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/plutopoly/backend/internal/game/engine"
	"github.com/plutopoly/backend/internal/game/models"
)

// GetActiveGames returns copies of every game currently in memory that is
// joinable or in progress.
func (gm *GameManager) GetActiveGames() []*models.Game {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	var games []*models.Game
	for _, session := range gm.sessions {
		session.mutex.RLock()
		if session.Game.Status == models.GameStatusLobby || session.Game.Status == models.GameStatusActive {
			games = append(games, copyGame(session.Game))
		}
		session.mutex.RUnlock()
	}
	return games
}

// abandonLobbyGamesOnRestart marks every game still in LOBBY status as
// abandoned. Lobby membership lives in websocket sessions, which a restart
// severs, so stale lobbies would otherwise linger as unjoinable husks.
func (gm *GameManager) abandonLobbyGamesOnRestart() {
	if gm.mongoClient == nil {
		return
	}

	coll := gm.mongoClient.Database(gm.cfg.MongoDB.Database).Collection(gm.cfg.MongoDB.GamesColl)
	result, err := coll.UpdateMany(gm.ctx,
		bson.M{"status": models.GameStatusLobby},
		bson.M{"$set": bson.M{
			"status":    models.GameStatusAbandoned,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		gm.logger.Errorw("Failed to abandon stale lobby games", "error", err)
		return
	}
	if result.ModifiedCount > 0 {
		gm.logger.Infow("Abandoned stale lobby games on restart", "count", result.ModifiedCount)
	}
}

// loadActiveGamesFromDB rebuilds sessions for games that were in progress
// when the server last stopped, resuming each engine from its persisted
// state snapshot.
func (gm *GameManager) loadActiveGamesFromDB() {
	if gm.mongoClient == nil {
		return
	}

	coll := gm.mongoClient.Database(gm.cfg.MongoDB.Database).Collection(gm.cfg.MongoDB.GamesColl)
	cursor, err := coll.Find(gm.ctx, bson.M{"status": models.GameStatusActive})
	if err != nil {
		gm.logger.Errorw("Failed to query active games", "error", err)
		return
	}
	defer cursor.Close(gm.ctx)

	var games []models.Game
	if err := cursor.All(gm.ctx, &games); err != nil {
		gm.logger.Errorw("Failed to decode active games", "error", err)
		return
	}

	gm.mutex.Lock()
	defer gm.mutex.Unlock()
	for i := range games {
		game := games[i]
		if game.State == nil {
			gm.logger.Warnw("Active game has no state snapshot, skipping", "gameId", game.ID)
			continue
		}
		gm.sessions[game.ID] = &GameSession{
			Game:   &game,
			Engine: gm.resumeEngine(game.State),
		}
		gm.logger.Infow("Resumed active game", "gameId", game.ID, "players", len(game.Players))
	}
}

func (gm *GameManager) resumeEngine(state *engine.GameState) *engine.Engine {
	return engine.Resume(gm.catalog, gm.newRoller(), gm.logger, state)
}

// runCleanupTask periodically drops idle games from memory and marks them
// abandoned in storage.
func (gm *GameManager) runCleanupTask() {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			return
		case <-ticker.C:
			gm.cleanupIdleGames()
		}
	}
}

func (gm *GameManager) cleanupIdleGames() {
	expiry := time.Duration(gm.cfg.Game.IdleGameExpiryDuration) * time.Hour
	cutoff := time.Now().Add(-expiry)

	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	for gameID, session := range gm.sessions {
		session.mutex.Lock()
		game := session.Game
		expired := game.LastActivity.Before(cutoff)
		finished := game.Status == models.GameStatusCompleted || game.Status == models.GameStatusAbandoned
		if expired && !finished {
			game.Status = models.GameStatusAbandoned
			game.UpdatedAt = time.Now()
			gm.persistGame(game)
			gm.logger.Infow("Abandoned idle game", "gameId", gameID)
		}
		session.mutex.Unlock()

		if expired || finished {
			delete(gm.sessions, gameID)
		}
	}
}
