package manager

import (
	"time"

	"github.com/plutopoly/backend/internal/game/models"
)

// ResetGameStatus brings an abandoned game back to the lobby so its players
// can regroup. The requesting player becomes the new host; engine state is
// discarded, a reset game starts over.
func (gm *GameManager) ResetGameStatus(gameID, requestingPlayerID string) error {
	session := gm.session(gameID)
	if session == nil {
		return ErrGameNotFound
	}

	session.mutex.Lock()
	defer session.mutex.Unlock()

	game := session.Game
	if game.Status != models.GameStatusAbandoned {
		return ErrGameNotInLobby
	}

	now := time.Now()
	game.Status = models.GameStatusLobby
	game.HostID = requestingPlayerID
	game.State = nil
	game.WinnerID = ""
	for i := range game.Players {
		seat := &game.Players[i]
		seat.Ready = false
		seat.IsHost = seat.ID == requestingPlayerID
		if seat.Status == models.PlayerStatusDisconnected {
			seat.Status = models.PlayerStatusActive
			seat.DisconnectedAt = nil
		}
	}
	session.Engine = nil
	game.UpdatedAt = now
	game.LastActivity = now

	gm.persistGame(game)
	gm.broadcastLobbyUpdate(game)

	gm.logger.Infow("Game reset to lobby", "gameId", gameID, "newHost", requestingPlayerID)
	return nil
}
