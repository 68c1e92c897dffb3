package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/game/manager"
	"github.com/plutopoly/backend/internal/game/models"
)

// GameHandler handles the lobby and game action endpoints
type GameHandler struct {
	gameManager *manager.GameManager
	logger      *zap.SugaredLogger
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(gameManager *manager.GameManager, logger *zap.SugaredLogger) *GameHandler {
	return &GameHandler{
		gameManager: gameManager,
		logger:      logger,
	}
}

// CreateGameRequest represents a create game request
type CreateGameRequest struct {
	GameName   string `json:"gameName" validate:"required"`
	PlayerName string `json:"playerName" validate:"required"`
	MaxPlayers int    `json:"maxPlayers,omitempty"`
}

// JoinGameRequest represents a join game request
type JoinGameRequest struct {
	PlayerName string `json:"playerName" validate:"required"`
	Color      string `json:"color,omitempty"`
	Token      string `json:"token,omitempty"`
}

// ReadyRequest marks the caller ready or not ready
type ReadyRequest struct {
	Ready bool `json:"ready"`
}

// TradeRequest is the body of a trade proposal
type TradeRequest struct {
	ToID      string   `json:"toId" validate:"required"`
	CashGive  int      `json:"cashGive" validate:"gte=0"`
	CashGet   int      `json:"cashGet" validate:"gte=0"`
	TilesGive []string `json:"tilesGive,omitempty"`
	TilesGet  []string `json:"tilesGet,omitempty"`
}

// TileRequest names the tile a property command applies to
type TileRequest struct {
	TileID string `json:"tileId" validate:"required"`
}

// GameSummary is the lobby listing entry
type GameSummary struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	HostName   string `json:"hostName,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// CreateGame creates a new game lobby
func (h *GameHandler) CreateGame(c echo.Context) error {
	var req CreateGameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userID := c.Get("userID").(string)
	game, err := h.gameManager.CreateGame(userID, req.PlayerName, req.GameName, req.MaxPlayers)
	if err != nil {
		h.logger.Errorf("Failed to create game: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create game")
	}

	return c.JSON(http.StatusCreated, game)
}

// ListGames lists joinable and running games
func (h *GameHandler) ListGames(c echo.Context) error {
	games := h.gameManager.GetActiveGames()

	list := make([]GameSummary, 0, len(games))
	for _, game := range games {
		hostName := ""
		if host := game.PlayerByID(game.HostID); host != nil {
			hostName = host.Name
		}
		list = append(list, GameSummary{
			ID:         game.ID,
			Code:       game.Code,
			Name:       game.Name,
			Status:     string(game.Status),
			Players:    game.ActiveCount(),
			MaxPlayers: game.MaxPlayers,
			HostName:   hostName,
			CreatedAt:  game.CreatedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"games": list,
	})
}

// GetGameDetails gets the full game document
func (h *GameHandler) GetGameDetails(c echo.Context) error {
	game, err := h.gameManager.GetGame(c.Param("gameId"))
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, game)
}

// GetGameByCode looks a game up by its room code
func (h *GameHandler) GetGameByCode(c echo.Context) error {
	game, err := h.gameManager.GetGameByCode(c.Param("code"))
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, game)
}

// JoinGame seats the caller in a lobby
func (h *GameHandler) JoinGame(c echo.Context) error {
	var req JoinGameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userID := c.Get("userID").(string)
	game, err := h.gameManager.JoinGame(c.Param("gameId"), userID, req.PlayerName, req.Color, req.Token)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, game)
}

// LeaveGame removes the caller from a lobby
func (h *GameHandler) LeaveGame(c echo.Context) error {
	userID := c.Get("userID").(string)
	if err := h.gameManager.LeaveGame(c.Param("gameId"), userID); err != nil {
		return h.mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetReady toggles the caller's ready flag
func (h *GameHandler) SetReady(c echo.Context) error {
	var req ReadyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	userID := c.Get("userID").(string)
	if err := h.gameManager.SetReady(c.Param("gameId"), userID, req.Ready); err != nil {
		return h.mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StartGame starts a lobby; host only
func (h *GameHandler) StartGame(c echo.Context) error {
	userID := c.Get("userID").(string)
	game, err := h.gameManager.StartGame(c.Param("gameId"), userID)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, game)
}

// ResetGame brings an abandoned game back to the lobby
func (h *GameHandler) ResetGame(c echo.Context) error {
	userID := c.Get("userID").(string)
	if err := h.gameManager.ResetGameStatus(c.Param("gameId"), userID); err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Game has been reset to the lobby",
	})
}

// GetGameState returns the current engine state of an active game
func (h *GameHandler) GetGameState(c echo.Context) error {
	state, err := h.gameManager.GameSnapshot(c.Param("gameId"))
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, state)
}

// RollDice resolves a dice roll for the caller
func (h *GameHandler) RollDice(c echo.Context) error {
	return h.handleAction(c, models.GameAction{Type: models.ActionRoll})
}

// ConfirmPending accepts the outstanding purchase or development offer
func (h *GameHandler) ConfirmPending(c echo.Context) error {
	return h.handleAction(c, models.GameAction{Type: models.ActionConfirmPending})
}

// DeclinePending refuses the outstanding offer
func (h *GameHandler) DeclinePending(c echo.Context) error {
	return h.handleAction(c, models.GameAction{Type: models.ActionDeclinePending})
}

// RequestUpgrade asks to develop an owned tile
func (h *GameHandler) RequestUpgrade(c echo.Context) error {
	return h.tileAction(c, models.ActionUpgrade)
}

// MortgageProperty mortgages an owned, undeveloped tile
func (h *GameHandler) MortgageProperty(c echo.Context) error {
	return h.tileAction(c, models.ActionMortgage)
}

// RedeemProperty lifts a mortgage
func (h *GameHandler) RedeemProperty(c echo.Context) error {
	return h.tileAction(c, models.ActionRedeem)
}

// ProposeTrade raises a trade offer to another player
func (h *GameHandler) ProposeTrade(c echo.Context) error {
	var req TradeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return h.handleAction(c, models.GameAction{
		Type: models.ActionProposeTrade,
		Trade: &models.TradeOffer{
			ToID:      req.ToID,
			CashGive:  req.CashGive,
			CashGet:   req.CashGet,
			TilesGive: req.TilesGive,
			TilesGet:  req.TilesGet,
		},
	})
}

// AcceptTrade executes the outstanding trade offer
func (h *GameHandler) AcceptTrade(c echo.Context) error {
	return h.handleAction(c, models.GameAction{Type: models.ActionAcceptTrade})
}

// RejectTrade clears the outstanding trade offer
func (h *GameHandler) RejectTrade(c echo.Context) error {
	return h.handleAction(c, models.GameAction{Type: models.ActionRejectTrade})
}

// PayJailFine pays the voluntary pre-roll jail fine
func (h *GameHandler) PayJailFine(c echo.Context) error {
	return h.handleAction(c, models.GameAction{Type: models.ActionPayJailFine})
}

// UseJailCard consumes a held release card
func (h *GameHandler) UseJailCard(c echo.Context) error {
	return h.handleAction(c, models.GameAction{Type: models.ActionUseJailCard})
}

// DismissCard clears the displayed drawn card
func (h *GameHandler) DismissCard(c echo.Context) error {
	return h.handleAction(c, models.GameAction{Type: models.ActionDismissCard})
}

// tileAction binds a TileRequest body and routes it as the given action.
func (h *GameHandler) tileAction(c echo.Context, actionType models.ActionType) error {
	var req TileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.handleAction(c, models.GameAction{Type: actionType, TileID: req.TileID})
}

// handleAction routes a command into the manager and returns the resulting
// state snapshot. The engine treats rule violations as no-ops, so a 200
// with an unchanged state is a legitimate outcome.
func (h *GameHandler) handleAction(c echo.Context, action models.GameAction) error {
	action.GameID = c.Param("gameId")
	action.PlayerID = c.Get("userID").(string)

	state, err := h.gameManager.ProcessGameAction(action)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *GameHandler) mapError(err error) error {
	switch {
	case errors.Is(err, manager.ErrGameNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Game not found")
	case errors.Is(err, manager.ErrNotHost):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, manager.ErrGameNotInLobby),
		errors.Is(err, manager.ErrGameNotActive),
		errors.Is(err, manager.ErrGameFull),
		errors.Is(err, manager.ErrNotEnoughPlayers),
		errors.Is(err, manager.ErrPlayersNotReady),
		errors.Is(err, manager.ErrAlreadyJoined),
		errors.Is(err, manager.ErrUnknownAction):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		h.logger.Errorf("Unexpected game handler error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal error")
	}
}
