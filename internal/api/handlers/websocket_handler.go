package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/api/middleware/auth"
	"github.com/plutopoly/backend/internal/config"
	gameWs "github.com/plutopoly/backend/internal/game/websocket"
)

// WebSocketHandler upgrades HTTP connections and hands them to the hub
type WebSocketHandler struct {
	hub    *gameWs.Hub
	logger *zap.SugaredLogger
	cfg    *config.Config
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *gameWs.Hub, cfg *config.Config, logger *zap.SugaredLogger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
		cfg:    cfg,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers connect from a separately hosted frontend.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleConnection handles WebSocket connections for a game room. The path
// "lobby" connects a client to the lobby listing channel instead.
func (h *WebSocketHandler) HandleConnection(c echo.Context) error {
	gameID := strings.ToLower(c.Param("gameId"))
	if gameID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing game ID")
	}
	if gameID == "lobby" {
		gameID = ""
	}

	userID, err := h.authenticate(c)
	if err != nil {
		return err
	}

	sessionID := c.QueryParam("sessionId")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing session ID")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Errorf("Failed to upgrade connection: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to establish WebSocket connection")
	}

	gameWs.NewClient(h.hub, conn, gameID, userID, sessionID)
	h.logger.Infow("WebSocket connection established",
		"gameId", gameID, "player", userID, "session", sessionID)
	return nil
}

// authenticate resolves the user ID from the JWT middleware context, or
// validates the "token" query parameter directly for clients that connect
// without headers.
func (h *WebSocketHandler) authenticate(c echo.Context) (string, error) {
	if id, ok := c.Get("userID").(string); ok && id != "" {
		return id, nil
	}

	tokenString := c.QueryParam("token")
	if tokenString == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: missing token")
	}

	claims, err := auth.ParseToken(tokenString, h.cfg.JWT.Secret)
	if err != nil {
		h.logger.Warnf("WebSocket token validation failed: %v", err)
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: invalid token")
	}
	return claims.UserID, nil
}
