package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/api/middleware/auth"
	"github.com/plutopoly/backend/internal/config"
)

func newWSHandler() *WebSocketHandler {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	return NewWebSocketHandler(nil, cfg, zap.NewNop().Sugar())
}

func wsContext(t *testing.T, target, gameID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if gameID != "" {
		c.SetParamNames("gameId")
		c.SetParamValues(gameID)
	}
	return c, rec
}

func TestHandleConnectionMissingGameID(t *testing.T) {
	h := newWSHandler()
	c, _ := wsContext(t, "/api/v1/ws/?sessionId=s1", "")

	err := h.HandleConnection(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestHandleConnectionMissingToken(t *testing.T) {
	h := newWSHandler()
	c, _ := wsContext(t, "/api/v1/ws/game123?sessionId=s1", "game123")

	err := h.HandleConnection(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestHandleConnectionMissingSessionID(t *testing.T) {
	h := newWSHandler()
	c, _ := wsContext(t, "/api/v1/ws/game123", "game123")
	c.Set("userID", "user123")

	err := h.HandleConnection(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestAuthenticatePrefersContextUser(t *testing.T) {
	h := newWSHandler()
	c, _ := wsContext(t, "/api/v1/ws/game123?sessionId=s1", "game123")
	c.Set("userID", "from-middleware")

	userID, err := h.authenticate(c)
	require.NoError(t, err)
	assert.Equal(t, "from-middleware", userID)
}

func TestAuthenticateFromQueryToken(t *testing.T) {
	h := newWSHandler()

	token, err := auth.GenerateJWT("user123", "test-secret", 1)
	require.NoError(t, err)

	c, _ := wsContext(t, "/api/v1/ws/game123?sessionId=s1&token="+token, "game123")
	userID, err := h.authenticate(c)
	require.NoError(t, err)
	assert.Equal(t, "user123", userID)
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	h := newWSHandler()
	c, _ := wsContext(t, "/api/v1/ws/game123?sessionId=s1&token=not-a-token", "game123")

	_, err := h.authenticate(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJWTMiddlewareForWebsocket(t *testing.T) {
	e := echo.New()
	jwtMiddleware := auth.JWTMiddleware("test-secret")

	token, err := auth.GenerateJWT("test-user", "test-secret", 1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws/game123", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handlerFunc := func(c echo.Context) error {
		called = true
		userID, ok := c.Get("userID").(string)
		require.True(t, ok)
		assert.Equal(t, "test-user", userID)
		return c.String(http.StatusOK, "success")
	}

	require.NoError(t, jwtMiddleware(handlerFunc)(c))
	assert.True(t, called)
}

func TestJWTMiddlewareMissingToken(t *testing.T) {
	e := echo.New()
	jwtMiddleware := auth.JWTMiddleware("test-secret")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws/game123", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := jwtMiddleware(func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})(c)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
