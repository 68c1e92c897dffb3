package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/api/middleware/auth"
	"github.com/plutopoly/backend/internal/config"
	"github.com/plutopoly/backend/internal/db/mongodb"
	"github.com/plutopoly/backend/internal/models"
)

// AuthHandler handles registration, login and token refresh
type AuthHandler struct {
	cfg       *config.Config
	logger    *zap.SugaredLogger
	userStore *mongodb.UserStore
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(cfg *config.Config, userStore *mongodb.UserStore, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		cfg:       cfg,
		logger:    logger,
		userStore: userStore,
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=20"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the signed token alongside the account identity
type AuthResponse struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Token    string `json:"token"`
}

// issueToken signs a JWT for the user, mapping signing failure to a 500.
func (h *AuthHandler) issueToken(userID string) (string, error) {
	token, err := auth.GenerateJWT(userID, h.cfg.JWT.Secret, h.cfg.JWT.Expiration)
	if err != nil {
		h.logger.Errorf("Failed to generate JWT for user %s: %v", userID, err)
		return "", echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return token, nil
}

// Register creates an account. Email and username must both be unused; the
// password is stored only as a bcrypt hash.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()

	if _, err := h.userStore.GetUserByEmail(ctx, req.Email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already exists")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		h.logger.Errorf("Failed to check email availability: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to register user")
	}

	if _, err := h.userStore.GetUserByUsername(ctx, req.Username); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this username already exists")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		h.logger.Errorf("Failed to check username availability: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to register user")
	}

	now := time.Now()
	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.HashPassword(req.Password); err != nil {
		h.logger.Errorf("Failed to hash password: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to register user")
	}

	if err := h.userStore.CreateUser(ctx, user); err != nil {
		h.logger.Errorf("Failed to create user: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to register user")
	}
	h.logger.Infow("User registered", "userId", user.ID.Hex(), "username", user.Username)

	token, err := h.issueToken(user.ID.Hex())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, AuthResponse{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	})
}

// Login verifies the password hash and issues a fresh token. Unknown email
// and wrong password return the same message.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userStore.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		h.logger.Errorf("Failed to get user by email: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to log in")
	}

	if !user.CheckPassword(req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	token, err := h.issueToken(user.ID.Hex())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AuthResponse{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	})
}

// RefreshToken reissues a token for the identity the JWT middleware already
// verified.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	userID := c.Get("userID").(string)

	token, err := h.issueToken(userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"token": token,
	})
}

// Logout handles user logout. Tokens are stateless, so there is nothing to
// invalidate server-side; clients drop the token.
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}
