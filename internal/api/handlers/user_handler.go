package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/db/mongodb"
)

// UserHandler handles user profile requests
type UserHandler struct {
	logger    *zap.SugaredLogger
	userStore *mongodb.UserStore
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userStore *mongodb.UserStore, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{
		logger:    logger,
		userStore: userStore,
	}
}

// UserProfileResponse represents a user profile response
type UserProfileResponse struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	Username  string `json:"username,omitempty" validate:"omitempty,min=3,max=20"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// GetProfile gets the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID := c.Get("userID").(string)

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	user, err := h.userStore.GetUserByID(c.Request().Context(), oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		h.logger.Errorf("Failed to get user %s: %v", userID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get profile")
	}

	return c.JSON(http.StatusOK, UserProfileResponse{
		UserID:    user.ID.Hex(),
		Username:  user.Username,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	})
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID := c.Get("userID").(string)

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	update := bson.M{}
	if req.Username != "" {
		update["username"] = req.Username
	}
	if req.AvatarURL != "" {
		update["avatarUrl"] = req.AvatarURL
	}
	if len(update) == 0 {
		return c.NoContent(http.StatusNoContent)
	}

	if err := h.userStore.UpdateProfile(c.Request().Context(), oid, update); err != nil {
		h.logger.Errorf("Failed to update profile for user %s: %v", userID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update profile")
	}

	h.logger.Infof("User %s updated profile", userID)
	return c.NoContent(http.StatusNoContent)
}
