package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/api/middleware"
	"github.com/linkstream/linkstream/internal/models"
)

// UsersStore persists user profile updates.
type UsersStore interface {
	UpdateUser(ctx context.Context, u *models.User) error
}

// UsersHandler handles the authenticated user's profile endpoints.
type UsersHandler struct {
	store  UsersStore
	logger zerolog.Logger
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(store UsersStore, logger zerolog.Logger) *UsersHandler {
	return &UsersHandler{
		store:  store,
		logger: logger.With().Str("component", "users_handler").Logger(),
	}
}

// RegisterRoutes registers profile routes on the given router group.
func (h *UsersHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.Me)
	r.PATCH("/me", h.UpdateMe)
}

// Me returns the authenticated user's profile.
//
//	@Summary	Get current user
//	@Tags		Users
//	@Produce	json
//	@Success	200	{object}	map[string]models.User
//	@Security	SessionAuth
//	@Router		/me [get]
func (h *UsersHandler) Me(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type updateMeRequest struct {
	Name              *string `json:"name"`
	ReminderFrequency *string `json:"reminder_frequency"`
}

// UpdateMe updates mutable profile fields.
//
//	@Summary	Update current user
//	@Tags		Users
//	@Accept		json
//	@Produce	json
//	@Param		request	body		updateMeRequest	true	"fields to update"
//	@Success	200	{object}	map[string]models.User
//	@Failure	400	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/me [patch]
func (h *UsersHandler) UpdateMe(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		user.Name = name
	}
	if req.ReminderFrequency != nil {
		if !models.IsValidReminderFrequency(*req.ReminderFrequency) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reminder_frequency must be never, monthly, or quarterly"})
			return
		}
		user.ReminderFrequency = models.ReminderFrequency(*req.ReminderFrequency)
	}

	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		h.logger.Error().Err(err).Msg("failed to update user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
