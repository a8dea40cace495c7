package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/api/middleware"
	"github.com/linkstream/linkstream/internal/auth"
	"github.com/linkstream/linkstream/internal/models"
)

// GDPRStore defines the persistence surface for data export and erasure.
type GDPRStore interface {
	GetBackupsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Backup, error)
	GetUsageMonth(ctx context.Context, userID uuid.UUID, month string) (*models.UsageMonth, error)
	GetTeamByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// GDPRObjects deletes stored archive objects during account erasure.
type GDPRObjects interface {
	Delete(ctx context.Context, key string) error
}

// SubscriptionCanceler cancels an active payment subscription.
type SubscriptionCanceler interface {
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

// GDPRHandler handles data export and account deletion.
type GDPRHandler struct {
	store    GDPRStore
	objects  GDPRObjects
	billing  SubscriptionCanceler
	sessions *auth.SessionStore
	logger   zerolog.Logger
}

// NewGDPRHandler creates a new GDPRHandler.
func NewGDPRHandler(store GDPRStore, objects GDPRObjects, billing SubscriptionCanceler, sessions *auth.SessionStore, logger zerolog.Logger) *GDPRHandler {
	return &GDPRHandler{
		store:    store,
		objects:  objects,
		billing:  billing,
		sessions: sessions,
		logger:   logger.With().Str("component", "gdpr_handler").Logger(),
	}
}

// RegisterRoutes registers data rights routes on the given router group.
func (h *GDPRHandler) RegisterRoutes(r *gin.RouterGroup) {
	gdpr := r.Group("/gdpr")
	{
		gdpr.GET("/export", h.Export)
		gdpr.DELETE("/account", h.DeleteAccount)
	}
}

// Export returns everything stored about the authenticated user as JSON.
//
//	@Summary	Export personal data
//	@Tags		GDPR
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Security	SessionAuth
//	@Router		/gdpr/export [get]
func (h *GDPRHandler) Export(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	ctx := c.Request.Context()

	backups, err := h.store.GetBackupsByOwnerID(ctx, user.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load backups for export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export"})
		return
	}

	export := gin.H{
		"exported_at": time.Now().UTC(),
		"user":        user,
		"backups":     backups,
	}

	if usage, err := h.store.GetUsageMonth(ctx, user.ID, time.Now().UTC().Format("2006-01")); err == nil && usage != nil {
		export["usage_current_month"] = usage
	}
	if user.TeamID != nil {
		if team, err := h.store.GetTeamByID(ctx, *user.TeamID); err == nil {
			export["team"] = team
		}
	}

	c.Header("Content-Disposition", `attachment; filename="linkstream-export.json"`)
	c.JSON(http.StatusOK, export)
}

// DeleteAccount erases the user's account, stored archives, and session.
// Deletion is synchronous so the caller gets a definitive answer.
//
//	@Summary	Delete account and all data
//	@Tags		GDPR
//	@Success	204
//	@Failure	500	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/gdpr/account [delete]
func (h *GDPRHandler) DeleteAccount(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	ctx := c.Request.Context()

	if user.StripeSubscriptionID != "" && h.billing != nil {
		if err := h.billing.CancelSubscription(ctx, user.StripeSubscriptionID); err != nil {
			h.logger.Warn().Err(err).Msg("failed to cancel subscription during erasure")
		}
	}

	backups, err := h.store.GetBackupsByOwnerID(ctx, user.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load backups for erasure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete account"})
		return
	}
	for _, b := range backups {
		for _, key := range []string{b.RawObjectKey, b.ProcessedObjectKey} {
			if key == "" {
				continue
			}
			if err := h.objects.Delete(ctx, key); err != nil {
				h.logger.Error().Err(err).Str("key", key).Msg("failed to delete object during erasure")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete account"})
				return
			}
		}
	}

	// Backup and usage rows go with the user via FK cascade.
	if err := h.store.DeleteUser(ctx, user.ID); err != nil {
		h.logger.Error().Err(err).Msg("failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete account"})
		return
	}

	if err := h.sessions.ClearUser(c.Request, c.Writer); err != nil {
		h.logger.Warn().Err(err).Msg("failed to clear session after erasure")
	}
	c.Status(http.StatusNoContent)
}
