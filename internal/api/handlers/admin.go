package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/models"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AdminStore defines the persistence surface for admin operations.
type AdminStore interface {
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUserTier(ctx context.Context, id uuid.UUID, tier models.Tier) error
	ListAuditLogs(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
	CountUsersByTier(ctx context.Context) (map[models.Tier]int64, error)
	CountBackupsByStatus(ctx context.Context) (map[models.BackupStatus]int64, error)
	TotalBackupBytes(ctx context.Context) (int64, error)
}

// AdminHandler handles admin-only HTTP endpoints.
type AdminHandler struct {
	store  AdminStore
	logger zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store AdminStore, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		store:  store,
		logger: logger.With().Str("component", "admin_handler").Logger(),
	}
}

// RegisterRoutes registers admin routes on the given router group. The
// group must already carry the admin middleware.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users", h.ListUsers)
	r.PATCH("/users/:id/tier", h.SetTier)
	r.GET("/audit-logs", h.ListAuditLogs)
	r.GET("/stats", h.Stats)
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = min(v, maxPageSize)
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// ListUsers returns a page of all users.
//
//	@Summary	List users
//	@Tags		Admin
//	@Produce	json
//	@Param		limit	query		int	false	"page size"
//	@Param		offset	query		int	false	"page offset"
//	@Success	200	{object}	map[string][]models.User
//	@Security	SessionAuth
//	@Router		/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, offset := pagination(c)
	users, err := h.store.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type setTierRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// SetTier overrides a user's subscription tier.
//
//	@Summary	Set a user's tier
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"user ID"
//	@Param		request	body		setTierRequest	true	"target tier"
//	@Success	200	{object}	map[string]models.User
//	@Failure	400	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/admin/users/{id}/tier [patch]
func (h *AdminHandler) SetTier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req setTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tier is required"})
		return
	}
	tier := models.Tier(req.Tier)
	if !models.IsValidTier(string(tier)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tier"})
		return
	}

	if err := h.store.UpdateUserTier(c.Request.Context(), id, tier); err != nil {
		h.logger.Error().Err(err).Msg("failed to update tier")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update tier"})
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListAuditLogs returns a page of audit log entries, newest first.
//
//	@Summary	List audit logs
//	@Tags		Admin
//	@Produce	json
//	@Param		limit	query		int	false	"page size"
//	@Param		offset	query		int	false	"page offset"
//	@Success	200	{object}	map[string][]models.AuditLog
//	@Security	SessionAuth
//	@Router		/admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	limit, offset := pagination(c)
	logs, err := h.store.ListAuditLogs(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list audit logs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list audit logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}

// Stats returns platform-wide counts for the admin dashboard.
//
//	@Summary	Platform statistics
//	@Tags		Admin
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Security	SessionAuth
//	@Router		/admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	usersByTier, err := h.store.CountUsersByTier(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to count users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	backupsByStatus, err := h.store.CountBackupsByStatus(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to count backups")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	storageBytes, err := h.store.TotalBackupBytes(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to sum storage")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users_by_tier":     usersByTier,
		"backups_by_status": backupsByStatus,
		"storage_bytes":     storageBytes,
	})
}
