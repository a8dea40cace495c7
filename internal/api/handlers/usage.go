package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/api/middleware"
	"github.com/linkstream/linkstream/internal/models"
)

// UsageReporter reports the current billing period's consumption.
type UsageReporter interface {
	Summary(ctx context.Context, user *models.User) (*models.UsageSummary, error)
}

// UsageHandler exposes the usage summary endpoint.
type UsageHandler struct {
	meter  UsageReporter
	logger zerolog.Logger
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(meter UsageReporter, logger zerolog.Logger) *UsageHandler {
	return &UsageHandler{
		meter:  meter,
		logger: logger.With().Str("component", "usage_handler").Logger(),
	}
}

// RegisterRoutes registers usage routes on the given router group.
func (h *UsageHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/usage", h.Summary)
}

// Summary returns the caller's usage for the current month.
//
//	@Summary	Get current usage
//	@Tags		Usage
//	@Produce	json
//	@Success	200	{object}	models.UsageSummary
//	@Security	SessionAuth
//	@Router		/usage [get]
func (h *UsageHandler) Summary(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	summary, err := h.meter.Summary(c.Request.Context(), user)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load usage")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load usage"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
