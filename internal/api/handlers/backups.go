package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/api/middleware"
	"github.com/linkstream/linkstream/internal/db"
	"github.com/linkstream/linkstream/internal/metrics"
	"github.com/linkstream/linkstream/internal/models"
	"github.com/linkstream/linkstream/internal/notifications"
	"github.com/linkstream/linkstream/internal/storage"
)

// BackupsStore defines the interface for backup persistence operations.
type BackupsStore interface {
	GetBackupByID(ctx context.Context, id uuid.UUID) (*models.Backup, error)
	GetBackupsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Backup, error)
	CreateBackup(ctx context.Context, b *models.Backup) error
	UpdateBackup(ctx context.Context, b *models.Backup) error
	DeleteBackup(ctx context.Context, id uuid.UUID) error
}

// BackupObjects is the object storage surface the backups handler needs.
type BackupObjects interface {
	PresignUpload(ctx context.Context, key string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
	Head(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
}

// UsageMeter enforces monthly backup quotas.
type UsageMeter interface {
	CanCreateBackup(ctx context.Context, user *models.User) (bool, error)
	RecordBackupUsage(ctx context.Context, user *models.User) error
	ReleaseBackupUsage(ctx context.Context, user *models.User) error
}

// Analyzer runs the export analysis pipeline for an uploaded backup.
type Analyzer interface {
	Process(ctx context.Context, backup *models.Backup) error
}

// CompletionMailer notifies users when analysis finishes.
type CompletionMailer interface {
	SendAnalysisComplete(ctx context.Context, email string, data notifications.AnalysisCompleteData) error
}

// BackupsHandler handles backup-related HTTP endpoints.
type BackupsHandler struct {
	store    BackupsStore
	objects  BackupObjects
	meter    UsageMeter
	analyzer Analyzer
	mailer   CompletionMailer
	baseURL  string
	logger   zerolog.Logger
}

// NewBackupsHandler creates a new BackupsHandler. A nil mailer disables
// completion emails.
func NewBackupsHandler(store BackupsStore, objects BackupObjects, meter UsageMeter, analyzer Analyzer, mailer CompletionMailer, baseURL string, logger zerolog.Logger) *BackupsHandler {
	return &BackupsHandler{
		store:    store,
		objects:  objects,
		meter:    meter,
		analyzer: analyzer,
		mailer:   mailer,
		baseURL:  baseURL,
		logger:   logger.With().Str("component", "backups_handler").Logger(),
	}
}

// RegisterRoutes registers backup routes on the given router group.
func (h *BackupsHandler) RegisterRoutes(r *gin.RouterGroup) {
	backups := r.Group("/backups")
	{
		backups.POST("", h.Create)
		backups.GET("", h.List)
		backups.GET("/:id", h.Get)
		backups.POST("/:id/complete", h.CompleteUpload)
		backups.GET("/:id/insights", h.Insights)
		backups.GET("/:id/summary", h.Summary)
		backups.GET("/:id/download", h.Download)
		backups.DELETE("/:id", h.Delete)
	}
}

// Create reserves quota and issues a presigned upload URL for a new export.
//
//	@Summary		Start a backup upload
//	@Description	Consumes one unit of the monthly quota and returns a presigned PUT URL for the export archive.
//	@Tags			Backups
//	@Produce		json
//	@Success		201	{object}	map[string]any
//	@Failure		401	{object}	map[string]string
//	@Failure		429	{object}	map[string]string
//	@Security		SessionAuth
//	@Router			/backups [post]
func (h *BackupsHandler) Create(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	ok, err := h.meter.CanCreateBackup(c.Request.Context(), user)
	if err != nil {
		h.logger.Error().Err(err).Msg("quota check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check quota"})
		return
	}
	if !ok {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "monthly backup limit reached for your plan"})
		return
	}

	limits := models.LimitsForTier(user.Tier)
	backup := models.NewBackup(user.ID, "", limits.RetentionDays)
	backup.RawObjectKey = storage.RawKey(user.ID, backup.ID)

	// The atomic increment is the authoritative limit check.
	if err := h.meter.RecordBackupUsage(c.Request.Context(), user); err != nil {
		if errors.Is(err, db.ErrUsageLimitReached) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "monthly backup limit reached for your plan"})
			return
		}
		h.logger.Error().Err(err).Msg("failed to record usage")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record usage"})
		return
	}

	if err := h.store.CreateBackup(c.Request.Context(), backup); err != nil {
		h.logger.Error().Err(err).Msg("failed to create backup")
		if rerr := h.meter.ReleaseBackupUsage(c.Request.Context(), user); rerr != nil {
			h.logger.Error().Err(rerr).Msg("failed to release quota after create failure")
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create backup"})
		return
	}

	uploadURL, err := h.objects.PresignUpload(c.Request.Context(), backup.RawObjectKey)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to presign upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create upload URL"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"backup":           backup,
		"upload_url":       uploadURL,
		"max_upload_bytes": limits.MaxUploadBytes,
	})
}

// List returns the authenticated user's backups, newest first.
//
//	@Summary	List backups
//	@Tags		Backups
//	@Produce	json
//	@Success	200	{object}	map[string][]models.Backup
//	@Security	SessionAuth
//	@Router		/backups [get]
func (h *BackupsHandler) List(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	backups, err := h.store.GetBackupsByOwnerID(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list backups")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list backups"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"backups": backups})
}

// getOwnedBackup loads a backup and verifies the caller owns it. Admins
// may access any backup. Responds and returns nil on failure.
func (h *BackupsHandler) getOwnedBackup(c *gin.Context, user *models.User) *models.Backup {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid backup id"})
		return nil
	}

	backup, err := h.store.GetBackupByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "backup not found"})
		return nil
	}
	if backup.OwnerID != user.ID && !user.IsAdmin() {
		// 404 instead of 403 so IDs cannot be probed.
		c.JSON(http.StatusNotFound, gin.H{"error": "backup not found"})
		return nil
	}
	return backup
}

// Get returns a single backup with its summary, insights, and stats.
//
//	@Summary	Get a backup
//	@Tags		Backups
//	@Produce	json
//	@Param		id	path		string	true	"backup ID"
//	@Success	200	{object}	map[string]models.Backup
//	@Failure	404	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/backups/{id} [get]
func (h *BackupsHandler) Get(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	backup := h.getOwnedBackup(c, user)
	if backup == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"backup": backup})
}

// CompleteUpload confirms the archive landed in object storage and
// starts analysis in the background.
//
//	@Summary	Confirm upload and start analysis
//	@Tags		Backups
//	@Produce	json
//	@Param		id	path		string	true	"backup ID"
//	@Success	202	{object}	map[string]models.Backup
//	@Failure	404	{object}	map[string]string
//	@Failure	409	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/backups/{id}/complete [post]
func (h *BackupsHandler) CompleteUpload(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	backup := h.getOwnedBackup(c, user)
	if backup == nil {
		return
	}
	if backup.Status != models.BackupStatusPendingUpload {
		c.JSON(http.StatusConflict, gin.H{"error": "backup is not awaiting upload"})
		return
	}

	size, err := h.objects.Head(c.Request.Context(), backup.RawObjectKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "archive not found in storage; upload it first"})
		return
	}

	limits := models.LimitsForTier(user.Tier)
	if size > limits.MaxUploadBytes {
		backup.Fail("archive exceeds the size limit for your plan")
		if uerr := h.store.UpdateBackup(c.Request.Context(), backup); uerr != nil {
			h.logger.Error().Err(uerr).Msg("failed to persist size rejection")
		}
		if derr := h.objects.Delete(c.Request.Context(), backup.RawObjectKey); derr != nil {
			h.logger.Warn().Err(derr).Msg("failed to delete oversized archive")
		}
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "archive exceeds the size limit for your plan"})
		return
	}

	backup.MarkUploaded(size)
	if err := h.store.UpdateBackup(c.Request.Context(), backup); err != nil {
		h.logger.Error().Err(err).Msg("failed to mark backup uploaded")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update backup"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"backup": backup})

	go h.runAnalysis(backup, user.Email, user.Name)
}

// runAnalysis executes the pipeline outside the request lifecycle.
func (h *BackupsHandler) runAnalysis(backup *models.Backup, email, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	start := time.Now()
	err := h.analyzer.Process(ctx, backup)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("failed").Inc()
		return
	}
	metrics.AnalysesTotal.WithLabelValues("completed").Inc()

	if h.mailer != nil {
		data := notifications.AnalysisCompleteData{
			Name:         name,
			InsightCount: len(backup.Insights),
			BackupURL:    h.baseURL + "/backups/" + backup.ID.String(),
		}
		if backup.Stats != nil {
			data.Connections = backup.Stats.Connections
		}
		if err := h.mailer.SendAnalysisComplete(ctx, email, data); err != nil {
			h.logger.Warn().Err(err).Str("backup_id", backup.ID.String()).Msg("completion email failed")
		}
	}
}

// Insights returns the deterministic insight list for a completed backup.
//
//	@Summary	Get backup insights
//	@Tags		Backups
//	@Produce	json
//	@Param		id	path		string	true	"backup ID"
//	@Success	200	{object}	map[string]any
//	@Failure	409	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/backups/{id}/insights [get]
func (h *BackupsHandler) Insights(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	backup := h.getOwnedBackup(c, user)
	if backup == nil {
		return
	}
	if backup.Status != models.BackupStatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "analysis has not completed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": backup.Insights, "stats": backup.Stats})
}

// Summary returns the generated summary text for a completed backup.
//
//	@Summary	Get backup summary
//	@Tags		Backups
//	@Produce	json
//	@Param		id	path		string	true	"backup ID"
//	@Success	200	{object}	map[string]string
//	@Failure	409	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/backups/{id}/summary [get]
func (h *BackupsHandler) Summary(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	backup := h.getOwnedBackup(c, user)
	if backup == nil {
		return
	}
	if backup.Status != models.BackupStatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "analysis has not completed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": backup.Summary})
}

// Download returns a presigned URL for the processed document.
//
//	@Summary	Download processed export
//	@Tags		Backups
//	@Produce	json
//	@Param		id	path		string	true	"backup ID"
//	@Success	200	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Failure	409	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/backups/{id}/download [get]
func (h *BackupsHandler) Download(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	backup := h.getOwnedBackup(c, user)
	if backup == nil {
		return
	}
	if backup.Status != models.BackupStatusCompleted || backup.ProcessedObjectKey == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "backup has no processed document yet"})
		return
	}

	url, err := h.objects.PresignDownload(c.Request.Context(), backup.ProcessedObjectKey)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to presign download")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create download URL"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"download_url": url})
}

// Delete removes a backup and its stored objects.
//
//	@Summary	Delete a backup
//	@Tags		Backups
//	@Param		id	path	string	true	"backup ID"
//	@Success	204
//	@Failure	404	{object}	map[string]string
//	@Security	SessionAuth
//	@Router		/backups/{id} [delete]
func (h *BackupsHandler) Delete(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	backup := h.getOwnedBackup(c, user)
	if backup == nil {
		return
	}

	for _, key := range []string{backup.RawObjectKey, backup.ProcessedObjectKey} {
		if key == "" {
			continue
		}
		if err := h.objects.Delete(c.Request.Context(), key); err != nil {
			h.logger.Error().Err(err).Str("key", key).Msg("failed to delete object")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete backup"})
			return
		}
	}

	if err := h.store.DeleteBackup(c.Request.Context(), backup.ID); err != nil {
		h.logger.Error().Err(err).Msg("failed to delete backup")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete backup"})
		return
	}
	c.Status(http.StatusNoContent)
}
