// Package maintenance runs scheduled background jobs: retention cleanup
// of expired backups and export reminder emails.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/models"
	"github.com/linkstream/linkstream/internal/notifications"
)

const (
	// cleanupSchedule runs retention cleanup daily at 03:00.
	cleanupSchedule = "0 3 * * *"
	// reminderSchedule sends export reminders daily at 09:00.
	reminderSchedule = "0 9 * * *"
	// cleanupBatchSize bounds how many expired backups one run removes.
	cleanupBatchSize = 500
)

// Store is the persistence the maintenance jobs need.
type Store interface {
	GetExpiredBackups(ctx context.Context, now time.Time, limit int) ([]*models.Backup, error)
	DeleteBackup(ctx context.Context, id uuid.UUID) error
	GetUsersDueReminder(ctx context.Context, now time.Time) ([]*models.User, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

// ObjectStore deletes stored archive objects.
type ObjectStore interface {
	Delete(ctx context.Context, key string) error
}

// Mailer sends reminder emails.
type Mailer interface {
	SendExportReminder(ctx context.Context, email string, data notifications.ExportReminderData) error
}

// Runner schedules and executes the maintenance jobs.
type Runner struct {
	store   Store
	objects ObjectStore
	mailer  Mailer
	baseURL string
	logger  zerolog.Logger

	cron *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewRunner creates a maintenance runner. A nil mailer disables reminders.
func NewRunner(store Store, objects ObjectStore, mailer Mailer, baseURL string, logger zerolog.Logger) *Runner {
	return &Runner{
		store:   store,
		objects: objects,
		mailer:  mailer,
		baseURL: baseURL,
		logger:  logger.With().Str("component", "maintenance").Logger(),
	}
}

// Start registers the cron schedules and begins running them.
func (r *Runner) Start() error {
	r.cron = cron.New()

	if _, err := r.cron.AddFunc(cleanupSchedule, func() {
		if err := r.RunCleanup(context.Background()); err != nil {
			r.logger.Error().Err(err).Msg("retention cleanup failed")
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule cleanup: %w", err)
	}

	if r.mailer != nil {
		if _, err := r.cron.AddFunc(reminderSchedule, func() {
			if err := r.RunReminders(context.Background()); err != nil {
				r.logger.Error().Err(err).Msg("reminder run failed")
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule reminders: %w", err)
		}
	}

	r.cron.Start()
	r.logger.Info().Msg("maintenance scheduler started")
	return nil
}

// Stop halts the scheduler, waiting for a running job to finish.
func (r *Runner) Stop() {
	if r.cron == nil {
		return
	}
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info().Msg("maintenance scheduler stopped")
}

// RunCleanup removes backups past their retention expiry, deleting both
// object storage artifacts and database rows. Overlapping runs are
// skipped.
func (r *Runner) RunCleanup(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.logger.Warn().Msg("cleanup already running, skipping")
		return nil
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	expired, err := r.store.GetExpiredBackups(ctx, time.Now(), cleanupBatchSize)
	if err != nil {
		return fmt.Errorf("maintenance: list expired backups: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}

	var removed, failed int
	for _, b := range expired {
		if err := r.deleteBackup(ctx, b); err != nil {
			r.logger.Error().Err(err).Str("backup_id", b.ID.String()).Msg("failed to remove expired backup")
			failed++
			continue
		}
		removed++
	}

	r.logger.Info().
		Int("removed", removed).
		Int("failed", failed).
		Msg("retention cleanup finished")
	return nil
}

func (r *Runner) deleteBackup(ctx context.Context, b *models.Backup) error {
	if b.RawObjectKey != "" {
		if err := r.objects.Delete(ctx, b.RawObjectKey); err != nil {
			return fmt.Errorf("delete raw object: %w", err)
		}
	}
	if b.ProcessedObjectKey != "" {
		if err := r.objects.Delete(ctx, b.ProcessedObjectKey); err != nil {
			return fmt.Errorf("delete processed object: %w", err)
		}
	}
	return r.store.DeleteBackup(ctx, b.ID)
}

// RunReminders emails users whose reminder cadence has elapsed and
// stamps them so a user is reminded at most once per cadence window.
func (r *Runner) RunReminders(ctx context.Context) error {
	now := time.Now()
	due, err := r.store.GetUsersDueReminder(ctx, now)
	if err != nil {
		return fmt.Errorf("maintenance: list users due reminder: %w", err)
	}

	var sent int
	for _, user := range due {
		data := notifications.ExportReminderData{
			Name:        user.Name,
			UploadURL:   r.baseURL + "/backups/new",
			Frequency:   string(user.ReminderFrequency),
			RequestedAt: now,
		}
		if user.ReminderLastSentAt != nil {
			data.LastExport = user.ReminderLastSentAt.Format("January 2, 2006")
		}

		if err := r.mailer.SendExportReminder(ctx, user.Email, data); err != nil {
			r.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("reminder email failed")
			continue
		}
		if err := r.store.MarkReminderSent(ctx, user.ID, now); err != nil {
			r.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to stamp reminder")
			continue
		}
		sent++
	}

	if sent > 0 {
		r.logger.Info().Int("sent", sent).Msg("export reminders sent")
	}
	return nil
}
