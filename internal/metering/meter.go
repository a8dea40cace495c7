// Package metering enforces per-tier monthly backup limits.
package metering

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/models"
)

// Store is the usage persistence the meter needs.
type Store interface {
	GetUsageMonth(ctx context.Context, userID uuid.UUID, month string) (*models.UsageMonth, error)
	IncrementUsage(ctx context.Context, userID uuid.UUID, month string, limit int) error
	DecrementUsage(ctx context.Context, userID uuid.UUID, month string) error
}

// Meter tracks and enforces monthly backup quotas per user.
type Meter struct {
	store  Store
	logger zerolog.Logger
	// now is swappable for tests.
	now func() time.Time
}

// New creates a Meter.
func New(store Store, logger zerolog.Logger) *Meter {
	return &Meter{
		store:  store,
		logger: logger.With().Str("component", "metering").Logger(),
		now:    time.Now,
	}
}

// CanCreateBackup reports whether the user has quota left this month.
// This is an advisory read; RecordBackupUsage holds the authoritative
// atomic check, so a concurrent caller can never exceed the limit even
// when this read races.
func (m *Meter) CanCreateBackup(ctx context.Context, user *models.User) (bool, error) {
	limits := models.LimitsForTier(user.Tier)
	if limits.MonthlyBackups == models.UnlimitedBackups {
		return true, nil
	}

	usage, err := m.store.GetUsageMonth(ctx, user.ID, models.MonthKey(m.now()))
	if err != nil {
		return false, fmt.Errorf("metering: read usage: %w", err)
	}
	return usage.BackupsCount < limits.MonthlyBackups, nil
}

// RecordBackupUsage consumes one unit of the user's monthly quota.
// Returns db.ErrUsageLimitReached (wrapped) when the quota is exhausted.
func (m *Meter) RecordBackupUsage(ctx context.Context, user *models.User) error {
	limits := models.LimitsForTier(user.Tier)
	month := models.MonthKey(m.now())

	if err := m.store.IncrementUsage(ctx, user.ID, month, limits.MonthlyBackups); err != nil {
		return err
	}

	m.logger.Debug().
		Str("user_id", user.ID.String()).
		Str("month", month).
		Str("tier", string(user.Tier)).
		Msg("backup usage recorded")
	return nil
}

// ReleaseBackupUsage returns one unit of quota, used when a metered
// backup is abandoned before its upload is confirmed.
func (m *Meter) ReleaseBackupUsage(ctx context.Context, user *models.User) error {
	return m.store.DecrementUsage(ctx, user.ID, models.MonthKey(m.now()))
}

// Summary returns the user's current-month usage against their tier limit.
func (m *Meter) Summary(ctx context.Context, user *models.User) (*models.UsageSummary, error) {
	limits := models.LimitsForTier(user.Tier)
	month := models.MonthKey(m.now())

	usage, err := m.store.GetUsageMonth(ctx, user.ID, month)
	if err != nil {
		return nil, fmt.Errorf("metering: read usage: %w", err)
	}

	remaining := models.UnlimitedBackups
	if limits.MonthlyBackups != models.UnlimitedBackups {
		remaining = limits.MonthlyBackups - usage.BackupsCount
		if remaining < 0 {
			remaining = 0
		}
	}

	return &models.UsageSummary{
		Month:          month,
		BackupsUsed:    usage.BackupsCount,
		MonthlyBackups: limits.MonthlyBackups,
		Remaining:      remaining,
		Tier:           user.Tier,
	}, nil
}
