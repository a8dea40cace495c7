package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/linkstream/linkstream/internal/models"
)

// ErrUsageLimitReached means the monthly backup counter is at the tier limit.
var ErrUsageLimitReached = errors.New("monthly backup limit reached")

// Usage methods

// GetUsageMonth returns the usage counter for a user and month.
// A missing row is returned as a zero counter, not an error.
func (db *DB) GetUsageMonth(ctx context.Context, userID uuid.UUID, month string) (*models.UsageMonth, error) {
	var u models.UsageMonth
	err := db.Pool.QueryRow(ctx, `
		SELECT user_id, month, backups_count, updated_at
		FROM usage_months
		WHERE user_id = $1 AND month = $2
	`, userID, month).Scan(&u.UserID, &u.Month, &u.BackupsCount, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.UsageMonth{UserID: userID, Month: month}, nil
		}
		return nil, fmt.Errorf("get usage month: %w", err)
	}
	return &u, nil
}

// IncrementUsage atomically increments the monthly counter, refusing the
// increment when it would exceed limit. A limit below zero is unlimited.
// The check and the increment are a single statement, so concurrent calls
// cannot overshoot the limit.
func (db *DB) IncrementUsage(ctx context.Context, userID uuid.UUID, month string, limit int) error {
	if limit < 0 {
		_, err := db.Pool.Exec(ctx, `
			INSERT INTO usage_months (user_id, month, backups_count, updated_at)
			VALUES ($1, $2, 1, NOW())
			ON CONFLICT (user_id, month)
			DO UPDATE SET backups_count = usage_months.backups_count + 1, updated_at = NOW()
		`, userID, month)
		if err != nil {
			return fmt.Errorf("increment usage: %w", err)
		}
		return nil
	}

	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO usage_months (user_id, month, backups_count, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (user_id, month)
		DO UPDATE SET backups_count = usage_months.backups_count + 1, updated_at = NOW()
		WHERE usage_months.backups_count < $3
	`, userID, month, limit)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUsageLimitReached
	}
	return nil
}

// DecrementUsage releases one unit of usage, e.g. when an upload is never
// confirmed. The counter never goes below zero.
func (db *DB) DecrementUsage(ctx context.Context, userID uuid.UUID, month string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE usage_months
		SET backups_count = GREATEST(backups_count - 1, 0), updated_at = NOW()
		WHERE user_id = $1 AND month = $2
	`, userID, month)
	if err != nil {
		return fmt.Errorf("decrement usage: %w", err)
	}
	return nil
}
