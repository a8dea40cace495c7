package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/linkstream/linkstream/internal/models"
)

// Backup methods

const backupColumns = `id, owner_id, status, raw_object_key, processed_object_key,
	file_size, contains, summary, insights, stats, error_message,
	expires_at, created_at, updated_at, completed_at`

func scanBackup(row pgx.Row) (*models.Backup, error) {
	var b models.Backup
	var statusStr string
	var containsJSON []byte
	var insightsJSON, statsJSON []byte
	err := row.Scan(
		&b.ID, &b.OwnerID, &statusStr, &b.RawObjectKey, &b.ProcessedObjectKey,
		&b.FileSize, &containsJSON, &b.Summary, &insightsJSON, &statsJSON, &b.ErrorMessage,
		&b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt, &b.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = models.BackupStatus(statusStr)
	if len(containsJSON) > 0 {
		if err := json.Unmarshal(containsJSON, &b.Contains); err != nil {
			return nil, fmt.Errorf("unmarshal contains: %w", err)
		}
	}
	if len(insightsJSON) > 0 {
		if err := json.Unmarshal(insightsJSON, &b.Insights); err != nil {
			return nil, fmt.Errorf("unmarshal insights: %w", err)
		}
	}
	if len(statsJSON) > 0 {
		var stats models.ExportStats
		if err := json.Unmarshal(statsJSON, &stats); err != nil {
			return nil, fmt.Errorf("unmarshal stats: %w", err)
		}
		b.Stats = &stats
	}
	return &b, nil
}

// GetBackupByID returns a backup by its ID.
func (db *DB) GetBackupByID(ctx context.Context, id uuid.UUID) (*models.Backup, error) {
	b, err := scanBackup(db.Pool.QueryRow(ctx,
		"SELECT "+backupColumns+" FROM backups WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get backup by ID: %w", err)
	}
	return b, nil
}

// GetBackupsByOwnerID returns a user's backups, newest first.
func (db *DB) GetBackupsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Backup, error) {
	rows, err := db.Pool.Query(ctx,
		"SELECT "+backupColumns+" FROM backups WHERE owner_id = $1 ORDER BY created_at DESC",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var backups []*models.Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		backups = append(backups, b)
	}
	return backups, rows.Err()
}

// CreateBackup creates a new backup record.
func (db *DB) CreateBackup(ctx context.Context, b *models.Backup) error {
	containsJSON, err := b.ContainsJSON()
	if err != nil {
		return fmt.Errorf("marshal contains: %w", err)
	}
	insightsJSON, err := b.InsightsJSON()
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}
	statsJSON, err := b.StatsJSON()
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO backups (id, owner_id, status, raw_object_key, processed_object_key,
			file_size, contains, summary, insights, stats, error_message,
			expires_at, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, b.ID, b.OwnerID, string(b.Status), b.RawObjectKey, b.ProcessedObjectKey,
		b.FileSize, containsJSON, b.Summary, insightsJSON, statsJSON, b.ErrorMessage,
		b.ExpiresAt, b.CreatedAt, b.UpdatedAt, b.CompletedAt)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	return nil
}

// UpdateBackup updates an existing backup record.
func (db *DB) UpdateBackup(ctx context.Context, b *models.Backup) error {
	containsJSON, err := b.ContainsJSON()
	if err != nil {
		return fmt.Errorf("marshal contains: %w", err)
	}
	insightsJSON, err := b.InsightsJSON()
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}
	statsJSON, err := b.StatsJSON()
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE backups
		SET status = $2, processed_object_key = $3, file_size = $4, contains = $5,
			summary = $6, insights = $7, stats = $8, error_message = $9,
			expires_at = $10, updated_at = $11, completed_at = $12
		WHERE id = $1
	`, b.ID, string(b.Status), b.ProcessedObjectKey, b.FileSize, containsJSON,
		b.Summary, insightsJSON, statsJSON, b.ErrorMessage,
		b.ExpiresAt, b.UpdatedAt, b.CompletedAt)
	if err != nil {
		return fmt.Errorf("update backup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBackup deletes a backup record.
func (db *DB) DeleteBackup(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM backups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetExpiredBackups returns backups past their retention expiry.
func (db *DB) GetExpiredBackups(ctx context.Context, now time.Time, limit int) ([]*models.Backup, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Pool.Query(ctx,
		"SELECT "+backupColumns+` FROM backups
		 WHERE expires_at IS NOT NULL AND expires_at < $1
		 ORDER BY expires_at LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired backups: %w", err)
	}
	defer rows.Close()

	var backups []*models.Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		backups = append(backups, b)
	}
	return backups, rows.Err()
}

// CountBackupsByStatus returns the number of backups in each status.
func (db *DB) CountBackupsByStatus(ctx context.Context) (map[models.BackupStatus]int64, error) {
	rows, err := db.Pool.Query(ctx, `SELECT status, COUNT(*) FROM backups GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count backups by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.BackupStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.BackupStatus(status)] = count
	}
	return counts, rows.Err()
}

// TotalBackupBytes returns the total size of stored raw archives.
func (db *DB) TotalBackupBytes(ctx context.Context) (int64, error) {
	var total int64
	err := db.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(file_size), 0) FROM backups WHERE file_size IS NOT NULL`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total backup bytes: %w", err)
	}
	return total, nil
}
