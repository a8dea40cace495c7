package db

import (
	"context"
	"fmt"

	"github.com/linkstream/linkstream/internal/models"
)

// Audit log methods

// CreateAuditLog inserts a new audit log entry.
func (db *DB) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id,
			result, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, log.ID, log.UserID, string(log.Action), log.ResourceType, log.ResourceID,
		string(log.Result), log.IPAddress, log.UserAgent, log.Details, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListAuditLogs returns audit logs, newest first.
func (db *DB) ListAuditLogs(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, action, resource_type, resource_id,
			result, ip_address, user_agent, details, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		var actionStr, resultStr string
		err := rows.Scan(&l.ID, &l.UserID, &actionStr, &l.ResourceType, &l.ResourceID,
			&resultStr, &l.IPAddress, &l.UserAgent, &l.Details, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		l.Action = models.AuditAction(actionStr)
		l.Result = models.AuditResult(resultStr)
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
