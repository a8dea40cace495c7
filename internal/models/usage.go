package models

import (
	"time"

	"github.com/google/uuid"
)

// MonthKey formats a time as the yyyy-mm usage bucket key in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// UsageMonth is a per-user monthly backup counter.
type UsageMonth struct {
	UserID       uuid.UUID `json:"user_id"`
	Month        string    `json:"month"` // yyyy-mm, UTC
	BackupsCount int       `json:"backups_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UsageSummary is the usage view returned to clients.
type UsageSummary struct {
	Month          string `json:"month"`
	BackupsUsed    int    `json:"backups_used"`
	MonthlyBackups int    `json:"monthly_backups"` // -1 = unlimited
	Remaining      int    `json:"remaining"`       // -1 = unlimited
	Tier           Tier   `json:"tier"`
}
