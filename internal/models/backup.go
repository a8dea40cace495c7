package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BackupStatus tracks a backup through its upload and analysis lifecycle.
type BackupStatus string

const (
	// BackupStatusPendingUpload means an upload URL was issued but no object confirmed yet.
	BackupStatusPendingUpload BackupStatus = "pending_upload"
	// BackupStatusUploaded means the raw archive is in object storage.
	BackupStatusUploaded BackupStatus = "uploaded"
	// BackupStatusProcessing means analysis is running.
	BackupStatusProcessing BackupStatus = "processing"
	// BackupStatusCompleted means summary and insights are available.
	BackupStatusCompleted BackupStatus = "completed"
	// BackupStatusFailed means analysis failed; ErrorMessage holds the cause.
	BackupStatusFailed BackupStatus = "failed"
)

// Contains records which LinkedIn export sections were present in the archive.
type Contains struct {
	Connections bool `json:"connections"`
	Positions   bool `json:"positions"`
	Profile     bool `json:"profile"`
	Skills      bool `json:"skills"`
	Messages    bool `json:"messages"`
	Shares      bool `json:"shares"`
	Invitations bool `json:"invitations"`
}

// Backup represents one uploaded LinkedIn export and its derived artifacts.
type Backup struct {
	ID                 uuid.UUID    `json:"id"`
	OwnerID            uuid.UUID    `json:"owner_id"`
	Status             BackupStatus `json:"status"`
	RawObjectKey       string       `json:"raw_object_key"`
	ProcessedObjectKey string       `json:"processed_object_key,omitempty"`
	FileSize           *int64       `json:"file_size,omitempty"`
	Contains           Contains     `json:"contains"`
	Summary            string       `json:"summary,omitempty"`
	Insights           []string     `json:"insights,omitempty"`
	Stats              *ExportStats `json:"stats,omitempty"`
	ErrorMessage       string       `json:"error_message,omitempty"`
	ExpiresAt          *time.Time   `json:"expires_at,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty"`
}

// NewBackup creates a Backup record in the pending-upload state.
func NewBackup(ownerID uuid.UUID, rawObjectKey string, retentionDays int) *Backup {
	now := time.Now()
	b := &Backup{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Status:       BackupStatusPendingUpload,
		RawObjectKey: rawObjectKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if retentionDays > 0 {
		expires := now.AddDate(0, 0, retentionDays)
		b.ExpiresAt = &expires
	}
	return b
}

// MarkUploaded records the confirmed upload and its size.
func (b *Backup) MarkUploaded(fileSize int64) {
	b.Status = BackupStatusUploaded
	b.FileSize = &fileSize
	b.UpdatedAt = time.Now()
}

// MarkProcessing moves the backup into the processing state.
func (b *Backup) MarkProcessing() {
	b.Status = BackupStatusProcessing
	b.UpdatedAt = time.Now()
}

// Complete records the analysis results.
func (b *Backup) Complete(processedKey, summary string, insights []string, stats *ExportStats, contains Contains) {
	now := time.Now()
	b.Status = BackupStatusCompleted
	b.ProcessedObjectKey = processedKey
	b.Summary = summary
	b.Insights = insights
	b.Stats = stats
	b.Contains = contains
	b.ErrorMessage = ""
	b.UpdatedAt = now
	b.CompletedAt = &now
}

// Fail marks the backup as failed with the given error message.
func (b *Backup) Fail(errMsg string) {
	b.Status = BackupStatusFailed
	b.ErrorMessage = errMsg
	b.UpdatedAt = time.Now()
}

// IsComplete returns true if the backup has a terminal status.
func (b *Backup) IsComplete() bool {
	return b.Status == BackupStatusCompleted || b.Status == BackupStatusFailed
}

// ContainsJSON returns the contains flags as JSON bytes for storage.
func (b *Backup) ContainsJSON() ([]byte, error) {
	return json.Marshal(b.Contains)
}

// InsightsJSON returns the insight list as JSON bytes for storage.
func (b *Backup) InsightsJSON() ([]byte, error) {
	if b.Insights == nil {
		return nil, nil
	}
	return json.Marshal(b.Insights)
}

// StatsJSON returns the aggregate stats as JSON bytes for storage.
func (b *Backup) StatsJSON() ([]byte, error) {
	if b.Stats == nil {
		return nil, nil
	}
	return json.Marshal(b.Stats)
}
