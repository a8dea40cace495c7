package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/db"
	"github.com/linkstream/linkstream/internal/models"
)

// mockBackupsStore implements BackupsStore for testing.
type mockBackupsStore struct {
	backup    *models.Backup
	backups   []*models.Backup
	getErr    error
	createErr error
	updateErr error
	deleteErr error

	created   *models.Backup
	updated   []*models.Backup
	deletedID uuid.UUID
}

func (m *mockBackupsStore) GetBackupByID(_ context.Context, _ uuid.UUID) (*models.Backup, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.backup == nil {
		return nil, db.ErrNotFound
	}
	return m.backup, nil
}

func (m *mockBackupsStore) GetBackupsByOwnerID(_ context.Context, _ uuid.UUID) ([]*models.Backup, error) {
	return m.backups, nil
}

func (m *mockBackupsStore) CreateBackup(_ context.Context, b *models.Backup) error {
	m.created = b
	return m.createErr
}

func (m *mockBackupsStore) UpdateBackup(_ context.Context, b *models.Backup) error {
	m.updated = append(m.updated, b)
	return m.updateErr
}

func (m *mockBackupsStore) DeleteBackup(_ context.Context, id uuid.UUID) error {
	m.deletedID = id
	return m.deleteErr
}

// mockObjects implements BackupObjects for testing.
type mockObjects struct {
	headSize   int64
	headErr    error
	presignErr error
	deleteErr  error
	deleted    []string
}

func (m *mockObjects) PresignUpload(_ context.Context, key string) (string, error) {
	if m.presignErr != nil {
		return "", m.presignErr
	}
	return "https://storage.example.com/upload/" + key, nil
}

func (m *mockObjects) PresignDownload(_ context.Context, key string) (string, error) {
	if m.presignErr != nil {
		return "", m.presignErr
	}
	return "https://storage.example.com/download/" + key, nil
}

func (m *mockObjects) Head(_ context.Context, _ string) (int64, error) {
	return m.headSize, m.headErr
}

func (m *mockObjects) Delete(_ context.Context, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, key)
	return nil
}

// mockMeter implements UsageMeter for testing.
type mockMeter struct {
	allowed   bool
	canErr    error
	recordErr error
	released  bool
}

func (m *mockMeter) CanCreateBackup(_ context.Context, _ *models.User) (bool, error) {
	return m.allowed, m.canErr
}

func (m *mockMeter) RecordBackupUsage(_ context.Context, _ *models.User) error {
	return m.recordErr
}

func (m *mockMeter) ReleaseBackupUsage(_ context.Context, _ *models.User) error {
	m.released = true
	return nil
}

// mockAnalyzer implements Analyzer for testing.
type mockAnalyzer struct {
	err  error
	done chan *models.Backup
}

func (m *mockAnalyzer) Process(_ context.Context, backup *models.Backup) error {
	if m.done != nil {
		m.done <- backup
	}
	return m.err
}

func setupBackupsTestRouter(store *mockBackupsStore, objects *mockObjects, meter *mockMeter, analyzer *mockAnalyzer, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(injectUser(user))
	handler := NewBackupsHandler(store, objects, meter, analyzer, nil, "https://app.example.com", zerolog.Nop())
	handler.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestCreateBackup(t *testing.T) {
	t.Run("success returns upload URL", func(t *testing.T) {
		user := testUser(models.TierPro)
		store := &mockBackupsStore{}
		r := setupBackupsTestRouter(store, &mockObjects{}, &mockMeter{allowed: true}, &mockAnalyzer{}, user)

		w := doRequest(r, jsonRequest("POST", "/api/v1/backups", ""))
		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
		}

		var resp struct {
			Backup    models.Backup `json:"backup"`
			UploadURL string        `json:"upload_url"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.UploadURL == "" {
			t.Fatal("expected an upload URL")
		}
		if resp.Backup.Status != models.BackupStatusPendingUpload {
			t.Fatalf("expected pending_upload status, got %s", resp.Backup.Status)
		}
		if store.created == nil {
			t.Fatal("expected backup to be persisted")
		}
		if store.created.OwnerID != user.ID {
			t.Fatal("expected backup owned by caller")
		}
	})

	t.Run("quota exceeded returns 429", func(t *testing.T) {
		r := setupBackupsTestRouter(&mockBackupsStore{}, &mockObjects{}, &mockMeter{allowed: false}, &mockAnalyzer{}, testUser(models.TierFree))

		w := doRequest(r, jsonRequest("POST", "/api/v1/backups", ""))
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("expected status 429, got %d", w.Code)
		}
	})

	t.Run("concurrent limit hit on increment returns 429", func(t *testing.T) {
		meter := &mockMeter{allowed: true, recordErr: db.ErrUsageLimitReached}
		r := setupBackupsTestRouter(&mockBackupsStore{}, &mockObjects{}, meter, &mockAnalyzer{}, testUser(models.TierFree))

		w := doRequest(r, jsonRequest("POST", "/api/v1/backups", ""))
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("expected status 429, got %d", w.Code)
		}
	})

	t.Run("create failure releases quota", func(t *testing.T) {
		meter := &mockMeter{allowed: true}
		store := &mockBackupsStore{createErr: errors.New("db down")}
		r := setupBackupsTestRouter(store, &mockObjects{}, meter, &mockAnalyzer{}, testUser(models.TierPro))

		w := doRequest(r, jsonRequest("POST", "/api/v1/backups", ""))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", w.Code)
		}
		if !meter.released {
			t.Fatal("expected quota to be released after create failure")
		}
	})
}

func TestGetBackup(t *testing.T) {
	owner := testUser(models.TierPro)
	backup := models.NewBackup(owner.ID, "exports/raw.zip", 365)

	t.Run("owner can read", func(t *testing.T) {
		store := &mockBackupsStore{backup: backup}
		r := setupBackupsTestRouter(store, &mockObjects{}, &mockMeter{}, &mockAnalyzer{}, owner)

		w := doRequest(r, jsonRequest("GET", "/api/v1/backups/"+backup.ID.String(), ""))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("other user gets 404", func(t *testing.T) {
		store := &mockBackupsStore{backup: backup}
		r := setupBackupsTestRouter(store, &mockObjects{}, &mockMeter{}, &mockAnalyzer{}, testUser(models.TierPro))

		w := doRequest(r, jsonRequest("GET", "/api/v1/backups/"+backup.ID.String(), ""))
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", w.Code)
		}
	})

	t.Run("admin can read any backup", func(t *testing.T) {
		admin := testUser(models.TierFree)
		admin.Role = models.UserRoleAdmin
		store := &mockBackupsStore{backup: backup}
		r := setupBackupsTestRouter(store, &mockObjects{}, &mockMeter{}, &mockAnalyzer{}, admin)

		w := doRequest(r, jsonRequest("GET", "/api/v1/backups/"+backup.ID.String(), ""))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
	})

	t.Run("invalid id returns 400", func(t *testing.T) {
		r := setupBackupsTestRouter(&mockBackupsStore{}, &mockObjects{}, &mockMeter{}, &mockAnalyzer{}, owner)

		w := doRequest(r, jsonRequest("GET", "/api/v1/backups/not-a-uuid", ""))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})
}

func TestCompleteUpload(t *testing.T) {
	t.Run("starts analysis", func(t *testing.T) {
		user := testUser(models.TierPro)
		backup := models.NewBackup(user.ID, "exports/raw.zip", 365)
		store := &mockBackupsStore{backup: backup}
		analyzer := &mockAnalyzer{done: make(chan *models.Backup, 1)}
		r := setupBackupsTestRouter(store, &mockObjects{headSize: 1024}, &mockMeter{}, analyzer, user)

		w := doRequest(r, jsonRequest("POST", "/api/v1/backups/"+backup.ID.String()+"/complete", ""))
		if w.Code != http.StatusAccepted {
			t.Fatalf("expected status 202, got %d: %s", w.Code, w.Body.String())
		}

		select {
		case processed := <-analyzer.done:
			if processed.ID != backup.ID {
				t.Fatal("analyzer received wrong backup")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("analysis was not started")
		}

		if backup.Status != models.BackupStatusUploaded {
			t.Fatalf("expected uploaded status, got %s", backup.Status)
		}
		if backup.FileSize == nil || *backup.FileSize != 1024 {
			t.Fatal("expected file size 1024 to be recorded")
		}
	})

	t.Run("missing object returns 400", func(t *testing.T) {
		user := testUser(models.TierPro)
		backup := models.NewBackup(user.ID, "exports/raw.zip", 365)
		store := &mockBackupsStore{backup: backup}
		r := setupBackupsTestRouter(store, &mockObjects{headErr: errors.New("not found")}, &mockMeter{}, &mockAnalyzer{}, user)

		w := doRequest(r, jsonRequest("POST", "/api/v1/backups/"+backup.ID.String()+"/complete", ""))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("oversized archive is rejected and removed", func(t *testing.T) {
		user := testUser(models.TierFree)
		backup := models.NewBackup(user.ID, "exports/raw.zip", 30)
		store := &mockBackupsStore{backup: backup}
		objects := &mockObjects{headSize: models.LimitsForTier(models.TierFree).MaxUploadBytes + 1}
		r := setupBackupsTestRouter(store, objects, &mockMeter{}, &mockAnalyzer{}, user)

		w := doRequest(r, jsonRequest("POST", "/api/v1/backups/"+backup.ID.String()+"/complete", ""))
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected status 413, got %d", w.Code)
		}
		if backup.Status != models.BackupStatusFailed {
			t.Fatalf("expected failed status, got %s", backup.Status)
		}
		if len(objects.deleted) != 1 {
			t.Fatalf("expected oversized object to be deleted, got %v", objects.deleted)
		}
	})

	t.Run("already uploaded returns 409", func(t *testing.T) {
		user := testUser(models.TierPro)
		backup := models.NewBackup(user.ID, "exports/raw.zip", 365)
		backup.MarkUploaded(512)
		store := &mockBackupsStore{backup: backup}
		r := setupBackupsTestRouter(store, &mockObjects{headSize: 512}, &mockMeter{}, &mockAnalyzer{}, user)

		w := doRequest(r, jsonRequest("POST", "/api/v1/backups/"+backup.ID.String()+"/complete", ""))
		if w.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", w.Code)
		}
	})
}

func TestDownloadBackup(t *testing.T) {
	user := testUser(models.TierPro)

	t.Run("completed backup yields URL", func(t *testing.T) {
		backup := models.NewBackup(user.ID, "exports/raw.zip", 365)
		backup.Complete("processed/doc.txt", "summary", []string{"insight"}, nil, models.Contains{})
		store := &mockBackupsStore{backup: backup}
		r := setupBackupsTestRouter(store, &mockObjects{}, &mockMeter{}, &mockAnalyzer{}, user)

		w := doRequest(r, jsonRequest("GET", "/api/v1/backups/"+backup.ID.String()+"/download", ""))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp["download_url"] == "" {
			t.Fatal("expected a download URL")
		}
	})

	t.Run("unprocessed backup returns 409", func(t *testing.T) {
		backup := models.NewBackup(user.ID, "exports/raw.zip", 365)
		store := &mockBackupsStore{backup: backup}
		r := setupBackupsTestRouter(store, &mockObjects{}, &mockMeter{}, &mockAnalyzer{}, user)

		w := doRequest(r, jsonRequest("GET", "/api/v1/backups/"+backup.ID.String()+"/download", ""))
		if w.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", w.Code)
		}
	})
}

func TestDeleteBackup(t *testing.T) {
	user := testUser(models.TierPro)
	backup := models.NewBackup(user.ID, "exports/raw.zip", 365)
	backup.Complete("processed/doc.txt", "summary", nil, nil, models.Contains{})

	store := &mockBackupsStore{backup: backup}
	objects := &mockObjects{}
	r := setupBackupsTestRouter(store, objects, &mockMeter{}, &mockAnalyzer{}, user)

	w := doRequest(r, jsonRequest("DELETE", "/api/v1/backups/"+backup.ID.String(), ""))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", w.Code, w.Body.String())
	}
	if len(objects.deleted) != 2 {
		t.Fatalf("expected raw and processed objects deleted, got %v", objects.deleted)
	}
	if store.deletedID != backup.ID {
		t.Fatal("expected backup row to be deleted")
	}
}
