package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/auth"
	"github.com/linkstream/linkstream/internal/db"
	"github.com/linkstream/linkstream/internal/models"
)

// mockGDPRStore implements GDPRStore for testing.
type mockGDPRStore struct {
	backups []*models.Backup
	usage   *models.UsageMonth
	team    *models.Team

	deletedUserID uuid.UUID
	deleteErr     error
}

func (m *mockGDPRStore) GetBackupsByOwnerID(_ context.Context, _ uuid.UUID) ([]*models.Backup, error) {
	return m.backups, nil
}

func (m *mockGDPRStore) GetUsageMonth(_ context.Context, _ uuid.UUID, _ string) (*models.UsageMonth, error) {
	if m.usage == nil {
		return nil, db.ErrNotFound
	}
	return m.usage, nil
}

func (m *mockGDPRStore) GetTeamByID(_ context.Context, _ uuid.UUID) (*models.Team, error) {
	if m.team == nil {
		return nil, db.ErrNotFound
	}
	return m.team, nil
}

func (m *mockGDPRStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.deletedUserID = id
	return m.deleteErr
}

func testSessionStore(t *testing.T) *auth.SessionStore {
	t.Helper()
	secret := bytes.Repeat([]byte("s"), 32)
	store, err := auth.NewSessionStore(auth.DefaultSessionConfig(secret, false, 3600, 0), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create session store: %v", err)
	}
	return store
}

func setupGDPRTestRouter(t *testing.T, store *mockGDPRStore, objects *mockObjects, provider *mockProvider, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(injectUser(user))
	handler := NewGDPRHandler(store, objects, provider, testSessionStore(t), zerolog.Nop())
	handler.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestGDPRExport(t *testing.T) {
	user := testUser(models.TierBusiness)
	teamID := uuid.New()
	user.TeamID = &teamID

	backup := models.NewBackup(user.ID, "exports/raw.zip", 365)
	store := &mockGDPRStore{
		backups: []*models.Backup{backup},
		usage:   &models.UsageMonth{UserID: user.ID, Month: "2026-08", BackupsCount: 2},
		team:    &models.Team{ID: teamID, Name: "Acme"},
	}
	r := setupGDPRTestRouter(t, store, &mockObjects{}, &mockProvider{}, user)

	w := doRequest(r, jsonRequest("GET", "/api/v1/gdpr/export", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Fatal("expected a Content-Disposition header")
	}

	var export map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &export); err != nil {
		t.Fatalf("failed to unmarshal export: %v", err)
	}
	for _, key := range []string{"user", "backups", "usage_current_month", "team"} {
		if _, ok := export[key]; !ok {
			t.Fatalf("expected export to contain %q", key)
		}
	}
}

func TestGDPRDeleteAccount(t *testing.T) {
	t.Run("deletes objects, subscription, and user", func(t *testing.T) {
		user := testUser(models.TierPro)
		user.StripeSubscriptionID = "sub_123"

		backup := models.NewBackup(user.ID, "exports/raw.zip", 365)
		backup.Complete("processed/doc.txt", "summary", nil, nil, models.Contains{})

		store := &mockGDPRStore{backups: []*models.Backup{backup}}
		objects := &mockObjects{}
		provider := &mockProvider{}
		r := setupGDPRTestRouter(t, store, objects, provider, user)

		w := doRequest(r, jsonRequest("DELETE", "/api/v1/gdpr/account", ""))
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d: %s", w.Code, w.Body.String())
		}
		if provider.canceledSubID != "sub_123" {
			t.Fatal("expected subscription to be canceled")
		}
		if len(objects.deleted) != 2 {
			t.Fatalf("expected 2 objects deleted, got %v", objects.deleted)
		}
		if store.deletedUserID != user.ID {
			t.Fatal("expected user row deletion")
		}
	})

	t.Run("object deletion failure aborts erasure", func(t *testing.T) {
		user := testUser(models.TierPro)
		backup := models.NewBackup(user.ID, "exports/raw.zip", 365)
		store := &mockGDPRStore{backups: []*models.Backup{backup}}
		objects := &mockObjects{deleteErr: context.DeadlineExceeded}
		r := setupGDPRTestRouter(t, store, objects, &mockProvider{}, user)

		w := doRequest(r, jsonRequest("DELETE", "/api/v1/gdpr/account", ""))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", w.Code)
		}
		if store.deletedUserID != uuid.Nil {
			t.Fatal("expected user row to survive failed object deletion")
		}
	})
}
