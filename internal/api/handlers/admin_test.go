package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/db"
	"github.com/linkstream/linkstream/internal/models"
)

// mockAdminStore implements AdminStore for testing.
type mockAdminStore struct {
	users    []*models.User
	user     *models.User
	logs     []*models.AuditLog
	tierErr  error
	setTier  models.Tier
	setTierU uuid.UUID
}

func (m *mockAdminStore) ListUsers(_ context.Context, _, _ int) ([]*models.User, error) {
	return m.users, nil
}

func (m *mockAdminStore) GetUserByID(_ context.Context, _ uuid.UUID) (*models.User, error) {
	if m.user == nil {
		return nil, db.ErrNotFound
	}
	return m.user, nil
}

func (m *mockAdminStore) UpdateUserTier(_ context.Context, id uuid.UUID, tier models.Tier) error {
	m.setTierU = id
	m.setTier = tier
	return m.tierErr
}

func (m *mockAdminStore) ListAuditLogs(_ context.Context, _, _ int) ([]*models.AuditLog, error) {
	return m.logs, nil
}

func (m *mockAdminStore) CountUsersByTier(_ context.Context) (map[models.Tier]int64, error) {
	return map[models.Tier]int64{models.TierFree: 10, models.TierPro: 3}, nil
}

func (m *mockAdminStore) CountBackupsByStatus(_ context.Context) (map[models.BackupStatus]int64, error) {
	return map[models.BackupStatus]int64{models.BackupStatusCompleted: 7}, nil
}

func (m *mockAdminStore) TotalBackupBytes(_ context.Context) (int64, error) {
	return 12345, nil
}

func setupAdminTestRouter(store *mockAdminStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewAdminHandler(store, zerolog.Nop())
	handler.RegisterRoutes(r.Group("/api/v1/admin"))
	return r
}

func TestAdminListUsers(t *testing.T) {
	store := &mockAdminStore{users: []*models.User{testUser(models.TierFree)}}
	r := setupAdminTestRouter(store)

	w := doRequest(r, jsonRequest("GET", "/api/v1/admin/users?limit=10", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminSetTier(t *testing.T) {
	t.Run("updates tier", func(t *testing.T) {
		target := testUser(models.TierFree)
		store := &mockAdminStore{user: target}
		r := setupAdminTestRouter(store)

		w := doRequest(r, jsonRequest("PATCH", "/api/v1/admin/users/"+target.ID.String()+"/tier", `{"tier":"enterprise"}`))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if store.setTier != models.TierEnterprise {
			t.Fatalf("expected enterprise tier, got %s", store.setTier)
		}
		if store.setTierU != target.ID {
			t.Fatal("expected tier update for target user")
		}
	})

	t.Run("unknown tier returns 400", func(t *testing.T) {
		r := setupAdminTestRouter(&mockAdminStore{})

		w := doRequest(r, jsonRequest("PATCH", "/api/v1/admin/users/"+uuid.NewString()+"/tier", `{"tier":"platinum"}`))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("invalid id returns 400", func(t *testing.T) {
		r := setupAdminTestRouter(&mockAdminStore{})

		w := doRequest(r, jsonRequest("PATCH", "/api/v1/admin/users/nope/tier", `{"tier":"pro"}`))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})
}

func TestAdminStats(t *testing.T) {
	r := setupAdminTestRouter(&mockAdminStore{})

	w := doRequest(r, jsonRequest("GET", "/api/v1/admin/stats", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		UsersByTier     map[string]int64 `json:"users_by_tier"`
		BackupsByStatus map[string]int64 `json:"backups_by_status"`
		StorageBytes    int64            `json:"storage_bytes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.StorageBytes != 12345 {
		t.Fatalf("expected 12345 storage bytes, got %d", resp.StorageBytes)
	}
	if resp.UsersByTier["free"] != 10 {
		t.Fatalf("expected 10 free users, got %d", resp.UsersByTier["free"])
	}
}
