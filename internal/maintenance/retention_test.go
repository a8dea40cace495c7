package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkstream/linkstream/internal/models"
	"github.com/linkstream/linkstream/internal/notifications"
)

type mockRetentionStore struct {
	expired   []*models.Backup
	deleted   []uuid.UUID
	due       []*models.User
	reminded  []uuid.UUID
	deleteErr error
}

func (m *mockRetentionStore) GetExpiredBackups(ctx context.Context, now time.Time, limit int) ([]*models.Backup, error) {
	return m.expired, nil
}

func (m *mockRetentionStore) DeleteBackup(ctx context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRetentionStore) GetUsersDueReminder(ctx context.Context, now time.Time) ([]*models.User, error) {
	return m.due, nil
}

func (m *mockRetentionStore) MarkReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	m.reminded = append(m.reminded, id)
	return nil
}

type mockObjectStore struct {
	deleted []string
	err     error
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, key)
	return nil
}

type mockReminderMailer struct {
	sent []string
	err  error
}

func (m *mockReminderMailer) SendExportReminder(ctx context.Context, email string, data notifications.ExportReminderData) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

func TestRunCleanupRemovesExpiredBackups(t *testing.T) {
	b := models.NewBackup(uuid.New(), "exports/u/b.zip", 30)
	b.ProcessedObjectKey = "processed/u/b.txt"

	store := &mockRetentionStore{expired: []*models.Backup{b}}
	objects := &mockObjectStore{}
	r := NewRunner(store, objects, nil, "https://app.example", zerolog.Nop())

	require.NoError(t, r.RunCleanup(context.Background()))
	assert.Equal(t, []string{"exports/u/b.zip", "processed/u/b.txt"}, objects.deleted)
	assert.Equal(t, []uuid.UUID{b.ID}, store.deleted)
}

func TestRunCleanupSkipsRowOnObjectFailure(t *testing.T) {
	b := models.NewBackup(uuid.New(), "exports/u/b.zip", 30)
	store := &mockRetentionStore{expired: []*models.Backup{b}}
	objects := &mockObjectStore{err: errors.New("s3 down")}
	r := NewRunner(store, objects, nil, "https://app.example", zerolog.Nop())

	require.NoError(t, r.RunCleanup(context.Background()))
	assert.Empty(t, store.deleted, "row must survive so the object is retried next run")
}

func TestRunCleanupNoExpired(t *testing.T) {
	store := &mockRetentionStore{}
	r := NewRunner(store, &mockObjectStore{}, nil, "https://app.example", zerolog.Nop())
	require.NoError(t, r.RunCleanup(context.Background()))
	assert.Empty(t, store.deleted)
}

func TestRunRemindersSendsAndStamps(t *testing.T) {
	u := models.NewUser("sub", "a@example.com", "Ada")
	store := &mockRetentionStore{due: []*models.User{u}}
	mailer := &mockReminderMailer{}
	r := NewRunner(store, &mockObjectStore{}, mailer, "https://app.example", zerolog.Nop())

	require.NoError(t, r.RunReminders(context.Background()))
	assert.Equal(t, []string{"a@example.com"}, mailer.sent)
	assert.Equal(t, []uuid.UUID{u.ID}, store.reminded)
}

func TestRunRemindersMailFailureSkipsStamp(t *testing.T) {
	u := models.NewUser("sub", "a@example.com", "Ada")
	store := &mockRetentionStore{due: []*models.User{u}}
	mailer := &mockReminderMailer{err: errors.New("smtp down")}
	r := NewRunner(store, &mockObjectStore{}, mailer, "https://app.example", zerolog.Nop())

	require.NoError(t, r.RunReminders(context.Background()))
	assert.Empty(t, store.reminded, "a failed send must stay due for the next run")
}
