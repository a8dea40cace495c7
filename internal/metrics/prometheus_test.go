package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkstream/linkstream/internal/models"
)

type mockMetricsStore struct {
	backups map[models.BackupStatus]int64
	tiers   map[models.Tier]int64
	bytes   int64
	calls   int
}

func (m *mockMetricsStore) CountBackupsByStatus(ctx context.Context) (map[models.BackupStatus]int64, error) {
	m.calls++
	return m.backups, nil
}

func (m *mockMetricsStore) TotalBackupBytes(ctx context.Context) (int64, error) {
	return m.bytes, nil
}

func (m *mockMetricsStore) CountUsersByTier(ctx context.Context) (map[models.Tier]int64, error) {
	return m.tiers, nil
}

func TestCollectorExposesGauges(t *testing.T) {
	store := &mockMetricsStore{
		backups: map[models.BackupStatus]int64{
			models.BackupStatusCompleted: 7,
			models.BackupStatusFailed:    1,
		},
		tiers: map[models.Tier]int64{
			models.TierFree: 10,
			models.TierPro:  3,
		},
		bytes: 2048,
	}
	c := NewCollector(store, zerolog.Nop())

	expected := `
		# HELP linkstream_backups_total Number of backups by status.
		# TYPE linkstream_backups_total gauge
		linkstream_backups_total{status="completed"} 7
		linkstream_backups_total{status="failed"} 1
		# HELP linkstream_storage_used_bytes Total bytes of stored raw export archives.
		# TYPE linkstream_storage_used_bytes gauge
		linkstream_storage_used_bytes 2048
		# HELP linkstream_users_total Number of users by subscription tier.
		# TYPE linkstream_users_total gauge
		linkstream_users_total{tier="free"} 10
		linkstream_users_total{tier="pro"} 3
	`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestCollectorCachesReads(t *testing.T) {
	store := &mockMetricsStore{bytes: 1}
	c := NewCollector(store, zerolog.Nop())

	c.snapshot()
	c.snapshot()
	assert.Equal(t, 1, store.calls, "second snapshot within expiry should hit the cache")
}

func TestNewRegistryGathers(t *testing.T) {
	reg := NewRegistry(nil)
	HTTPRequestsTotal.WithLabelValues("GET", "/health", "200").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "linkstream_http_requests_total" {
			found = true
		}
	}
	assert.True(t, found)
}
