// Package metrics exposes Prometheus metrics for the server.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/models"
)

// Store defines the interface for retrieving metrics data.
type Store interface {
	CountBackupsByStatus(ctx context.Context) (map[models.BackupStatus]int64, error)
	TotalBackupBytes(ctx context.Context) (int64, error)
	CountUsersByTier(ctx context.Context) (map[models.Tier]int64, error)
}

// Request-level metrics, observed by the HTTP middleware.
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkstream_http_requests_total",
		Help: "Total HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkstream_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkstream_analyses_total",
		Help: "Completed export analyses by outcome.",
	}, []string{"outcome"})

	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "linkstream_analysis_duration_seconds",
		Help:    "Duration of export analysis runs.",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})
)

type snapshot struct {
	backupsByStatus map[models.BackupStatus]int64
	usersByTier     map[models.Tier]int64
	storageBytes    int64
}

// Collector exposes database-derived gauges. Reads are cached briefly so
// a scrape storm never hammers the database.
type Collector struct {
	store       Store
	logger      zerolog.Logger
	cacheExpiry time.Duration

	mu            sync.RWMutex
	lastCollected time.Time
	cached        *snapshot

	backupsDesc *prometheus.Desc
	usersDesc   *prometheus.Desc
	storageDesc *prometheus.Desc
}

// NewCollector creates a database-backed collector.
func NewCollector(store Store, logger zerolog.Logger) *Collector {
	return &Collector{
		store:       store,
		logger:      logger.With().Str("component", "metrics").Logger(),
		cacheExpiry: 15 * time.Second,
		backupsDesc: prometheus.NewDesc(
			"linkstream_backups_total",
			"Number of backups by status.",
			[]string{"status"}, nil,
		),
		usersDesc: prometheus.NewDesc(
			"linkstream_users_total",
			"Number of users by subscription tier.",
			[]string{"tier"}, nil,
		),
		storageDesc: prometheus.NewDesc(
			"linkstream_storage_used_bytes",
			"Total bytes of stored raw export archives.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.backupsDesc
	ch <- c.usersDesc
	ch <- c.storageDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.snapshot()
	if snap == nil {
		return
	}
	for status, count := range snap.backupsByStatus {
		ch <- prometheus.MustNewConstMetric(c.backupsDesc, prometheus.GaugeValue, float64(count), string(status))
	}
	for tier, count := range snap.usersByTier {
		ch <- prometheus.MustNewConstMetric(c.usersDesc, prometheus.GaugeValue, float64(count), string(tier))
	}
	ch <- prometheus.MustNewConstMetric(c.storageDesc, prometheus.GaugeValue, float64(snap.storageBytes))
}

func (c *Collector) snapshot() *snapshot {
	c.mu.RLock()
	if c.cached != nil && time.Since(c.lastCollected) < c.cacheExpiry {
		snap := c.cached
		c.mu.RUnlock()
		return snap
	}
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap := &snapshot{}
	var err error

	if snap.backupsByStatus, err = c.store.CountBackupsByStatus(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("failed to collect backup metrics")
	}
	if snap.usersByTier, err = c.store.CountUsersByTier(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("failed to collect user metrics")
	}
	if snap.storageBytes, err = c.store.TotalBackupBytes(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("failed to collect storage metrics")
	}

	c.mu.Lock()
	c.cached = snap
	c.lastCollected = time.Now()
	c.mu.Unlock()
	return snap
}

// NewRegistry builds the registry serving /metrics.
func NewRegistry(collector *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AnalysesTotal,
		AnalysisDuration,
	)
	if collector != nil {
		reg.MustRegister(collector)
	}
	return reg
}
