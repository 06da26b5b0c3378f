package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

const namespace = "tp"

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	submissions       *prometheus.CounterVec
	submissionLatency *prometheus.HistogramVec
	uploads           *prometheus.CounterVec
	uploadBytes       prometheus.Counter
	webhookCalls      *prometheus.CounterVec
	renders           *prometheus.CounterVec
	mediaItems        *prometheus.CounterVec
	draftsCreated     prometheus.Counter

	storageModeActive *prometheus.GaugeVec
	storageBootstrap  *prometheus.CounterVec

	dbStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

// Current returns the process-wide metrics, or nil when metrics are disabled.
// All methods are safe on a nil receiver.
func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"))
	if v == "" {
		return 10 * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		m, err := New(prometheus.NewRegistry())
		if err != nil {
			if log != nil {
				log.Error("metrics init failed", "error", err)
			}
			return
		}
		instance = m
		if log != nil {
			log.Info("Metrics enabled")
		}
	})
	return instance
}

// New builds the collectors and registers them on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: registry,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency in seconds by method/route/status.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_inflight_requests",
			Help:      "In-flight API requests.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Plan submissions by outcome.",
		}, []string{"outcome"}),
		submissionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Submission pipeline duration in seconds by outcome.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachment_uploads_total",
			Help:      "Attachment uploads by status.",
		}, []string{"status"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachment_upload_bytes_total",
			Help:      "Bytes of successfully uploaded attachments.",
		}),
		webhookCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_calls_total",
			Help:      "Workflow webhook calls by result.",
		}, []string{"result"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_renders_total",
			Help:      "Document renders by format and cache result.",
		}, []string{"format", "cache"}),
		mediaItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_items_total",
			Help:      "Media items added to drafts by kind/result.",
		}, []string{"kind", "result"}),
		draftsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_created_total",
			Help:      "Drafts opened.",
		}),
		storageModeActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "object_storage_mode_active",
			Help:      "Active object storage mode (1 for the active mode).",
		}, []string{"mode"}),
		storageBootstrap: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "object_storage_provider_bootstrap_total",
			Help:      "Object storage provider bootstrap attempts by mode/result/code.",
		}, []string{"mode", "result", "code"}),
		dbStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_stats",
			Help:      "Database connection pool stats by kind.",
		}, []string{"stat"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "redis_up",
			Help:      "Redis reachable (1) or not (0).",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "redis_ping_seconds",
			Help:      "Last Redis ping latency in seconds.",
		}),
	}
	collectors := []prometheus.Collector{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.submissions, m.submissionLatency, m.uploads, m.uploadBytes,
		m.webhookCalls, m.renders, m.mediaItems, m.draftsCreated,
		m.storageModeActive, m.storageBootstrap,
		m.dbStats, m.redisUp, m.redisPing,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveSubmission records one pipeline run; outcome is saved or failed.
func (m *Metrics) ObserveSubmission(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
	m.submissionLatency.WithLabelValues(outcome).Observe(dur.Seconds())
}

func (m *Metrics) ObserveUpload(status string, bytes int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(status).Inc()
	if status == "success" && bytes > 0 {
		m.uploadBytes.Add(float64(bytes))
	}
}

func (m *Metrics) ObserveWebhook(result string) {
	if m == nil {
		return
	}
	m.webhookCalls.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRender(format string, cacheHit bool) {
	if m == nil {
		return
	}
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	m.renders.WithLabelValues(format, cache).Inc()
}

func (m *Metrics) ObserveMediaItem(kind, result string) {
	if m == nil {
		return
	}
	m.mediaItems.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) IncDraftCreated() {
	if m == nil {
		return
	}
	m.draftsCreated.Inc()
}

func (m *Metrics) SetObjectStorageModeActive(mode string) {
	if m == nil {
		return
	}
	m.storageModeActive.Reset()
	m.storageModeActive.WithLabelValues(mode).Set(1)
}

func (m *Metrics) ObserveObjectStorageProviderBootstrap(mode, result, code string) {
	if m == nil {
		return
	}
	m.storageBootstrap.WithLabelValues(mode, result, code).Inc()
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

// StartRedisCollector pings rdb on the scrape interval. The client is owned
// by the caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
