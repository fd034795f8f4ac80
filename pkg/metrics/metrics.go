package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标管理器. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 数据库指标
	dbQueryDuration *prometheus.HistogramVec

	// 缓存指标
	cacheLookups *prometheus.CounterVec

	// 业务指标
	alertsTotal          *prometheus.CounterVec
	alertDuration        prometheus.Histogram
	providerSends        *prometheus.CounterVec
	providerSendDuration *prometheus.HistogramVec
	asrAttempts          *prometheus.CounterVec
	asrDuration          *prometheus.HistogramVec
	translationFallbacks *prometheus.CounterVec

	// 系统指标
	hostCPUPercent    prometheus.Gauge
	hostMemoryPercent prometheus.Gauge
	hostDiskPercent   prometheus.Gauge
}

// NewMetrics registers every collector on a private registry together
// with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "table"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by cache name and result",
		}, []string{"cache", "result"}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeline_alerts_total",
			Help: "Emergency alerts by final state",
		}, []string{"state"}),
		alertDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifeline_alert_duration_seconds",
			Help:    "Time from request to recorded alert",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 240},
		}),
		providerSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeline_provider_sends_total",
			Help: "Messages handed to a provider, by result",
		}, []string{"provider", "result"}),
		providerSendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lifeline_provider_send_duration_seconds",
			Help:    "Provider send latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		asrAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeline_asr_attempts_total",
			Help: "Speech-to-text attempts by backend and result",
		}, []string{"backend", "result"}),
		asrDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lifeline_asr_duration_seconds",
			Help:    "Speech-to-text attempt latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"backend"}),
		translationFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeline_translation_fallbacks_total",
			Help: "Translations that fell back to the original text",
		}, []string{"backend"}),
		hostCPUPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "host_cpu_usage_percent",
			Help: "Host CPU usage percentage",
		}),
		hostMemoryPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "host_memory_usage_percent",
			Help: "Host memory usage percentage",
		}),
		hostDiskPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "host_disk_usage_percent",
			Help: "Root filesystem usage percentage",
		}),
	}
	reg.MustRegister(
		m.httpRequestsTotal, m.httpRequestDuration, m.dbQueryDuration, m.cacheLookups,
		m.alertsTotal, m.alertDuration, m.providerSends, m.providerSendDuration,
		m.asrAttempts, m.asrDuration, m.translationFallbacks,
		m.hostCPUPercent, m.hostMemoryPercent, m.hostDiskPercent,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest 记录HTTP请求指标
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDBQuery 记录数据库查询指标
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

func (m *Metrics) RecordCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(cache, result(hit, "hit", "miss")).Inc()
}

// RecordAlert counts an alert by the state it ended in.
func (m *Metrics) RecordAlert(state string, duration time.Duration) {
	if m == nil {
		return
	}
	m.alertsTotal.WithLabelValues(state).Inc()
	m.alertDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordProviderSend(provider string, ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.providerSends.WithLabelValues(provider, result(ok, "success", "failure")).Inc()
	m.providerSendDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordProviderSkipped counts sends never attempted because the provider
// was not configured.
func (m *Metrics) RecordProviderSkipped(provider string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.providerSends.WithLabelValues(provider, "skipped").Add(float64(n))
}

func (m *Metrics) RecordASRAttempt(backend string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.asrAttempts.WithLabelValues(backend, result(err == nil, "success", "failure")).Inc()
	m.asrDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

func (m *Metrics) RecordTranslationFallback(backend string) {
	if m == nil {
		return
	}
	m.translationFallbacks.WithLabelValues(backend).Inc()
}

// SetHostUsage 设置主机资源使用率
func (m *Metrics) SetHostUsage(s HostStats) {
	if m == nil {
		return
	}
	m.hostCPUPercent.Set(s.CPUPercent)
	m.hostMemoryPercent.Set(s.MemoryPercent)
	m.hostDiskPercent.Set(s.DiskPercent)
}

func result(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
