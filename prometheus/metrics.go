package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   *prometheus.CounterVec
	ActiveSessionsGauge prometheus.Gauge

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Catalog metrics
	ProductOperationsCounter  *prometheus.CounterVec
	CategoryOperationsCounter *prometheus.CounterVec

	// Upload metrics
	UploadsCounter    *prometheus.CounterVec
	UploadSizeBytes   prometheus.Histogram
	ProductViewsCount *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg using prefix for every name
func NewMetrics(prefix string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HttpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HttpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		AuthAttemptsCounter: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "Total number of login attempts",
			},
		),
		AuthSuccessCounter: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_auth_success_total",
				Help: "Total number of successful logins",
			},
		),
		AuthErrorsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_errors_total",
				Help: "Total number of authentication errors by reason",
			},
			[]string{"reason"},
		),
		ActiveSessionsGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_sessions_issued_minus_revoked",
				Help: "Sessions issued minus sessions revoked since start",
			},
		),
		DbOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		),
		ProductOperationsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_product_operations_total",
				Help: "Total number of product operations",
			},
			[]string{"operation"},
		),
		CategoryOperationsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_category_operations_total",
				Help: "Total number of category operations",
			},
			[]string{"operation"},
		),
		UploadsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_uploads_total",
				Help: "Total number of uploaded files by outcome",
			},
			[]string{"outcome"},
		),
		UploadSizeBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    prefix + "_upload_size_bytes",
				Help:    "Size of stored uploads in bytes",
				Buckets: prometheus.ExponentialBuckets(16<<10, 2, 10),
			},
		),
		ProductViewsCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_product_views_total",
				Help: "Total number of single product views",
			},
			[]string{"product_id"},
		),
	}
}

// RecordHTTPRequest records one served request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// TrackDBOperation returns a function that records the duration of a database operation
func (m *Metrics) TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if m == nil {
			return
		}
		m.DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordLoginAttempt counts a login attempt
func (m *Metrics) RecordLoginAttempt() {
	if m == nil {
		return
	}
	m.AuthAttemptsCounter.Inc()
}

// RecordLoginSuccess counts a successful login and the session it opened
func (m *Metrics) RecordLoginSuccess() {
	if m == nil {
		return
	}
	m.AuthSuccessCounter.Inc()
	m.ActiveSessionsGauge.Inc()
}

// RecordLogout accounts for a revoked session
func (m *Metrics) RecordLogout() {
	if m == nil {
		return
	}
	m.ActiveSessionsGauge.Dec()
}

// RecordAuthError increments the auth error counter for reason
func (m *Metrics) RecordAuthError(reason string) {
	if m == nil {
		return
	}
	m.AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordProductOperation increments the counter for product operations
func (m *Metrics) RecordProductOperation(operation string) {
	if m == nil {
		return
	}
	m.ProductOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordCategoryOperation increments the counter for category operations
func (m *Metrics) RecordCategoryOperation(operation string) {
	if m == nil {
		return
	}
	m.CategoryOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordUpload counts an upload outcome and, when stored, its size
func (m *Metrics) RecordUpload(outcome string, size int64) {
	if m == nil {
		return
	}
	m.UploadsCounter.WithLabelValues(outcome).Inc()
	if outcome == "stored" {
		m.UploadSizeBytes.Observe(float64(size))
	}
}

// RecordProductView increments the counter for product views
func (m *Metrics) RecordProductView(productID string) {
	if m == nil {
		return
	}
	m.ProductViewsCount.WithLabelValues(productID).Inc()
}
