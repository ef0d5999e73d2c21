package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	// DBQueriesTotal tracks the total number of store queries
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries executed",
		},
		[]string{"query_type", "table", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query_type", "table"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of established connections both in use and idle",
		},
	)

	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Number of connections currently in use",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle connections",
		},
	)
)

// Pipeline metrics
var (
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildfire_scans_total",
			Help: "Risk scans run, by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wildfire_scan_duration_seconds",
			Help:    "Wall time of a full risk scan",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	// WeatherFetchTotal counts samples by where they came from (api or simulated)
	WeatherFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildfire_weather_fetch_total",
			Help: "Weather samples obtained, by source",
		},
		[]string{"source"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildfire_predictions_total",
			Help: "Classifier predictions, by model and risk level",
		},
		[]string{"model", "risk_level"},
	)

	AlertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildfire_alerts_created_total",
			Help: "Alerts persisted, by source (scan, manual, bulk)",
		},
		[]string{"source"},
	)

	AlertsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wildfire_alerts_expired_total",
			Help: "Alerts moved from active to expired by cleanup",
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildfire_events_published_total",
			Help: "Alert events handed to the event backend",
		},
		[]string{"backend", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildfire_http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"method", "route", "code"},
	)

	AppStartTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wildfire_app_start_time_seconds",
			Help: "Unix timestamp of when the application started",
		},
	)
)

func init() {
	AppStartTime.SetToCurrentTime()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordDBQuery records a store query execution
func RecordDBQuery(queryType, table string, duration time.Duration, err error) {
	DBQueriesTotal.WithLabelValues(queryType, table, status(err)).Inc()
	DBQueryDuration.WithLabelValues(queryType, table).Observe(duration.Seconds())
}

// UpdateDBConnectionStats copies connection pool statistics into the gauges
func UpdateDBConnectionStats(stats sql.DBStats) {
	DBConnectionsOpen.Set(float64(stats.OpenConnections))
	DBConnectionsInUse.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
}

func RecordScan(mode string, duration time.Duration, err error) {
	ScansTotal.WithLabelValues(mode, status(err)).Inc()
	ScanDuration.Observe(duration.Seconds())
}

func RecordWeatherFetch(source string) {
	WeatherFetchTotal.WithLabelValues(source).Inc()
}

func RecordPrediction(model, riskLevel string) {
	PredictionsTotal.WithLabelValues(model, riskLevel).Inc()
}

func RecordAlertCreated(source string) {
	AlertsCreatedTotal.WithLabelValues(source).Inc()
}

func RecordAlertsExpired(n int64) {
	AlertsExpiredTotal.Add(float64(n))
}

func RecordEventPublished(backend string, err error) {
	EventsPublishedTotal.WithLabelValues(backend, status(err)).Inc()
}

func RecordHTTPRequest(method, route string, code int) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}
