package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application counters
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	AnalysesTotal      uint64
	AnalysesFailed     uint64
	ReportsDeleted     uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// IncrementAnalyses counts completed analysis calls
func IncrementAnalyses() {
	atomic.AddUint64(&globalMetrics.AnalysesTotal, 1)
}

// IncrementAnalysesFailed counts analysis calls that produced no report
func IncrementAnalysesFailed() {
	atomic.AddUint64(&globalMetrics.AnalysesFailed, 1)
}

// IncrementReportsDeleted counts explicit report deletions
func IncrementReportsDeleted() {
	atomic.AddUint64(&globalMetrics.ReportsDeleted, 1)
}

// CollectMetrics wraps a handler and tracks request counters
func CollectMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
		atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
		defer atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
		} else {
			atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
		}
	})
}

type metricsSnapshot struct {
	RequestsTotal      uint64  `json:"requests_total"`
	RequestsInProgress uint64  `json:"requests_in_progress"`
	RequestsSuccess    uint64  `json:"requests_success"`
	RequestsFailed     uint64  `json:"requests_failed"`
	AnalysesTotal      uint64  `json:"analyses_total"`
	AnalysesFailed     uint64  `json:"analyses_failed"`
	ReportsDeleted     uint64  `json:"reports_deleted"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
	Goroutines         int     `json:"goroutines"`
}

// MetricsHandler serves the current counters as JSON
func MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := metricsSnapshot{
			RequestsTotal:      atomic.LoadUint64(&globalMetrics.RequestsTotal),
			RequestsInProgress: atomic.LoadUint64(&globalMetrics.RequestsInProgress),
			RequestsSuccess:    atomic.LoadUint64(&globalMetrics.RequestsSuccess),
			RequestsFailed:     atomic.LoadUint64(&globalMetrics.RequestsFailed),
			AnalysesTotal:      atomic.LoadUint64(&globalMetrics.AnalysesTotal),
			AnalysesFailed:     atomic.LoadUint64(&globalMetrics.AnalysesFailed),
			ReportsDeleted:     atomic.LoadUint64(&globalMetrics.ReportsDeleted),
			UptimeSeconds:      time.Since(globalMetrics.StartTime).Seconds(),
			Goroutines:         runtime.NumGoroutine(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	}
}
