package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wardenhq/warden/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface
// and the governance engine itself.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	proposalsTotal  *prometheus.CounterVec
	votesTotal      *prometheus.CounterVec
	executionsTotal *prometheus.CounterVec
	pendingRequests prometheus.GaugeFunc
}

// NewMetricsService registers the core collectors. pendingCount feeds the
// pending-requests gauge and may be nil.
func NewMetricsService(pendingCount func() int) *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	proposalsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "governance_requests_created_total",
		Help: "Governance requests created, by operation type",
	}, []string{"operation_type"})

	votesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "governance_votes_total",
		Help: "Votes cast on governance requests, by decision",
	}, []string{"decision"})

	executionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "governance_executions_total",
		Help: "Executed governance requests, by operation type and outcome",
	}, []string{"operation_type", "outcome"})

	pendingRequests := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "governance_pending_requests",
		Help: "Requests currently awaiting votes",
	}, func() float64 {
		if pendingCount == nil {
			return 0
		}
		return float64(pendingCount())
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, proposalsTotal, votesTotal,
		executionsTotal, pendingRequests, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		proposalsTotal:  proposalsTotal,
		votesTotal:      votesTotal,
		executionsTotal: executionsTotal,
		pendingRequests: pendingRequests,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request timing and volume.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveRequestCreated counts a new governance request.
func (m *MetricsService) ObserveRequestCreated(operationType models.OperationType) {
	if m == nil {
		return
	}
	m.proposalsTotal.WithLabelValues(string(operationType)).Inc()
}

// ObserveVote counts a cast vote.
func (m *MetricsService) ObserveVote(decision models.VoteDecision) {
	if m == nil {
		return
	}
	m.votesTotal.WithLabelValues(string(decision)).Inc()
}

// ObserveExecution counts an execution outcome.
func (m *MetricsService) ObserveExecution(operationType models.OperationType, outcome models.RequestStatus) {
	if m == nil {
		return
	}
	m.executionsTotal.WithLabelValues(string(operationType), string(outcome)).Inc()
}
