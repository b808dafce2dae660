package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CentralMetrics records requests made to the central server.
type CentralMetrics interface {
	// RecordRequest records one HTTP exchange. statusCode is 0 when no
	// response was received (transport error, timeout).
	RecordRequest(operation string, duration time.Duration, statusCode int)
}

type centralMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	centralOnce sync.Once
	centralCols *centralMetrics
)

// NewCentralMetrics returns a Prometheus-backed CentralMetrics, or a no-op
// implementation if metrics are not enabled.
func NewCentralMetrics() CentralMetrics {
	if !IsEnabled() {
		return noopCentralMetrics{}
	}

	centralOnce.Do(func() {
		reg := GetRegistry()
		centralCols = &centralMetrics{
			requestsTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "fileglancer_central_requests_total",
					Help: "Requests to the central server by operation and HTTP status code",
				},
				[]string{"operation", "code"},
			),
			requestDuration: promauto.With(reg).NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "fileglancer_central_request_duration_seconds",
					Help:    "Duration of central server requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"operation"},
			),
		}
	})

	return centralCols
}

func (m *centralMetrics) RecordRequest(operation string, duration time.Duration, statusCode int) {
	code := "none"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	m.requestsTotal.WithLabelValues(operation, code).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

type noopCentralMetrics struct{}

func (noopCentralMetrics) RecordRequest(string, time.Duration, int) {}
