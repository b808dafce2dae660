package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FilestoreMetrics provides observability for rooted filestore operations.
//
// This interface is optional - filestores created without one record nothing.
type FilestoreMetrics interface {
	// RecordOperation records a completed filestore operation.
	//
	// Parameters:
	//   - operation: Operation name (e.g., "describe", "list", "rename")
	//   - duration: Time taken to complete the operation
	//   - status: Outcome label ("success", or an error category such as
	//     "not found" or "escape")
	RecordOperation(operation string, duration time.Duration, status string)

	// RecordBytesRead adds n bytes streamed out of the filestore.
	RecordBytesRead(n int)
}

type filestoreCollectors struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesRead         *prometheus.CounterVec
}

var (
	filestoreOnce sync.Once
	filestoreCols *filestoreCollectors
)

// filestoreMetrics is the Prometheus implementation of FilestoreMetrics. All
// instances share one set of collectors; the root label tells them apart.
type filestoreMetrics struct {
	root string
	cols *filestoreCollectors
}

// NewFilestoreMetrics creates a Prometheus-backed FilestoreMetrics labelled
// with root (a share's canonical path or the filestore root directory).
//
// Returns a no-op implementation if metrics are not enabled.
func NewFilestoreMetrics(root string) FilestoreMetrics {
	if !IsEnabled() {
		return noopFilestoreMetrics{}
	}

	filestoreOnce.Do(func() {
		reg := GetRegistry()
		filestoreCols = &filestoreCollectors{
			operationsTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "fileglancer_filestore_operations_total",
					Help: "Total number of filestore operations by root, operation, and status",
				},
				[]string{"root", "operation", "status"},
			),
			operationDuration: promauto.With(reg).NewHistogramVec(
				prometheus.HistogramOpts{
					Name: "fileglancer_filestore_operation_duration_seconds",
					Help: "Duration of filestore operations in seconds",
					Buckets: []float64{
						0.0001, // 100µs
						0.001,  // 1ms
						0.005,  // 5ms
						0.025,  // 25ms
						0.1,    // 100ms
						0.5,    // 500ms
						2.5,    // 2.5s (slow network mounts)
						10,     // 10s
					},
				},
				[]string{"root", "operation"},
			),
			bytesRead: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "fileglancer_filestore_read_bytes_total",
					Help: "Total bytes streamed out of filestores",
				},
				[]string{"root"},
			),
		}
	})

	return &filestoreMetrics{root: root, cols: filestoreCols}
}

func (m *filestoreMetrics) RecordOperation(operation string, duration time.Duration, status string) {
	m.cols.operationsTotal.WithLabelValues(m.root, operation, status).Inc()
	m.cols.operationDuration.WithLabelValues(m.root, operation).Observe(duration.Seconds())
}

func (m *filestoreMetrics) RecordBytesRead(n int) {
	m.cols.bytesRead.WithLabelValues(m.root).Add(float64(n))
}

type noopFilestoreMetrics struct{}

func (noopFilestoreMetrics) RecordOperation(string, time.Duration, string) {}
func (noopFilestoreMetrics) RecordBytesRead(int)                           {}
