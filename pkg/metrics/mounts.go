package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MountMetrics publishes the last observed mount state of each share.
type MountMetrics interface {
	// SetMounted records whether the share with canonicalPath answered a
	// probe of its root.
	SetMounted(canonicalPath string, mounted bool)
}

type mountMetrics struct {
	mounted *prometheus.GaugeVec
}

var (
	mountOnce sync.Once
	mountCols *mountMetrics
)

// NewMountMetrics returns a Prometheus-backed MountMetrics, or a no-op
// implementation if metrics are not enabled.
func NewMountMetrics() MountMetrics {
	if !IsEnabled() {
		return noopMountMetrics{}
	}

	mountOnce.Do(func() {
		mountCols = &mountMetrics{
			mounted: promauto.With(GetRegistry()).NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "fileglancer_share_mounted",
					Help: "1 if the share's root was reachable at the last probe, 0 otherwise",
				},
				[]string{"share"},
			),
		}
	})
	return mountCols
}

func (m *mountMetrics) SetMounted(canonicalPath string, mounted bool) {
	v := 0.0
	if mounted {
		v = 1
	}
	m.mounted.WithLabelValues(canonicalPath).Set(v)
}

type noopMountMetrics struct{}

func (noopMountMetrics) SetMounted(string, bool) {}
