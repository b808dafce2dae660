package metrics

import (
	"sync"

	"github.com/mkitti/fileglancer/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// cacheMetrics is the Prometheus implementation of cache.Observer.
//
// Counters are labelled by cache name ("share_paths", "proxied_paths",
// "owners") so one instance can be shared by every table.
type cacheMetrics struct {
	hits          *prometheus.CounterVec
	misses        *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

var (
	cacheOnce sync.Once
	cacheObs  *cacheMetrics
)

// NewCacheMetrics returns a Prometheus-backed cache.Observer.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// tables treat as "report nothing".
func NewCacheMetrics() cache.Observer {
	if !IsEnabled() {
		return nil
	}

	cacheOnce.Do(func() {
		reg := GetRegistry()
		counter := func(name, help string) *prometheus.CounterVec {
			return promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{Name: name, Help: help},
				[]string{"cache"},
			)
		}
		cacheObs = &cacheMetrics{
			hits:          counter("fileglancer_cache_hits_total", "Cache lookups served from a fresh entry"),
			misses:        counter("fileglancer_cache_misses_total", "Cache lookups that required a fetch"),
			fetchErrors:   counter("fileglancer_cache_fetch_errors_total", "Fetches that failed and left the slot unchanged"),
			invalidations: counter("fileglancer_cache_invalidations_total", "Explicit cache invalidations"),
		}
	})

	return cacheObs
}

func (m *cacheMetrics) CacheHit(name string) {
	m.hits.WithLabelValues(name).Inc()
}

func (m *cacheMetrics) CacheMiss(name string) {
	m.misses.WithLabelValues(name).Inc()
}

func (m *cacheMetrics) FetchError(name string) {
	m.fetchErrors.WithLabelValues(name).Inc()
}

func (m *cacheMetrics) Invalidated(name string) {
	m.invalidations.WithLabelValues(name).Inc()
}
