package config

import (
	"context"

	"github.com/mkitti/fileglancer/pkg/metrics"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server, with /healthz backed by health (may be nil)
//
// If metrics are disabled:
//   - Returns nil server; every collector falls back to its no-op implementation
//
// InitializeMetrics must run before services are built so that the filestore,
// cache and central collectors see the registry.
func InitializeMetrics(cfg *Config, health func(ctx context.Context) error) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Host:   cfg.Metrics.Host,
		Port:   cfg.Metrics.Port,
		Health: health,
	})

	return &MetricsResult{Server: server}
}
