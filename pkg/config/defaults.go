package config

import (
	"strings"
	"time"

	"github.com/mkitti/fileglancer/pkg/central"
	"github.com/mkitti/fileglancer/pkg/filestore"
	"github.com/mkitti/fileglancer/pkg/proxiedpaths"
	"github.com/mkitti/fileglancer/pkg/sharepaths"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - central.url has no default: leaving it empty selects local mode
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyCentralDefaults(&cfg.Central)
	applyFilestoreDefaults(&cfg.Filestore)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyCentralDefaults(cfg *CentralConfig) {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")

	if cfg.Timeout == 0 {
		cfg.Timeout = central.DefaultTimeout
	}
	if cfg.SharePathsTTL == 0 {
		cfg.SharePathsTTL = sharepaths.DefaultTTL
	}
	if cfg.ProxiedPathsTTL == 0 {
		cfg.ProxiedPathsTTL = proxiedpaths.DefaultTTL
	}
	if cfg.RateLimit > 0 && cfg.RateBurst == 0 {
		cfg.RateBurst = cfg.RateLimit
	}
}

func applyFilestoreDefaults(cfg *FilestoreConfig) {
	if cfg.RootDir == "" {
		cfg.RootDir = "~"
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = filestore.DefaultChunkSize
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
	if cfg.ProbeInterval == 0 {
		cfg.ProbeInterval = time.Minute
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
