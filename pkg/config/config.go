package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete fileglancer configuration.
//
// This structure captures all configurable aspects of fileglancer:
//   - Logging configuration
//   - Central server connection and cache lifetimes
//   - Filestore settings (local root directory, streaming chunk size)
//   - Metrics server
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (FILEGLANCER_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`

	// Central configures the coordination service
	Central CentralConfig `mapstructure:"central" json:"central"`

	// Filestore configures sandboxed file access
	Filestore FilestoreConfig `mapstructure:"filestore" json:"filestore"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" json:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" json:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" json:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" json:"output" validate:"required"`
}

// CentralConfig configures the central server connection.
//
// An empty URL selects local mode: a single share rooted at
// Filestore.RootDir and no proxied paths.
type CentralConfig struct {
	// URL is the central server base URL (e.g. https://central.example.org/api)
	URL string `mapstructure:"url" json:"url,omitempty" validate:"omitempty,url"`

	// Timeout bounds each request to the central server
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" validate:"gt=0"`

	// SharePathsTTL is how long the file share path list is cached
	SharePathsTTL time.Duration `mapstructure:"share_paths_ttl" json:"share_paths_ttl" validate:"gt=0"`

	// ProxiedPathsTTL is how long each user's proxied paths are cached
	ProxiedPathsTTL time.Duration `mapstructure:"proxied_paths_ttl" json:"proxied_paths_ttl" validate:"gt=0"`

	// RateLimit caps sustained requests per second to the central server
	// 0 disables limiting
	RateLimit uint `mapstructure:"rate_limit" json:"rate_limit"`

	// RateBurst is the number of requests allowed at once when limiting
	RateBurst uint `mapstructure:"rate_burst" json:"rate_burst"`
}

// FilestoreConfig configures filestores.
type FilestoreConfig struct {
	// RootDir is the root of the single share served in local mode
	// "~" is expanded to the user's home directory
	RootDir string `mapstructure:"root_dir" json:"root_dir" validate:"required"`

	// ChunkSize is the streaming read chunk size in bytes
	ChunkSize int `mapstructure:"chunk_size" json:"chunk_size" validate:"gt=0,lte=67108864"`
}

// MetricsConfig configures the metrics HTTP server.
type MetricsConfig struct {
	// Enabled turns on Prometheus collection and the HTTP endpoint
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// Host is the listen address (empty = all interfaces)
	Host string `mapstructure:"host" json:"host,omitempty"`

	// Port is the HTTP port for /metrics and /healthz
	Port int `mapstructure:"port" json:"port" validate:"min=1,max=65535"`

	// ProbeInterval is how often the monitor command checks share mounts
	ProbeInterval time.Duration `mapstructure:"probe_interval" json:"probe_interval" validate:"gt=0"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (FILEGLANCER_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use FILEGLANCER_ prefix and underscores
	// Example: FILEGLANCER_CENTRAL_URL=https://central.example.org
	v.SetEnvPrefix("FILEGLANCER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper knows about; registering the
	// defaults makes every key overridable from the environment.
	registerDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/fileglancer/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// registerDefaults mirrors GetDefaultConfig into viper's default layer.
func registerDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	v.SetDefault("central.url", d.Central.URL)
	v.SetDefault("central.timeout", d.Central.Timeout)
	v.SetDefault("central.share_paths_ttl", d.Central.SharePathsTTL)
	v.SetDefault("central.proxied_paths_ttl", d.Central.ProxiedPathsTTL)
	v.SetDefault("central.rate_limit", d.Central.RateLimit)
	v.SetDefault("central.rate_burst", d.Central.RateBurst)

	v.SetDefault("filestore.root_dir", d.Filestore.RootDir)
	v.SetDefault("filestore.chunk_size", d.Filestore.ChunkSize)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.host", d.Metrics.Host)
	v.SetDefault("metrics.port", d.Metrics.Port)
	v.SetDefault("metrics.probe_interval", d.Metrics.ProbeInterval)
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper, configPath string) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			// Config file not found is acceptable - use defaults
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "fileglancer")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "fileglancer")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
