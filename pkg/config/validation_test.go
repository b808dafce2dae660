package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_CentralURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"", false},
		{"http://localhost:7878", false},
		{"https://central.example.org/api", false},
		{"not a url", true},
		{"ftp://central.example.org", true},
		{"https://central.example.org/api?token=x", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			cfg := GetDefaultConfig()
			cfg.Central.URL = tt.url

			err := Validate(cfg)
			if tt.wantErr && err == nil {
				t.Errorf("Expected validation error for url %q", tt.url)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected url %q to be valid, got: %v", tt.url, err)
			}
		})
	}
}

func TestValidate_NonPositiveDurations(t *testing.T) {
	mutators := map[string]func(*Config){
		"timeout":           func(c *Config) { c.Central.Timeout = 0 },
		"share_paths_ttl":   func(c *Config) { c.Central.SharePathsTTL = -time.Second },
		"proxied_paths_ttl": func(c *Config) { c.Central.ProxiedPathsTTL = 0 },
		"probe_interval":    func(c *Config) { c.Metrics.ProbeInterval = -time.Minute },
	}

	for name, mutate := range mutators {
		t.Run(name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatalf("Expected validation error for %s", name)
			}
			if !strings.Contains(err.Error(), "gt") {
				t.Errorf("Expected 'gt' validation error, got: %v", err)
			}
		})
	}
}

func TestValidate_RateBurstWithoutLimit(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Central.RateBurst = 5

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for rate_burst without rate_limit")
	}
	if !strings.Contains(err.Error(), "rate_limit") {
		t.Errorf("Expected error to mention rate_limit, got: %v", err)
	}

	cfg.Central.RateLimit = 10
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected rate_burst with rate_limit to be valid, got: %v", err)
	}
}

func TestValidate_EmptyRootDir(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Filestore.RootDir = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for empty root_dir")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("Expected 'required' validation error, got: %v", err)
	}
}

func TestValidate_ChunkSize(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Filestore.ChunkSize = 0
	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for chunk_size 0")
	}

	cfg.Filestore.ChunkSize = 64 << 20
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected 64MiB chunk_size to be valid, got: %v", err)
	}

	cfg.Filestore.ChunkSize = 64<<20 + 1
	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for oversized chunk_size")
	}
	if !strings.Contains(err.Error(), "lte") {
		t.Errorf("Expected 'lte' (less than or equal) validation error, got: %v", err)
	}
}

func TestValidate_InvalidMetricsPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Port = 70000

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for port > 65535")
	}
	if !strings.Contains(err.Error(), "max") {
		t.Errorf("Expected 'max' validation error, got: %v", err)
	}
}

func TestValidate_LogLevelNormalization(t *testing.T) {
	// Test that validation accepts both uppercase and lowercase log levels
	testCases := []string{"info", "INFO", "debug", "DEBUG", "warn", "WARN", "error", "ERROR"}

	for _, level := range testCases {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = level

		err := Validate(cfg)
		if err != nil {
			t.Errorf("Validation failed for level %q: %v", level, err)
		}

		// Validation should NOT normalize - level should remain as-is
		if cfg.Logging.Level != level {
			t.Errorf("Expected level to remain %q after validation, got %q", level, cfg.Logging.Level)
		}
	}

	// Test that normalization happens in ApplyDefaults
	cfg := &Config{Logging: LoggingConfig{Level: "info"}}
	ApplyDefaults(cfg)
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected ApplyDefaults to normalize 'info' to 'INFO', got %q", cfg.Logging.Level)
	}
}
