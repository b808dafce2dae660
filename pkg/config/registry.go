package config

import (
	"fmt"

	"github.com/mkitti/fileglancer/internal/logger"
	"github.com/mkitti/fileglancer/pkg/registry"
	"github.com/mkitti/fileglancer/pkg/sharepaths"
)

// Settings converts the configuration into registry settings.
//
// filestore.root_dir is expanded ("~" and made absolute) so that two
// spellings of the same directory share one set of services.
func Settings(cfg *Config) (registry.Settings, error) {
	root, err := sharepaths.ExpandPath(cfg.Filestore.RootDir)
	if err != nil {
		return registry.Settings{}, fmt.Errorf("filestore.root_dir %q: %w", cfg.Filestore.RootDir, err)
	}

	return registry.Settings{
		Key: registry.Key{
			CentralURL: cfg.Central.URL,
			RootDir:    root,
		},
		Timeout:         cfg.Central.Timeout,
		SharePathsTTL:   cfg.Central.SharePathsTTL,
		ProxiedPathsTTL: cfg.Central.ProxiedPathsTTL,
		RateLimit:       cfg.Central.RateLimit,
		RateBurst:       cfg.Central.RateBurst,
		ChunkSize:       cfg.Filestore.ChunkSize,
	}, nil
}

// InitializeServices builds (or reuses) the services for cfg in reg.
//
// Example:
//
//	cfg, _ := config.Load("config.yaml")
//	svc, err := config.InitializeServices(registry.NewRegistry(), cfg)
//	if err != nil {
//	    log.Fatalf("Failed to initialize services: %v", err)
//	}
func InitializeServices(reg *registry.Registry, cfg *Config) (*registry.Services, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is nil")
	}

	s, err := Settings(cfg)
	if err != nil {
		return nil, err
	}
	if s.CentralURL == "" {
		logger.Debug("Initializing local services rooted at %s", s.RootDir)
	} else {
		logger.Debug("Initializing services for central server %s", s.CentralURL)
	}

	return reg.Services(s)
}
