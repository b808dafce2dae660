// Package registry shares the caches and filestore resolver built for one
// (central URL, root directory) configuration across every caller that asks
// for it.
package registry

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mkitti/fileglancer/internal/logger"
	"github.com/mkitti/fileglancer/pkg/cache"
	"github.com/mkitti/fileglancer/pkg/central"
	"github.com/mkitti/fileglancer/pkg/filestore"
	"github.com/mkitti/fileglancer/pkg/metrics"
	"github.com/mkitti/fileglancer/pkg/proxiedpaths"
	"github.com/mkitti/fileglancer/pkg/sharepaths"
)

// Key identifies one set of services. Two configurations with the same key
// share caches.
type Key struct {
	CentralURL string
	RootDir    string
}

func (k Key) String() string {
	if k.CentralURL == "" {
		return "local:" + k.RootDir
	}
	return k.CentralURL
}

// Settings is everything needed to build Services. Only Key participates in
// lookup; the remaining fields are taken from the first request for a key.
type Settings struct {
	Key

	// Timeout bounds each central server request
	Timeout time.Duration

	// SharePathsTTL and ProxiedPathsTTL are the cache lifetimes (0 = 1h)
	SharePathsTTL   time.Duration
	ProxiedPathsTTL time.Duration

	// RateLimit and RateBurst throttle central server requests (0 = unlimited)
	RateLimit uint
	RateBurst uint

	// ChunkSize is the default filestore read chunk size
	ChunkSize int
}

// Services bundles the long-lived components for one Key.
type Services struct {
	Key Key

	// Client is nil in local mode
	Client *central.Client

	Shares       *sharepaths.Manager
	ProxiedPaths *proxiedpaths.Manager
	Resolver     *Resolver
}

// Registry lazily builds and then shares Services per Key.
//
// Example usage:
//
//	reg := registry.NewRegistry()
//	svc, err := reg.Services(registry.Settings{Key: registry.Key{CentralURL: url}})
//	fs, share, err := svc.Resolver.Filestore(ctx, "/groups/scicomp")
//
// Thread Safety:
// All methods are safe for concurrent use. Concurrent first requests for the
// same key build the services once.
type Registry struct {
	mu       sync.RWMutex
	services map[Key]*Services
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[Key]*Services),
	}
}

// Services returns the services for s.Key, building them on first use.
func (r *Registry) Services(s Settings) (*Services, error) {
	r.mu.RLock()
	svc, ok := r.services[s.Key]
	r.mu.RUnlock()
	if ok {
		return svc, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if svc, ok := r.services[s.Key]; ok {
		return svc, nil
	}

	svc, err := build(s)
	if err != nil {
		return nil, fmt.Errorf("failed to build services for %s: %w", s.Key, err)
	}
	r.services[s.Key] = svc
	logger.Debug("Registered services for %s", s.Key)
	return svc, nil
}

// Keys returns the keys of every built set of services.
// The returned slice is a copy and safe to modify.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]Key, 0, len(r.services))
	for k := range r.services {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		if c := strings.Compare(a.CentralURL, b.CentralURL); c != 0 {
			return c
		}
		return strings.Compare(a.RootDir, b.RootDir)
	})
	return keys
}

// Count returns the number of built sets of services.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}

func build(s Settings) (*Services, error) {
	var opts []cache.Option
	if obs := metrics.NewCacheMetrics(); obs != nil {
		opts = append(opts, cache.WithObserver(obs))
	}

	svc := &Services{Key: s.Key}

	if s.CentralURL == "" {
		shares, err := sharepaths.NewLocal(s.RootDir)
		if err != nil {
			return nil, err
		}
		svc.Shares = shares
		svc.ProxiedPaths = proxiedpaths.New(nil, s.ProxiedPathsTTL, opts...)
	} else {
		client, err := central.NewClient(central.ClientConfig{
			URL:       s.CentralURL,
			Timeout:   s.Timeout,
			RateLimit: s.RateLimit,
			RateBurst: s.RateBurst,
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("Central URL: %s", client.URL())

		svc.Client = client
		svc.Shares = sharepaths.New(client, s.SharePathsTTL, opts...)
		svc.ProxiedPaths = proxiedpaths.New(client, s.ProxiedPathsTTL, opts...)
	}

	owners := filestore.NewOwnerResolver(filestore.DefaultOwnerTTL, opts...)
	svc.Resolver = NewResolver(svc.Shares,
		filestore.WithChunkSize(s.ChunkSize),
		filestore.WithOwnerResolver(owners),
	)
	return svc, nil
}
