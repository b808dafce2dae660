// Package sharepaths resolves canonical share paths to their configured
// file share, caching the central server's list for a fixed TTL.
package sharepaths

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mkitti/fileglancer/internal/logger"
	"github.com/mkitti/fileglancer/pkg/cache"
	"github.com/mkitti/fileglancer/pkg/central"
)

// DefaultTTL is how long a fetched share list is served before refetching.
const DefaultTTL = time.Hour

// ErrNotFound is returned by Lookup when no share has the canonical path.
var ErrNotFound = errors.New("file share path not found")

// Local-mode share identity.
const (
	LocalZone          = "Local"
	LocalCanonicalPath = "/local"
	LocalGroup         = "local"
	LocalStorage       = "home"
)

// Fetcher retrieves the authoritative share list. *central.Client
// implements it.
type Fetcher interface {
	FetchFileSharePaths(ctx context.Context) ([]central.FileSharePath, error)
}

// all is the single slot key: the whole list is cached as one value.
const all = "all"

// Manager serves the share list, refetching it once the cached copy is
// older than its TTL. A failed refetch is reported to the caller; the
// expired list is never served in its place.
//
// A Manager built with NewLocal serves one synthesized share and never
// contacts a central server.
type Manager struct {
	fetcher Fetcher
	table   *cache.Table[string, []central.FileSharePath]

	local []central.FileSharePath
}

// New creates a manager backed by fetcher. ttl <= 0 uses DefaultTTL.
func New(fetcher Fetcher, ttl time.Duration, opts ...cache.Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		fetcher: fetcher,
		table:   cache.NewTable[string, []central.FileSharePath]("share_paths", ttl, opts...),
	}
}

// NewLocal creates a manager serving a single share rooted at rootDir
// ("~" is expanded). Used when no central server is configured.
func NewLocal(rootDir string) (*Manager, error) {
	root, err := ExpandPath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve local root %q: %w", rootDir, err)
	}

	logger.Warn("Central URL is not set, using local file share config")
	logger.Debug("Local share root: %s", root)

	return &Manager{
		local: []central.FileSharePath{{
			Zone:          LocalZone,
			CanonicalPath: LocalCanonicalPath,
			Group:         LocalGroup,
			Storage:       LocalStorage,
			LinuxPath:     root,
		}},
	}, nil
}

// Local reports whether the manager serves the synthesized local share.
func (m *Manager) Local() bool {
	return m.table == nil
}

// Get returns every configured share. The returned slice is a copy.
func (m *Manager) Get(ctx context.Context) ([]central.FileSharePath, error) {
	if m.Local() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return slices.Clone(m.local), nil
	}

	paths, err := m.table.Get(ctx, all, m.fetch)
	if err != nil {
		return nil, err
	}
	return slices.Clone(paths), nil
}

// Lookup returns the share whose CanonicalPath equals canonicalPath exactly,
// refreshing the list first if it has expired.
func (m *Manager) Lookup(ctx context.Context, canonicalPath string) (central.FileSharePath, error) {
	paths, err := m.Get(ctx)
	if err != nil {
		return central.FileSharePath{}, err
	}

	for _, p := range paths {
		if p.CanonicalPath == canonicalPath {
			return p, nil
		}
	}
	return central.FileSharePath{}, fmt.Errorf("%w: %s", ErrNotFound, canonicalPath)
}

// Invalidate forces the next Get to refetch.
func (m *Manager) Invalidate() {
	if !m.Local() {
		m.table.Invalidate(all)
	}
}

func (m *Manager) fetch(ctx context.Context) ([]central.FileSharePath, error) {
	paths, err := m.fetcher.FetchFileSharePaths(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("Configured %d file share paths", len(paths))
	return paths, nil
}

// ExpandPath expands a leading "~" and returns the absolute, cleaned path.
func ExpandPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}
