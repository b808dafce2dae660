// Package proxiedpaths caches each user's proxied paths from the central
// server and forwards mutations to it.
package proxiedpaths

import (
	"context"
	"errors"
	"time"

	"github.com/mkitti/fileglancer/internal/logger"
	"github.com/mkitti/fileglancer/pkg/cache"
	"github.com/mkitti/fileglancer/pkg/central"
)

// DefaultTTL is how long a user's fetched list is served before refetching.
const DefaultTTL = time.Hour

// ErrInvalidArgument is returned for an empty username or sharing key.
var ErrInvalidArgument = errors.New("invalid argument")

// Remote is the central server surface the manager needs. *central.Client
// implements it.
type Remote interface {
	FetchProxiedPaths(ctx context.Context, username string) ([]central.ProxiedPath, error)
	CreateProxiedPath(ctx context.Context, username, mountPath string) (central.ProxiedPath, error)
	UpdateProxiedPath(ctx context.Context, username, sharingKey string, upd central.ProxiedPathUpdate) (central.ProxiedPath, error)
	DeleteProxiedPath(ctx context.Context, username, sharingKey string) error
}

// Manager keeps one cache slot per username.
//
// Mutations go to the central server first. When one succeeds the user's
// slot is evicted, so the next Get by that caller refetches and sees the
// change; when it fails the slot is left alone. Fetches that were already
// running when the slot was evicted cannot repopulate it.
//
// A Manager without a remote (no central URL configured) fails every
// operation with central.ErrNotConfigured.
type Manager struct {
	remote Remote
	table  *cache.Table[string, []central.ProxiedPath]
}

// New creates a manager. remote may be nil. ttl <= 0 uses DefaultTTL.
func New(remote Remote, ttl time.Duration, opts ...cache.Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		remote: remote,
		table:  cache.NewTable[string, []central.ProxiedPath]("proxied_paths", ttl, opts...),
	}
}

// Configured reports whether a central server is available.
func (m *Manager) Configured() bool {
	return m.remote != nil
}

// Get returns username's proxied paths. A non-empty sharingKey restricts the
// result to the matching path (an empty result, not an error, if none match).
func (m *Manager) Get(ctx context.Context, username, sharingKey string) ([]central.ProxiedPath, error) {
	if err := m.check(username); err != nil {
		return nil, err
	}

	paths, err := m.table.Get(ctx, username, func(ctx context.Context) ([]central.ProxiedPath, error) {
		logger.Info("Caching proxied paths for user %s from central server", username)
		return m.remote.FetchProxiedPaths(ctx, username)
	})
	if err != nil {
		return nil, err
	}

	result := make([]central.ProxiedPath, 0, len(paths))
	for _, p := range paths {
		if sharingKey == "" || p.SharingKey == sharingKey {
			result = append(result, p)
		}
	}
	return result, nil
}

// Create registers mountPath as a new proxied path for username.
func (m *Manager) Create(ctx context.Context, username, mountPath string) (central.ProxiedPath, error) {
	if err := m.check(username); err != nil {
		return central.ProxiedPath{}, err
	}

	pp, err := m.remote.CreateProxiedPath(ctx, username, mountPath)
	if err != nil {
		return central.ProxiedPath{}, err
	}
	m.table.Invalidate(username)
	return pp, nil
}

// Update changes the mount path and/or sharing name of one proxied path.
func (m *Manager) Update(ctx context.Context, username, sharingKey string, upd central.ProxiedPathUpdate) (central.ProxiedPath, error) {
	if err := m.check(username); err != nil {
		return central.ProxiedPath{}, err
	}
	if sharingKey == "" {
		return central.ProxiedPath{}, errors.Join(ErrInvalidArgument, errors.New("sharing key is required"))
	}

	pp, err := m.remote.UpdateProxiedPath(ctx, username, sharingKey, upd)
	if err != nil {
		return central.ProxiedPath{}, err
	}
	m.table.Invalidate(username)
	return pp, nil
}

// Delete removes one proxied path.
func (m *Manager) Delete(ctx context.Context, username, sharingKey string) error {
	if err := m.check(username); err != nil {
		return err
	}
	if sharingKey == "" {
		return errors.Join(ErrInvalidArgument, errors.New("sharing key is required"))
	}

	if err := m.remote.DeleteProxiedPath(ctx, username, sharingKey); err != nil {
		return err
	}
	m.table.Invalidate(username)
	return nil
}

func (m *Manager) check(username string) error {
	if m.remote == nil {
		return central.ErrNotConfigured
	}
	if username == "" {
		return errors.Join(ErrInvalidArgument, errors.New("username is required"))
	}
	return nil
}
