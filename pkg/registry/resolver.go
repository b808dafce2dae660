package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mkitti/fileglancer/internal/logger"
	"github.com/mkitti/fileglancer/pkg/central"
	"github.com/mkitti/fileglancer/pkg/filestore"
	"github.com/mkitti/fileglancer/pkg/metrics"
	"github.com/mkitti/fileglancer/pkg/sharepaths"
)

// ErrNotMounted is returned when a share exists but its root cannot be
// reached on this host.
var ErrNotMounted = errors.New("file share path is not mounted")

// Resolver turns canonical share paths into filestores rooted at the share's
// Linux mount path.
type Resolver struct {
	shares *sharepaths.Manager
	opts   []filestore.Option
	mounts metrics.MountMetrics

	mu     sync.RWMutex
	stores map[string]*filestore.Filestore // key: linux path
}

// NewResolver creates a resolver over shares. opts apply to every filestore
// it constructs.
func NewResolver(shares *sharepaths.Manager, opts ...filestore.Option) *Resolver {
	return &Resolver{
		shares: shares,
		opts:   opts,
		mounts: metrics.NewMountMetrics(),
		stores: make(map[string]*filestore.Filestore),
	}
}

// Filestore returns a filestore for the share with canonicalPath, after
// checking that the share's root is reachable.
//
// Errors:
//   - sharepaths.ErrNotFound: no such share
//   - central.ErrRemoteUnavailable: the share list could not be refreshed
//   - ErrNotMounted: the share has no Linux path or its root cannot be described
func (r *Resolver) Filestore(ctx context.Context, canonicalPath string) (*filestore.Filestore, central.FileSharePath, error) {
	share, err := r.shares.Lookup(ctx, canonicalPath)
	if err != nil {
		return nil, central.FileSharePath{}, err
	}
	if share.LinuxPath == "" {
		r.mounts.SetMounted(canonicalPath, false)
		return nil, share, fmt.Errorf("%w: %s has no linux path", ErrNotMounted, canonicalPath)
	}

	fs, err := r.filestoreFor(share)
	if err != nil {
		return nil, share, err
	}

	if _, err := fs.Describe(ctx, "."); err != nil {
		if ctx.Err() != nil {
			return nil, share, err
		}
		logger.Warn("File share path %s is not mounted at %s: %v", canonicalPath, share.LinuxPath, err)
		r.mounts.SetMounted(canonicalPath, false)
		return nil, share, fmt.Errorf("%w: %s at %s: %w", ErrNotMounted, canonicalPath, share.LinuxPath, err)
	}

	r.mounts.SetMounted(canonicalPath, true)
	return fs, share, nil
}

// MountStatus is the result of probing one share.
type MountStatus struct {
	Share   central.FileSharePath
	Mounted bool
	Err     error
}

// Probe checks every configured share and reports which are reachable.
// Only a failure to obtain the share list is returned as an error.
func (r *Resolver) Probe(ctx context.Context) ([]MountStatus, error) {
	shares, err := r.shares.Get(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]MountStatus, 0, len(shares))
	for _, share := range shares {
		if err := ctx.Err(); err != nil {
			return statuses, err
		}
		_, _, ferr := r.Filestore(ctx, share.CanonicalPath)
		statuses = append(statuses, MountStatus{Share: share, Mounted: ferr == nil, Err: ferr})
	}
	return statuses, nil
}

func (r *Resolver) filestoreFor(share central.FileSharePath) (*filestore.Filestore, error) {
	r.mu.RLock()
	fs, ok := r.stores[share.LinuxPath]
	r.mu.RUnlock()
	if ok {
		return fs, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if fs, ok := r.stores[share.LinuxPath]; ok {
		return fs, nil
	}

	opts := append([]filestore.Option{
		filestore.WithMetrics(metrics.NewFilestoreMetrics(share.CanonicalPath)),
	}, r.opts...)

	fs, err := filestore.New(share.LinuxPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotMounted, share.CanonicalPath, err)
	}
	r.stores[share.LinuxPath] = fs
	return fs, nil
}
