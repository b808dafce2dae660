package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkitti/fileglancer/pkg/central"
	"github.com/mkitti/fileglancer/pkg/sharepaths"
)

func TestRegistry_SharesServicesPerKey(t *testing.T) {
	reg := NewRegistry()
	root := t.TempDir()

	a, err := reg.Services(Settings{Key: Key{RootDir: root}})
	require.NoError(t, err)
	b, err := reg.Services(Settings{Key: Key{RootDir: root}, ChunkSize: 1})
	require.NoError(t, err)
	assert.Same(t, a, b)

	other, err := reg.Services(Settings{Key: Key{RootDir: t.TempDir()}})
	require.NoError(t, err)
	assert.NotSame(t, a, other)

	assert.Equal(t, 2, reg.Count())
	assert.Len(t, reg.Keys(), 2)
}

func TestRegistry_ConcurrentFirstUse(t *testing.T) {
	reg := NewRegistry()
	key := Key{RootDir: t.TempDir()}

	var wg sync.WaitGroup
	got := make([]*Services, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc, err := reg.Services(Settings{Key: key})
			assert.NoError(t, err)
			got[i] = svc
		}()
	}
	wg.Wait()

	for _, svc := range got {
		assert.Same(t, got[0], svc)
	}
}

func TestRegistry_LocalMode(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hi"), 0o644))

	svc, err := NewRegistry().Services(Settings{Key: Key{RootDir: root}})
	require.NoError(t, err)
	assert.Nil(t, svc.Client)
	assert.True(t, svc.Shares.Local())

	fs, share, err := svc.Resolver.Filestore(ctx, "/local")
	require.NoError(t, err)
	assert.Equal(t, "Local", share.Zone)

	info, err := fs.Describe(ctx, "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Size)

	_, err = svc.ProxiedPaths.Get(ctx, "alice", "")
	assert.ErrorIs(t, err, central.ErrNotConfigured)

	_, _, err = svc.Resolver.Filestore(ctx, "/elsewhere")
	assert.ErrorIs(t, err, sharepaths.ErrNotFound)
}

func TestRegistry_InvalidCentralURL(t *testing.T) {
	_, err := NewRegistry().Services(Settings{Key: Key{CentralURL: "ftp://nope"}})
	assert.Error(t, err)
}

func TestResolver_CentralMode(t *testing.T) {
	ctx := context.Background()
	mounted := t.TempDir()
	missing := filepath.Join(t.TempDir(), "gone")

	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"paths": []map[string]any{
			{"zone": "Z", "canonical_path": "/groups/a", "linux_path": mounted},
			{"zone": "Z", "canonical_path": "/groups/b", "linux_path": missing},
			{"zone": "Z", "canonical_path": "/groups/c"},
		}})
	}))
	t.Cleanup(srv.Close)

	svc, err := NewRegistry().Services(Settings{
		Key:     Key{CentralURL: srv.URL},
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, svc.Client)

	fs, share, err := svc.Resolver.Filestore(ctx, "/groups/a")
	require.NoError(t, err)
	assert.Equal(t, mounted, share.LinuxPath)

	again, _, err := svc.Resolver.Filestore(ctx, "/groups/a")
	require.NoError(t, err)
	assert.Same(t, fs, again, "filestores are reused per mount path")

	_, _, err = svc.Resolver.Filestore(ctx, "/groups/b")
	assert.ErrorIs(t, err, ErrNotMounted)

	_, _, err = svc.Resolver.Filestore(ctx, "/groups/c")
	assert.ErrorIs(t, err, ErrNotMounted)

	statuses, err := svc.Resolver.Probe(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.True(t, statuses[0].Mounted)
	assert.False(t, statuses[1].Mounted)
	assert.False(t, statuses[2].Mounted)

	assert.Equal(t, int32(1), fetches.Load(), "the share list is fetched once within its TTL")
}

func TestResolver_CentralDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	svc, err := NewRegistry().Services(Settings{Key: Key{CentralURL: srv.URL}})
	require.NoError(t, err)

	_, _, err = svc.Resolver.Filestore(context.Background(), "/groups/a")
	assert.ErrorIs(t, err, central.ErrRemoteUnavailable)

	_, err = svc.Resolver.Probe(context.Background())
	assert.ErrorIs(t, err, central.ErrRemoteUnavailable)
}
