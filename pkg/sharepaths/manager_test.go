package sharepaths

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkitti/fileglancer/pkg/cache"
	"github.com/mkitti/fileglancer/pkg/central"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	paths []central.FileSharePath
	err   error
}

func (f *fakeFetcher) FetchFileSharePaths(context.Context) ([]central.FileSharePath, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.paths, nil
}

func (f *fakeFetcher) set(paths []central.FileSharePath, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths, f.err = paths, err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var testShares = []central.FileSharePath{
	{Zone: "Z", CanonicalPath: "/groups/a", LinuxPath: "/mnt/a"},
	{Zone: "Z", CanonicalPath: "/groups/b", LinuxPath: "/mnt/b"},
}

func newManager(t *testing.T) (*Manager, *fakeFetcher, *clock) {
	t.Helper()
	f := &fakeFetcher{paths: testShares}
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	return New(f, time.Hour, cache.WithClock(c.Now)), f, c
}

func TestManager_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("OneFetchWithinTTL", func(t *testing.T) {
		m, f, c := newManager(t)

		for range 5 {
			got, err := m.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, testShares, got)
			c.Advance(10 * time.Minute)
		}
		assert.Equal(t, 1, f.Calls())
	})

	t.Run("RefetchAfterTTL", func(t *testing.T) {
		m, f, c := newManager(t)

		_, err := m.Get(ctx)
		require.NoError(t, err)

		updated := []central.FileSharePath{{CanonicalPath: "/groups/c"}}
		f.set(updated, nil)
		c.Advance(time.Hour + time.Second)

		got, err := m.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
		assert.Equal(t, 2, f.Calls())
	})

	t.Run("FailedRefetchIsNotServedStale", func(t *testing.T) {
		m, f, c := newManager(t)

		_, err := m.Get(ctx)
		require.NoError(t, err)

		remoteErr := &central.RemoteError{Op: "file-share-paths", StatusCode: 502}
		f.set(nil, remoteErr)
		c.Advance(2 * time.Hour)

		_, err = m.Get(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, central.ErrRemoteUnavailable)

		// Recovery on the next call once the server is back.
		f.set(testShares, nil)
		got, err := m.Get(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("ReturnsCopy", func(t *testing.T) {
		m, _, _ := newManager(t)

		got, err := m.Get(ctx)
		require.NoError(t, err)
		got[0].CanonicalPath = "/mutated"

		again, err := m.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "/groups/a", again[0].CanonicalPath)
	})

	t.Run("Invalidate", func(t *testing.T) {
		m, f, _ := newManager(t)

		_, err := m.Get(ctx)
		require.NoError(t, err)
		m.Invalidate()
		_, err = m.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, f.Calls())
	})
}

func TestManager_Lookup(t *testing.T) {
	ctx := context.Background()
	m, f, c := newManager(t)

	share, err := m.Lookup(ctx, "/groups/b")
	require.NoError(t, err)
	assert.Equal(t, "/mnt/b", share.LinuxPath)

	_, err = m.Lookup(ctx, "/groups")
	assert.ErrorIs(t, err, ErrNotFound, "matching is exact, not by prefix")

	c.Advance(time.Hour)
	f.set(nil, errors.New("down"))
	_, err = m.Lookup(ctx, "/groups/a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound, "an expired list is refreshed, not consulted")
}

func TestNewLocal(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	m, err := NewLocal(root)
	require.NoError(t, err)
	assert.True(t, m.Local())

	shares, err := m.Get(ctx)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, central.FileSharePath{
		Zone:          "Local",
		CanonicalPath: "/local",
		Group:         "local",
		Storage:       "home",
		LinuxPath:     root,
	}, shares[0])

	share, err := m.Lookup(ctx, "/local")
	require.NoError(t, err)
	assert.Equal(t, root, share.LinuxPath)

	m.Invalidate()
	_, err = m.Get(ctx)
	require.NoError(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/data", filepath.Join(home, "data")},
		{"/srv/../srv/share", "/srv/share"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			got, err := ExpandPath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
