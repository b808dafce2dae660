package central

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{URL: srv.URL + "/", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient(ClientConfig{URL: "ftp://central"})
	assert.Error(t, err)

	c, err := NewClient(ClientConfig{URL: "https://central.example.org/api/"})
	require.NoError(t, err)
	assert.Equal(t, "https://central.example.org/api", c.URL())
}

func TestClient_FetchFileSharePaths(t *testing.T) {
	shares := []map[string]any{
		{"zone": "Z1", "canonical_path": "/groups/a", "group": "a", "storage": "primary", "linux_path": "/mnt/a"},
		{"zone": "Z2", "canonical_path": "/groups/b", "group": nil, "mac_path": "smb://srv/b"},
	}

	tests := []struct {
		name string
		body any
	}{
		{name: "BareArray", body: shares},
		{name: "Wrapped", body: map[string]any{"paths": shares}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/file-share-paths", r.URL.Path)
				assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
				writeJSON(t, w, tt.body)
			})

			got, err := c.FetchFileSharePaths(context.Background())
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, FileSharePath{
				Zone: "Z1", CanonicalPath: "/groups/a", Group: "a", Storage: "primary", LinuxPath: "/mnt/a",
			}, got[0])
			assert.Equal(t, "", got[1].Group)
			assert.Equal(t, "smb://srv/b", got[1].MacPath)
		})
	}
}

func TestClient_Errors(t *testing.T) {
	t.Run("Status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "database offline", http.StatusServiceUnavailable)
		})

		_, err := c.FetchFileSharePaths(context.Background())
		require.ErrorIs(t, err, ErrRemoteUnavailable)

		var rerr *RemoteError
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, http.StatusServiceUnavailable, rerr.StatusCode)
		assert.Contains(t, err.Error(), "database offline")
	})

	t.Run("BadBody", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		})

		_, err := c.FetchProxiedPaths(context.Background(), "alice")
		assert.ErrorIs(t, err, ErrRemoteUnavailable)
	})

	t.Run("MissingPathsField", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]any{"items": []any{}})
		})

		_, err := c.FetchProxiedPaths(context.Background(), "alice")
		assert.ErrorIs(t, err, ErrRemoteUnavailable)
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		c, err := NewClient(ClientConfig{URL: srv.URL, Timeout: time.Second})
		require.NoError(t, err)

		_, err = c.FetchFileSharePaths(context.Background())
		assert.ErrorIs(t, err, ErrRemoteUnavailable)
	})
}

func TestClient_ProxiedPaths(t *testing.T) {
	var (
		mu                           sync.Mutex
		gotMethod, gotPath, gotQuery string
	)
	last := func() (string, string, string) {
		mu.Lock()
		defer mu.Unlock()
		return gotMethod, gotPath, gotQuery
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotMethod, gotPath, gotQuery = r.Method, r.URL.EscapedPath(), r.URL.RawQuery
		mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, map[string]any{"paths": []map[string]string{
				{"username": "alice", "sharing_key": "k1", "sharing_name": "one", "mount_path": "/a"},
			}})
		case http.MethodPost, http.MethodPut:
			writeJSON(t, w, map[string]string{
				"username": "alice", "sharing_key": "k2", "sharing_name": "two",
				"mount_path": r.URL.Query().Get("mount_path"),
			})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()

	paths, err := c.FetchProxiedPaths(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, ProxiedPath{Username: "alice", SharingKey: "k1", SharingName: "one", MountPath: "/a"}, paths[0])
	_, path, _ := last()
	assert.Equal(t, "/proxied-path/alice", path)

	pp, err := c.CreateProxiedPath(ctx, "alice", "/groups/a/data")
	require.NoError(t, err)
	method, _, query := last()
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "mount_path=%2Fgroups%2Fa%2Fdata", query)
	assert.Equal(t, "/groups/a/data", pp.MountPath)

	name := "renamed"
	_, err = c.UpdateProxiedPath(ctx, "alice", "k2", ProxiedPathUpdate{SharingName: &name})
	require.NoError(t, err)
	method, path, query = last()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/proxied-path/alice/k2", path)
	assert.Equal(t, "sharing_name=renamed", query)

	require.NoError(t, c.DeleteProxiedPath(ctx, "alice", "k/2"))
	method, path, _ = last()
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/proxied-path/alice/k%2F2", path)
}

func TestClient_CanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchFileSharePaths(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
