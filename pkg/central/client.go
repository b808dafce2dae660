package central

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/mkitti/fileglancer/internal/logger"
	"github.com/mkitti/fileglancer/internal/ratelimiter"
	"github.com/mkitti/fileglancer/pkg/metrics"
)

// DefaultTimeout bounds each request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response body is kept in errors.
const maxErrorBody = 512

// ClientConfig configures a Client.
type ClientConfig struct {
	// URL is the central server base URL (required)
	URL string

	// Timeout bounds each HTTP exchange (0 = DefaultTimeout)
	Timeout time.Duration

	// RateLimit is the sustained requests per second (0 = unlimited)
	RateLimit uint

	// RateBurst is the number of requests allowed at once
	RateBurst uint

	// Metrics records each request (nil = no-op)
	Metrics metrics.CentralMetrics

	// HTTPClient overrides the transport; its Timeout is replaced by Timeout
	HTTPClient *http.Client
}

// Client is an HTTP client for the central server.
//
// It implements both sharepaths.Fetcher and proxiedpaths.Remote. It never
// retries; every failure surfaces as a *RemoteError matching
// ErrRemoteUnavailable.
//
// Thread Safety:
// Safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *ratelimiter.RateLimiter
	metrics metrics.CentralMetrics
}

// NewClient validates cfg and creates a client. An empty URL fails with
// ErrNotConfigured.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNotConfigured
	}

	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid central URL %q: %w", cfg.URL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid central URL %q: scheme must be http or https", cfg.URL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		c := *cfg.HTTPClient
		hc = &c
	}
	hc.Timeout = timeout

	m := cfg.Metrics
	if m == nil {
		m = metrics.NewCentralMetrics()
	}

	return &Client{
		base:    base,
		http:    hc,
		limiter: ratelimiter.New(cfg.RateLimit, cfg.RateBurst),
		metrics: m,
	}, nil
}

// URL returns the base URL.
func (c *Client) URL() string {
	return c.base.String()
}

// FetchFileSharePaths retrieves every configured share. The server may
// answer with a bare JSON array or with {"paths": [...]}.
func (c *Client) FetchFileSharePaths(ctx context.Context) ([]FileSharePath, error) {
	const op = "file-share-paths"

	var paths []FileSharePath
	if err := c.do(ctx, op, http.MethodGet, c.endpoint(nil, "file-share-paths"), &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// FetchProxiedPaths retrieves every proxied path owned by username.
func (c *Client) FetchProxiedPaths(ctx context.Context, username string) ([]ProxiedPath, error) {
	const op = "proxied-paths"

	var paths []ProxiedPath
	if err := c.do(ctx, op, http.MethodGet, c.endpoint(nil, "proxied-path", username), &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// CreateProxiedPath asks the server to create a proxied path for mountPath.
func (c *Client) CreateProxiedPath(ctx context.Context, username, mountPath string) (ProxiedPath, error) {
	const op = "create-proxied-path"

	q := url.Values{"mount_path": {mountPath}}
	var pp ProxiedPath
	if err := c.do(ctx, op, http.MethodPost, c.endpoint(q, "proxied-path", username), &pp); err != nil {
		return ProxiedPath{}, err
	}
	return pp, nil
}

// UpdateProxiedPath changes the mount path and/or sharing name of the proxied
// path identified by sharingKey.
func (c *Client) UpdateProxiedPath(ctx context.Context, username, sharingKey string, upd ProxiedPathUpdate) (ProxiedPath, error) {
	const op = "update-proxied-path"

	q := url.Values{}
	if upd.MountPath != nil && *upd.MountPath != "" {
		q.Set("mount_path", *upd.MountPath)
	}
	if upd.SharingName != nil && *upd.SharingName != "" {
		q.Set("sharing_name", *upd.SharingName)
	}

	var pp ProxiedPath
	if err := c.do(ctx, op, http.MethodPut, c.endpoint(q, "proxied-path", username, sharingKey), &pp); err != nil {
		return ProxiedPath{}, err
	}
	return pp, nil
}

// DeleteProxiedPath removes the proxied path identified by sharingKey.
func (c *Client) DeleteProxiedPath(ctx context.Context, username, sharingKey string) error {
	const op = "delete-proxied-path"
	return c.do(ctx, op, http.MethodDelete, c.endpoint(nil, "proxied-path", username, sharingKey), nil)
}

// endpoint joins escaped path segments onto the base URL.
func (c *Client) endpoint(query url.Values, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	target := strings.TrimRight(c.base.String(), "/") + "/" + strings.Join(escaped, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

// do performs one request and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, op, method, target string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return &RemoteError{Op: op, URL: target, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	logger.Debug("central %s: %s %s (request %s)", op, method, target, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordRequest(op, time.Since(start), 0)
		logger.Warn("central %s failed: %v", op, err)
		return &RemoteError{Op: op, URL: target, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.RecordRequest(op, time.Since(start), resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		rerr := &RemoteError{Op: op, URL: target, StatusCode: resp.StatusCode}
		if msg := strings.TrimSpace(string(body)); msg != "" {
			rerr.Err = errors.New(msg)
		}
		logger.Warn("central %s returned %d", op, resp.StatusCode)
		return rerr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var raw any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return &RemoteError{Op: op, URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if err := decodePayload(raw, out); err != nil {
		return &RemoteError{Op: op, URL: target, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

// decodePayload maps a generic JSON value onto out. List targets accept
// either a bare array or an object wrapping the array under "paths".
func decodePayload(raw any, out any) error {
	if obj, ok := raw.(map[string]any); ok {
		if isList(out) {
			paths, found := obj["paths"]
			if !found {
				return errors.New(`decode response: object has no "paths" field`)
			}
			raw = paths
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isList(out any) bool {
	switch out.(type) {
	case *[]FileSharePath, *[]ProxiedPath:
		return true
	default:
		return false
	}
}
