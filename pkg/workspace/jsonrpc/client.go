// Package jsonrpc is the workspace.Client that talks JSON-RPC 1.1 over HTTP
// to a KBase workspace service.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	"k8s.io/klog/v2"

	"github.com/realmarcin/data-api/pkg/workspace"
)

// Config holds the transport settings.
type Config struct {
	URL            string
	Token          string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int
	// MaxRetries is the number of extra attempts after a transient
	// transport failure. Zero disables retries.
	MaxRetries    int
	RetryInterval time.Duration
	// HTTPClient replaces the default client built from ConnectTimeout.
	HTTPClient *http.Client
}

// Validate checks the transport settings.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("workspace URL is required")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return errors.New("rate limit and burst must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}
	return nil
}

// Client is a workspace.Client over JSON-RPC.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

var _ workspace.Client = (*Client)(nil)

// NewClient creates a client. No connection is made until the first call.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid workspace client config")
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		cfg:     cfg,
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}, nil
}

type objectSpec struct {
	Ref      string   `json:"ref"`
	Included []string `json:"included,omitempty"`
}

// GetObjectInfo implements workspace.Client.
func (c *Client) GetObjectInfo(ctx context.Context, ref workspace.Ref) (workspace.ObjectInfo, error) {
	params := map[string]any{
		"objects":         []objectSpec{{Ref: ref.String()}},
		"includeMetadata": 1,
	}
	var out [][]workspace.ObjectInfo
	if err := c.call(ctx, "get_object_info_new", ref, &out, params); err != nil {
		return workspace.ObjectInfo{}, err
	}
	if len(out) == 0 || len(out[0]) == 0 {
		return workspace.ObjectInfo{}, workspace.Errorf(workspace.KindNotFound, "get_object_info_new", ref.String(),
			"empty result")
	}
	return out[0][0], nil
}

// GetObject implements workspace.Client.
func (c *Client) GetObject(ctx context.Context, ref workspace.Ref) (*workspace.Object, error) {
	return c.object(ctx, "get_objects", ref, objectSpec{Ref: ref.String()})
}

// GetObjectSubset implements workspace.Client.
func (c *Client) GetObjectSubset(ctx context.Context, ref workspace.Ref, paths []string) (*workspace.Object, error) {
	if len(paths) == 0 {
		return c.GetObject(ctx, ref)
	}
	return c.object(ctx, "get_object_subset", ref, objectSpec{Ref: ref.String(), Included: paths})
}

func (c *Client) object(ctx context.Context, method string, ref workspace.Ref, spec objectSpec) (*workspace.Object, error) {
	var out [][]workspace.Object
	if err := c.call(ctx, method, ref, &out, []objectSpec{spec}); err != nil {
		return nil, err
	}
	if len(out) == 0 || len(out[0]) == 0 {
		return nil, workspace.Errorf(workspace.KindNotFound, method, ref.String(), "empty result")
	}
	return &out[0][0], nil
}

// ListReferencingObjects implements workspace.Client.
func (c *Client) ListReferencingObjects(ctx context.Context, ref workspace.Ref) ([]workspace.ObjectInfo, error) {
	var out [][][]workspace.ObjectInfo
	if err := c.call(ctx, "list_referencing_objects", ref, &out, []objectSpec{{Ref: ref.String()}}); err != nil {
		return nil, err
	}
	if len(out) == 0 || len(out[0]) == 0 {
		return []workspace.ObjectInfo{}, nil
	}
	return out[0][0], nil
}

// Version returns the version of the workspace service.
func (c *Client) Version(ctx context.Context) (string, error) {
	var out []string
	if err := c.call(ctx, "ver", workspace.Ref{}, &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", workspace.Errorf(workspace.KindConnectivity, "ver", "", "empty result")
	}
	return out[0], nil
}

type request struct {
	Version string `json:"version"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      string `json:"id"`
}

type response struct {
	Version string          `json:"version"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Name    string `json:"name"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Trace   string `json:"error"`
}

func (e *rpcError) Error() string {
	return e.Name + ": " + e.Message
}

// call sends one method call, retrying transient transport failures when
// retries are enabled. result receives the decoded result array.
func (c *Client) call(ctx context.Context, method string, ref workspace.Ref, result any, params ...any) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(request{
		Version: "1.1",
		Method:  "Workspace." + method,
		Params:  params,
		ID:      uuid.NewString(),
	})
	if err != nil {
		return errors.Wrapf(err, "encode %s request", method)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RetryInterval
	policy.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		err := c.roundTrip(ctx, method, ref, body, result)
		if err != nil && attempt <= c.cfg.MaxRetries {
			klog.V(2).InfoS("Workspace call failed", "method", method, "ref", ref.String(), "attempt", attempt, "err", err)
		}
		return err
	}
	err = backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxRetries)), ctx))
	if err != nil && workspace.KindOf(err) == workspace.KindUnknown {
		// the retry loop reports a cancelled context on its own
		err = workspace.NewError(workspace.KindConnectivity, method, ref.String(), err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method string, ref workspace.Ref, body []byte, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return backoff.Permanent(workspace.NewError(workspace.KindConnectivity, method, ref.String(), err))
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(workspace.NewError(workspace.KindConnectivity, method, ref.String(), err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", c.cfg.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return workspace.NewError(workspace.KindConnectivity, method, ref.String(), err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return workspace.NewError(workspace.KindConnectivity, method, ref.String(), errors.Wrap(err, "read response"))
	}
	klog.V(4).InfoS("Workspace call", "method", method, "ref", ref.String(), "status", resp.StatusCode,
		"duration", time.Since(start))

	var rpcResp response
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		err = workspace.NewError(workspace.KindConnectivity, method, ref.String(),
			errors.Errorf("unexpected response (HTTP %d)", resp.StatusCode))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return err
		}
		return backoff.Permanent(err)
	}
	if rpcResp.Error != nil {
		return backoff.Permanent(workspace.NewError(classify(rpcResp.Error), method, ref.String(), rpcResp.Error))
	}
	if resp.StatusCode != http.StatusOK {
		return backoff.Permanent(workspace.NewError(workspace.KindConnectivity, method, ref.String(),
			errors.Errorf("HTTP %d", resp.StatusCode)))
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return backoff.Permanent(workspace.NewError(workspace.KindConnectivity, method, ref.String(),
			errors.Wrap(err, "decode result")))
	}
	return nil
}

var notFoundMarkers = []string{
	"no object with",
	"no workspace with",
	"does not exist",
	"is deleted",
	"has been deleted",
	"not found",
}

// classify maps a workspace service error to a kind. Missing objects are
// not found; everything else, permission errors included, means the
// workspace could not serve the request.
func classify(e *rpcError) workspace.Kind {
	msg := strings.ToLower(e.Message)
	for _, m := range notFoundMarkers {
		if strings.Contains(msg, m) {
			return workspace.KindNotFound
		}
	}
	return workspace.KindConnectivity
}
