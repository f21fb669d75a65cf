// Package cache shares object metadata between facades. Classification
// needs one metadata round trip per facade; walking a lineage or serving
// many requests for the same reference repeats it.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
	"k8s.io/klog/v2"

	"github.com/realmarcin/data-api/pkg/workspace"
)

// fetchTimeout bounds a shared fetch, which outlives the caller that started it.
const fetchTimeout = 2 * time.Minute

// Client memoises GetObjectInfo of the wrapped client. At most one fetch
// per reference is in flight; failures are never cached. Other calls go
// straight through.
type Client struct {
	workspace.Client
	infos *expirable.LRU[string, workspace.ObjectInfo]
	group singleflight.Group
}

// New wraps next with a cache holding up to size entries for ttl each.
func New(next workspace.Client, size int, ttl time.Duration) *Client {
	return &Client{
		Client: next,
		infos:  expirable.NewLRU[string, workspace.ObjectInfo](size, nil, ttl),
	}
}

// GetObjectInfo implements workspace.Client.
func (c *Client) GetObjectInfo(ctx context.Context, ref workspace.Ref) (workspace.ObjectInfo, error) {
	key := ref.String()
	if info, ok := c.infos.Get(key); ok {
		return info, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		// the shared fetch must not inherit one caller's cancellation
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		if info, ok := c.infos.Get(key); ok {
			return info, nil
		}
		info, err := c.Client.GetObjectInfo(fetchCtx, ref)
		if err != nil {
			return nil, err
		}
		c.infos.Add(key, info)
		return info, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return workspace.ObjectInfo{}, res.Err
		}
		if res.Shared {
			klog.V(5).InfoS("Shared object info fetch", "ref", key)
		}
		return res.Val.(workspace.ObjectInfo), nil
	case <-ctx.Done():
		return workspace.ObjectInfo{}, workspace.NewError(workspace.KindConnectivity, "get_object_info", key, ctx.Err())
	}
}

// Len returns the number of cached entries.
func (c *Client) Len() int { return c.infos.Len() }

// Purge drops every cached entry.
func (c *Client) Purge() { c.infos.Purge() }
