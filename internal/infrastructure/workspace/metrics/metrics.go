// Package metrics instruments a workspace.Client with Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/realmarcin/data-api/pkg/workspace"
)

// Metrics holds the collectors shared by every instrumented client.
type Metrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workspace",
			Name:      "calls_total",
			Help:      "Workspace calls by operation and result kind.",
		}, []string{"operation", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "workspace",
			Name:      "call_duration_seconds",
			Help:      "Bucketed histogram of workspace call latency.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{m.calls, m.latency} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register workspace metrics")
		}
	}
	return m, nil
}

// Instrument wraps next so that every call is counted and timed.
func (m *Metrics) Instrument(next workspace.Client) workspace.Client {
	return &client{next: next, m: m}
}

// observe reads the named error result of the deferring call.
func (m *Metrics) observe(op string, start time.Time, errp *error) {
	m.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	result := "ok"
	if *errp != nil {
		result = workspace.KindOf(*errp).String()
	}
	m.calls.WithLabelValues(op, result).Inc()
}

type client struct {
	next workspace.Client
	m    *Metrics
}

func (c *client) GetObjectInfo(ctx context.Context, ref workspace.Ref) (info workspace.ObjectInfo, err error) {
	defer c.m.observe("get_object_info", time.Now(), &err)
	return c.next.GetObjectInfo(ctx, ref)
}

func (c *client) GetObject(ctx context.Context, ref workspace.Ref) (obj *workspace.Object, err error) {
	defer c.m.observe("get_object", time.Now(), &err)
	return c.next.GetObject(ctx, ref)
}

func (c *client) GetObjectSubset(ctx context.Context, ref workspace.Ref, paths []string) (obj *workspace.Object, err error) {
	defer c.m.observe("get_object_subset", time.Now(), &err)
	return c.next.GetObjectSubset(ctx, ref, paths)
}

func (c *client) ListReferencingObjects(ctx context.Context, ref workspace.Ref) (infos []workspace.ObjectInfo, err error) {
	defer c.m.observe("list_referencing_objects", time.Now(), &err)
	return c.next.ListReferencingObjects(ctx, ref)
}
