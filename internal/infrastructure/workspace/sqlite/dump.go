package sqlite

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/realmarcin/data-api/pkg/workspace"
)

// Sink receives copied objects. Both the snapshot Store and the Postgres
// mirror implement it.
type Sink interface {
	Put(ctx context.Context, obj *workspace.Object, refs []workspace.Ref) error
}

// DumpStats summarises a dump.
type DumpStats struct {
	Objects    int
	References int
}

// linkFields are the fields through which genome data objects point at
// each other.
var linkFields = []string{"parent_taxon_ref", "taxon_ref", "assembly_ref", "contigset_ref"}

// Dump copies the objects at roots into dst. Up to depth hops away it also
// copies the objects they link to and the objects that reference them, so
// lineage walks and genome to assembly hops keep working offline.
func Dump(ctx context.Context, src workspace.Client, dst Sink, roots []workspace.Ref, depth int) (DumpStats, error) {
	type item struct {
		ref   workspace.Ref
		level int
	}
	var stats DumpStats
	queue := make([]item, 0, len(roots))
	for _, r := range roots {
		queue = append(queue, item{ref: r})
	}
	seen := map[string]bool{}
	// edges learned from the referenced side, keyed by the referrer
	incoming := map[string][]workspace.Ref{}

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		obj, err := src.GetObject(ctx, it.ref)
		if err != nil {
			return stats, errors.Wrapf(err, "dump %s", it.ref)
		}
		key := obj.Info.Ref().String()
		if seen[key] {
			continue
		}
		seen[key] = true

		links := linkedRefs(obj.Data)
		refs := appendUnique(links, incoming[key]...)
		if err := dst.Put(ctx, obj, refs); err != nil {
			return stats, errors.Wrapf(err, "store %s", key)
		}
		stats.Objects++
		stats.References += len(refs)
		klog.V(2).InfoS("Dumped object", "ref", it.ref.String(), "type", obj.Info.Type, "level", it.level)

		if it.level >= depth {
			continue
		}
		for _, l := range links {
			queue = append(queue, item{ref: l, level: it.level + 1})
		}
		referrers, err := src.ListReferencingObjects(ctx, obj.Info.Ref())
		if err != nil {
			return stats, errors.Wrapf(err, "list referrers of %s", key)
		}
		self := obj.Info.Ref().Latest()
		for _, info := range referrers {
			rk := info.Ref().String()
			incoming[rk] = appendUnique(incoming[rk], self)
			queue = append(queue, item{ref: info.Ref(), level: it.level + 1})
		}
	}
	return stats, nil
}

// linkedRefs extracts the references held in well known link fields.
// Values that do not parse as references are ignored.
func linkedRefs(data json.RawMessage) []workspace.Ref {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	var out []workspace.Ref
	add := func(s string) {
		if ref, err := workspace.ParseRef(s); err == nil {
			out = appendUnique(out, ref)
		}
	}
	for _, f := range linkFields {
		var s string
		if raw, ok := doc[f]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
			add(s)
		}
	}
	if raw, ok := doc["feature_container_references"]; ok {
		var containers map[string]string
		if json.Unmarshal(raw, &containers) == nil {
			for _, s := range containers {
				add(s)
			}
		}
	}
	return out
}

func appendUnique(refs []workspace.Ref, more ...workspace.Ref) []workspace.Ref {
	for _, m := range more {
		found := false
		for _, r := range refs {
			if r == m {
				found = true
				break
			}
		}
		if !found {
			refs = append(refs, m)
		}
	}
	return refs
}
