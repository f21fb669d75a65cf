// Package assembly is the schema-resolving facade over contig assemblies,
// stored either as a Legacy KBaseGenomes.ContigSet or a Current
// KBaseGenomeAnnotations.Assembly.
package assembly

import (
	"context"
	"sort"

	"github.com/go-logr/logr"
	"k8s.io/klog/v2"

	"github.com/realmarcin/data-api/pkg/schema"
	"github.com/realmarcin/data-api/pkg/workspace"
)

// Stored type names.
const (
	TypeAssembly  = "KBaseGenomeAnnotations.Assembly"
	TypeContigSet = "KBaseGenomes.ContigSet"
)

// Types maps the type names that can back an assembly to their generation.
var Types = schema.Table{
	TypeAssembly:  schema.Current,
	TypeContigSet: schema.Legacy,
}

// UnknownGCContent is reported for contigs stored without a sequence or a
// GC ratio.
const UnknownGCContent = -1.0

// Contig describes one contig of an assembly.
type Contig struct {
	ID          string  `json:"contig_id"`
	Length      int64   `json:"length"`
	MD5         string  `json:"md5"`
	GCContent   float64 `json:"gc_content"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
}

type backend interface {
	generation() schema.Generation
	contigs(ctx context.Context) (map[string]Contig, error)
	numContigs(ctx context.Context) (int, error)
	dnaSize(ctx context.Context) (int64, error)
}

// API is the assembly facade.
type API struct {
	ref     workspace.Ref
	info    workspace.ObjectInfo
	backend backend
}

// Option configures an API.
type Option func(*options)

type options struct {
	logger logr.Logger
}

// WithLogger sets the facade logger.
func WithLogger(logger logr.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New parses ref and binds a facade to it.
func New(ctx context.Context, ws workspace.Client, ref string, opts ...Option) (*API, error) {
	parsed, err := workspace.ParseRef(ref)
	if err != nil {
		return nil, err
	}
	return NewFromRef(ctx, ws, parsed, opts...)
}

// NewFromRef classifies ref once and binds the adapter of its generation.
func NewFromRef(ctx context.Context, ws workspace.Client, ref workspace.Ref, opts ...Option) (*API, error) {
	o := options{logger: klog.NewKlogr().WithName("assembly")}
	for _, opt := range opts {
		opt(&o)
	}
	gen, info, err := schema.NewClassifier(ws, "assembly", Types).Classify(ctx, ref)
	if err != nil {
		return nil, err
	}
	o.logger.V(2).Info("Bound assembly backend", "ref", ref.String(), "type", info.Type, "generation", gen.String())

	a := &API{ref: ref, info: info}
	switch gen {
	case schema.Legacy:
		a.backend = &contigSetBackend{client: ws, info: info}
	default:
		a.backend = &assemblyBackend{client: ws, info: info}
	}
	return a, nil
}

// Ref returns the reference the facade was created with.
func (a *API) Ref() workspace.Ref { return a.ref }

// Info returns the object info fetched during classification.
func (a *API) Info() workspace.ObjectInfo { return a.info }

// Generation returns the schema generation the facade is bound to.
func (a *API) Generation() schema.Generation { return a.backend.generation() }

// GetContigIDs returns the sorted contig ids.
func (a *API) GetContigIDs(ctx context.Context) ([]string, error) {
	all, err := a.backend.contigs(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetNumberContigs returns the number of contigs.
func (a *API) GetNumberContigs(ctx context.Context) (int, error) {
	return a.backend.numContigs(ctx)
}

// GetDNASize returns the total length of all contigs.
func (a *API) GetDNASize(ctx context.Context) (int64, error) {
	return a.backend.dnaSize(ctx)
}

// GetContigs returns the requested contigs keyed by id. No ids means all
// contigs; unknown ids are left out of the result.
func (a *API) GetContigs(ctx context.Context, ids []string) (map[string]Contig, error) {
	all, err := a.backend.contigs(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Contig, len(ids))
	if len(ids) == 0 {
		for id, c := range all {
			out[id] = c
		}
		return out, nil
	}
	for _, id := range ids {
		if c, ok := all[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}
