package genome

import (
	"context"
	"sort"

	"github.com/go-logr/logr"
	"k8s.io/klog/v2"

	"github.com/realmarcin/data-api/pkg/assembly"
	"github.com/realmarcin/data-api/pkg/schema"
	"github.com/realmarcin/data-api/pkg/taxon"
	"github.com/realmarcin/data-api/pkg/workspace"
)

// API is the genome annotation facade.
type API struct {
	client  workspace.Client
	ref     workspace.Ref
	info    workspace.ObjectInfo
	backend backend
	logger  logr.Logger
}

// Option configures an API.
type Option func(*options)

type options struct {
	logger logr.Logger
}

// WithLogger sets the logger of the facade and of the taxon and assembly
// facades it creates.
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
	o := options{logger: klog.NewKlogr().WithName("genome")}
	for _, opt := range opts {
		opt(&o)
	}
	gen, info, err := schema.NewClassifier(ws, "genome annotation", Types).Classify(ctx, ref)
	if err != nil {
		return nil, err
	}
	o.logger.V(2).Info("Bound genome backend", "ref", ref.String(), "type", info.Type, "generation", gen.String())

	a := &API{client: ws, ref: ref, info: info, logger: o.logger}
	switch gen {
	case schema.Legacy:
		a.backend = &legacyBackend{client: ws, info: info}
	default:
		a.backend = &currentBackend{client: ws, info: info}
	}
	return a, nil
}

// Ref returns the reference the facade was created with.
func (a *API) Ref() workspace.Ref { return a.ref }

// Info returns the object info fetched during classification.
func (a *API) Info() workspace.ObjectInfo { return a.info }

// Generation returns the schema generation the facade is bound to.
func (a *API) Generation() schema.Generation { return a.backend.generation() }

// GetTaxonRef returns the reference of the genome's taxon. A Legacy genome
// is its own taxon.
func (a *API) GetTaxonRef(ctx context.Context) (workspace.Ref, error) {
	return a.backend.taxonRef(ctx)
}

// GetTaxon returns the taxon facade of the genome.
func (a *API) GetTaxon(ctx context.Context) (*taxon.API, error) {
	ref, err := a.backend.taxonRef(ctx)
	if err != nil {
		return nil, err
	}
	return taxon.NewFromRef(ctx, a.client, ref, taxon.WithLogger(a.logger))
}

// GetAssemblyRef returns the reference of the contig set or assembly.
func (a *API) GetAssemblyRef(ctx context.Context) (workspace.Ref, error) {
	return a.backend.assemblyRef(ctx)
}

// GetAssembly returns the assembly facade of the genome.
func (a *API) GetAssembly(ctx context.Context) (*assembly.API, error) {
	ref, err := a.backend.assemblyRef(ctx)
	if err != nil {
		return nil, err
	}
	return assembly.NewFromRef(ctx, a.client, ref, assembly.WithLogger(a.logger))
}

// GetFeatureTypes returns the sorted feature types present in the genome.
func (a *API) GetFeatureTypes(ctx context.Context) ([]string, error) {
	return a.backend.featureTypes(ctx)
}

// GetFeatureIDs returns the sorted feature ids.
func (a *API) GetFeatureIDs(ctx context.Context) ([]string, error) {
	ids, err := a.backend.featureIDs(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// GetFeatures returns the requested features keyed by id. No ids means all
// features; unknown ids are left out of the result.
func (a *API) GetFeatures(ctx context.Context, ids []string) (map[string]Feature, error) {
	return a.backend.features(ctx, ids)
}
