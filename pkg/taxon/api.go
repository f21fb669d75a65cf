package taxon

import (
	"context"

	"github.com/go-logr/logr"
	"k8s.io/klog/v2"

	"github.com/realmarcin/data-api/pkg/schema"
	"github.com/realmarcin/data-api/pkg/workspace"
)

// API is the taxon facade. It is bound to one backend adapter at
// construction and is read-only afterwards, so it can be shared between
// goroutines.
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

// WithLogger sets the logger used by the facade and every facade it creates
// while walking the lineage.
func WithLogger(logger logr.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New parses ref and binds a facade to it.
func New(ctx context.Context, ws workspace.Client, ref string, opts ...Option) (*API, error) {
	parsed, err := workspace.ParseRef(ref)
	if err != nil {
		return nil, err
	}
	return NewFromRef(ctx, ws, parsed, opts...)
}

// NewFromRef classifies ref with a single metadata round trip and binds the
// backend adapter of its generation for the life of the facade.
func NewFromRef(ctx context.Context, ws workspace.Client, ref workspace.Ref, opts ...Option) (*API, error) {
	o := options{logger: klog.NewKlogr().WithName("taxon")}
	for _, opt := range opts {
		opt(&o)
	}

	gen, info, err := classifier(ws).Classify(ctx, ref)
	if err != nil {
		return nil, err
	}
	return bind(ws, ref, gen, info, o.logger), nil
}

func classifier(ws workspace.Client) *schema.Classifier {
	return schema.NewClassifier(ws, "taxon", Types)
}

func bind(ws workspace.Client, ref workspace.Ref, gen schema.Generation, info workspace.ObjectInfo, logger logr.Logger) *API {
	logger.V(2).Info("Bound taxon backend", "ref", ref.String(), "type", info.Type, "generation", gen.String())
	return &API{
		client:  ws,
		ref:     ref,
		info:    info,
		backend: newBackend(gen, ws, info),
		logger:  logger,
	}
}

// Ref returns the reference the facade was created with.
func (a *API) Ref() workspace.Ref { return a.ref }

// Info returns the object info fetched during classification.
func (a *API) Info() workspace.ObjectInfo { return a.info }

// Generation returns the schema generation the facade is bound to.
func (a *API) Generation() schema.Generation { return a.backend.generation() }

// GetScientificName returns the scientific name. It is never empty.
func (a *API) GetScientificName(ctx context.Context) (string, error) {
	return a.backend.scientificName(ctx)
}

// GetTaxonomicID returns the NCBI taxonomic id or UnassignedTaxonomicID.
func (a *API) GetTaxonomicID(ctx context.Context) (int64, error) {
	return a.backend.taxonomicID(ctx)
}

// GetKingdom returns the kingdom; ok is false when the taxon has none.
func (a *API) GetKingdom(ctx context.Context) (kingdom string, ok bool, err error) {
	return a.backend.kingdom(ctx)
}

// GetDomain returns the domain. It is never empty.
func (a *API) GetDomain(ctx context.Context) (string, error) {
	return a.backend.domain(ctx)
}

// GetGeneticCode returns the translation table number.
func (a *API) GetGeneticCode(ctx context.Context) (int, error) {
	return a.backend.geneticCode(ctx)
}

// GetAliases returns the alternative names, possibly none.
func (a *API) GetAliases(ctx context.Context) ([]string, error) {
	return a.backend.aliases(ctx)
}

// GetScientificLineage returns the "; " separated lineage above the taxon.
func (a *API) GetScientificLineage(ctx context.Context) (string, error) {
	return a.backend.scientificLineage(ctx)
}

// GetParentRef returns the parent reference; ok is false at the root of a
// lineage and for every Legacy taxon.
func (a *API) GetParentRef(ctx context.Context) (ref workspace.Ref, ok bool, err error) {
	return a.backend.parentRef(ctx)
}

// GetParent returns a facade over the parent taxon, or nil at the root.
func (a *API) GetParent(ctx context.Context) (*API, error) {
	ref, ok, err := a.backend.parentRef(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return a.follow(ctx, "parent", ref)
}

// GetChildRefs returns the references of taxa whose parent is this taxon.
func (a *API) GetChildRefs(ctx context.Context) ([]workspace.Ref, error) {
	return a.backend.childRefs(ctx)
}

// GetChildren returns facades over the child taxa.
func (a *API) GetChildren(ctx context.Context) ([]*API, error) {
	refs, err := a.backend.childRefs(ctx)
	if err != nil {
		return nil, err
	}
	children := make([]*API, 0, len(refs))
	for _, ref := range refs {
		child, err := a.follow(ctx, "child", ref)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// GetGenomeAnnotations returns the references of genome annotations that
// point at this taxon.
func (a *API) GetGenomeAnnotations(ctx context.Context) ([]workspace.Ref, error) {
	return a.backend.genomeAnnotationRefs(ctx)
}

// follow binds a facade over a lineage neighbour. Lineage links only exist
// between Current taxa; anything else reached through a link is broken data.
func (a *API) follow(ctx context.Context, relation string, ref workspace.Ref) (*API, error) {
	op := "get " + relation
	gen, info, err := classifier(a.client).Classify(ctx, ref)
	if err != nil {
		if workspace.IsConnectivity(err) {
			return nil, err
		}
		return nil, workspace.Errorf(workspace.KindDataIntegrity, op, a.ref.String(),
			"%s %s is not a taxon: %v", relation, ref, err)
	}
	if gen != schema.Current {
		return nil, workspace.Errorf(workspace.KindDataIntegrity, op, a.ref.String(),
			"%s %s is a %s taxon", relation, ref, gen)
	}
	if info.SameObject(a.info) {
		return nil, workspace.Errorf(workspace.KindDataIntegrity, op, a.ref.String(),
			"taxon is its own %s", relation)
	}
	return bind(a.client, ref, gen, info, a.logger), nil
}

// Record reads every accessor into a snapshot.
func (a *API) Record(ctx context.Context) (*Record, error) {
	r := &Record{Ref: a.ref, Generation: a.Generation()}
	var err error
	if r.ScientificName, err = a.GetScientificName(ctx); err != nil {
		return nil, err
	}
	if r.TaxonomicID, err = a.GetTaxonomicID(ctx); err != nil {
		return nil, err
	}
	if r.Kingdom, r.HasKingdom, err = a.GetKingdom(ctx); err != nil {
		return nil, err
	}
	if r.Domain, err = a.GetDomain(ctx); err != nil {
		return nil, err
	}
	if r.GeneticCode, err = a.GetGeneticCode(ctx); err != nil {
		return nil, err
	}
	if r.Aliases, err = a.GetAliases(ctx); err != nil {
		return nil, err
	}
	if r.ScientificLineage, err = a.GetScientificLineage(ctx); err != nil {
		return nil, err
	}
	parent, ok, err := a.GetParentRef(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		r.Parent = &parent
	}
	if r.Children, err = a.GetChildRefs(ctx); err != nil {
		return nil, err
	}
	if r.GenomeAnnotations, err = a.GetGenomeAnnotations(ctx); err != nil {
		return nil, err
	}
	return r, nil
}
