package genome

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/realmarcin/data-api/pkg/schema"
	"github.com/realmarcin/data-api/pkg/workspace"
)

type backend interface {
	generation() schema.Generation
	taxonRef(ctx context.Context) (workspace.Ref, error)
	assemblyRef(ctx context.Context) (workspace.Ref, error)
	featureTypes(ctx context.Context) ([]string, error)
	featureIDs(ctx context.Context) ([]string, error)
	features(ctx context.Context, ids []string) (map[string]Feature, error)
}

func parseStoredRef(info workspace.ObjectInfo, field string, v *string) (workspace.Ref, error) {
	if v == nil || *v == "" {
		return workspace.Ref{}, workspace.Errorf(workspace.KindNotFound, field, info.NamedRef().String(),
			"field %s is missing", field)
	}
	ref, err := workspace.ParseRef(*v)
	if err != nil {
		return workspace.Ref{}, workspace.NewError(workspace.KindDataIntegrity, field, info.NamedRef().String(), err)
	}
	return ref, nil
}

func pick(all map[string]Feature, ids []string) map[string]Feature {
	if len(ids) == 0 {
		out := make(map[string]Feature, len(all))
		for id, f := range all {
			out[id] = f
		}
		return out
	}
	out := make(map[string]Feature, len(ids))
	for _, id := range ids {
		if f, ok := all[id]; ok {
			out[id] = f
		}
	}
	return out
}

type legacyFeature struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function string           `json:"function"`
	Location []storedLocation `json:"location"`
}

type legacyGenome struct {
	ContigSetRef *string         `json:"contigset_ref"`
	AssemblyRef  *string         `json:"assembly_ref"`
	Features     []legacyFeature `json:"features"`
}

// legacyBackend reads a KBaseGenomes.Genome. The genome is its own taxon
// and its features are stored inline.
type legacyBackend struct {
	client workspace.Client
	info   workspace.ObjectInfo
	refs   schema.Memo[*legacyGenome]
	all    schema.Memo[map[string]Feature]
}

func (b *legacyBackend) generation() schema.Generation { return schema.Legacy }

func (b *legacyBackend) subset(ctx context.Context, paths ...string) (*legacyGenome, error) {
	obj, err := b.client.GetObjectSubset(ctx, b.info.Ref(), paths)
	if err != nil {
		return nil, err
	}
	var g legacyGenome
	if err := obj.Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (b *legacyBackend) taxonRef(context.Context) (workspace.Ref, error) {
	return b.info.Ref(), nil
}

// assemblyRef prefers the contig set; genomes saved after assemblies were
// introduced may only carry assembly_ref.
func (b *legacyBackend) assemblyRef(ctx context.Context) (workspace.Ref, error) {
	g, err := b.refs.Get(ctx, func(ctx context.Context) (*legacyGenome, error) {
		return b.subset(ctx, "contigset_ref", "assembly_ref")
	})
	if err != nil {
		return workspace.Ref{}, err
	}
	if g.ContigSetRef == nil || *g.ContigSetRef == "" {
		return parseStoredRef(b.info, "assembly_ref", g.AssemblyRef)
	}
	return parseStoredRef(b.info, "contigset_ref", g.ContigSetRef)
}

func (b *legacyBackend) allFeatures(ctx context.Context) (map[string]Feature, error) {
	return b.all.Get(ctx, func(ctx context.Context) (map[string]Feature, error) {
		g, err := b.subset(ctx, "features")
		if err != nil {
			return nil, err
		}
		out := make(map[string]Feature, len(g.Features))
		for _, f := range g.Features {
			if f.ID == "" {
				return nil, workspace.Errorf(workspace.KindDataIntegrity, "features", b.info.NamedRef().String(),
					"feature without id")
			}
			out[f.ID] = Feature{
				ID:        f.ID,
				Type:      f.Type,
				Function:  f.Function,
				Locations: toLocations(f.Location),
			}
		}
		return out, nil
	})
}

func (b *legacyBackend) featureTypes(ctx context.Context) ([]string, error) {
	all, err := b.allFeatures(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	types := []string{}
	for _, f := range all {
		if !seen[f.Type] {
			seen[f.Type] = true
			types = append(types, f.Type)
		}
	}
	sort.Strings(types)
	return types, nil
}

func (b *legacyBackend) featureIDs(ctx context.Context) ([]string, error) {
	all, err := b.allFeatures(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	return ids, nil
}

func (b *legacyBackend) features(ctx context.Context, ids []string) (map[string]Feature, error) {
	all, err := b.allFeatures(ctx)
	if err != nil {
		return nil, err
	}
	return pick(all, ids), nil
}

type annotationData struct {
	TaxonRef                   *string           `json:"taxon_ref"`
	AssemblyRef                *string           `json:"assembly_ref"`
	FeatureContainerReferences map[string]string `json:"feature_container_references"`
}

type containerFeature struct {
	FeatureID string           `json:"feature_id"`
	Type      string           `json:"type"`
	Function  string           `json:"function"`
	Locations []storedLocation `json:"locations"`
}

type containerData struct {
	Features map[string]json.RawMessage `json:"features"`
}

type container struct {
	featureType string
	ref         workspace.Ref
}

// currentBackend reads a KBaseGenomeAnnotations.GenomeAnnotation. Features
// live in one container object per feature type.
type currentBackend struct {
	client workspace.Client
	info   workspace.ObjectInfo
	data   schema.Memo[*annotationData]
	ids    schema.Memo[[]string]
}

func (b *currentBackend) generation() schema.Generation { return schema.Current }

func (b *currentBackend) annotation(ctx context.Context) (*annotationData, error) {
	return b.data.Get(ctx, func(ctx context.Context) (*annotationData, error) {
		obj, err := b.client.GetObjectSubset(ctx, b.info.Ref(),
			[]string{"taxon_ref", "assembly_ref", "feature_container_references"})
		if err != nil {
			return nil, err
		}
		var a annotationData
		if err := obj.Decode(&a); err != nil {
			return nil, err
		}
		return &a, nil
	})
}

func (b *currentBackend) taxonRef(ctx context.Context) (workspace.Ref, error) {
	a, err := b.annotation(ctx)
	if err != nil {
		return workspace.Ref{}, err
	}
	return parseStoredRef(b.info, "taxon_ref", a.TaxonRef)
}

func (b *currentBackend) assemblyRef(ctx context.Context) (workspace.Ref, error) {
	a, err := b.annotation(ctx)
	if err != nil {
		return workspace.Ref{}, err
	}
	return parseStoredRef(b.info, "assembly_ref", a.AssemblyRef)
}

// containers returns the feature containers ordered by feature type.
func (b *currentBackend) containers(ctx context.Context) ([]container, error) {
	a, err := b.annotation(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]container, 0, len(a.FeatureContainerReferences))
	for typ, raw := range a.FeatureContainerReferences {
		ref, err := workspace.ParseRef(raw)
		if err != nil {
			return nil, workspace.NewError(workspace.KindDataIntegrity, "feature_container_references",
				b.info.NamedRef().String(), err)
		}
		out = append(out, container{featureType: typ, ref: ref})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].featureType < out[j].featureType })
	return out, nil
}

func (b *currentBackend) featureTypes(ctx context.Context) ([]string, error) {
	cs, err := b.containers(ctx)
	if err != nil {
		return nil, err
	}
	types := make([]string, len(cs))
	for i, c := range cs {
		types[i] = c.featureType
	}
	return types, nil
}

func (b *currentBackend) featureIDs(ctx context.Context) ([]string, error) {
	ids, err := b.ids.Get(ctx, func(ctx context.Context) ([]string, error) {
		cs, err := b.containers(ctx)
		if err != nil {
			return nil, err
		}
		ids := []string{}
		for _, c := range cs {
			data, err := b.container(ctx, c.ref, []string{"features"})
			if err != nil {
				return nil, err
			}
			for id := range data.Features {
				ids = append(ids, id)
			}
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), ids...), nil
}

// features asks every container for the requested feature paths only.
// Containers do not report ids they do not hold, so unknown ids drop out.
func (b *currentBackend) features(ctx context.Context, ids []string) (map[string]Feature, error) {
	cs, err := b.containers(ctx)
	if err != nil {
		return nil, err
	}
	paths := []string{"features"}
	if len(ids) > 0 {
		paths = make([]string, len(ids))
		for i, id := range ids {
			paths[i] = "features/" + id
		}
	}
	out := map[string]Feature{}
	for _, c := range cs {
		data, err := b.container(ctx, c.ref, paths)
		if err != nil {
			return nil, err
		}
		for id, raw := range data.Features {
			var f containerFeature
			if err := json.Unmarshal(raw, &f); err != nil {
				return nil, workspace.NewError(workspace.KindDataIntegrity, "features/"+id, c.ref.String(), err)
			}
			out[id] = Feature{
				ID:        id,
				Type:      f.Type,
				Function:  f.Function,
				Locations: toLocations(f.Locations),
			}
		}
	}
	return out, nil
}

func (b *currentBackend) container(ctx context.Context, ref workspace.Ref, paths []string) (*containerData, error) {
	obj, err := b.client.GetObjectSubset(ctx, ref, paths)
	if err != nil {
		return nil, err
	}
	var data containerData
	if err := obj.Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
