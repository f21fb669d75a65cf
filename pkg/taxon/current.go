package taxon

import (
	"context"

	"github.com/realmarcin/data-api/pkg/schema"
	"github.com/realmarcin/data-api/pkg/workspace"
)

type taxonData struct {
	TaxonomyID        *int64   `json:"taxonomy_id"`
	ScientificName    *string  `json:"scientific_name"`
	ScientificLineage *string  `json:"scientific_lineage"`
	Domain            *string  `json:"domain"`
	Kingdom           *string  `json:"kingdom"`
	GeneticCode       *int     `json:"genetic_code"`
	Aliases           []string `json:"aliases"`
	ParentTaxonRef    *string  `json:"parent_taxon_ref"`
}

// currentBackend reads a KBaseGenomeAnnotations.Taxon. Children and genome
// annotations are not stored on the taxon; they are found through the
// objects that reference it.
type currentBackend struct {
	client    workspace.Client
	info      workspace.ObjectInfo
	data      schema.Memo[*taxonData]
	referrers schema.Memo[[]workspace.ObjectInfo]
}

func (b *currentBackend) generation() schema.Generation { return schema.Current }

func (b *currentBackend) taxon(ctx context.Context) (*taxonData, error) {
	return b.data.Get(ctx, func(ctx context.Context) (*taxonData, error) {
		obj, err := b.client.GetObject(ctx, b.info.Ref())
		if err != nil {
			return nil, err
		}
		var t taxonData
		if err := obj.Decode(&t); err != nil {
			return nil, err
		}
		return &t, nil
	})
}

func (b *currentBackend) referencing(ctx context.Context) ([]workspace.ObjectInfo, error) {
	return b.referrers.Get(ctx, func(ctx context.Context) ([]workspace.ObjectInfo, error) {
		return b.client.ListReferencingObjects(ctx, b.info.Ref())
	})
}

func (b *currentBackend) scientificName(ctx context.Context) (string, error) {
	t, err := b.taxon(ctx)
	if err != nil {
		return "", err
	}
	return requireText(b.info, "scientific_name", t.ScientificName)
}

func (b *currentBackend) taxonomicID(ctx context.Context) (int64, error) {
	t, err := b.taxon(ctx)
	if err != nil {
		return 0, err
	}
	if t.TaxonomyID == nil || *t.TaxonomyID <= 0 {
		return UnassignedTaxonomicID, nil
	}
	return *t.TaxonomyID, nil
}

func (b *currentBackend) kingdom(ctx context.Context) (string, bool, error) {
	t, err := b.taxon(ctx)
	if err != nil {
		return "", false, err
	}
	if t.Kingdom == nil || *t.Kingdom == "" {
		return "", false, nil
	}
	return *t.Kingdom, true, nil
}

func (b *currentBackend) domain(ctx context.Context) (string, error) {
	t, err := b.taxon(ctx)
	if err != nil {
		return "", err
	}
	return requireText(b.info, "domain", t.Domain)
}

func (b *currentBackend) geneticCode(ctx context.Context) (int, error) {
	t, err := b.taxon(ctx)
	if err != nil {
		return 0, err
	}
	if t.GeneticCode == nil {
		return 0, workspace.Errorf(workspace.KindNotFound, "genetic_code", b.info.NamedRef().String(),
			"field genetic_code is missing")
	}
	if *t.GeneticCode < 1 {
		return UnassignedGeneticCode, nil
	}
	return *t.GeneticCode, nil
}

func (b *currentBackend) aliases(ctx context.Context) ([]string, error) {
	t, err := b.taxon(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Aliases))
	copy(out, t.Aliases)
	return out, nil
}

func (b *currentBackend) scientificLineage(ctx context.Context) (string, error) {
	t, err := b.taxon(ctx)
	if err != nil {
		return "", err
	}
	return requireText(b.info, "scientific_lineage", t.ScientificLineage)
}

func (b *currentBackend) parentRef(ctx context.Context) (workspace.Ref, bool, error) {
	t, err := b.taxon(ctx)
	if err != nil {
		return workspace.Ref{}, false, err
	}
	if t.ParentTaxonRef == nil || *t.ParentTaxonRef == "" {
		return workspace.Ref{}, false, nil
	}
	ref, err := workspace.ParseRef(*t.ParentTaxonRef)
	if err != nil {
		return workspace.Ref{}, false, workspace.NewError(workspace.KindDataIntegrity, "parent_taxon_ref",
			b.info.NamedRef().String(), err)
	}
	return ref, true, nil
}

func (b *currentBackend) childRefs(ctx context.Context) ([]workspace.Ref, error) {
	return b.referrersOf(ctx, func(unversioned string) bool {
		gen, ok := Types.Lookup(unversioned)
		return ok && gen == schema.Current
	})
}

func (b *currentBackend) genomeAnnotationRefs(ctx context.Context) ([]workspace.Ref, error) {
	return b.referrersOf(ctx, func(unversioned string) bool {
		return unversioned == TypeGenomeAnnotation
	})
}

func (b *currentBackend) referrersOf(ctx context.Context, keep func(unversioned string) bool) ([]workspace.Ref, error) {
	infos, err := b.referencing(ctx)
	if err != nil {
		return nil, err
	}
	out := []workspace.Ref{}
	for _, info := range infos {
		tn, err := info.TypeName()
		if err != nil {
			continue
		}
		if keep(tn.Unversioned()) {
			out = append(out, info.Ref())
		}
	}
	return out, nil
}
