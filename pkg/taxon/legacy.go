package taxon

import (
	"context"
	"strings"

	"github.com/realmarcin/data-api/pkg/schema"
	"github.com/realmarcin/data-api/pkg/workspace"
)

// legacyPaths keeps the Legacy fetch away from the genome's feature list.
var legacyPaths = []string{"scientific_name", "taxonomy", "domain", "genetic_code"}

// knownDomains are the top ranks of a lineage that name a domain.
var knownDomains = map[string]bool{
	"Bacteria":  true,
	"Archaea":   true,
	"Eukaryota": true,
	"Viruses":   true,
}

// Translation table defaults for genomes saved without a genetic code.
const (
	standardGeneticCode  = 1
	bacterialGeneticCode = 11
)

type legacyGenome struct {
	ScientificName *string `json:"scientific_name"`
	Taxonomy       *string `json:"taxonomy"`
	Domain         *string `json:"domain"`
	GeneticCode    *int    `json:"genetic_code"`
}

// legacyBackend reads taxon data embedded in a KBaseGenomes.Genome.
// The Legacy layout has no taxonomic id, kingdom, aliases or lineage links.
type legacyBackend struct {
	client workspace.Client
	info   workspace.ObjectInfo
	data   schema.Memo[*legacyGenome]
}

func (b *legacyBackend) generation() schema.Generation { return schema.Legacy }

func (b *legacyBackend) genome(ctx context.Context) (*legacyGenome, error) {
	return b.data.Get(ctx, func(ctx context.Context) (*legacyGenome, error) {
		obj, err := b.client.GetObjectSubset(ctx, b.info.Ref(), legacyPaths)
		if err != nil {
			return nil, err
		}
		var g legacyGenome
		if err := obj.Decode(&g); err != nil {
			return nil, err
		}
		return &g, nil
	})
}

func (b *legacyBackend) scientificName(ctx context.Context) (string, error) {
	g, err := b.genome(ctx)
	if err != nil {
		return "", err
	}
	return requireText(b.info, "scientific_name", g.ScientificName)
}

func (b *legacyBackend) taxonomicID(context.Context) (int64, error) {
	return UnassignedTaxonomicID, nil
}

func (b *legacyBackend) kingdom(context.Context) (string, bool, error) {
	return "", false, nil
}

// domain is the first rank of the stored taxonomy below "cellular
// organisms"; the genome's own domain field is used when the taxonomy does
// not start with a known domain.
func (b *legacyBackend) domain(ctx context.Context) (string, error) {
	g, err := b.genome(ctx)
	if err != nil {
		return "", err
	}
	if g.Taxonomy != nil {
		for _, rank := range splitLineage(*g.Taxonomy) {
			if rank == "cellular organisms" {
				continue
			}
			if knownDomains[rank] {
				return rank, nil
			}
			break
		}
	}
	if g.Domain != nil && strings.TrimSpace(*g.Domain) != "" {
		return strings.TrimSpace(*g.Domain), nil
	}
	if g.Domain == nil && g.Taxonomy == nil {
		return requireText(b.info, "domain", nil)
	}
	return "", workspace.Errorf(workspace.KindDataIntegrity, "domain", b.info.NamedRef().String(),
		"no domain in taxonomy or domain field")
}

// geneticCode returns the stored code, or the default translation table for
// the genome's domain when none was saved.
func (b *legacyBackend) geneticCode(ctx context.Context) (int, error) {
	g, err := b.genome(ctx)
	if err != nil {
		return 0, err
	}
	if g.GeneticCode != nil && *g.GeneticCode >= 1 {
		return *g.GeneticCode, nil
	}
	d, err := b.domain(ctx)
	if err != nil {
		return 0, err
	}
	if d == "Bacteria" || d == "Archaea" {
		return bacterialGeneticCode, nil
	}
	return standardGeneticCode, nil
}

func (b *legacyBackend) aliases(context.Context) ([]string, error) {
	return []string{}, nil
}

func (b *legacyBackend) scientificLineage(ctx context.Context) (string, error) {
	g, err := b.genome(ctx)
	if err != nil {
		return "", err
	}
	if g.Taxonomy == nil {
		return requireText(b.info, "taxonomy", nil)
	}
	lineage := strings.Join(splitLineage(*g.Taxonomy), "; ")
	return requireText(b.info, "taxonomy", &lineage)
}

func (b *legacyBackend) parentRef(context.Context) (workspace.Ref, bool, error) {
	return workspace.Ref{}, false, nil
}

func (b *legacyBackend) childRefs(context.Context) ([]workspace.Ref, error) {
	return []workspace.Ref{}, nil
}

func (b *legacyBackend) genomeAnnotationRefs(context.Context) ([]workspace.Ref, error) {
	return []workspace.Ref{}, nil
}

func splitLineage(s string) []string {
	var out []string
	for _, rank := range strings.Split(s, ";") {
		if rank = strings.TrimSpace(rank); rank != "" {
			out = append(out, rank)
		}
	}
	return out
}
