package dataapi

import (
	"context"

	"github.com/realmarcin/data-api/pkg/assembly"
	"github.com/realmarcin/data-api/pkg/genome"
	"github.com/realmarcin/data-api/pkg/taxon"
	"github.com/realmarcin/data-api/pkg/workspace"
)

// TaxonResponse is the JSON view of a taxon.
type TaxonResponse struct {
	Ref               string   `json:"ref"`
	Generation        string   `json:"generation"`
	ScientificName    string   `json:"scientific_name"`
	TaxonomicID       int64    `json:"taxonomic_id"`
	Kingdom           *string  `json:"kingdom,omitempty"`
	Domain            string   `json:"domain"`
	GeneticCode       int      `json:"genetic_code"`
	Aliases           []string `json:"aliases"`
	ScientificLineage string   `json:"scientific_lineage"`
	Parent            string   `json:"parent,omitempty"`
	Children          []string `json:"children"`
	GenomeAnnotations []string `json:"genome_annotations"`
}

// NewTaxonResponse reads every taxon accessor.
func NewTaxonResponse(ctx context.Context, tx *taxon.API) (*TaxonResponse, error) {
	rec, err := tx.Record(ctx)
	if err != nil {
		return nil, err
	}
	resp := &TaxonResponse{
		Ref:               rec.Ref.String(),
		Generation:        rec.Generation.String(),
		ScientificName:    rec.ScientificName,
		TaxonomicID:       rec.TaxonomicID,
		Domain:            rec.Domain,
		GeneticCode:       rec.GeneticCode,
		Aliases:           rec.Aliases,
		ScientificLineage: rec.ScientificLineage,
		Children:          refStrings(rec.Children),
		GenomeAnnotations: refStrings(rec.GenomeAnnotations),
	}
	if rec.HasKingdom {
		resp.Kingdom = &rec.Kingdom
	}
	if rec.Parent != nil {
		resp.Parent = rec.Parent.String()
	}
	return resp, nil
}

// GenomeResponse is the JSON view of a genome annotation without its features.
type GenomeResponse struct {
	Ref          string   `json:"ref"`
	Generation   string   `json:"generation"`
	TaxonRef     string   `json:"taxon_ref"`
	AssemblyRef  string   `json:"assembly_ref"`
	FeatureTypes []string `json:"feature_types"`
	FeatureIDs   []string `json:"feature_ids"`
}

// NewGenomeResponse reads the links and feature index of a genome.
func NewGenomeResponse(ctx context.Context, g *genome.API) (*GenomeResponse, error) {
	resp := &GenomeResponse{Ref: g.Ref().String(), Generation: g.Generation().String()}
	taxonRef, err := g.GetTaxonRef(ctx)
	if err != nil {
		return nil, err
	}
	resp.TaxonRef = taxonRef.String()
	assemblyRef, err := g.GetAssemblyRef(ctx)
	if err != nil {
		return nil, err
	}
	resp.AssemblyRef = assemblyRef.String()
	if resp.FeatureTypes, err = g.GetFeatureTypes(ctx); err != nil {
		return nil, err
	}
	if resp.FeatureIDs, err = g.GetFeatureIDs(ctx); err != nil {
		return nil, err
	}
	return resp, nil
}

// AssemblyResponse is the JSON view of an assembly without contig details.
type AssemblyResponse struct {
	Ref        string   `json:"ref"`
	Generation string   `json:"generation"`
	NumContigs int      `json:"num_contigs"`
	DNASize    int64    `json:"dna_size"`
	ContigIDs  []string `json:"contig_ids"`
}

// NewAssemblyResponse reads the contig summary of an assembly.
func NewAssemblyResponse(ctx context.Context, a *assembly.API) (*AssemblyResponse, error) {
	resp := &AssemblyResponse{Ref: a.Ref().String(), Generation: a.Generation().String()}
	var err error
	if resp.NumContigs, err = a.GetNumberContigs(ctx); err != nil {
		return nil, err
	}
	if resp.DNASize, err = a.GetDNASize(ctx); err != nil {
		return nil, err
	}
	if resp.ContigIDs, err = a.GetContigIDs(ctx); err != nil {
		return nil, err
	}
	return resp, nil
}

func refStrings(refs []workspace.Ref) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.String())
	}
	return out
}
