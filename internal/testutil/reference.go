// Package testutil builds in-memory workspaces shaped like the KBase
// reference data used by the data API tests.
package testutil

import (
	"github.com/realmarcin/data-api/pkg/workspace/mem"
)

// Type strings as stored by the workspace.
const (
	TypeTaxon            = "KBaseGenomeAnnotations.Taxon-1.0"
	TypeGenomeAnnotation = "KBaseGenomeAnnotations.GenomeAnnotation-2.1"
	TypeAssembly         = "KBaseGenomeAnnotations.Assembly-4.1"
	TypeFeatureContainer = "KBaseGenomeAnnotations.FeatureContainer-1.3"
	TypeGenome           = "KBaseGenomes.Genome-8.0"
	TypeContigSet        = "KBaseGenomes.ContigSet-3.0"
	TypePrototypeGenome  = "KBaseGenomesCondensedPrototypeV2.GenomeAnnotation-1.0"
)

// Reference refs.
const (
	TaxonRoot       = "ReferenceTaxons/2759_taxon"
	TaxonKingdom    = "ReferenceTaxons/33090_taxon"
	TaxonGenus      = "ReferenceTaxons/70447_taxon"
	TaxonNew        = "ReferenceTaxons/242159_taxon"
	TaxonStrain     = "ReferenceTaxons/436017_taxon"
	GenomeNew       = "ReferenceGenomeAnnotations/kb|g.166819"
	AssemblyNew     = "ReferenceGenomeAnnotations/kb|g.166819_assembly"
	FeaturesCDS     = "ReferenceGenomeAnnotations/kb|g.166819_feature_container_CDS"
	FeaturesGene    = "ReferenceGenomeAnnotations/kb|g.166819_feature_container_gene"
	TaxonOld        = "OriginalReferenceGenomes/kb|g.166819"
	ContigSetOld    = "OriginalReferenceGenomes/kb|g.166819.contigset"
	PrototypeGenome = "PrototypeReferenceGenomes/kb|g.166819"
	PrototypeAsm    = "PrototypeReferenceGenomes/kb|g.166819_assembly"
)

// LineageNew is the stored lineage of TaxonNew.
const LineageNew = "cellular organisms; Eukaryota; Viridiplantae; Chlorophyta; Mamiellophyceae; Mamiellales; Bathycoccaceae; Ostreococcus"

// NewReferenceWorkspace returns a workspace holding a small Current taxon
// lineage, a Current genome annotation with its assembly and feature
// containers, a Legacy genome with its contig set, and a few objects of
// unrelated types.
func NewReferenceWorkspace() *mem.Workspace {
	w := mem.NewWorkspace()

	w.MustPut("ReferenceTaxons", "2759_taxon", TypeTaxon, map[string]any{
		"taxonomy_id":        2759,
		"scientific_name":    "Eukaryota",
		"scientific_lineage": "cellular organisms",
		"domain":             "Eukaryota",
		"genetic_code":       1,
		"aliases":            []string{"eucaryotes", "eukaryotes"},
	})
	w.MustPut("ReferenceTaxons", "33090_taxon", TypeTaxon, map[string]any{
		"taxonomy_id":        33090,
		"scientific_name":    "Viridiplantae",
		"scientific_lineage": "cellular organisms; Eukaryota",
		"domain":             "Eukaryota",
		"kingdom":            "Viridiplantae",
		"genetic_code":       1,
		"aliases":            []string{"green plants"},
		"parent_taxon_ref":   TaxonRoot,
	}, TaxonRoot)
	w.MustPut("ReferenceTaxons", "70447_taxon", TypeTaxon, map[string]any{
		"taxonomy_id":        70447,
		"scientific_name":    "Ostreococcus",
		"scientific_lineage": "cellular organisms; Eukaryota; Viridiplantae; Chlorophyta; Mamiellophyceae; Mamiellales; Bathycoccaceae",
		"domain":             "Eukaryota",
		"kingdom":            "Viridiplantae",
		"genetic_code":       1,
		"aliases":            []string{},
		"parent_taxon_ref":   TaxonKingdom,
	}, TaxonKingdom)
	w.MustPut("ReferenceTaxons", "242159_taxon", TypeTaxon, map[string]any{
		"taxonomy_id":        242159,
		"scientific_name":    "Ostreococcus 'lucimarinus'",
		"scientific_lineage": LineageNew,
		"domain":             "Eukaryota",
		"kingdom":            "Viridiplantae",
		"genetic_code":       1,
		"aliases":            []string{"Ostreococcus lucimarinus", "Ostreococcus sp. CCE9901"},
		"parent_taxon_ref":   TaxonGenus,
	}, TaxonGenus)
	w.MustPut("ReferenceTaxons", "436017_taxon", TypeTaxon, map[string]any{
		"taxonomy_id":        436017,
		"scientific_name":    "Ostreococcus lucimarinus CCE9901",
		"scientific_lineage": LineageNew + "; Ostreococcus 'lucimarinus'",
		"domain":             "Eukaryota",
		"kingdom":            "",
		"genetic_code":       1,
		"parent_taxon_ref":   TaxonNew,
	}, TaxonNew)

	w.MustPut("ReferenceGenomeAnnotations", "kb|g.166819_assembly", TypeAssembly, map[string]any{
		"assembly_id": "kb|g.166819_assembly",
		"num_contigs": 2,
		"dna_size":    1200,
		"contigs": map[string]any{
			"kb|g.166819.c.0": map[string]any{
				"contig_id": "kb|g.166819.c.0", "length": 1000, "md5": "f6b0b2c4e1a1", "gc_content": 0.6,
				"name": "chr_1", "description": "chromosome 1",
			},
			"kb|g.166819.c.1": map[string]any{
				"contig_id": "kb|g.166819.c.1", "length": 200, "md5": "9a1c7e22b4f0", "gc_content": 0.55,
				"name": "chr_2",
			},
		},
	})
	w.MustPut("ReferenceGenomeAnnotations", "kb|g.166819_feature_container_CDS", TypeFeatureContainer, map[string]any{
		"type": "CDS",
		"features": map[string]any{
			"kb|g.166819.CDS.1": map[string]any{
				"feature_id": "kb|g.166819.CDS.1", "type": "CDS", "function": "hypothetical protein",
				"locations": [][]any{{"kb|g.166819.c.0", 10, "+", 300}},
			},
			"kb|g.166819.CDS.2": map[string]any{
				"feature_id": "kb|g.166819.CDS.2", "type": "CDS", "function": "photosystem II protein D1",
				"locations": [][]any{{"kb|g.166819.c.0", 900, "-", 90}, {"kb|g.166819.c.1", 5, "-", 60}},
			},
		},
	}, AssemblyNew)
	w.MustPut("ReferenceGenomeAnnotations", "kb|g.166819_feature_container_gene", TypeFeatureContainer, map[string]any{
		"type": "gene",
		"features": map[string]any{
			"kb|g.166819.locus.1": map[string]any{
				"feature_id": "kb|g.166819.locus.1", "type": "gene",
				"locations": [][]any{{"kb|g.166819.c.0", 1, "+", 320}},
			},
		},
	}, AssemblyNew)
	w.MustPut("ReferenceGenomeAnnotations", "kb|g.166819", TypeGenomeAnnotation, map[string]any{
		"genome_annotation_id": "kb|g.166819",
		"taxon_ref":            TaxonNew,
		"assembly_ref":         AssemblyNew,
		"feature_container_references": map[string]string{
			"CDS":  FeaturesCDS,
			"gene": FeaturesGene,
		},
	}, TaxonNew, AssemblyNew, FeaturesCDS, FeaturesGene)

	w.MustPut("OriginalReferenceGenomes", "kb|g.166819.contigset", TypeContigSet, map[string]any{
		"id":     "kb|g.166819.contigset",
		"source": "KBase Central Store",
		"contigs": []map[string]any{
			{"id": "kb|g.166819.c.0", "length": 10, "md5": "0c1e3f8ad1b2", "sequence": "ATGCGCGCTA", "name": "chr_1"},
			{"id": "kb|g.166819.c.1", "length": 4, "md5": "7d2a9e61c3f4", "name": "chr_2", "description": "no sequence"},
		},
	})
	w.MustPut("OriginalReferenceGenomes", "kb|g.166819", TypeGenome, map[string]any{
		"id":              "kb|g.166819",
		"scientific_name": "Ostreococcus lucimarinus CCE9901",
		"domain":          "Eukaryota",
		"genetic_code":    0,
		"taxonomy":        "cellular organisms;Eukaryota;Viridiplantae;Chlorophyta;Mamiellophyceae;Mamiellales;Bathycoccaceae;Ostreococcus",
		"contigset_ref":   ContigSetOld,
		"features": []map[string]any{
			{"id": "kb|g.166819.peg.0", "type": "peg", "function": "hypothetical protein",
				"location": [][]any{{"kb|g.166819.c.0", 1, "+", 9}}},
			{"id": "kb|g.166819.peg.1", "type": "peg", "function": "ribosomal protein L2",
				"location": [][]any{{"kb|g.166819.c.1", 4, "-", 3}}},
		},
	}, ContigSetOld)

	w.MustPut("PrototypeReferenceGenomes", "kb|g.166819", TypePrototypeGenome, map[string]any{"id": "kb|g.166819"})
	w.MustPut("PrototypeReferenceGenomes", "kb|g.166819_assembly", TypeAssembly, map[string]any{
		"assembly_id": "kb|g.166819_assembly", "contigs": map[string]any{},
	})

	return w
}
