// Package taxon is the schema-resolving facade over taxon data.
//
// A taxon is stored either as a Legacy KBaseGenomes.Genome (the taxonomy is
// embedded in the genome) or as a Current KBaseGenomeAnnotations.Taxon. New
// classifies the reference once, binds the backend adapter for that
// generation and every accessor is forwarded to it. Concepts a generation
// does not have are reported with sentinel values, never with errors.
package taxon

import (
	"github.com/realmarcin/data-api/pkg/schema"
	"github.com/realmarcin/data-api/pkg/workspace"
)

// UnassignedTaxonomicID is returned when a taxon has no taxonomic id,
// including every Legacy taxon.
const UnassignedTaxonomicID int64 = -1

// UnassignedGeneticCode is returned by Current taxa whose stored genetic
// code is not a valid translation table number.
const UnassignedGeneticCode = -1

// Stored type names.
const (
	TypeTaxon            = "KBaseGenomeAnnotations.Taxon"
	TypeGenome           = "KBaseGenomes.Genome"
	TypeGenomeAnnotation = "KBaseGenomeAnnotations.GenomeAnnotation"
)

// Types maps the type names that can back a taxon to their generation.
var Types = schema.Table{
	TypeTaxon:  schema.Current,
	TypeGenome: schema.Legacy,
}

// Record is an immutable snapshot of every taxon accessor.
type Record struct {
	Ref               workspace.Ref
	Generation        schema.Generation
	ScientificName    string
	TaxonomicID       int64
	Kingdom           string
	HasKingdom        bool
	Domain            string
	GeneticCode       int
	Aliases           []string
	ScientificLineage string
	Parent            *workspace.Ref
	Children          []workspace.Ref
	GenomeAnnotations []workspace.Ref
}
