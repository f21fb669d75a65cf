package dataapi

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/realmarcin/data-api/pkg/assembly"
	"github.com/realmarcin/data-api/pkg/genome"
	"github.com/realmarcin/data-api/pkg/taxon"
	"github.com/realmarcin/data-api/pkg/workspace"
)

// Description is the view of an object of any supported vertical.
// Exactly one of the pointers is set.
type Description struct {
	Genome   *GenomeResponse   `json:"genome,omitempty"`
	Taxon    *TaxonResponse    `json:"taxon,omitempty"`
	Assembly *AssemblyResponse `json:"assembly,omitempty"`
}

// Describe binds whichever facade accepts ref. A Legacy genome is also a
// Legacy taxon; it is described as a genome.
func Describe(ctx context.Context, ws workspace.Client, ref workspace.Ref, logger logr.Logger) (*Description, error) {
	g, err := genome.NewFromRef(ctx, ws, ref, genome.WithLogger(logger))
	if err == nil {
		resp, err := NewGenomeResponse(ctx, g)
		if err != nil {
			return nil, err
		}
		return &Description{Genome: resp}, nil
	}
	if workspace.KindOf(err) != workspace.KindType {
		return nil, err
	}

	tx, err := taxon.NewFromRef(ctx, ws, ref, taxon.WithLogger(logger))
	if err == nil {
		resp, err := NewTaxonResponse(ctx, tx)
		if err != nil {
			return nil, err
		}
		return &Description{Taxon: resp}, nil
	}
	if workspace.KindOf(err) != workspace.KindType {
		return nil, err
	}

	a, err := assembly.NewFromRef(ctx, ws, ref, assembly.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	resp, err := NewAssemblyResponse(ctx, a)
	if err != nil {
		return nil, err
	}
	return &Description{Assembly: resp}, nil
}
