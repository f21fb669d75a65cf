package genome

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmarcin/data-api/internal/testutil"
	"github.com/realmarcin/data-api/pkg/schema"
	"github.com/realmarcin/data-api/pkg/taxon"
	"github.com/realmarcin/data-api/pkg/workspace"
	"github.com/realmarcin/data-api/pkg/workspace/mem"
)

func newGenome(t *testing.T, ws workspace.Client, ref string) *API {
	t.Helper()
	api, err := New(context.Background(), ws, ref, WithLogger(logr.Discard()))
	require.NoError(t, err, ref)
	return api
}

func TestCurrentGenome(t *testing.T) {
	ctx := context.Background()
	api := newGenome(t, testutil.NewReferenceWorkspace(), testutil.GenomeNew)
	assert.Equal(t, schema.Current, api.Generation())

	tx, err := api.GetTaxon(ctx)
	require.NoError(t, err)
	id, err := tx.GetTaxonomicID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(242159), id)

	ref, err := api.GetAssemblyRef(ctx)
	require.NoError(t, err)
	assert.Equal(t, testutil.AssemblyNew, ref.String())

	asm, err := api.GetAssembly(ctx)
	require.NoError(t, err)
	assert.Equal(t, schema.Current, asm.Generation())

	types, err := api.GetFeatureTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CDS", "gene"}, types)

	ids, err := api.GetFeatureIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kb|g.166819.CDS.1", "kb|g.166819.CDS.2", "kb|g.166819.locus.1"}, ids)
}

func TestCurrentGenomeFeatures(t *testing.T) {
	ctx := context.Background()
	api := newGenome(t, testutil.NewReferenceWorkspace(), testutil.GenomeNew)

	features, err := api.GetFeatures(ctx, []string{"kb|g.166819.CDS.2", "kb|g.166819.locus.1", "kb|g.166819.CDS.404"})
	require.NoError(t, err)
	require.Len(t, features, 2)

	cds := features["kb|g.166819.CDS.2"]
	assert.Equal(t, "CDS", cds.Type)
	assert.Equal(t, "photosystem II protein D1", cds.Function)
	assert.Equal(t, []Location{
		{ContigID: "kb|g.166819.c.0", Start: 900, Strand: "-", Length: 90},
		{ContigID: "kb|g.166819.c.1", Start: 5, Strand: "-", Length: 60},
	}, cds.Locations)
	assert.Equal(t, "gene", features["kb|g.166819.locus.1"].Type)

	all, err := api.GetFeatures(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLegacyGenome(t *testing.T) {
	ctx := context.Background()
	api := newGenome(t, testutil.NewReferenceWorkspace(), testutil.TaxonOld)
	assert.Equal(t, schema.Legacy, api.Generation())

	tx, err := api.GetTaxon(ctx)
	require.NoError(t, err)
	assert.Equal(t, schema.Legacy, tx.Generation())
	id, err := tx.GetTaxonomicID(ctx)
	require.NoError(t, err)
	assert.Equal(t, taxon.UnassignedTaxonomicID, id)

	ref, err := api.GetAssemblyRef(ctx)
	require.NoError(t, err)
	assert.Equal(t, testutil.ContigSetOld, ref.String())
	asm, err := api.GetAssembly(ctx)
	require.NoError(t, err)
	assert.Equal(t, schema.Legacy, asm.Generation())

	ids, err := api.GetFeatureIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kb|g.166819.peg.0", "kb|g.166819.peg.1"}, ids)

	types, err := api.GetFeatureTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"peg"}, types)

	features, err := api.GetFeatures(ctx, []string{"kb|g.166819.peg.1", "missing"})
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, []Location{{ContigID: "kb|g.166819.c.1", Start: 4, Strand: "-", Length: 3}},
		features["kb|g.166819.peg.1"].Locations)
}

func TestGenomeUnsupportedTypes(t *testing.T) {
	ws := testutil.NewReferenceWorkspace()
	for _, ref := range []string{testutil.TaxonNew, testutil.AssemblyNew, testutil.PrototypeGenome, testutil.FeaturesCDS} {
		_, err := New(context.Background(), ws, ref)
		assert.ErrorIs(t, err, workspace.ErrUnsupportedType, ref)
	}
}

func TestGenomeBrokenReferences(t *testing.T) {
	ctx := context.Background()
	ws := mem.NewWorkspace()
	ws.MustPut("W", "bare", testutil.TypeGenomeAnnotation, map[string]any{"genome_annotation_id": "bare"})
	ws.MustPut("W", "bad", testutil.TypeGenomeAnnotation, map[string]any{
		"taxon_ref":                    "not-a-ref",
		"feature_container_references": map[string]string{"CDS": "also bad"},
	})

	bare := newGenome(t, ws, "W/bare")
	_, err := bare.GetAssemblyRef(ctx)
	assert.ErrorIs(t, err, workspace.ErrNotFound)
	_, err = bare.GetTaxon(ctx)
	assert.ErrorIs(t, err, workspace.ErrNotFound)
	ids, err := bare.GetFeatureIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	bad := newGenome(t, ws, "W/bad")
	_, err = bad.GetTaxonRef(ctx)
	assert.ErrorIs(t, err, workspace.ErrDataIntegrity)
	_, err = bad.GetFeatures(ctx, nil)
	assert.ErrorIs(t, err, workspace.ErrDataIntegrity)
}

func TestStoredLocationRejectsShortTuple(t *testing.T) {
	var l storedLocation
	assert.Error(t, l.UnmarshalJSON([]byte(`["c", 1, "+"]`)))
	require.NoError(t, l.UnmarshalJSON([]byte(`["c", 1, "+", 10]`)))
	assert.Equal(t, Location{ContigID: "c", Start: 1, Strand: "+", Length: 10}, Location(l))
}
