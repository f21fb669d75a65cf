package assembly

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmarcin/data-api/internal/testutil"
	"github.com/realmarcin/data-api/pkg/schema"
	"github.com/realmarcin/data-api/pkg/workspace"
	"github.com/realmarcin/data-api/pkg/workspace/mem"
)

func TestCurrentAssembly(t *testing.T) {
	ctx := context.Background()
	api, err := New(ctx, testutil.NewReferenceWorkspace(), testutil.AssemblyNew, WithLogger(logr.Discard()))
	require.NoError(t, err)
	assert.Equal(t, schema.Current, api.Generation())

	ids, err := api.GetContigIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kb|g.166819.c.0", "kb|g.166819.c.1"}, ids)

	n, err := api.GetNumberContigs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	size, err := api.GetDNASize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), size)

	contigs, err := api.GetContigs(ctx, []string{"kb|g.166819.c.1", "kb|g.166819.c.9"})
	require.NoError(t, err)
	require.Len(t, contigs, 1)
	c := contigs["kb|g.166819.c.1"]
	assert.Equal(t, int64(200), c.Length)
	assert.InDelta(t, 0.55, c.GCContent, 1e-9)
	assert.Equal(t, "chr_2", c.Name)
}

func TestLegacyContigSet(t *testing.T) {
	ctx := context.Background()
	api, err := New(ctx, testutil.NewReferenceWorkspace(), testutil.ContigSetOld, WithLogger(logr.Discard()))
	require.NoError(t, err)
	assert.Equal(t, schema.Legacy, api.Generation())

	contigs, err := api.GetContigs(ctx, nil)
	require.NoError(t, err)
	require.Len(t, contigs, 2)
	assert.InDelta(t, 0.6, contigs["kb|g.166819.c.0"].GCContent, 1e-9)
	assert.Equal(t, UnknownGCContent, contigs["kb|g.166819.c.1"].GCContent)
	assert.Equal(t, "no sequence", contigs["kb|g.166819.c.1"].Description)

	n, err := api.GetNumberContigs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	size, err := api.GetDNASize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(14), size)
}

func TestAssemblyUnsupportedTypes(t *testing.T) {
	ws := testutil.NewReferenceWorkspace()
	for _, ref := range []string{testutil.TaxonNew, testutil.TaxonOld, testutil.GenomeNew, testutil.FeaturesCDS} {
		_, err := New(context.Background(), ws, ref)
		assert.ErrorIs(t, err, workspace.ErrUnsupportedType, ref)
	}
}

func TestAssemblyWithoutContigs(t *testing.T) {
	ws := mem.NewWorkspace()
	ws.MustPut("W", "a", testutil.TypeAssembly, map[string]any{"assembly_id": "a"})
	api, err := New(context.Background(), ws, "W/a", WithLogger(logr.Discard()))
	require.NoError(t, err)
	_, err = api.GetContigIDs(context.Background())
	assert.ErrorIs(t, err, workspace.ErrNotFound)
}

func TestGCContent(t *testing.T) {
	assert.InDelta(t, 0.5, gcContent("acgt"), 1e-9)
	assert.InDelta(t, 0.0, gcContent("AAAA"), 1e-9)
	assert.InDelta(t, 1.0, gcContent("GGCC"), 1e-9)
}
