package taxon

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/realmarcin/data-api/internal/testutil"
	"github.com/realmarcin/data-api/pkg/schema"
	"github.com/realmarcin/data-api/pkg/workspace"
	"github.com/realmarcin/data-api/pkg/workspace/mem"
)

func newTaxon(t *testing.T, ws workspace.Client, ref string) *API {
	t.Helper()
	api, err := New(context.Background(), ws, ref, WithLogger(logr.Discard()))
	require.NoError(t, err, ref)
	return api
}

func TestCurrentTaxon(t *testing.T) {
	ctx := context.Background()
	ws := testutil.NewReferenceWorkspace()
	api := newTaxon(t, ws, testutil.TaxonNew)

	assert.Equal(t, schema.Current, api.Generation())
	assert.Equal(t, testutil.TaxonNew, api.Ref().String())

	name, err := api.GetScientificName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ostreococcus 'lucimarinus'", name)

	id, err := api.GetTaxonomicID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(242159), id)

	kingdom, ok, err := api.GetKingdom(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Viridiplantae", kingdom)

	domain, err := api.GetDomain(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Eukaryota", domain)

	code, err := api.GetGeneticCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	aliases, err := api.GetAliases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ostreococcus lucimarinus", "Ostreococcus sp. CCE9901"}, aliases)

	lineage, err := api.GetScientificLineage(ctx)
	require.NoError(t, err)
	assert.Equal(t, testutil.LineageNew, lineage)

	annotations, err := api.GetGenomeAnnotations(ctx)
	require.NoError(t, err)
	genome, err := ws.GetObjectInfo(ctx, workspace.MustParseRef(testutil.GenomeNew))
	require.NoError(t, err)
	assert.Equal(t, []workspace.Ref{genome.Ref()}, annotations)
}

func TestCurrentTaxonLineage(t *testing.T) {
	ctx := context.Background()
	api := newTaxon(t, testutil.NewReferenceWorkspace(), testutil.TaxonNew)

	ref, ok, err := api.GetParentRef(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testutil.TaxonGenus, ref.String())

	parent, err := api.GetParent(ctx)
	require.NoError(t, err)
	require.NotNil(t, parent)
	parentID, err := parent.GetTaxonomicID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(70447), parentID)

	children, err := api.GetChildren(ctx)
	require.NoError(t, err)
	require.Len(t, children, 1)
	childName, err := children[0].GetScientificName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ostreococcus lucimarinus CCE9901", childName)

	// the strain stores an empty kingdom
	_, ok, err = children[0].GetKingdom(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParentTaxIDDiffersFromChild(t *testing.T) {
	ctx := context.Background()
	ws := testutil.NewReferenceWorkspace()
	for _, ref := range []string{testutil.TaxonKingdom, testutil.TaxonGenus, testutil.TaxonNew, testutil.TaxonStrain} {
		api := newTaxon(t, ws, ref)
		id, err := api.GetTaxonomicID(ctx)
		require.NoError(t, err)
		parent, err := api.GetParent(ctx)
		require.NoError(t, err)
		require.NotNil(t, parent, ref)
		parentID, err := parent.GetTaxonomicID(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, id, parentID, ref)
	}
}

func TestChildrenRoundTrip(t *testing.T) {
	ctx := context.Background()
	ws := testutil.NewReferenceWorkspace()
	for _, ref := range []string{testutil.TaxonRoot, testutil.TaxonKingdom, testutil.TaxonGenus, testutil.TaxonNew} {
		api := newTaxon(t, ws, ref)
		id, err := api.GetTaxonomicID(ctx)
		require.NoError(t, err)
		children, err := api.GetChildren(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, children, ref)
		for _, child := range children {
			parent, err := child.GetParent(ctx)
			require.NoError(t, err)
			require.NotNil(t, parent)
			parentID, err := parent.GetTaxonomicID(ctx)
			require.NoError(t, err)
			assert.Equal(t, id, parentID, ref)
		}
	}
}

func TestRootHasNoParent(t *testing.T) {
	ctx := context.Background()
	api := newTaxon(t, testutil.NewReferenceWorkspace(), testutil.TaxonRoot)

	_, ok, err := api.GetParentRef(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	parent, err := api.GetParent(ctx)
	require.NoError(t, err)
	assert.Nil(t, parent)

	_, ok, err = api.GetKingdom(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLegacyTaxon(t *testing.T) {
	ctx := context.Background()
	api := newTaxon(t, testutil.NewReferenceWorkspace(), testutil.TaxonOld)
	assert.Equal(t, schema.Legacy, api.Generation())

	rec, err := api.Record(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ostreococcus lucimarinus CCE9901", rec.ScientificName)
	assert.Equal(t, UnassignedTaxonomicID, rec.TaxonomicID)
	assert.False(t, rec.HasKingdom)
	assert.Empty(t, rec.Kingdom)
	assert.Equal(t, "Eukaryota", rec.Domain)
	assert.Equal(t, 1, rec.GeneticCode)
	assert.Equal(t, testutil.LineageNew, rec.ScientificLineage)
	assert.Nil(t, rec.Parent)
	assert.NotNil(t, rec.Aliases)
	assert.Empty(t, rec.Aliases)
	assert.NotNil(t, rec.Children)
	assert.Empty(t, rec.Children)
	assert.NotNil(t, rec.GenomeAnnotations)
	assert.Empty(t, rec.GenomeAnnotations)

	parent, err := api.GetParent(ctx)
	require.NoError(t, err)
	assert.Nil(t, parent)
	children, err := api.GetChildren(ctx)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestLegacySentinelsIgnoreContent(t *testing.T) {
	ctx := context.Background()
	ws := mem.NewWorkspace()
	// fields a Legacy genome never carries must not leak through
	ws.MustPut("W", "g", testutil.TypeGenome, map[string]any{
		"scientific_name":  "Escherichia coli",
		"taxonomy":         "cellular organisms; Bacteria; Proteobacteria",
		"taxonomy_id":      562,
		"kingdom":          "Bacteria",
		"aliases":          []string{"E. coli"},
		"parent_taxon_ref": "W/other",
	})
	api := newTaxon(t, ws, "W/g")
	rec, err := api.Record(ctx)
	require.NoError(t, err)
	assert.Equal(t, UnassignedTaxonomicID, rec.TaxonomicID)
	assert.False(t, rec.HasKingdom)
	assert.Empty(t, rec.Aliases)
	assert.Nil(t, rec.Parent)
	assert.Equal(t, "Bacteria", rec.Domain)
	assert.Equal(t, 11, rec.GeneticCode)
}

func TestLegacyDomainFallback(t *testing.T) {
	ctx := context.Background()
	ws := mem.NewWorkspace()
	ws.MustPut("W", "g", testutil.TypeGenome, map[string]any{
		"scientific_name": "unclassified",
		"taxonomy":        "Unknown",
		"domain":          "Archaea",
		"genetic_code":    4,
	})
	api := newTaxon(t, ws, "W/g")

	domain, err := api.GetDomain(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Archaea", domain)

	code, err := api.GetGeneticCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, code)
}

func TestScenarioKingdom(t *testing.T) {
	ctx := context.Background()
	ws := testutil.NewReferenceWorkspace()

	current := newTaxon(t, ws, testutil.TaxonNew)
	kingdom, ok, err := current.GetKingdom(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Viridiplantae", kingdom)

	legacy := newTaxon(t, ws, testutil.TaxonOld)
	_, ok, err = legacy.GetKingdom(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	id, err := legacy.GetTaxonomicID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), id)
}

func TestUnsupportedTypes(t *testing.T) {
	ws := testutil.NewReferenceWorkspace()
	for _, ref := range []string{
		testutil.PrototypeGenome,
		testutil.GenomeNew,
		testutil.AssemblyNew,
		testutil.ContigSetOld,
		"not a reference",
	} {
		api, err := New(context.Background(), ws, ref)
		assert.Nil(t, api, ref)
		assert.ErrorIs(t, err, workspace.ErrUnsupportedType, ref)
	}
}

func TestNewMissingObject(t *testing.T) {
	_, err := New(context.Background(), testutil.NewReferenceWorkspace(), "ReferenceTaxons/1_taxon")
	assert.ErrorIs(t, err, workspace.ErrNotFound)
}

func TestAccessorsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	ws := testutil.NewReferenceWorkspace()
	for _, ref := range []string{testutil.TaxonNew, testutil.TaxonRoot, testutil.TaxonOld} {
		api := newTaxon(t, ws, ref)
		first, err := api.Record(ctx)
		require.NoError(t, err)
		second, err := api.Record(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second, ref)

		// callers mutating results must not change later answers
		if len(first.Aliases) > 0 {
			first.Aliases[0] = "changed"
			aliases, err := api.GetAliases(ctx)
			require.NoError(t, err)
			assert.Equal(t, second.Aliases, aliases)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	api := newTaxon(t, testutil.NewReferenceWorkspace(), testutil.TaxonNew)
	want, err := api.Record(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := api.Record(ctx)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestCurrentFieldRules(t *testing.T) {
	ctx := context.Background()
	ws := mem.NewWorkspace()
	ws.MustPut("W", "unassigned", testutil.TypeTaxon, map[string]any{
		"taxonomy_id":        0,
		"scientific_name":    "environmental samples",
		"scientific_lineage": "cellular organisms",
		"domain":             "Bacteria",
		"genetic_code":       0,
		"parent_taxon_ref":   "",
	})
	api := newTaxon(t, ws, "W/unassigned")

	id, err := api.GetTaxonomicID(ctx)
	require.NoError(t, err)
	assert.Equal(t, UnassignedTaxonomicID, id)

	code, err := api.GetGeneticCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, UnassignedGeneticCode, code)

	aliases, err := api.GetAliases(ctx)
	require.NoError(t, err)
	assert.NotNil(t, aliases)
	assert.Empty(t, aliases)

	_, ok, err := api.GetParentRef(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequiredFields(t *testing.T) {
	ctx := context.Background()
	ws := mem.NewWorkspace()
	ws.MustPut("W", "empty", testutil.TypeTaxon, map[string]any{
		"taxonomy_id":        1,
		"scientific_name":    "",
		"scientific_lineage": "",
		"domain":             "",
		"genetic_code":       11,
	})
	ws.MustPut("W", "missing", testutil.TypeTaxon, map[string]any{
		"taxonomy_id":  1,
		"genetic_code": 11,
	})
	ws.MustPut("W", "legacy-empty", testutil.TypeGenome, map[string]any{
		"scientific_name": "",
		"taxonomy":        "",
	})

	empty := newTaxon(t, ws, "W/empty")
	_, err := empty.GetScientificName(ctx)
	assert.ErrorIs(t, err, workspace.ErrDataIntegrity)
	_, err = empty.GetDomain(ctx)
	assert.ErrorIs(t, err, workspace.ErrDataIntegrity)
	_, err = empty.GetScientificLineage(ctx)
	assert.ErrorIs(t, err, workspace.ErrDataIntegrity)

	missing := newTaxon(t, ws, "W/missing")
	_, err = missing.GetScientificName(ctx)
	assert.ErrorIs(t, err, workspace.ErrNotFound)
	_, err = missing.GetScientificLineage(ctx)
	assert.ErrorIs(t, err, workspace.ErrNotFound)
	_, err = missing.Record(ctx)
	assert.ErrorIs(t, err, workspace.ErrNotFound)

	legacy := newTaxon(t, ws, "W/legacy-empty")
	_, err = legacy.GetScientificName(ctx)
	assert.ErrorIs(t, err, workspace.ErrDataIntegrity)
	_, err = legacy.GetScientificLineage(ctx)
	assert.ErrorIs(t, err, workspace.ErrDataIntegrity)
	_, err = legacy.GetDomain(ctx)
	assert.ErrorIs(t, err, workspace.ErrDataIntegrity)
}

func TestBrokenLineageLinks(t *testing.T) {
	ctx := context.Background()
	ws := testutil.NewReferenceWorkspace()
	taxon := func(name, parent string) {
		ws.MustPut("Broken", name, testutil.TypeTaxon, map[string]any{
			"taxonomy_id":        1,
			"scientific_name":    name,
			"scientific_lineage": "cellular organisms",
			"domain":             "Bacteria",
			"genetic_code":       11,
			"parent_taxon_ref":   parent,
		}, parent)
	}
	taxon("self", "Broken/self")
	taxon("legacy-parent", testutil.TaxonOld)
	taxon("assembly-parent", testutil.AssemblyNew)
	taxon("dangling", "Broken/nowhere/1")

	for _, name := range []string{"self", "legacy-parent", "assembly-parent", "dangling"} {
		api := newTaxon(t, ws, "Broken/"+name)
		parent, err := api.GetParent(ctx)
		assert.Nil(t, parent, name)
		assert.ErrorIs(t, err, workspace.ErrDataIntegrity, name)
		assert.NotErrorIs(t, err, workspace.ErrUnsupportedType, name)
	}
}

type mockClient struct {
	mock.Mock
}

func (m *mockClient) GetObjectInfo(ctx context.Context, ref workspace.Ref) (workspace.ObjectInfo, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(workspace.ObjectInfo), args.Error(1)
}

func (m *mockClient) GetObject(ctx context.Context, ref workspace.Ref) (*workspace.Object, error) {
	args := m.Called(ctx, ref)
	obj, _ := args.Get(0).(*workspace.Object)
	return obj, args.Error(1)
}

func (m *mockClient) GetObjectSubset(ctx context.Context, ref workspace.Ref, paths []string) (*workspace.Object, error) {
	args := m.Called(ctx, ref, paths)
	obj, _ := args.Get(0).(*workspace.Object)
	return obj, args.Error(1)
}

func (m *mockClient) ListReferencingObjects(ctx context.Context, ref workspace.Ref) ([]workspace.ObjectInfo, error) {
	args := m.Called(ctx, ref)
	infos, _ := args.Get(0).([]workspace.ObjectInfo)
	return infos, args.Error(1)
}

func TestConnectivityFailuresAreNotCached(t *testing.T) {
	ctx := context.Background()
	info := workspace.ObjectInfo{
		ObjectID: 7, Name: "562_taxon", Type: testutil.TypeTaxon, Version: 1,
		WorkspaceID: 3, Workspace: "ReferenceTaxons",
	}
	client := &mockClient{}
	client.On("GetObjectInfo", mock.Anything, workspace.MustParseRef("ReferenceTaxons/562_taxon")).
		Return(info, nil).Once()
	client.On("GetObject", mock.Anything, info.Ref()).
		Return(nil, workspace.Errorf(workspace.KindConnectivity, "get_object", "3/7/1", "connection reset")).Once()
	client.On("GetObject", mock.Anything, info.Ref()).
		Return(&workspace.Object{Info: info, Data: json.RawMessage(`{
			"taxonomy_id": 562, "scientific_name": "Escherichia coli",
			"scientific_lineage": "cellular organisms; Bacteria", "domain": "Bacteria",
			"genetic_code": 11}`)}, nil).Once()

	api, err := New(ctx, client, "ReferenceTaxons/562_taxon", WithLogger(logr.Discard()))
	require.NoError(t, err)

	_, err = api.GetScientificName(ctx)
	assert.ErrorIs(t, err, workspace.ErrConnectivity)
	assert.True(t, workspace.IsConnectivity(err))

	name, err := api.GetScientificName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Escherichia coli", name)

	// the successful fetch is memoised
	id, err := api.GetTaxonomicID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(562), id)

	client.AssertExpectations(t)
}
