package schema

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmarcin/data-api/internal/testutil"
	"github.com/realmarcin/data-api/pkg/workspace"
)

var taxonTable = Table{
	"KBaseGenomeAnnotations.Taxon": Current,
	"KBaseGenomes.Genome":          Legacy,
}

func TestClassify(t *testing.T) {
	ws := testutil.NewReferenceWorkspace()
	c := NewClassifier(ws, "taxon", taxonTable)
	ctx := context.Background()

	gen, info, err := c.ClassifyString(ctx, testutil.TaxonNew)
	require.NoError(t, err)
	assert.Equal(t, Current, gen)
	assert.Equal(t, "242159_taxon", info.Name)

	gen, _, err = c.ClassifyString(ctx, testutil.TaxonOld)
	require.NoError(t, err)
	assert.Equal(t, Legacy, gen)
}

func TestClassifyUnsupported(t *testing.T) {
	ws := testutil.NewReferenceWorkspace()
	c := NewClassifier(ws, "taxon", taxonTable)

	// unknown tags, sibling tags and malformed references all share one kind
	for _, ref := range []string{
		"Bogus",
		testutil.PrototypeGenome,
		testutil.PrototypeAsm,
		testutil.ContigSetOld,
	} {
		_, _, err := c.ClassifyString(context.Background(), ref)
		require.Error(t, err, ref)
		assert.ErrorIs(t, err, workspace.ErrUnsupportedType, ref)
	}
}

func TestClassifyPassesTransportErrorsThrough(t *testing.T) {
	ws := testutil.NewReferenceWorkspace()
	c := NewClassifier(ws, "taxon", taxonTable)

	_, _, err := c.ClassifyString(context.Background(), "ReferenceTaxons/missing")
	assert.ErrorIs(t, err, workspace.ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = c.ClassifyString(ctx, testutil.TaxonNew)
	assert.ErrorIs(t, err, workspace.ErrConnectivity)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, workspace.ErrUnsupportedType)
}

func TestSupports(t *testing.T) {
	c := NewClassifier(nil, "taxon", taxonTable)
	gen, ok := c.Supports(testutil.TypeTaxon)
	assert.True(t, ok)
	assert.Equal(t, Current, gen)
	_, ok = c.Supports(testutil.TypeGenomeAnnotation)
	assert.False(t, ok)
	_, ok = c.Supports("garbage")
	assert.False(t, ok)
}

func TestGenerationString(t *testing.T) {
	assert.Equal(t, "legacy", Legacy.String())
	assert.Equal(t, "current", Current.String())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestMemo(t *testing.T) {
	var m Memo[int]
	var calls atomic.Int32
	ctx := context.Background()

	_, err := m.Get(ctx, func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("transient")
	})
	require.Error(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Get(ctx, func(context.Context) (int, error) {
				calls.Add(1)
				return 42, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(2), calls.Load())
}
