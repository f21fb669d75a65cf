package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Ref
		wantErr bool
	}{
		{"named", "ReferenceTaxons/242159_taxon", Ref{Container: "ReferenceTaxons", Object: "242159_taxon"}, false},
		{"kbase id with pipe", "OriginalReferenceGenomes/kb|g.166819", Ref{Container: "OriginalReferenceGenomes", Object: "kb|g.166819"}, false},
		{"versioned", "1779/523209/2", Ref{Container: "1779", Object: "523209", Version: 2}, false},
		{"single segment", "Bogus", Ref{}, true},
		{"empty", "", Ref{}, true},
		{"empty object", "ws/", Ref{}, true},
		{"too many segments", "a/b/1/2", Ref{}, true},
		{"bad version", "a/b/latest", Ref{}, true},
		{"zero version", "a/b/0", Ref{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRef(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestRefLatest(t *testing.T) {
	ref := MustParseRef("1779/523209/2")
	assert.Equal(t, "1779/523209", ref.Latest().String())
	assert.False(t, ref.IsZero())
	assert.True(t, Ref{}.IsZero())
}

func TestParseTypeName(t *testing.T) {
	tn, err := ParseTypeName("KBaseGenomes.Genome-8.2")
	require.NoError(t, err)
	assert.Equal(t, TypeName{Module: "KBaseGenomes", Name: "Genome", Major: 8, Minor: 2}, tn)
	assert.Equal(t, "KBaseGenomes.Genome", tn.Unversioned())

	tn, err = ParseTypeName("KBaseGenomeAnnotations.Taxon")
	require.NoError(t, err)
	assert.Equal(t, "KBaseGenomeAnnotations.Taxon", tn.Unversioned())

	for _, bad := range []string{"", "Genome", ".Genome", "A.B.C-1.0", "A.B-x.1"} {
		_, err := ParseTypeName(bad)
		assert.Error(t, err, bad)
	}
}
