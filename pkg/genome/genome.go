// Package genome is the schema-resolving facade over genome annotations.
//
// A Legacy KBaseGenomes.Genome embeds its features, taxonomy and a contig
// set reference. A Current KBaseGenomeAnnotations.GenomeAnnotation points at
// a separate taxon, an assembly and one feature container per feature type.
package genome

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/realmarcin/data-api/pkg/schema"
)

// Stored type names.
const (
	TypeGenomeAnnotation = "KBaseGenomeAnnotations.GenomeAnnotation"
	TypeGenome           = "KBaseGenomes.Genome"
)

// Types maps the type names that can back a genome annotation to their
// generation.
var Types = schema.Table{
	TypeGenomeAnnotation: schema.Current,
	TypeGenome:           schema.Legacy,
}

// Feature is one annotated feature.
type Feature struct {
	ID        string     `json:"feature_id"`
	Type      string     `json:"type"`
	Function  string     `json:"function,omitempty"`
	Locations []Location `json:"locations"`
}

// Location is a stretch of a contig. Start is 1-based; on the "-" strand it
// is the rightmost base.
type Location struct {
	ContigID string `json:"contig_id"`
	Start    int64  `json:"start"`
	Strand   string `json:"strand"`
	Length   int64  `json:"length"`
}

// storedLocation decodes the [contig, start, strand, length] tuple both
// generations use.
type storedLocation Location

func (l *storedLocation) UnmarshalJSON(b []byte) error {
	var raw [4]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Wrap(err, "location is not a 4-tuple")
	}
	targets := []any{&l.ContigID, &l.Start, &l.Strand, &l.Length}
	for i, t := range targets {
		if err := json.Unmarshal(raw[i], t); err != nil {
			return errors.Wrapf(err, "location element %d", i)
		}
	}
	return nil
}

func toLocations(stored []storedLocation) []Location {
	out := make([]Location, len(stored))
	for i, l := range stored {
		out[i] = Location(l)
	}
	return out
}
