package assembly

import (
	"context"
	"strings"

	"github.com/realmarcin/data-api/pkg/schema"
	"github.com/realmarcin/data-api/pkg/workspace"
)

type contigSetContig struct {
	ID          string  `json:"id"`
	Length      int64   `json:"length"`
	MD5         string  `json:"md5"`
	Sequence    *string `json:"sequence"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

type contigSetData struct {
	Contigs []contigSetContig `json:"contigs"`
}

// contigSetBackend reads a KBaseGenomes.ContigSet. GC content is not
// stored, it is computed from the contig sequence.
type contigSetBackend struct {
	client workspace.Client
	info   workspace.ObjectInfo
	data   schema.Memo[map[string]Contig]
}

func (b *contigSetBackend) generation() schema.Generation { return schema.Legacy }

func (b *contigSetBackend) contigs(ctx context.Context) (map[string]Contig, error) {
	return b.data.Get(ctx, func(ctx context.Context) (map[string]Contig, error) {
		obj, err := b.client.GetObjectSubset(ctx, b.info.Ref(), []string{"contigs"})
		if err != nil {
			return nil, err
		}
		var cs contigSetData
		if err := obj.Decode(&cs); err != nil {
			return nil, err
		}
		out := make(map[string]Contig, len(cs.Contigs))
		for _, c := range cs.Contigs {
			if c.ID == "" {
				return nil, workspace.Errorf(workspace.KindDataIntegrity, "contigs", b.info.NamedRef().String(),
					"contig without id")
			}
			gc := UnknownGCContent
			length := c.Length
			if c.Sequence != nil && *c.Sequence != "" {
				gc = gcContent(*c.Sequence)
				if length == 0 {
					length = int64(len(*c.Sequence))
				}
			}
			out[c.ID] = Contig{
				ID:          c.ID,
				Length:      length,
				MD5:         c.MD5,
				GCContent:   gc,
				Name:        c.Name,
				Description: c.Description,
			}
		}
		return out, nil
	})
}

func (b *contigSetBackend) numContigs(ctx context.Context) (int, error) {
	all, err := b.contigs(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (b *contigSetBackend) dnaSize(ctx context.Context) (int64, error) {
	all, err := b.contigs(ctx)
	if err != nil {
		return 0, err
	}
	var size int64
	for _, c := range all {
		size += c.Length
	}
	return size, nil
}

func gcContent(seq string) float64 {
	var gc int
	for _, r := range strings.ToUpper(seq) {
		if r == 'G' || r == 'C' {
			gc++
		}
	}
	return float64(gc) / float64(len(seq))
}

type assemblyContig struct {
	ContigID    string   `json:"contig_id"`
	Length      int64    `json:"length"`
	MD5         string   `json:"md5"`
	GCContent   *float64 `json:"gc_content"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
}

type assemblyData struct {
	NumContigs *int                      `json:"num_contigs"`
	DNASize    *int64                    `json:"dna_size"`
	Contigs    map[string]assemblyContig `json:"contigs"`
}

// assemblyBackend reads a KBaseGenomeAnnotations.Assembly.
type assemblyBackend struct {
	client workspace.Client
	info   workspace.ObjectInfo
	data   schema.Memo[*assemblyData]
}

func (b *assemblyBackend) generation() schema.Generation { return schema.Current }

func (b *assemblyBackend) assembly(ctx context.Context) (*assemblyData, error) {
	return b.data.Get(ctx, func(ctx context.Context) (*assemblyData, error) {
		obj, err := b.client.GetObjectSubset(ctx, b.info.Ref(), []string{"contigs", "num_contigs", "dna_size"})
		if err != nil {
			return nil, err
		}
		var a assemblyData
		if err := obj.Decode(&a); err != nil {
			return nil, err
		}
		if a.Contigs == nil {
			return nil, workspace.Errorf(workspace.KindNotFound, "contigs", b.info.NamedRef().String(),
				"field contigs is missing")
		}
		return &a, nil
	})
}

func (b *assemblyBackend) contigs(ctx context.Context) (map[string]Contig, error) {
	a, err := b.assembly(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Contig, len(a.Contigs))
	for id, c := range a.Contigs {
		gc := UnknownGCContent
		if c.GCContent != nil {
			gc = *c.GCContent
		}
		out[id] = Contig{
			ID:          id,
			Length:      c.Length,
			MD5:         c.MD5,
			GCContent:   gc,
			Name:        c.Name,
			Description: c.Description,
		}
	}
	return out, nil
}

func (b *assemblyBackend) numContigs(ctx context.Context) (int, error) {
	a, err := b.assembly(ctx)
	if err != nil {
		return 0, err
	}
	if a.NumContigs != nil {
		return *a.NumContigs, nil
	}
	return len(a.Contigs), nil
}

func (b *assemblyBackend) dnaSize(ctx context.Context) (int64, error) {
	a, err := b.assembly(ctx)
	if err != nil {
		return 0, err
	}
	if a.DNASize != nil {
		return *a.DNASize, nil
	}
	var size int64
	for _, c := range a.Contigs {
		size += c.Length
	}
	return size, nil
}
