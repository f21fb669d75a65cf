package taxon

import (
	"context"

	"github.com/realmarcin/data-api/pkg/schema"
	"github.com/realmarcin/data-api/pkg/workspace"
)

// backend is implemented once per schema generation. Every method returns
// either the stored value or the sentinel the generation defines; errors are
// reserved for failed fetches and broken stored data.
type backend interface {
	generation() schema.Generation

	scientificName(ctx context.Context) (string, error)
	taxonomicID(ctx context.Context) (int64, error)
	kingdom(ctx context.Context) (string, bool, error)
	domain(ctx context.Context) (string, error)
	geneticCode(ctx context.Context) (int, error)
	aliases(ctx context.Context) ([]string, error)
	scientificLineage(ctx context.Context) (string, error)

	parentRef(ctx context.Context) (workspace.Ref, bool, error)
	childRefs(ctx context.Context) ([]workspace.Ref, error)
	genomeAnnotationRefs(ctx context.Context) ([]workspace.Ref, error)
}

func newBackend(gen schema.Generation, client workspace.Client, info workspace.ObjectInfo) backend {
	switch gen {
	case schema.Legacy:
		return &legacyBackend{client: client, info: info}
	case schema.Current:
		return &currentBackend{client: client, info: info}
	default:
		return nil
	}
}

// requireText turns a stored required text field into a value or an error:
// missing is not found, present but empty is a data integrity failure.
func requireText(info workspace.ObjectInfo, field string, v *string) (string, error) {
	ref := info.NamedRef().String()
	if v == nil {
		return "", workspace.Errorf(workspace.KindNotFound, field, ref, "field %s is missing", field)
	}
	if *v == "" {
		return "", workspace.Errorf(workspace.KindDataIntegrity, field, ref, "field %s is empty", field)
	}
	return *v, nil
}
