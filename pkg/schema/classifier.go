package schema

import (
	"context"

	"github.com/pkg/errors"

	"github.com/realmarcin/data-api/pkg/workspace"
)

// Classifier maps a reference to a Generation using the type string returned
// by one metadata round trip.
type Classifier struct {
	client   workspace.Client
	table    Table
	vertical string
}

// NewClassifier creates a classifier for one vertical. vertical names the
// record kind in error messages ("taxon", "genome annotation", ...).
func NewClassifier(client workspace.Client, vertical string, table Table) *Classifier {
	return &Classifier{client: client, table: table, vertical: vertical}
}

// Classify returns the generation of ref together with its object info.
// Unknown type tags and tags of unrelated sibling types both fail with
// workspace.KindType; transport failures are returned untouched.
func (c *Classifier) Classify(ctx context.Context, ref workspace.Ref) (Generation, workspace.ObjectInfo, error) {
	info, err := c.client.GetObjectInfo(ctx, ref)
	if err != nil {
		return Unknown, workspace.ObjectInfo{}, err
	}
	tn, err := info.TypeName()
	if err != nil {
		return Unknown, info, workspace.NewError(workspace.KindType, "classify", ref.String(), err)
	}
	gen, ok := c.table.Lookup(tn.Unversioned())
	if !ok {
		return Unknown, info, workspace.NewError(workspace.KindType, "classify", ref.String(),
			errors.Errorf("type %s is not a supported %s type", info.Type, c.vertical))
	}
	return gen, info, nil
}

// ClassifyString parses and classifies a textual reference.
func (c *Classifier) ClassifyString(ctx context.Context, ref string) (Generation, workspace.ObjectInfo, error) {
	parsed, err := workspace.ParseRef(ref)
	if err != nil {
		return Unknown, workspace.ObjectInfo{}, err
	}
	return c.Classify(ctx, parsed)
}

// Supports reports whether a type string belongs to this classifier's table,
// without a round trip. Used to filter referrer lists.
func (c *Classifier) Supports(typ string) (Generation, bool) {
	tn, err := workspace.ParseTypeName(typ)
	if err != nil {
		return Unknown, false
	}
	return c.table.Lookup(tn.Unversioned())
}
