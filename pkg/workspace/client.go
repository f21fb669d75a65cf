// Package workspace defines the boundary to the remote object workspace: the
// Client port, references, object metadata and the error kinds shared by
// every data API facade.
package workspace

import "context"

// Client is the Workspace Client Adapter. Implementations are pure I/O: they
// fetch what they are asked for and report failures with a Kind.
type Client interface {
	// GetObjectInfo fetches the metadata (including the type string) of ref.
	GetObjectInfo(ctx context.Context, ref Ref) (ObjectInfo, error)
	// GetObject fetches the whole object.
	GetObject(ctx context.Context, ref Ref) (*Object, error)
	// GetObjectSubset fetches only the given "/"-separated field paths.
	GetObjectSubset(ctx context.Context, ref Ref, paths []string) (*Object, error)
	// ListReferencingObjects lists the objects that refer to ref.
	ListReferencingObjects(ctx context.Context, ref Ref) ([]ObjectInfo, error)
}
