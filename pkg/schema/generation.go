// Package schema resolves which stored data-model generation a workspace
// object uses, so a facade can bind the matching backend adapter once.
package schema

// Generation is one of the mutually incompatible layouts used over time to
// store genome data.
type Generation uint8

const (
	Unknown Generation = iota
	// Legacy is the KBaseGenomes layout.
	Legacy
	// Current is the KBaseGenomeAnnotations layout.
	Current
)

func (g Generation) String() string {
	switch g {
	case Legacy:
		return "legacy"
	case Current:
		return "current"
	default:
		return "unknown"
	}
}

// Table maps unversioned type names ("Module.Name") to the generation they
// encode for one vertical (taxon, genome annotation, assembly). Types not in
// the table are unsupported for that vertical.
type Table map[string]Generation

// Lookup returns the generation of an unversioned type name.
func (t Table) Lookup(typeName string) (Generation, bool) {
	g, ok := t[typeName]
	return g, ok && g != Unknown
}
