package workspace

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Ref identifies one object in the workspace: a container (workspace name or
// id), an object (name or id) and an optional version.
type Ref struct {
	Container string
	Object    string
	// Version is 0 when the reference points at the latest version.
	Version int
}

// ParseRef parses "<container>/<object>[/<version>]".
// Malformed references are reported as KindType: they can never be classified.
func ParseRef(s string) (Ref, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) < 2 || len(parts) > 3 {
		return Ref{}, NewError(KindType, "parse ref", s,
			errors.New("expected <container>/<object>[/<version>]"))
	}
	for _, p := range parts {
		if p == "" {
			return Ref{}, NewError(KindType, "parse ref", s, errors.New("empty reference segment"))
		}
	}
	ref := Ref{Container: parts[0], Object: parts[1]}
	if len(parts) == 3 {
		v, err := strconv.Atoi(parts[2])
		if err != nil || v < 1 {
			return Ref{}, NewError(KindType, "parse ref", s, errors.Errorf("invalid version %q", parts[2]))
		}
		ref.Version = v
	}
	return ref, nil
}

// MustParseRef is ParseRef for literals known to be valid.
func MustParseRef(s string) Ref {
	ref, err := ParseRef(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// String renders the canonical text form.
func (r Ref) String() string {
	if r.Version > 0 {
		return r.Container + "/" + r.Object + "/" + strconv.Itoa(r.Version)
	}
	return r.Container + "/" + r.Object
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool {
	return r.Container == "" && r.Object == ""
}

// Latest drops the version.
func (r Ref) Latest() Ref {
	r.Version = 0
	return r
}
