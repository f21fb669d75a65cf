package workspace

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TypeName is a parsed workspace type string such as "KBaseGenomes.Genome-8.0".
type TypeName struct {
	Module string
	Name   string
	Major  int
	Minor  int
}

// ParseTypeName parses "Module.Name[-Major[.Minor]]".
func ParseTypeName(s string) (TypeName, error) {
	base, version, hasVersion := strings.Cut(s, "-")
	module, name, ok := strings.Cut(base, ".")
	if !ok || module == "" || name == "" || strings.Contains(name, ".") {
		return TypeName{}, errors.Errorf("malformed type string %q", s)
	}
	tn := TypeName{Module: module, Name: name}
	if !hasVersion {
		return tn, nil
	}
	major, minor, hasMinor := strings.Cut(version, ".")
	var err error
	if tn.Major, err = strconv.Atoi(major); err != nil {
		return TypeName{}, errors.Errorf("malformed type version in %q", s)
	}
	if hasMinor {
		if tn.Minor, err = strconv.Atoi(minor); err != nil {
			return TypeName{}, errors.Errorf("malformed type version in %q", s)
		}
	}
	return tn, nil
}

// Unversioned returns "Module.Name".
func (t TypeName) Unversioned() string {
	return t.Module + "." + t.Name
}

func (t TypeName) String() string {
	return t.Unversioned() + "-" + strconv.Itoa(t.Major) + "." + strconv.Itoa(t.Minor)
}
