package workspace

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies failures of the data API so callers can decide on a remedy
// without inspecting transport details.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindType - the reference does not resolve to a supported schema generation.
	KindType
	// KindNotFound - the object or a required sub-field is missing.
	KindNotFound
	// KindConnectivity - transport, timeout or permission failure talking to the workspace.
	KindConnectivity
	// KindDataIntegrity - stored data breaks an invariant of its schema generation.
	KindDataIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindNotFound:
		return "not found"
	case KindConnectivity:
		return "connectivity"
	case KindDataIntegrity:
		return "data integrity"
	default:
		return "unknown"
	}
}

// Error is the typed error returned by workspace clients and facades.
// Err keeps the original cause so errors.Is/As reach it unchanged.
type Error struct {
	Kind Kind
	Op   string
	Ref  string
	Err  error
}

// Sentinels for errors.Is matching by kind only.
var (
	ErrUnsupportedType = &Error{Kind: KindType}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConnectivity    = &Error{Kind: KindConnectivity}
	ErrDataIntegrity   = &Error{Kind: KindDataIntegrity}
)

// NewError builds an Error of the given kind.
func NewError(kind Kind, op, ref string, err error) *Error {
	return &Error{Kind: kind, Op: op, Ref: ref, Err: err}
}

// Errorf builds an Error of the given kind with a formatted cause.
func Errorf(kind Kind, op, ref, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Ref: ref, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Ref != "" {
		msg += " (" + e.Ref + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a bare sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Ref == "" && t.Err == nil
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is of KindNotFound.
func IsNotFound(err error) bool { return stderrors.Is(err, ErrNotFound) }

// IsConnectivity reports whether err is of KindConnectivity.
func IsConnectivity(err error) bool { return stderrors.Is(err, ErrConnectivity) }
