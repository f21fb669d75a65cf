package workspace

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// ObjectInfo mirrors the workspace object_info tuple.
type ObjectInfo struct {
	ObjectID    int64             `json:"objid"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	SaveDate    string            `json:"save_date"`
	Version     int               `json:"version"`
	SavedBy     string            `json:"saved_by"`
	WorkspaceID int64             `json:"wsid"`
	Workspace   string            `json:"workspace"`
	Checksum    string            `json:"chsum"`
	Size        int64             `json:"size"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// Ref returns the absolute "wsid/objid/version" reference of the object.
func (i ObjectInfo) Ref() Ref {
	return Ref{
		Container: fmt.Sprint(i.WorkspaceID),
		Object:    fmt.Sprint(i.ObjectID),
		Version:   i.Version,
	}
}

// NamedRef returns the "workspace/name" reference of the object.
func (i ObjectInfo) NamedRef() Ref {
	return Ref{Container: i.Workspace, Object: i.Name}
}

// SameObject reports whether both infos describe the same stored object,
// ignoring the version.
func (i ObjectInfo) SameObject(o ObjectInfo) bool {
	return i.WorkspaceID == o.WorkspaceID && i.ObjectID == o.ObjectID
}

// TypeName parses the type string.
func (i ObjectInfo) TypeName() (TypeName, error) {
	return ParseTypeName(i.Type)
}

// MarshalJSON encodes the info as the 11-element workspace tuple.
func (i ObjectInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{
		i.ObjectID, i.Name, i.Type, i.SaveDate, i.Version, i.SavedBy,
		i.WorkspaceID, i.Workspace, i.Checksum, i.Size, i.Meta,
	})
}

// UnmarshalJSON decodes the 11-element workspace tuple.
func (i *ObjectInfo) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Wrap(err, "object info is not a tuple")
	}
	if len(raw) != 11 {
		return errors.Errorf("object info tuple has %d elements, want 11", len(raw))
	}
	targets := []any{
		&i.ObjectID, &i.Name, &i.Type, &i.SaveDate, &i.Version, &i.SavedBy,
		&i.WorkspaceID, &i.Workspace, &i.Checksum, &i.Size, &i.Meta,
	}
	for n, t := range targets {
		if string(raw[n]) == "null" {
			continue
		}
		if err := json.Unmarshal(raw[n], t); err != nil {
			return errors.Wrapf(err, "object info element %d", n)
		}
	}
	return nil
}

// Object is a stored object or a subset of it.
type Object struct {
	Info ObjectInfo      `json:"info"`
	Data json.RawMessage `json:"data"`
}

// Decode unmarshals the object data into v.
func (o *Object) Decode(v any) error {
	if len(o.Data) == 0 {
		return NewError(KindNotFound, "decode", o.Info.Ref().String(), errors.New("object has no data"))
	}
	if err := json.Unmarshal(o.Data, v); err != nil {
		return NewError(KindDataIntegrity, "decode", o.Info.Ref().String(), err)
	}
	return nil
}
