package mem

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Fixture is one stored object in a fixtures file.
type Fixture struct {
	Workspace string          `json:"workspace"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Refs      []string        `json:"refs,omitempty"`
}

// FixtureSet is the on-disk fixtures format.
type FixtureSet struct {
	Objects []Fixture `json:"objects"`
}

// Load stores every fixture in the set, in order.
func (w *Workspace) Load(set FixtureSet) error {
	for _, f := range set.Objects {
		if _, err := w.Put(f.Workspace, f.Name, f.Type, f.Data, f.Refs...); err != nil {
			return errors.Wrapf(err, "load fixture %s/%s", f.Workspace, f.Name)
		}
	}
	return nil
}

// NewWorkspaceFromFile creates a workspace preloaded from a JSON fixtures file.
func NewWorkspaceFromFile(path string) (*Workspace, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read fixtures")
	}
	var set FixtureSet
	if err := json.Unmarshal(b, &set); err != nil {
		return nil, errors.Wrapf(err, "decode fixtures %s", path)
	}
	w := NewWorkspace()
	if err := w.Load(set); err != nil {
		return nil, err
	}
	return w, nil
}
