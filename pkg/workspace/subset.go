package workspace

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// SelectPaths extracts the given "/"-separated field paths from a JSON
// document, keeping their nesting. Paths that do not exist are skipped, the
// same way the workspace treats non-strict subset requests.
// An empty path list selects the whole document.
func SelectPaths(data json.RawMessage, paths []string) (json.RawMessage, error) {
	if len(paths) == 0 {
		return data, nil
	}
	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "subset source is not an object")
	}
	out := map[string]any{}
	for _, p := range paths {
		keys := strings.Split(strings.Trim(p, "/"), "/")
		v, ok := lookup(doc, keys)
		if !ok {
			continue
		}
		place(out, keys, v)
	}
	return json.Marshal(out)
}

func lookup(doc map[string]any, keys []string) (any, bool) {
	var cur any = doc
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[k]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func place(out map[string]any, keys []string, v any) {
	cur := out
	for _, k := range keys[:len(keys)-1] {
		next, ok := cur[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[k] = next
		}
		cur = next
	}
	cur[keys[len(keys)-1]] = v
}
