// Package mem is an in-memory workspace used for tests, demos and fixture
// driven runs of the data API.
package mem

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/realmarcin/data-api/pkg/workspace"
)

type objectKey struct {
	wsid  int64
	objid int64
}

type storedObject struct {
	info workspace.ObjectInfo
	data json.RawMessage
	refs []workspace.Ref
}

// Workspace is an in-memory implementation of workspace.Client.
type Workspace struct {
	mu         sync.RWMutex
	workspaces map[string]int64
	names      map[int64]string
	objects    map[objectKey][]*storedObject // every version, oldest first
	byName     map[int64]map[string]int64
	nextObjID  map[int64]int64
	closed     bool
	now        func() time.Time
}

var _ workspace.Client = (*Workspace)(nil)

// NewWorkspace creates an empty in-memory workspace
func NewWorkspace() *Workspace {
	return &Workspace{
		workspaces: make(map[string]int64),
		names:      make(map[int64]string),
		objects:    make(map[objectKey][]*storedObject),
		byName:     make(map[int64]map[string]int64),
		nextObjID:  make(map[int64]int64),
		now:        time.Now,
	}
}

// Put stores data under container/name with the given type string. refs are
// the references the object holds to other objects; they feed the reverse
// index used by ListReferencingObjects. Storing an existing name bumps its
// version.
func (w *Workspace) Put(container, name, typ string, data any, refs ...string) (workspace.ObjectInfo, error) {
	if _, err := workspace.ParseTypeName(typ); err != nil {
		return workspace.ObjectInfo{}, err
	}
	raw, err := toRaw(data)
	if err != nil {
		return workspace.ObjectInfo{}, errors.Wrapf(err, "encode %s/%s", container, name)
	}
	if !json.Valid(raw) {
		return workspace.ObjectInfo{}, errors.Errorf("object %s/%s: data is not valid JSON", container, name)
	}
	parsed := make([]workspace.Ref, 0, len(refs))
	for _, r := range refs {
		ref, err := workspace.ParseRef(r)
		if err != nil {
			return workspace.ObjectInfo{}, errors.Wrapf(err, "object %s/%s", container, name)
		}
		parsed = append(parsed, ref)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return workspace.ObjectInfo{}, errors.New("workspace is closed")
	}

	wsid, ok := w.workspaces[container]
	if !ok {
		wsid = int64(len(w.workspaces) + 1)
		w.workspaces[container] = wsid
		w.names[wsid] = container
		w.byName[wsid] = make(map[string]int64)
	}
	objid, exists := w.byName[wsid][name]
	version := 1
	if exists {
		version = len(w.objects[objectKey{wsid, objid}]) + 1
	} else {
		w.nextObjID[wsid]++
		objid = w.nextObjID[wsid]
		w.byName[wsid][name] = objid
	}

	info := workspace.ObjectInfo{
		ObjectID:    objid,
		Name:        name,
		Type:        typ,
		SaveDate:    w.now().UTC().Format("2006-01-02T15:04:05-0700"),
		Version:     version,
		SavedBy:     "mem",
		WorkspaceID: wsid,
		Workspace:   container,
		Size:        int64(len(raw)),
	}
	key := objectKey{wsid, objid}
	w.objects[key] = append(w.objects[key], &storedObject{info: info, data: raw, refs: parsed})
	return info, nil
}

// MustPut is Put for test fixtures.
func (w *Workspace) MustPut(container, name, typ string, data any, refs ...string) workspace.ObjectInfo {
	info, err := w.Put(container, name, typ, data, refs...)
	if err != nil {
		panic(err)
	}
	return info
}

// GetObjectInfo implements workspace.Client.
func (w *Workspace) GetObjectInfo(ctx context.Context, ref workspace.Ref) (workspace.ObjectInfo, error) {
	obj, err := w.find(ctx, "get_object_info", ref)
	if err != nil {
		return workspace.ObjectInfo{}, err
	}
	return obj.info, nil
}

// GetObject implements workspace.Client.
func (w *Workspace) GetObject(ctx context.Context, ref workspace.Ref) (*workspace.Object, error) {
	obj, err := w.find(ctx, "get_object", ref)
	if err != nil {
		return nil, err
	}
	return &workspace.Object{Info: obj.info, Data: append(json.RawMessage(nil), obj.data...)}, nil
}

// GetObjectSubset implements workspace.Client.
func (w *Workspace) GetObjectSubset(ctx context.Context, ref workspace.Ref, paths []string) (*workspace.Object, error) {
	obj, err := w.find(ctx, "get_object_subset", ref)
	if err != nil {
		return nil, err
	}
	data, err := workspace.SelectPaths(obj.data, paths)
	if err != nil {
		return nil, workspace.NewError(workspace.KindDataIntegrity, "get_object_subset", ref.String(), err)
	}
	return &workspace.Object{Info: obj.info, Data: data}, nil
}

// ListReferencingObjects implements workspace.Client.
func (w *Workspace) ListReferencingObjects(ctx context.Context, ref workspace.Ref) ([]workspace.ObjectInfo, error) {
	target, err := w.find(ctx, "list_referencing_objects", ref)
	if err != nil {
		return nil, err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []workspace.ObjectInfo
	for _, versions := range w.objects {
		// only the latest version of a referrer counts
		obj := versions[len(versions)-1]
		for _, r := range obj.refs {
			key, ok := w.resolve(r)
			if ok && key == (objectKey{target.info.WorkspaceID, target.info.ObjectID}) {
				out = append(out, obj.info)
				break
			}
		}
	}
	sortInfos(out)
	return out, nil
}

// Close closes the workspace
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *Workspace) find(ctx context.Context, op string, ref workspace.Ref) (*storedObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, workspace.NewError(workspace.KindConnectivity, op, ref.String(), err)
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil, workspace.NewError(workspace.KindConnectivity, op, ref.String(), errors.New("workspace is closed"))
	}
	key, ok := w.resolve(ref)
	if !ok {
		return nil, workspace.NewError(workspace.KindNotFound, op, ref.String(), errors.New("no such object"))
	}
	versions := w.objects[key]
	if ref.Version == 0 {
		return versions[len(versions)-1], nil
	}
	if ref.Version > len(versions) {
		return nil, workspace.NewError(workspace.KindNotFound, op, ref.String(),
			errors.Errorf("object has %d versions", len(versions)))
	}
	return versions[ref.Version-1], nil
}

// resolve must be called with w.mu held.
func (w *Workspace) resolve(ref workspace.Ref) (objectKey, bool) {
	wsid, ok := w.workspaces[ref.Container]
	if !ok {
		id, err := strconv.ParseInt(ref.Container, 10, 64)
		if err != nil {
			return objectKey{}, false
		}
		if _, ok = w.names[id]; !ok {
			return objectKey{}, false
		}
		wsid = id
	}
	objid, ok := w.byName[wsid][ref.Object]
	if !ok {
		id, err := strconv.ParseInt(ref.Object, 10, 64)
		if err != nil {
			return objectKey{}, false
		}
		objid = id
	}
	key := objectKey{wsid, objid}
	if _, ok := w.objects[key]; !ok {
		return objectKey{}, false
	}
	return key, true
}

func toRaw(data any) (json.RawMessage, error) {
	switch v := data.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return json.RawMessage(v), nil
	case string:
		return json.RawMessage(v), nil
	default:
		return json.Marshal(v)
	}
}

func sortInfos(infos []workspace.ObjectInfo) {
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].WorkspaceID != infos[j].WorkspaceID {
			return infos[i].WorkspaceID < infos[j].WorkspaceID
		}
		return infos[i].ObjectID < infos[j].ObjectID
	})
}
