// Package pg is a read-only workspace.Client over a PostgreSQL mirror of
// workspace objects, plus the writes needed to load it.
package pg

import (
	"context"
	_ "embed"
	"encoding/json"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/realmarcin/data-api/pkg/workspace"
)

//go:embed schema.sql
var schemaSQL string

// Mirror serves workspace objects from the ws_objects and ws_references
// tables.
type Mirror struct {
	cm *ConnectionManager
}

var _ workspace.Client = (*Mirror)(nil)

// NewMirror creates a mirror over a connected manager.
func NewMirror(cm *ConnectionManager) *Mirror {
	return &Mirror{cm: cm}
}

// EnsureSchema creates the mirror tables when missing.
func (m *Mirror) EnsureSchema(ctx context.Context) error {
	pool := m.cm.Pool()
	if pool == nil {
		return errors.New("connection pool not initialized")
	}
	_, err := pool.Exec(ctx, schemaSQL)
	return errors.Wrap(err, "failed to create mirror schema")
}

// Put stores one object version and the references it holds.
func (m *Mirror) Put(ctx context.Context, obj *workspace.Object, refs []workspace.Ref) error {
	info, err := json.Marshal(obj.Info)
	if err != nil {
		return errors.Wrap(err, "encode object info")
	}
	data := obj.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	return m.cm.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO ws_objects (wsid, objid, version, workspace, name, type, info, data)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (wsid, objid, version) DO UPDATE
			SET workspace = EXCLUDED.workspace, name = EXCLUDED.name, type = EXCLUDED.type,
			    info = EXCLUDED.info, data = EXCLUDED.data`,
			obj.Info.WorkspaceID, obj.Info.ObjectID, obj.Info.Version, obj.Info.Workspace, obj.Info.Name,
			obj.Info.Type, string(info), string(data))
		if err != nil {
			return errors.Wrapf(err, "failed to store object %s", obj.Info.Ref())
		}
		for _, ref := range refs {
			_, err := tx.Exec(ctx, `
				INSERT INTO ws_references (src_wsid, src_objid, src_version, dst_container, dst_object)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT DO NOTHING`,
				obj.Info.WorkspaceID, obj.Info.ObjectID, obj.Info.Version, ref.Container, ref.Object)
			if err != nil {
				return errors.Wrapf(err, "failed to store reference %s -> %s", obj.Info.Ref(), ref)
			}
		}
		return nil
	})
}

const selectObject = `
	SELECT info, data FROM ws_objects
	WHERE (workspace = $1 OR wsid::text = $1)
	  AND (name = $2 OR objid::text = $2)
	  AND ($3 = 0 OR version = $3)
	ORDER BY version DESC
	LIMIT 1`

func (m *Mirror) fetch(ctx context.Context, op string, ref workspace.Ref) (*workspace.Object, error) {
	pool := m.cm.Pool()
	if pool == nil {
		return nil, workspace.Errorf(workspace.KindConnectivity, op, ref.String(), "mirror is not connected")
	}
	var info, data []byte
	err := pool.QueryRow(ctx, selectObject, ref.Container, ref.Object, ref.Version).Scan(&info, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workspace.Errorf(workspace.KindNotFound, op, ref.String(), "no such object")
	}
	if err != nil {
		return nil, workspace.NewError(workspace.KindConnectivity, op, ref.String(), err)
	}
	obj := &workspace.Object{Data: data}
	if err := json.Unmarshal(info, &obj.Info); err != nil {
		return nil, workspace.NewError(workspace.KindDataIntegrity, op, ref.String(), err)
	}
	return obj, nil
}

// GetObjectInfo implements workspace.Client.
func (m *Mirror) GetObjectInfo(ctx context.Context, ref workspace.Ref) (workspace.ObjectInfo, error) {
	obj, err := m.fetch(ctx, "get_object_info", ref)
	if err != nil {
		return workspace.ObjectInfo{}, err
	}
	return obj.Info, nil
}

// GetObject implements workspace.Client.
func (m *Mirror) GetObject(ctx context.Context, ref workspace.Ref) (*workspace.Object, error) {
	return m.fetch(ctx, "get_object", ref)
}

// GetObjectSubset implements workspace.Client. Paths are applied to the
// stored document after it is read.
func (m *Mirror) GetObjectSubset(ctx context.Context, ref workspace.Ref, paths []string) (*workspace.Object, error) {
	obj, err := m.fetch(ctx, "get_object_subset", ref)
	if err != nil {
		return nil, err
	}
	if obj.Data, err = workspace.SelectPaths(obj.Data, paths); err != nil {
		return nil, workspace.NewError(workspace.KindDataIntegrity, "get_object_subset", ref.String(), err)
	}
	return obj, nil
}

// ListReferencingObjects implements workspace.Client. A reference may have
// been stored by name or by id, so both spellings of the target match.
func (m *Mirror) ListReferencingObjects(ctx context.Context, ref workspace.Ref) ([]workspace.ObjectInfo, error) {
	target, err := m.GetObjectInfo(ctx, ref)
	if err != nil {
		return nil, err
	}
	rows, err := m.cm.Pool().Query(ctx, `
		SELECT DISTINCT o.wsid, o.objid, o.version, o.info
		FROM ws_references r
		JOIN ws_objects o ON o.wsid = r.src_wsid AND o.objid = r.src_objid AND o.version = r.src_version
		WHERE r.dst_container IN ($1, $2) AND r.dst_object IN ($3, $4)
		  AND o.version = (SELECT MAX(l.version) FROM ws_objects l WHERE l.wsid = o.wsid AND l.objid = o.objid)
		ORDER BY o.wsid, o.objid, o.version`,
		target.Workspace, strconv.FormatInt(target.WorkspaceID, 10), target.Name, strconv.FormatInt(target.ObjectID, 10))
	if err != nil {
		return nil, workspace.NewError(workspace.KindConnectivity, "list_referencing_objects", ref.String(), err)
	}
	defer rows.Close()

	out := []workspace.ObjectInfo{}
	for rows.Next() {
		var (
			wsid, objid int64
			version     int
			raw         []byte
			info        workspace.ObjectInfo
		)
		if err := rows.Scan(&wsid, &objid, &version, &raw); err != nil {
			return nil, workspace.NewError(workspace.KindConnectivity, "list_referencing_objects", ref.String(), err)
		}
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, workspace.NewError(workspace.KindDataIntegrity, "list_referencing_objects", ref.String(), err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, workspace.NewError(workspace.KindConnectivity, "list_referencing_objects", ref.String(), err)
	}
	return out, nil
}
