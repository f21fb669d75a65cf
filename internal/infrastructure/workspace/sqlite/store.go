// Package sqlite keeps offline snapshots of workspace objects in a single
// SQLite file and serves them back as a workspace.Client.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/realmarcin/data-api/pkg/workspace"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ws_objects (
	wsid      INTEGER NOT NULL,
	objid     INTEGER NOT NULL,
	version   INTEGER NOT NULL,
	workspace TEXT    NOT NULL,
	name      TEXT    NOT NULL,
	type      TEXT    NOT NULL,
	info      TEXT    NOT NULL,
	data      BLOB    NOT NULL,
	PRIMARY KEY (wsid, objid, version)
);
CREATE INDEX IF NOT EXISTS ws_objects_name_idx ON ws_objects (workspace, name);
CREATE TABLE IF NOT EXISTS ws_references (
	src_wsid      INTEGER NOT NULL,
	src_objid     INTEGER NOT NULL,
	src_version   INTEGER NOT NULL,
	dst_container TEXT    NOT NULL,
	dst_object    TEXT    NOT NULL,
	PRIMARY KEY (src_wsid, src_objid, src_version, dst_container, dst_object)
);
CREATE INDEX IF NOT EXISTS ws_references_dst_idx ON ws_references (dst_container, dst_object);
`

// Store is a snapshot file.
type Store struct {
	db   *sql.DB
	path string
}

var _ workspace.Client = (*Store)(nil)

// Open opens or creates the snapshot at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("snapshot path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.Wrap(err, "create snapshot dir")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// one writer at a time, readers queue behind it
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create snapshot tables")
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the snapshot file path.
func (s *Store) Path() string { return s.path }

// Close closes the snapshot file.
func (s *Store) Close() error { return s.db.Close() }

// Put stores one object version and the references it holds.
func (s *Store) Put(ctx context.Context, obj *workspace.Object, refs []workspace.Ref) (retErr error) {
	info, err := json.Marshal(obj.Info)
	if err != nil {
		return errors.Wrap(err, "encode object info")
	}
	data := []byte(obj.Data)
	if len(data) == 0 {
		data = []byte("{}")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin snapshot transaction")
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO ws_objects
		(wsid, objid, version, workspace, name, type, info, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		obj.Info.WorkspaceID, obj.Info.ObjectID, obj.Info.Version, obj.Info.Workspace, obj.Info.Name,
		obj.Info.Type, string(info), data)
	if err != nil {
		return errors.Wrapf(err, "store object %s", obj.Info.Ref())
	}
	for _, ref := range refs {
		_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO ws_references
			(src_wsid, src_objid, src_version, dst_container, dst_object) VALUES (?, ?, ?, ?, ?)`,
			obj.Info.WorkspaceID, obj.Info.ObjectID, obj.Info.Version, ref.Container, ref.Object)
		if err != nil {
			return errors.Wrapf(err, "store reference %s -> %s", obj.Info.Ref(), ref)
		}
	}
	return errors.Wrap(tx.Commit(), "commit snapshot transaction")
}

func (s *Store) fetch(ctx context.Context, op string, ref workspace.Ref) (*workspace.Object, error) {
	var info string
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT info, data FROM ws_objects
		WHERE (workspace = ?1 OR CAST(wsid AS TEXT) = ?1)
		  AND (name = ?2 OR CAST(objid AS TEXT) = ?2)
		  AND (?3 = 0 OR version = ?3)
		ORDER BY version DESC LIMIT 1`, ref.Container, ref.Object, ref.Version).Scan(&info, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workspace.Errorf(workspace.KindNotFound, op, ref.String(), "no such object in snapshot")
	}
	if err != nil {
		return nil, workspace.NewError(workspace.KindConnectivity, op, ref.String(), err)
	}
	obj := &workspace.Object{Data: data}
	if err := json.Unmarshal([]byte(info), &obj.Info); err != nil {
		return nil, workspace.NewError(workspace.KindDataIntegrity, op, ref.String(), err)
	}
	return obj, nil
}

// GetObjectInfo implements workspace.Client.
func (s *Store) GetObjectInfo(ctx context.Context, ref workspace.Ref) (workspace.ObjectInfo, error) {
	obj, err := s.fetch(ctx, "get_object_info", ref)
	if err != nil {
		return workspace.ObjectInfo{}, err
	}
	return obj.Info, nil
}

// GetObject implements workspace.Client.
func (s *Store) GetObject(ctx context.Context, ref workspace.Ref) (*workspace.Object, error) {
	return s.fetch(ctx, "get_object", ref)
}

// GetObjectSubset implements workspace.Client.
func (s *Store) GetObjectSubset(ctx context.Context, ref workspace.Ref, paths []string) (*workspace.Object, error) {
	obj, err := s.fetch(ctx, "get_object_subset", ref)
	if err != nil {
		return nil, err
	}
	if obj.Data, err = workspace.SelectPaths(obj.Data, paths); err != nil {
		return nil, workspace.NewError(workspace.KindDataIntegrity, "get_object_subset", ref.String(), err)
	}
	return obj, nil
}

// ListReferencingObjects implements workspace.Client.
func (s *Store) ListReferencingObjects(ctx context.Context, ref workspace.Ref) ([]workspace.ObjectInfo, error) {
	target, err := s.GetObjectInfo(ctx, ref)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT o.wsid, o.objid, o.version, o.info
		FROM ws_references r
		JOIN ws_objects o ON o.wsid = r.src_wsid AND o.objid = r.src_objid AND o.version = r.src_version
		WHERE r.dst_container IN (?, ?) AND r.dst_object IN (?, ?)
		  AND o.version = (SELECT MAX(l.version) FROM ws_objects l WHERE l.wsid = o.wsid AND l.objid = o.objid)
		ORDER BY o.wsid, o.objid, o.version`,
		target.Workspace, strconv.FormatInt(target.WorkspaceID, 10),
		target.Name, strconv.FormatInt(target.ObjectID, 10))
	if err != nil {
		return nil, workspace.NewError(workspace.KindConnectivity, "list_referencing_objects", ref.String(), err)
	}
	defer func() { _ = rows.Close() }()

	out := []workspace.ObjectInfo{}
	for rows.Next() {
		var (
			wsid, objid int64
			version     int
			raw         string
			info        workspace.ObjectInfo
		)
		if err := rows.Scan(&wsid, &objid, &version, &raw); err != nil {
			return nil, workspace.NewError(workspace.KindConnectivity, "list_referencing_objects", ref.String(), err)
		}
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			return nil, workspace.NewError(workspace.KindDataIntegrity, "list_referencing_objects", ref.String(), err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, workspace.NewError(workspace.KindConnectivity, "list_referencing_objects", ref.String(), err)
	}
	return out, nil
}
