package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"hybridtest/domain/core"
	"hybridtest/domain/workspace"
	"hybridtest/internal/errors"
	"hybridtest/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	name       TEXT PRIMARY KEY,
	spec       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// WorkspaceRepository persists workspaces as their JSON form in sqlite
type WorkspaceRepository struct {
	db *sqlx.DB
}

// Open connects to the sqlite file at path, creating the schema if needed
func Open(path string) (*WorkspaceRepository, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	return &WorkspaceRepository{db: db}, nil
}

// Close releases the database handle
func (r *WorkspaceRepository) Close() error {
	return r.db.Close()
}

// Save upserts a workspace under its name
func (r *WorkspaceRepository) Save(ctx context.Context, ws *workspace.Workspace) error {
	spec, err := ws.Encode()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workspaces (name, spec, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET spec = excluded.spec, updated_at = excluded.updated_at`,
		ws.Name(), string(spec), core.Now())
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	return nil
}

// Load reads a workspace back by name
func (r *WorkspaceRepository) Load(ctx context.Context, name string) (*workspace.Workspace, error) {
	var spec string
	err := r.db.GetContext(ctx, &spec, `SELECT spec FROM workspaces WHERE name = ?`, name)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("workspace " + name)
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	return workspace.Decode([]byte(spec))
}

// List returns the stored workspace names
func (r *WorkspaceRepository) List(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.SelectContext(ctx, &names, `SELECT name FROM workspaces ORDER BY name`); err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	return names, nil
}

// Delete removes a stored workspace
func (r *WorkspaceRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workspaces WHERE name = ?`, name)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("workspace " + name)
	}
	return nil
}

var _ ports.WorkspaceRepository = (*WorkspaceRepository)(nil)
