package ports

import (
	"context"

	"hybridtest/domain/workspace"
)

// WorkspaceRepository persists named workspaces
type WorkspaceRepository interface {
	Save(ctx context.Context, ws *workspace.Workspace) error
	Load(ctx context.Context, name string) (*workspace.Workspace, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}
