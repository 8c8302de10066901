package ports

import (
	"context"

	"go.trai.ch/hoist/internal/core/domain"
)

// WorkspaceLoader discovers workspace packages.
//
//go:generate mockgen -source=workspace_loader.go -destination=mocks/mock_workspace_loader.go -package=mocks
type WorkspaceLoader interface {
	// DiscoverRoot walks up from cwd to find the workspace root.
	DiscoverRoot(cwd string) (string, error)

	// Load reads the workspace config under root and parses every package manifest.
	// All discovery errors of the run are returned joined.
	Load(ctx context.Context, root string) (*domain.Workspace, error)
}
