package ports

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/hoist/internal/core/domain"
)

//go:generate mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks

// Registry answers version queries for external packages.
type Registry interface {
	// AvailableVersions returns the published versions of name, highest first.
	AvailableVersions(ctx context.Context, name string) ([]*semver.Version, error)

	// Fetch returns the content digest and source handle of one version.
	Fetch(ctx context.Context, name string, version *semver.Version) (domain.Artifact, error)
}

// RegistryProvider opens the registry used for a workspace.
type RegistryProvider interface {
	// Open returns the registry for the workspace at root.
	// A relative dir is taken relative to root; an empty dir selects the default.
	Open(ctx context.Context, root, dir string) (Registry, error)
}
