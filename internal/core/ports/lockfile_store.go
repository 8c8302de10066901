package ports

import "go.trai.ch/hoist/internal/core/domain"

// LockfileStore persists the lockfile at a workspace root.
//
//go:generate mockgen -source=lockfile_store.go -destination=mocks/mock_lockfile_store.go -package=mocks
type LockfileStore interface {
	// Load returns the lockfile under root, or nil if none exists.
	Load(root string) (*domain.Lockfile, error)

	// Save writes the lockfile under root atomically.
	Save(root string, lock *domain.Lockfile) error
}
