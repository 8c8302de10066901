package ports

import (
	"context"

	"go.trai.ch/hoist/internal/core/domain"
)

// Linker materializes an install plan on disk.
//
//go:generate mockgen -source=linker.go -destination=mocks/mock_linker.go -package=mocks
type Linker interface {
	// Apply executes the plan under root while holding the workspace install lock.
	Apply(ctx context.Context, root string, plan *domain.InstallPlan) (domain.ApplyResult, error)
}
