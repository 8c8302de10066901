package registry

import (
	"context"
	"path/filepath"

	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/hoist/internal/core/ports"
)

// Provider opens offline indexes.
type Provider struct {
	defaultDir string
}

// NewProvider creates a provider. defaultDir is used when Open is given no directory.
func NewProvider(defaultDir string) *Provider {
	return &Provider{defaultDir: defaultDir}
}

// Open loads the index for a workspace and wraps it in a per-run cache.
func (p *Provider) Open(ctx context.Context, root, dir string) (ports.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dir == "" {
		dir = p.defaultDir
	}
	if dir == "" {
		dir = domain.DefaultRegistryPath()
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}

	idx, err := LoadIndex(dir)
	if err != nil {
		return nil, err
	}
	if filepath.IsAbs(root) {
		idx.RelativeTo(root)
	}
	return NewCached(idx), nil
}
