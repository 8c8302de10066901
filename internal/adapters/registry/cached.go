package registry

import (
	"context"
	"slices"
	"sync"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/hoist/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

// Cached memoizes a registry for one run and collapses concurrent identical lookups.
// Failed lookups are not memoized.
type Cached struct {
	next  ports.Registry
	group singleflight.Group

	mu        sync.Mutex
	versions  map[string][]*semver.Version
	artifacts map[string]domain.Artifact
}

// NewCached wraps next.
func NewCached(next ports.Registry) *Cached {
	return &Cached{
		next:      next,
		versions:  make(map[string][]*semver.Version),
		artifacts: make(map[string]domain.Artifact),
	}
}

// AvailableVersions implements ports.Registry.
func (c *Cached) AvailableVersions(ctx context.Context, name string) ([]*semver.Version, error) {
	c.mu.Lock()
	cached, ok := c.versions[name]
	c.mu.Unlock()
	if ok {
		return slices.Clone(cached), nil
	}

	res, err, _ := c.group.Do("versions\x00"+name, func() (any, error) {
		versions, err := c.next.AvailableVersions(ctx, name)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.versions[name] = versions
		c.mu.Unlock()
		return versions, nil
	})
	if err != nil {
		return nil, err
	}
	versions, _ := res.([]*semver.Version)
	return slices.Clone(versions), nil
}

// Fetch implements ports.Registry.
func (c *Cached) Fetch(ctx context.Context, name string, version *semver.Version) (domain.Artifact, error) {
	key := name + "@" + version.String()

	c.mu.Lock()
	cached, ok := c.artifacts[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	res, err, _ := c.group.Do("fetch\x00"+key, func() (any, error) {
		artifact, err := c.next.Fetch(ctx, name, version)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.artifacts[key] = artifact
		c.mu.Unlock()
		return artifact, nil
	})
	if err != nil {
		return domain.Artifact{}, err
	}
	artifact, _ := res.(domain.Artifact)
	return artifact, nil
}
