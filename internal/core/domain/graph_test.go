package domain_test

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hoist/internal/core/domain"
)

func manifest(name, path string) *domain.Manifest {
	return &domain.Manifest{
		ID:      domain.NewPackageID(name),
		Name:    name,
		Version: semver.MustParse("1.0.0"),
		Path:    path,
	}
}

func link(g *domain.Graph, from, to string) {
	spec, _ := domain.ParseDependencySpec("workspace:*")
	g.AddEdge(domain.Edge{
		Consumer: domain.NewPackageID(from),
		Name:     to,
		Spec:     spec,
		Provider: domain.LocalProvider(domain.NewPackageID(to)),
	})
}

func TestGraph_SealOrdersEdges(t *testing.T) {
	g := domain.NewGraph([]*domain.Manifest{
		manifest("web", "apps/web"),
		manifest("utils", "packages/utils"),
		manifest("ui", "packages/ui"),
	})
	link(g, "ui", "utils")
	link(g, "web", "utils")
	link(g, "web", "ui")
	g.Seal()

	paths := make([]string, 0, len(g.Manifests()))
	for _, m := range g.Manifests() {
		paths = append(paths, m.Path)
	}
	assert.Equal(t, []string{"apps/web", "packages/ui", "packages/utils"}, paths)

	var order []string
	for _, e := range g.Edges() {
		order = append(order, e.Consumer.String()+">"+e.Name)
	}
	assert.Equal(t, []string{"web>ui", "web>utils", "ui>utils"}, order)
	assert.Empty(t, g.Cycles())
}

func TestGraph_DetectsCycles(t *testing.T) {
	g := domain.NewGraph([]*domain.Manifest{
		manifest("b", "packages/b"),
		manifest("a", "packages/a"),
		manifest("c", "packages/c"),
	})
	link(g, "b", "a")
	link(g, "a", "b")
	link(g, "c", "c2")
	g.Seal()

	require.Len(t, g.Cycles(), 1)
	assert.Equal(t, "a -> b -> a", g.Cycles()[0].String())
}

func TestGraph_CycleNormalizedFromAnyStart(t *testing.T) {
	g := domain.NewGraph([]*domain.Manifest{
		manifest("z", "a-first"),
		manifest("m", "b"),
		manifest("k", "c"),
	})
	link(g, "z", "m")
	link(g, "m", "k")
	link(g, "k", "z")
	g.Seal()

	require.Len(t, g.Cycles(), 1)
	assert.Equal(t, "k -> z -> m -> k", g.Cycles()[0].String())
}

func TestGraph_Requirements(t *testing.T) {
	g := domain.NewGraph([]*domain.Manifest{
		manifest("b", "packages/b"),
		manifest("a", "packages/a"),
	})
	g.AddRequirement("lodash", domain.Requirement{Consumer: domain.NewPackageID("b"), Range: domain.MustRegistryRange("^3.0.0")})
	g.AddRequirement("lodash", domain.Requirement{Consumer: domain.NewPackageID("a"), Range: domain.MustRegistryRange("^4.0.0")})
	g.Seal()

	assert.Equal(t, []string{"lodash"}, g.ExternalNames())
	reqs := g.Requirements("lodash")
	require.Len(t, reqs, 2)
	assert.Equal(t, "a", reqs[0].Consumer.String())
	assert.Equal(t, 2, g.ExternalInstances())
}
