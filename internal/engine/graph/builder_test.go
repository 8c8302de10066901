package graph_test

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/hoist/internal/engine/graph"
)

func pkg(t *testing.T, name, version, path string, deps map[string]string) *domain.Manifest {
	t.Helper()
	m := &domain.Manifest{
		ID:           domain.NewPackageID(name),
		Name:         name,
		Version:      semver.MustParse(version),
		Path:         path,
		Dependencies: make(map[string]domain.DependencySpec, len(deps)),
	}
	for dep, raw := range deps {
		spec, err := domain.ParseDependencySpec(raw)
		require.NoError(t, err)
		m.Dependencies[dep] = spec
	}
	return m
}

func TestBuild_BindsProviders(t *testing.T) {
	ws := &domain.Workspace{Manifests: []*domain.Manifest{
		pkg(t, "ui", "1.0.0", "packages/ui", map[string]string{"utils": "workspace:*", "react": "^18.0.0"}),
		pkg(t, "utils", "1.0.0", "packages/utils", map[string]string{"lodash": "^4.17.0"}),
		pkg(t, "web", "0.1.0", "apps/web", map[string]string{"ui": "workspace:^1.0.0", "react": "^18.2.0"}),
	}}

	g, err := graph.Build(ws)
	require.NoError(t, err)

	var order []string
	for _, e := range g.Edges() {
		order = append(order, e.Consumer.String()+">"+e.Name+"="+e.Provider.String())
	}
	assert.Equal(t, []string{
		"web>react=unbound",
		"web>ui=workspace ui",
		"ui>react=unbound",
		"ui>utils=workspace utils",
		"utils>lodash=unbound",
	}, order)

	assert.Equal(t, []string{"lodash", "react"}, g.ExternalNames())
	reqs := g.Requirements("react")
	require.Len(t, reqs, 2)
	assert.Equal(t, "web", reqs[0].Consumer.String())
	assert.Equal(t, "^18.2.0", reqs[0].Range.Raw())
	assert.Equal(t, "ui", reqs[1].Consumer.String())
	assert.Equal(t, 3, g.ExternalInstances())
	assert.Empty(t, g.Cycles())
}

func TestBuild_CollectsErrors(t *testing.T) {
	ws := &domain.Workspace{Manifests: []*domain.Manifest{
		pkg(t, "a", "1.0.0", "packages/a", map[string]string{"a": "^1.0.0"}),
		pkg(t, "b", "1.0.0", "packages/b", map[string]string{"missing": "workspace:*"}),
		pkg(t, "c", "1.0.0", "packages/c", map[string]string{"d": "workspace:^2.0.0"}),
		pkg(t, "d", "1.5.0", "packages/d", nil),
	}}

	g, err := graph.Build(ws)
	require.Error(t, err)
	require.NotNil(t, g)

	assert.Equal(t, []domain.ErrorKind{
		domain.KindSelfDependency,
		domain.KindUnresolvedWorkspaceDependency,
		domain.KindWorkspaceVersionConflict,
	}, domain.Kinds(err))
	assert.Equal(t, domain.KindSelfDependency, domain.KindOf(err))

	errs := domain.Errors(err)
	require.Len(t, errs, 3)
	assert.Equal(t, "a", errs[0].Subject)
	assert.Equal(t, "b", errs[1].Subject)
	assert.Equal(t, "c", errs[2].Subject)
	assert.Empty(t, g.Edges())
}

func TestBuild_WorkspaceRangeKinds(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "any", spec: "workspace:*"},
		{name: "bare caret", spec: "workspace:^"},
		{name: "bare tilde", spec: "workspace:~"},
		{name: "satisfied range", spec: "workspace:^2.0.0"},
		{name: "exact version", spec: "workspace:2.3.1"},
		{name: "unsatisfied range", spec: "workspace:^3.0.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := &domain.Workspace{Manifests: []*domain.Manifest{
				pkg(t, "app", "1.0.0", "apps/app", map[string]string{"lib": tt.spec}),
				pkg(t, "lib", "2.3.1", "packages/lib", nil),
			}}

			_, err := graph.Build(ws)
			if tt.wantErr {
				assert.Equal(t, domain.KindWorkspaceVersionConflict, domain.KindOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBuild_ToleratesCycles(t *testing.T) {
	ws := &domain.Workspace{Manifests: []*domain.Manifest{
		pkg(t, "a", "1.0.0", "packages/a", map[string]string{"b": "workspace:*"}),
		pkg(t, "b", "1.0.0", "packages/b", map[string]string{"a": "workspace:*"}),
	}}

	g, err := graph.Build(ws)
	require.NoError(t, err)
	require.Len(t, g.Cycles(), 1)
	assert.Equal(t, "a -> b -> a", g.Cycles()[0].String())
}
