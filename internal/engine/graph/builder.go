// Package graph builds the workspace dependency graph from discovered manifests.
package graph

import (
	"errors"

	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/zerr"
)

// Build binds every declared dependency of ws to a provider.
//
// Workspace references are bound to local packages here. Registry ranges are
// grouped by name as requirements for the resolver. All problems are collected
// and returned joined, together with the partial graph.
func Build(ws *domain.Workspace) (*domain.Graph, error) {
	g := domain.NewGraph(ws.Manifests)
	var errs []error

	for _, m := range g.Manifests() {
		for _, name := range m.DependencyNames() {
			spec := m.Dependencies[name]
			if err := bind(g, m, name, spec); err != nil {
				errs = append(errs, err)
			}
		}
	}

	g.Seal()
	return g, errors.Join(errs...)
}

func bind(g *domain.Graph, m *domain.Manifest, name string, spec domain.DependencySpec) error {
	if name == m.Name {
		err := zerr.With(domain.ErrSelfDependency, "spec", spec.Raw())
		return domain.NewError(domain.KindSelfDependency, m.Name, err)
	}

	switch s := spec.(type) {
	case domain.WorkspaceRef:
		local, ok := g.Lookup(name)
		if !ok {
			err := zerr.With(domain.ErrUnresolvedWorkspaceDependency, "dependency", name)
			err = zerr.With(err, "spec", s.Raw())
			return domain.NewError(domain.KindUnresolvedWorkspaceDependency, m.Name, err)
		}
		if !s.Matches(local.Version) {
			err := zerr.With(domain.ErrWorkspaceVersionConflict, "dependency", name)
			err = zerr.With(err, "spec", s.Raw())
			err = zerr.With(err, "local_version", local.Version.String())
			return domain.NewError(domain.KindWorkspaceVersionConflict, m.Name, err)
		}
		g.AddEdge(domain.Edge{Consumer: m.ID, Name: name, Spec: s, Provider: domain.LocalProvider(local.ID)})

	case domain.RegistryRange:
		g.AddEdge(domain.Edge{Consumer: m.ID, Name: name, Spec: s})
		g.AddRequirement(name, domain.Requirement{Consumer: m.ID, Range: s})
	}
	return nil
}
