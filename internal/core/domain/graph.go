// Package domain contains the core models of a workspace: manifests, the dependency graph,
// the hoisting resolution and the install plan derived from it.
package domain

import (
	"cmp"
	"maps"
	"slices"
	"strings"
)

// ProviderKind says where a dependency is satisfied from.
type ProviderKind int

const (
	// ProviderUnbound marks an external requirement not yet resolved.
	ProviderUnbound ProviderKind = iota
	// ProviderLocal is a workspace package.
	ProviderLocal
	// ProviderExternal is a registry version.
	ProviderExternal
)

// Provider satisfies one dependency edge.
type Provider struct {
	Kind     ProviderKind
	Local    PackageID
	External ResolvedVersion
}

// LocalProvider returns a provider bound to a workspace package.
func LocalProvider(id PackageID) Provider {
	return Provider{Kind: ProviderLocal, Local: id}
}

// ExternalProvider returns a provider bound to a registry version.
func ExternalProvider(rv ResolvedVersion) Provider {
	return Provider{Kind: ProviderExternal, External: rv}
}

func (p Provider) String() string {
	switch p.Kind {
	case ProviderLocal:
		return "workspace " + p.Local.String()
	case ProviderExternal:
		return "registry " + p.External.Key()
	default:
		return "unbound"
	}
}

// Edge is one declared dependency of a workspace package.
type Edge struct {
	Consumer PackageID
	Name     string
	Spec     DependencySpec
	Provider Provider
}

// Requirement is one consumer's range for an external dependency.
type Requirement struct {
	Consumer PackageID
	Range    RegistryRange
}

// Cycle is a closed path of local dependencies, starting at its smallest name.
type Cycle []PackageID

// String renders the cycle as "a -> b -> a".
func (c Cycle) String() string {
	if len(c) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c)+1)
	for _, id := range c {
		parts = append(parts, id.String())
	}
	parts = append(parts, c[0].String())
	return strings.Join(parts, " -> ")
}

// Graph is the dependency graph of a workspace.
// Edges are ordered by consumer path then dependency name.
type Graph struct {
	manifests []*Manifest
	byID      map[PackageID]*Manifest
	edges     []Edge
	external  map[string][]Requirement
	cycles    []Cycle
}

// NewGraph creates a graph over the given manifests with no edges.
func NewGraph(manifests []*Manifest) *Graph {
	sorted := slices.Clone(manifests)
	slices.SortFunc(sorted, func(a, b *Manifest) int { return cmp.Compare(a.Path, b.Path) })

	byID := make(map[PackageID]*Manifest, len(sorted))
	for _, m := range sorted {
		byID[m.ID] = m
	}
	return &Graph{
		manifests: sorted,
		byID:      byID,
		external:  make(map[string][]Requirement),
	}
}

// AddEdge records a dependency edge.
func (g *Graph) AddEdge(e Edge) {
	g.edges = append(g.edges, e)
}

// AddRequirement records an external requirement for name.
func (g *Graph) AddRequirement(name string, r Requirement) {
	g.external[name] = append(g.external[name], r)
}

// Seal orders edges and requirements and detects cycles among local edges.
// It must be called once all edges are added.
func (g *Graph) Seal() {
	slices.SortStableFunc(g.edges, func(a, b Edge) int {
		return cmp.Or(
			cmp.Compare(g.pathOf(a.Consumer), g.pathOf(b.Consumer)),
			cmp.Compare(a.Name, b.Name),
		)
	})
	for _, reqs := range g.external {
		slices.SortStableFunc(reqs, func(a, b Requirement) int {
			return cmp.Compare(g.pathOf(a.Consumer), g.pathOf(b.Consumer))
		})
	}
	g.cycles = g.detectCycles()
}

func (g *Graph) pathOf(id PackageID) string {
	if m, ok := g.byID[id]; ok {
		return m.Path
	}
	return ""
}

// Manifests returns the workspace packages sorted by path.
func (g *Graph) Manifests() []*Manifest {
	return g.manifests
}

// Manifest returns the package with the given id.
func (g *Graph) Manifest(id PackageID) (*Manifest, bool) {
	m, ok := g.byID[id]
	return m, ok
}

// Lookup returns the package with the given name.
func (g *Graph) Lookup(name string) (*Manifest, bool) {
	return g.Manifest(NewPackageID(name))
}

// Edges returns all edges in graph order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// EdgesFrom returns the edges declared by consumer, sorted by dependency name.
func (g *Graph) EdgesFrom(consumer PackageID) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Consumer == consumer {
			out = append(out, e)
		}
	}
	return out
}

// Edge returns the edge from consumer to the dependency name.
func (g *Graph) Edge(consumer PackageID, name string) (Edge, bool) {
	for _, e := range g.edges {
		if e.Consumer == consumer && e.Name == name {
			return e, true
		}
	}
	return Edge{}, false
}

// ExternalNames returns the names of all external dependencies sorted.
func (g *Graph) ExternalNames() []string {
	return slices.Sorted(maps.Keys(g.external))
}

// Requirements returns the ranges requested for an external name, by consumer path.
func (g *Graph) Requirements(name string) []Requirement {
	return g.external[name]
}

// ExternalInstances counts external dependency instances across all consumers.
func (g *Graph) ExternalInstances() int {
	n := 0
	for _, reqs := range g.external {
		n += len(reqs)
	}
	return n
}

// Cycles returns the local dependency cycles found by Seal.
func (g *Graph) Cycles() []Cycle {
	return g.cycles
}

// detectCycles runs a three-colour depth-first search over local edges.
// Iteration follows manifest and edge order so the result is deterministic.
func (g *Graph) detectCycles() []Cycle {
	const (
		white = iota
		grey
		black
	)
	adj := make(map[PackageID][]PackageID, len(g.manifests))
	for _, e := range g.edges {
		if e.Provider.Kind == ProviderLocal {
			adj[e.Consumer] = append(adj[e.Consumer], e.Provider.Local)
		}
	}

	colour := make(map[PackageID]int, len(g.manifests))
	seen := make(map[string]bool)
	var cycles []Cycle
	var stack []PackageID

	var visit func(u PackageID)
	visit = func(u PackageID) {
		colour[u] = grey
		stack = append(stack, u)
		for _, v := range adj[u] {
			switch colour[v] {
			case grey:
				c := normalizeCycle(stack[slices.Index(stack, v):])
				if key := c.String(); !seen[key] {
					seen[key] = true
					cycles = append(cycles, c)
				}
			case white:
				visit(v)
			}
		}
		stack = stack[:len(stack)-1]
		colour[u] = black
	}

	for _, m := range g.manifests {
		if colour[m.ID] == white {
			visit(m.ID)
		}
	}
	return cycles
}

// normalizeCycle rotates a cycle so it starts at its smallest name.
func normalizeCycle(path []PackageID) Cycle {
	start := 0
	for i, id := range path {
		if id.String() < path[start].String() {
			start = i
		}
	}
	c := make(Cycle, 0, len(path))
	c = append(c, path[start:]...)
	c = append(c, path[:start]...)
	return c
}
