package domain

import (
	"maps"
	"slices"

	"github.com/Masterminds/semver/v3"
)

// Manifest is a parsed workspace package manifest. It is read-only after discovery.
type Manifest struct {
	ID      PackageID
	Name    string
	Version *semver.Version
	// Dependencies maps dependency names to their parsed specs.
	Dependencies map[string]DependencySpec
	// Path is relative to the workspace root and uses forward slashes.
	Path string
}

// DependencyNames returns the declared dependency names sorted.
func (m *Manifest) DependencyNames() []string {
	return slices.Sorted(maps.Keys(m.Dependencies))
}

// Workspace is the result of discovery: a root and its packages sorted by path.
type Workspace struct {
	Root string
	// ConfigFile is the file the package patterns were read from, relative to Root.
	ConfigFile string
	Patterns   []string
	Manifests  []*Manifest
}
