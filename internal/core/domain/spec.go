package domain

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/zerr"
)

// WorkspaceProtocol prefixes dependency specs that must be satisfied by a local package.
const WorkspaceProtocol = "workspace:"

// DependencySpec is a parsed dependency declaration from a manifest.
// It is either a WorkspaceRef or a RegistryRange.
type DependencySpec interface {
	// Raw returns the spec as written in the manifest.
	Raw() string
	isDependencySpec()
}

// WorkspaceRangeKind describes what a workspace: reference accepts.
type WorkspaceRangeKind int

const (
	// WorkspaceAny is workspace:* and accepts any local version.
	WorkspaceAny WorkspaceRangeKind = iota
	// WorkspaceCaret is a bare workspace:^ and accepts the local version it refers to.
	WorkspaceCaret
	// WorkspaceTilde is a bare workspace:~ and accepts the local version it refers to.
	WorkspaceTilde
	// WorkspaceExplicit carries a version or range the local version must satisfy.
	WorkspaceExplicit
)

// WorkspaceRef is a dependency that must be provided by a workspace package.
type WorkspaceRef struct {
	Kind WorkspaceRangeKind
	// Range is set only for WorkspaceExplicit.
	Range *semver.Constraints
	raw   string
}

// Raw returns the spec as written in the manifest.
func (w WorkspaceRef) Raw() string { return w.raw }

func (WorkspaceRef) isDependencySpec() {}

// Matches reports whether a local package at version v satisfies the reference.
func (w WorkspaceRef) Matches(v *semver.Version) bool {
	if w.Kind != WorkspaceExplicit {
		return true
	}
	return w.Range.Check(v)
}

// RegistryRange is a semver range to be satisfied from the registry.
type RegistryRange struct {
	Range *semver.Constraints
	raw   string
}

// Raw returns the spec as written in the manifest.
func (r RegistryRange) Raw() string { return r.raw }

func (RegistryRange) isDependencySpec() {}

// Admits reports whether v satisfies the range.
func (r RegistryRange) Admits(v *semver.Version) bool {
	return r.Range.Check(v)
}

// ParseDependencySpec parses a manifest dependency value.
// An empty value means any version.
func ParseDependencySpec(raw string) (DependencySpec, error) {
	value := strings.TrimSpace(raw)

	if rest, ok := strings.CutPrefix(value, WorkspaceProtocol); ok {
		switch rest {
		case "", "*":
			return WorkspaceRef{Kind: WorkspaceAny, raw: raw}, nil
		case "^":
			return WorkspaceRef{Kind: WorkspaceCaret, raw: raw}, nil
		case "~":
			return WorkspaceRef{Kind: WorkspaceTilde, raw: raw}, nil
		}
		c, err := parseRange(rest, raw)
		if err != nil {
			return nil, err
		}
		return WorkspaceRef{Kind: WorkspaceExplicit, Range: c, raw: raw}, nil
	}

	if value == "" {
		value = "*"
	}
	c, err := parseRange(value, raw)
	if err != nil {
		return nil, err
	}
	return RegistryRange{Range: c, raw: raw}, nil
}

func parseRange(value, raw string) (*semver.Constraints, error) {
	c, err := semver.NewConstraint(value)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, ErrInvalidDependencySpec.Error()), "spec", raw)
	}
	return c, nil
}

// MustRegistryRange parses a registry range and panics if it is invalid.
// It is meant for tests and literals.
func MustRegistryRange(raw string) RegistryRange {
	spec, err := ParseDependencySpec(raw)
	if err != nil {
		panic(err)
	}
	r, ok := spec.(RegistryRange)
	if !ok {
		panic("not a registry range: " + raw)
	}
	return r
}
