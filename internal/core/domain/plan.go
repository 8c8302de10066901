package domain

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/opencontainers/go-digest"
)

// PlacementKind is the kind of filesystem entry a placement materializes.
type PlacementKind string

const (
	// PlacementSharedCopy is a hoisted copy at the workspace root.
	PlacementSharedCopy PlacementKind = "shared-copy"
	// PlacementLocalLink is a link from a consumer to a sibling workspace package.
	PlacementLocalLink PlacementKind = "local-link"
	// PlacementNestedCopy is a copy scoped to one consumer.
	PlacementNestedCopy PlacementKind = "nested-copy"
)

// IsCopy reports whether the placement materializes registry content.
func (k PlacementKind) IsCopy() bool {
	return k == PlacementSharedCopy || k == PlacementNestedCopy
}

// PlacementEntry is one step of an install plan.
// Target is relative to the workspace root with forward slashes.
// Source is the registry content handle for copies, relative to the workspace root when it
// lives there, and the sibling package path for links.
type PlacementEntry struct {
	Target    string        `json:"target"`
	Kind      PlacementKind `json:"kind"`
	Name      string        `json:"name"`
	Source    string        `json:"source,omitempty"`
	Version   string        `json:"version,omitempty"`
	Digest    digest.Digest `json:"digest,omitempty"`
	Consumers []string      `json:"consumers,omitempty"`
}

// InstallPlan is the ordered list of placements for a workspace.
// Shared copies come first sorted by target, then per-consumer entries sorted by target.
type InstallPlan struct {
	Entries []PlacementEntry `json:"entries"`
}

// Encode returns the canonical JSON encoding of the plan.
// Identical plans always encode to identical bytes.
func (p *InstallPlan) Encode() ([]byte, error) {
	entries := p.Entries
	if entries == nil {
		entries = []PlacementEntry{}
	}
	data, err := json.MarshalIndent(InstallPlan{Entries: entries}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Fingerprint returns the xxhash64 of the canonical encoding as 16 hex digits.
func (p *InstallPlan) Fingerprint() string {
	data, err := p.Encode()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// Count returns the number of entries of the given kind.
func (p *InstallPlan) Count(kind PlacementKind) int {
	n := 0
	for _, e := range p.Entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Targets returns the entry targets in plan order.
func (p *InstallPlan) Targets() []string {
	out := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Target
	}
	return out
}

// ApplyResult summarizes one apply of an install plan.
type ApplyResult struct {
	Applied int
	Skipped int
	Pruned  int
	// Resumed is true when the apply continued after an interrupted one.
	Resumed bool
}

type stubManifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// StubManifest returns the package.json materialized for a registry version without content.
func StubManifest(name, version string) []byte {
	data, _ := json.MarshalIndent(stubManifest{Name: name, Version: version}, "", "  ")
	return append(data, '\n')
}
