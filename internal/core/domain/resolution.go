package domain

import (
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/opencontainers/go-digest"
)

// ResolvedVersion is a concrete registry version with its content identity.
type ResolvedVersion struct {
	Name    string
	Version *semver.Version
	Digest  digest.Digest
	// Source is the content handle returned by the registry.
	Source string
}

// Key returns name@version.
func (rv ResolvedVersion) Key() string {
	if rv.Version == nil {
		return rv.Name
	}
	return rv.Name + "@" + rv.Version.String()
}

// Artifact is what the registry returns for one fetched version.
type Artifact struct {
	Digest digest.Digest
	Source string
}

// HoistReason records why a version was hoisted.
type HoistReason string

const (
	// ReasonLocked means the lockfile version still satisfies every range.
	ReasonLocked HoistReason = "locked version satisfies every range"
	// ReasonCommon means one version satisfies every range.
	ReasonCommon HoistReason = "highest version satisfying every range"
	// ReasonMostConsumers means no version satisfies every range and this one is the pick of the most consumers.
	ReasonMostConsumers HoistReason = "highest satisfying version of the most consumers"
)

// DependencyResolution is the outcome for one external dependency name.
type DependencyResolution struct {
	Name    string
	Hoisted ResolvedVersion
	Reason  HoistReason
	// Shared lists the consumers served by the hoisted copy, by path.
	Shared []PackageID
	// Nested maps consumers not served by the hoisted version to their own pick.
	Nested map[PackageID]ResolvedVersion
	// Ranges holds every consumer's requested range.
	Ranges map[PackageID]RegistryRange
	// LockDiscarded is true when a lockfile entry existed but could not be kept.
	LockDiscarded bool
}

// For returns the version serving consumer and whether it is the hoisted copy.
func (d *DependencyResolution) For(consumer PackageID) (ResolvedVersion, bool, bool) {
	if rv, ok := d.Nested[consumer]; ok {
		return rv, false, true
	}
	if slices.Contains(d.Shared, consumer) {
		return d.Hoisted, true, true
	}
	return ResolvedVersion{}, false, false
}

// NestedConsumers returns the consumers with nested copies sorted by name.
func (d *DependencyResolution) NestedConsumers() []PackageID {
	ids := slices.Collect(maps.Keys(d.Nested))
	slices.SortFunc(ids, func(a, b PackageID) int { return strings.Compare(a.String(), b.String()) })
	return ids
}

// Resolution holds the outcome for every external dependency name.
type Resolution struct {
	deps map[string]*DependencyResolution
}

// NewResolution creates an empty resolution.
func NewResolution() *Resolution {
	return &Resolution{deps: make(map[string]*DependencyResolution)}
}

// Add records the outcome for one name.
func (r *Resolution) Add(d *DependencyResolution) {
	r.deps[d.Name] = d
}

// Get returns the outcome for name.
func (r *Resolution) Get(name string) (*DependencyResolution, bool) {
	d, ok := r.deps[name]
	return d, ok
}

// Names returns the resolved names sorted.
func (r *Resolution) Names() []string {
	return slices.Sorted(maps.Keys(r.deps))
}

// Provider returns the external provider bound to consumer's dependency on name.
func (r *Resolution) Provider(consumer PackageID, name string) (Provider, bool) {
	d, ok := r.deps[name]
	if !ok {
		return Provider{}, false
	}
	rv, _, ok := d.For(consumer)
	if !ok {
		return Provider{}, false
	}
	return ExternalProvider(rv), true
}

// Instances returns the external instances served by a hoisted copy and the total.
func (r *Resolution) Instances() (hoisted, total int) {
	for _, d := range r.deps {
		hoisted += len(d.Shared)
		total += len(d.Shared) + len(d.Nested)
	}
	return hoisted, total
}

// HoistingRate is the share of external instances served by a hoisted copy.
// It is 1 when there are no external instances.
func (r *Resolution) HoistingRate() float64 {
	hoisted, total := r.Instances()
	if total == 0 {
		return 1
	}
	return float64(hoisted) / float64(total)
}
