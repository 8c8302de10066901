package domain

import (
	"maps"
	"slices"
)

// LockfileVersion is the lockfile format written by this binary.
const LockfileVersion = 1

// Lockfile records the previous resolution. It is a hint, never ground truth.
type Lockfile struct {
	Version  int                      `yaml:"lockfileVersion"`
	Packages map[string]LockedPackage `yaml:"packages"`
}

// LockedPackage is the locked hoisted version of an external dependency.
type LockedPackage struct {
	Version string `yaml:"version"`
	Digest  string `yaml:"digest,omitempty"`
	// Nested maps consumer names to their nested versions. It is informational.
	Nested map[string]string `yaml:"nested,omitempty"`
}

// NewLockfile creates an empty lockfile of the current version.
func NewLockfile() *Lockfile {
	return &Lockfile{
		Version:  LockfileVersion,
		Packages: make(map[string]LockedPackage),
	}
}

// Lookup returns the locked entry for name. A nil lockfile has no entries.
func (l *Lockfile) Lookup(name string) (LockedPackage, bool) {
	if l == nil {
		return LockedPackage{}, false
	}
	p, ok := l.Packages[name]
	return p, ok
}

// Names returns the locked names sorted.
func (l *Lockfile) Names() []string {
	if l == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(l.Packages))
}

// LockfileFromResolution builds the lockfile recording res.
func LockfileFromResolution(res *Resolution) *Lockfile {
	lock := NewLockfile()
	for _, name := range res.Names() {
		d, _ := res.Get(name)
		entry := LockedPackage{
			Version: d.Hoisted.Version.String(),
			Digest:  d.Hoisted.Digest.String(),
		}
		if len(d.Nested) > 0 {
			entry.Nested = make(map[string]string, len(d.Nested))
			for consumer, rv := range d.Nested {
				entry.Nested[consumer.String()] = rv.Version.String()
			}
		}
		lock.Packages[name] = entry
	}
	return lock
}
