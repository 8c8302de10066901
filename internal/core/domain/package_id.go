package domain

import "unique"

// PackageID identifies a workspace package. It wraps an interned package name
// so comparisons and map lookups stay cheap on large workspaces.
type PackageID struct {
	h unique.Handle[string]
}

// NewPackageID creates the identifier of the package with the given name.
func NewPackageID(name string) PackageID {
	return PackageID{
		h: unique.Make(name),
	}
}

// String returns the package name.
func (id PackageID) String() string {
	if id.IsZero() {
		return ""
	}
	return id.h.Value()
}

// IsZero reports whether id was never assigned.
func (id PackageID) IsZero() bool {
	var zero unique.Handle[string]
	return id.h == zero
}

// MarshalText implements encoding.TextMarshaler.
func (id PackageID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *PackageID) UnmarshalText(text []byte) error {
	id.h = unique.Make(string(text))
	return nil
}
