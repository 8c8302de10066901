// Package registry implements the registry port over an offline index on local disk.
package registry

import (
	"context"
	_ "crypto/sha256" // registers the canonical digest algorithm
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/opencontainers/go-digest"
	hoistfs "go.trai.ch/hoist/internal/adapters/fs"
	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// IndexFile is the on-disk format of an offline registry index.
type IndexFile struct {
	Packages map[string][]IndexVersion `yaml:"packages"`
}

// IndexVersion is one published version in the index.
// Source is a content directory relative to the index. Without a source the version
// materializes as a bare package.json. A missing digest is computed from the content.
type IndexVersion struct {
	Version string `yaml:"version"`
	Digest  string `yaml:"digest,omitempty"`
	Source  string `yaml:"source,omitempty"`
}

type indexEntry struct {
	version  *semver.Version
	artifact domain.Artifact
}

// Index is a registry snapshot held in memory. Versions are kept highest first.
type Index struct {
	packages map[string][]indexEntry
}

// LoadIndex reads index.yaml from dir.
func LoadIndex(dir string) (*Index, error) {
	file := filepath.Join(dir, domain.RegistryIndexFileName)
	// #nosec G304 -- file is the configured registry directory
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrRegistryReadFailed, "file", file)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrRegistryReadFailed.Error()), "file", file)
	}

	var idx IndexFile
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrRegistryParseFailed.Error()), "file", file)
	}
	return NewIndex(dir, idx)
}

// NewIndex validates an index. Relative sources are resolved against dir when dir is set.
func NewIndex(dir string, file IndexFile) (*Index, error) {
	packages := make(map[string][]indexEntry, len(file.Packages))

	for name, versions := range file.Packages {
		entries := make([]indexEntry, 0, len(versions))
		for _, iv := range versions {
			v, err := semver.StrictNewVersion(iv.Version)
			if err != nil {
				err = zerr.With(zerr.Wrap(err, domain.ErrRegistryParseFailed.Error()), "package", name)
				return nil, zerr.With(err, "version", iv.Version)
			}
			if slices.ContainsFunc(entries, func(e indexEntry) bool { return e.version.Equal(v) }) {
				err := zerr.With(domain.ErrRegistryParseFailed, "duplicate_version", iv.Version)
				return nil, zerr.With(err, "package", name)
			}

			source := iv.Source
			if source != "" && dir != "" && !filepath.IsAbs(source) {
				source = filepath.Join(dir, filepath.FromSlash(source))
			}

			d, err := entryDigest(name, v, iv.Digest, source)
			if err != nil {
				return nil, err
			}
			entries = append(entries, indexEntry{
				version:  v,
				artifact: domain.Artifact{Digest: d, Source: source},
			})
		}
		slices.SortFunc(entries, func(a, b indexEntry) int { return b.version.Compare(a.version) })
		packages[name] = entries
	}

	return &Index{packages: packages}, nil
}

func entryDigest(name string, v *semver.Version, declared, source string) (digest.Digest, error) {
	if declared != "" {
		d, err := digest.Parse(declared)
		if err != nil {
			err = zerr.With(zerr.Wrap(err, domain.ErrInvalidDigest.Error()), "package", name)
			return "", zerr.With(err, "digest", declared)
		}
		return d, nil
	}
	if source == "" {
		return digest.FromBytes(domain.StubManifest(name, v.String())), nil
	}
	d, err := hoistfs.DigestDir(source)
	if err != nil {
		err = zerr.With(zerr.Wrap(err, domain.ErrInvalidDigest.Error()), "package", name)
		return "", zerr.With(err, "version", v.String())
	}
	return d, nil
}

// RelativeTo rewrites content sources under root as slash-separated paths relative to root,
// so plans do not depend on where the workspace lives. Sources outside root stay absolute.
func (i *Index) RelativeTo(root string) {
	for _, entries := range i.packages {
		for j := range entries {
			src := entries[j].artifact.Source
			if src == "" || !filepath.IsAbs(src) {
				continue
			}
			rel, err := filepath.Rel(root, src)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				continue
			}
			entries[j].artifact.Source = filepath.ToSlash(rel)
		}
	}
}

// AvailableVersions returns the versions of name, highest first.
func (i *Index) AvailableVersions(ctx context.Context, name string) ([]*semver.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, ok := i.packages[name]
	if !ok {
		return nil, notFound(name)
	}
	out := make([]*semver.Version, len(entries))
	for j, e := range entries {
		out[j] = e.version
	}
	return out, nil
}

// Fetch returns the digest and source of one version.
func (i *Index) Fetch(ctx context.Context, name string, version *semver.Version) (domain.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return domain.Artifact{}, err
	}
	entries, ok := i.packages[name]
	if !ok {
		return domain.Artifact{}, notFound(name)
	}
	for _, e := range entries {
		if e.version.Equal(version) {
			return e.artifact, nil
		}
	}
	err := zerr.With(domain.ErrVersionNotFound, "package", name)
	return domain.Artifact{}, zerr.With(err, "version", version.String())
}

// notFound classifies an unknown package as a version conflict: no version can satisfy any range.
func notFound(name string) error {
	return domain.NewError(domain.KindExternalVersionConflict, name, zerr.With(domain.ErrPackageNotFound, "package", name))
}
