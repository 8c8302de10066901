package registry_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	hoistfs "go.trai.ch/hoist/internal/adapters/fs"
	"go.trai.ch/hoist/internal/adapters/registry"
	"go.trai.ch/hoist/internal/core/domain"
)

const sampleDigest = "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestNewIndex_OrdersHighestFirst(t *testing.T) {
	idx, err := registry.NewIndex("", registry.IndexFile{Packages: map[string][]registry.IndexVersion{
		"lodash": {{Version: "3.10.1"}, {Version: "4.17.21"}, {Version: "4.0.0"}},
	}})
	require.NoError(t, err)

	versions, err := idx.AvailableVersions(context.Background(), "lodash")
	require.NoError(t, err)
	got := make([]string, len(versions))
	for i, v := range versions {
		got[i] = v.String()
	}
	assert.Equal(t, []string{"4.17.21", "4.0.0", "3.10.1"}, got)
}

func TestIndex_FetchStubDigest(t *testing.T) {
	idx, err := registry.NewIndex("", registry.IndexFile{Packages: map[string][]registry.IndexVersion{
		"react": {{Version: "18.2.0"}},
	}})
	require.NoError(t, err)

	artifact, err := idx.Fetch(context.Background(), "react", semver.MustParse("18.2.0"))
	require.NoError(t, err)
	assert.Equal(t, digest.FromBytes(domain.StubManifest("react", "18.2.0")), artifact.Digest)
	assert.Empty(t, artifact.Source)
}

func TestIndex_Errors(t *testing.T) {
	idx, err := registry.NewIndex("", registry.IndexFile{Packages: map[string][]registry.IndexVersion{
		"react": {{Version: "18.2.0"}},
	}})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = idx.AvailableVersions(ctx, "vue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrPackageNotFound.Error())
	assert.Equal(t, domain.KindExternalVersionConflict, domain.KindOf(err))

	_, err = idx.Fetch(ctx, "react", semver.MustParse("17.0.0"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrVersionNotFound.Error())
}

func TestNewIndex_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		versions []registry.IndexVersion
		want     string
	}{
		{name: "bad version", versions: []registry.IndexVersion{{Version: "v1"}}, want: domain.ErrRegistryParseFailed.Error()},
		{name: "duplicate", versions: []registry.IndexVersion{{Version: "1.0.0"}, {Version: "1.0.0"}}, want: domain.ErrRegistryParseFailed.Error()},
		{name: "bad digest", versions: []registry.IndexVersion{{Version: "1.0.0", Digest: "md5"}}, want: domain.ErrInvalidDigest.Error()},
		{name: "missing source without digest", versions: []registry.IndexVersion{{Version: "1.0.0", Source: "/nonexistent/hoist/src"}}, want: domain.ErrInvalidDigest.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.NewIndex("", registry.IndexFile{Packages: map[string][]registry.IndexVersion{"pkg": tt.versions}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadIndex_ResolvesSources(t *testing.T) {
	dir := t.TempDir()
	index := "packages:\n  lodash:\n    - version: 4.17.21\n      digest: " + sampleDigest + "\n      source: tarballs/lodash-4.17.21\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.yaml"), []byte(index), 0o600))

	idx, err := registry.LoadIndex(dir)
	require.NoError(t, err)

	artifact, err := idx.Fetch(context.Background(), "lodash", semver.MustParse("4.17.21"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tarballs", "lodash-4.17.21"), artifact.Source)
	assert.Equal(t, digest.Digest(sampleDigest), artifact.Digest)
}

func TestLoadIndex_Missing(t *testing.T) {
	_, err := registry.LoadIndex(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrRegistryReadFailed.Error())
}

func TestProvider_OpenRelativeToRoot(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".hoist", "registry")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.yaml"), []byte("packages:\n  react:\n    - version: 18.2.0\n"), 0o600))

	reg, err := registry.NewProvider("").Open(context.Background(), root, "")
	require.NoError(t, err)

	versions, err := reg.AvailableVersions(context.Background(), "react")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "18.2.0", versions[0].String())
}

func TestProvider_SourcesRelativeToRoot(t *testing.T) {
	index := "packages:\n  lodash:\n    - version: 4.17.21\n      digest: " + sampleDigest + "\n      source: tarballs/lodash-4.17.21\n"

	root := t.TempDir()
	dir := filepath.Join(root, ".hoist", "registry")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.yaml"), []byte(index), 0o600))

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "index.yaml"), []byte(index), 0o600))

	tests := []struct {
		name string
		dir  string
		want string
	}{
		{name: "registry inside the workspace", dir: "", want: ".hoist/registry/tarballs/lodash-4.17.21"},
		{name: "registry outside the workspace", dir: outside, want: filepath.Join(outside, "tarballs", "lodash-4.17.21")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := registry.NewProvider("").Open(context.Background(), root, tt.dir)
			require.NoError(t, err)

			artifact, err := reg.Fetch(context.Background(), "lodash", semver.MustParse("4.17.21"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, artifact.Source)
		})
	}
}

func TestLoadIndex_ComputesMissingDigest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "left-pad")
	require.NoError(t, os.MkdirAll(src, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "package.json"), []byte(`{"name":"left-pad","version":"1.3.0"}`), 0o600))
	index := "packages:\n  left-pad:\n    - version: 1.3.0\n      source: src/left-pad\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.yaml"), []byte(index), 0o600))

	idx, err := registry.LoadIndex(dir)
	require.NoError(t, err)

	artifact, err := idx.Fetch(context.Background(), "left-pad", semver.MustParse("1.3.0"))
	require.NoError(t, err)
	want, err := hoistfs.DigestDir(src)
	require.NoError(t, err)
	assert.Equal(t, want, artifact.Digest)
}
