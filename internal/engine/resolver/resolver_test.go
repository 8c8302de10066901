package resolver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hoist/internal/adapters/telemetry"
	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/hoist/internal/core/ports/mocks"
	"go.trai.ch/hoist/internal/engine/graph"
	"go.trai.ch/hoist/internal/engine/resolver"
	"go.uber.org/mock/gomock"
)

func pkg(t *testing.T, name, path string, deps map[string]string) *domain.Manifest {
	t.Helper()
	m := &domain.Manifest{
		ID:           domain.NewPackageID(name),
		Name:         name,
		Version:      semver.MustParse("1.0.0"),
		Path:         path,
		Dependencies: make(map[string]domain.DependencySpec, len(deps)),
	}
	for dep, raw := range deps {
		spec, err := domain.ParseDependencySpec(raw)
		require.NoError(t, err)
		m.Dependencies[dep] = spec
	}
	return m
}

func build(t *testing.T, manifests ...*domain.Manifest) *domain.Graph {
	t.Helper()
	g, err := graph.Build(&domain.Workspace{Manifests: manifests})
	require.NoError(t, err)
	return g
}

func versions(raw ...string) []*semver.Version {
	out := make([]*semver.Version, len(raw))
	for i, r := range raw {
		out[i] = semver.MustParse(r)
	}
	return out
}

func artifact(key string) domain.Artifact {
	return domain.Artifact{Digest: digest.FromString(key), Source: "/registry/" + key}
}

type fixture struct {
	reg      *mocks.MockRegistry
	log      *mocks.MockLogger
	resolver *resolver.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		reg: mocks.NewMockRegistry(ctrl),
		log: mocks.NewMockLogger(ctrl),
	}
	f.log.EXPECT().Debug(gomock.Any()).AnyTimes()
	f.resolver = resolver.NewResolver(f.log, telemetry.NewNoOpTracer(), 2)
	return f
}

func (f *fixture) publish(name string, raw ...string) {
	f.reg.EXPECT().AvailableVersions(gomock.Any(), name).Return(versions(raw...), nil)
}

func (f *fixture) fetchable(name, version string) {
	f.reg.EXPECT().
		Fetch(gomock.Any(), name, semver.MustParse(version)).
		Return(artifact(name+"@"+version), nil)
}

func TestResolve_WorkspaceOnly(t *testing.T) {
	f := newFixture(t)
	g := build(t,
		pkg(t, "@scope/utils", "packages/utils", nil),
		pkg(t, "ui", "packages/ui", map[string]string{"@scope/utils": "workspace:*"}),
	)

	res, err := f.resolver.Resolve(context.Background(), g, f.reg, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Names())
	assert.InDelta(t, 1.0, res.HoistingRate(), 0.0001)
}

func TestResolve_DisjointRangesHoistHighest(t *testing.T) {
	f := newFixture(t)
	g := build(t,
		pkg(t, "a", "packages/a", map[string]string{"lodash": "^4.0.0"}),
		pkg(t, "b", "packages/b", map[string]string{"lodash": "^3.0.0"}),
	)
	f.publish("lodash", "4.17.21", "3.10.1")
	f.fetchable("lodash", "4.17.21")
	f.fetchable("lodash", "3.10.1")

	res, err := f.resolver.Resolve(context.Background(), g, f.reg, nil)
	require.NoError(t, err)

	d, ok := res.Get("lodash")
	require.True(t, ok)
	assert.Equal(t, "4.17.21", d.Hoisted.Version.String())
	assert.Equal(t, domain.ReasonMostConsumers, d.Reason)
	assert.Equal(t, digest.FromString("lodash@4.17.21"), d.Hoisted.Digest)
	assert.Equal(t, "/registry/lodash@4.17.21", d.Hoisted.Source)
	assert.Equal(t, []domain.PackageID{domain.NewPackageID("a")}, d.Shared)

	nested := d.Nested[domain.NewPackageID("b")]
	assert.Equal(t, "3.10.1", nested.Version.String())
	assert.Equal(t, digest.FromString("lodash@3.10.1"), nested.Digest)
	assert.InDelta(t, 0.5, res.HoistingRate(), 0.0001)
}

func TestResolve_CommonVersionIsHoistedForAll(t *testing.T) {
	f := newFixture(t)
	g := build(t,
		pkg(t, "a", "packages/a", map[string]string{"react": "^18.0.0"}),
		pkg(t, "b", "packages/b", map[string]string{"react": ">=17.0.0 <18.3.0"}),
	)
	f.publish("react", "18.3.1", "18.2.0", "17.0.2")
	f.fetchable("react", "18.2.0")

	res, err := f.resolver.Resolve(context.Background(), g, f.reg, nil)
	require.NoError(t, err)

	d, _ := res.Get("react")
	assert.Equal(t, "18.2.0", d.Hoisted.Version.String())
	assert.Equal(t, domain.ReasonCommon, d.Reason)
	assert.Len(t, d.Shared, 2)
	assert.Empty(t, d.Nested)
}

func TestResolve_MostConsumersWins(t *testing.T) {
	f := newFixture(t)
	g := build(t,
		pkg(t, "a", "packages/a", map[string]string{"lodash": "^3.0.0"}),
		pkg(t, "b", "packages/b", map[string]string{"lodash": "^3.0.0"}),
		pkg(t, "c", "packages/c", map[string]string{"lodash": "^4.0.0"}),
	)
	f.publish("lodash", "4.17.21", "3.10.1")
	f.fetchable("lodash", "3.10.1")
	f.fetchable("lodash", "4.17.21")

	res, err := f.resolver.Resolve(context.Background(), g, f.reg, nil)
	require.NoError(t, err)

	d, _ := res.Get("lodash")
	assert.Equal(t, "3.10.1", d.Hoisted.Version.String())
	assert.Equal(t, []domain.PackageID{domain.NewPackageID("a"), domain.NewPackageID("b")}, d.Shared)
	assert.Equal(t, "4.17.21", d.Nested[domain.NewPackageID("c")].Version.String())
	assert.InDelta(t, 2.0/3.0, res.HoistingRate(), 0.0001)
}

func TestResolve_SplitGroupsByHighestPick(t *testing.T) {
	f := newFixture(t)
	g := build(t,
		pkg(t, "a", "packages/a", map[string]string{"lodash": "^4.0.0"}),
		pkg(t, "b", "packages/b", map[string]string{"lodash": "~4.0.0"}),
		pkg(t, "c", "packages/c", map[string]string{"lodash": "^3.0.0"}),
	)
	f.publish("lodash", "4.17.21", "4.0.5", "3.10.1")
	f.fetchable("lodash", "4.17.21")
	f.fetchable("lodash", "4.0.5")
	f.fetchable("lodash", "3.10.1")

	res, err := f.resolver.Resolve(context.Background(), g, f.reg, nil)
	require.NoError(t, err)

	// Three groups of one: the highest pick wins and b stays on 4.0.5 although ^4.0.0 admits it.
	d, _ := res.Get("lodash")
	assert.Equal(t, "4.17.21", d.Hoisted.Version.String())
	assert.Equal(t, domain.ReasonMostConsumers, d.Reason)
	assert.Equal(t, []domain.PackageID{domain.NewPackageID("a")}, d.Shared)
	assert.Equal(t, "4.0.5", d.Nested[domain.NewPackageID("b")].Version.String())
	assert.Equal(t, "3.10.1", d.Nested[domain.NewPackageID("c")].Version.String())
	assert.InDelta(t, 1.0/3.0, res.HoistingRate(), 0.0001)
}

func TestResolve_SplitKeepsConsumersOnTheirPick(t *testing.T) {
	f := newFixture(t)
	g := build(t,
		pkg(t, "a", "packages/a", map[string]string{"lodash": "~4.0.0"}),
		pkg(t, "b", "packages/b", map[string]string{"lodash": "~4.0.0"}),
		pkg(t, "c", "packages/c", map[string]string{"lodash": "^4.0.0"}),
		pkg(t, "d", "packages/d", map[string]string{"lodash": "^3.0.0"}),
	)
	f.publish("lodash", "4.17.21", "4.0.5", "3.10.1")
	f.fetchable("lodash", "4.0.5")
	f.fetchable("lodash", "4.17.21")
	f.fetchable("lodash", "3.10.1")

	res, err := f.resolver.Resolve(context.Background(), g, f.reg, nil)
	require.NoError(t, err)

	d, _ := res.Get("lodash")
	assert.Equal(t, "4.0.5", d.Hoisted.Version.String())
	assert.Equal(t, []domain.PackageID{domain.NewPackageID("a"), domain.NewPackageID("b")}, d.Shared)
	assert.Equal(t, "4.17.21", d.Nested[domain.NewPackageID("c")].Version.String())
	assert.Equal(t, "3.10.1", d.Nested[domain.NewPackageID("d")].Version.String())
}

func TestResolve_KeepsSatisfyingLockedVersion(t *testing.T) {
	f := newFixture(t)
	g := build(t,
		pkg(t, "a", "packages/a", map[string]string{"react": "^18.0.0"}),
	)
	f.publish("react", "18.3.1", "18.2.0")
	f.fetchable("react", "18.2.0")

	lock := domain.NewLockfile()
	lock.Packages["react"] = domain.LockedPackage{
		Version: "18.2.0",
		Digest:  digest.FromString("react@18.2.0").String(),
	}

	res, err := f.resolver.Resolve(context.Background(), g, f.reg, lock)
	require.NoError(t, err)

	d, _ := res.Get("react")
	assert.Equal(t, "18.2.0", d.Hoisted.Version.String())
	assert.Equal(t, domain.ReasonLocked, d.Reason)
	assert.False(t, d.LockDiscarded)
}

func TestResolve_DiscardsStaleLockedVersion(t *testing.T) {
	tests := []struct {
		name   string
		locked string
	}{
		{name: "outside range", locked: "17.0.2"},
		{name: "no longer published", locked: "18.1.0"},
		{name: "unparseable", locked: "latest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			g := build(t,
				pkg(t, "a", "packages/a", map[string]string{"react": "^18.0.0"}),
			)
			f.publish("react", "18.3.1", "18.2.0", "17.0.2")
			f.fetchable("react", "18.3.1")

			lock := domain.NewLockfile()
			lock.Packages["react"] = domain.LockedPackage{Version: tt.locked}

			res, err := f.resolver.Resolve(context.Background(), g, f.reg, lock)
			require.NoError(t, err)

			d, _ := res.Get("react")
			assert.Equal(t, "18.3.1", d.Hoisted.Version.String())
			assert.Equal(t, domain.ReasonCommon, d.Reason)
			assert.True(t, d.LockDiscarded)
		})
	}
}

func TestResolve_WarnsOnLockedDigestMismatch(t *testing.T) {
	f := newFixture(t)
	g := build(t,
		pkg(t, "a", "packages/a", map[string]string{"react": "^18.0.0"}),
	)
	f.publish("react", "18.2.0")
	f.fetchable("react", "18.2.0")
	f.log.EXPECT().Warn(gomock.Any()).Times(1)

	lock := domain.NewLockfile()
	lock.Packages["react"] = domain.LockedPackage{
		Version: "18.2.0",
		Digest:  digest.FromString("something else").String(),
	}

	res, err := f.resolver.Resolve(context.Background(), g, f.reg, lock)
	require.NoError(t, err)

	d, _ := res.Get("react")
	assert.Equal(t, digest.FromString("react@18.2.0"), d.Hoisted.Digest)
}

func TestResolve_CollectsConflicts(t *testing.T) {
	f := newFixture(t)
	g := build(t,
		pkg(t, "a", "packages/a", map[string]string{"lodash": "^5.0.0", "react": "^18.0.0", "vue": "^3.0.0"}),
		pkg(t, "b", "packages/b", map[string]string{"lodash": "^4.0.0"}),
	)
	f.publish("lodash", "4.17.21")
	f.publish("react", "18.2.0")
	f.reg.EXPECT().AvailableVersions(gomock.Any(), "vue").
		Return(nil, domain.NewError(domain.KindExternalVersionConflict, "vue", domain.ErrPackageNotFound))

	_, err := f.resolver.Resolve(context.Background(), g, f.reg, nil)
	require.Error(t, err)

	errs := domain.Errors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "lodash", errs[0].Subject)
	assert.Equal(t, "vue", errs[1].Subject)
	assert.Equal(t, []domain.ErrorKind{domain.KindExternalVersionConflict}, domain.Kinds(err))
}

func TestResolve_RegistryFailureIsUnclassified(t *testing.T) {
	f := newFixture(t)
	g := build(t,
		pkg(t, "a", "packages/a", map[string]string{"react": "^18.0.0"}),
	)
	boom := errors.New("index unreadable")
	f.reg.EXPECT().AvailableVersions(gomock.Any(), "react").Return(nil, boom)

	_, err := f.resolver.Resolve(context.Background(), g, f.reg, nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, domain.KindUnknown, domain.KindOf(err))
}

func TestResolve_FetchesEachVersionOnce(t *testing.T) {
	f := newFixture(t)
	g := build(t,
		pkg(t, "a", "packages/a", map[string]string{"lodash": "^4.0.0"}),
		pkg(t, "b", "packages/b", map[string]string{"lodash": "^3.0.0"}),
		pkg(t, "c", "packages/c", map[string]string{"lodash": "~3.10.0"}),
		pkg(t, "d", "packages/d", map[string]string{"lodash": "^4.17.0"}),
	)
	f.publish("lodash", "4.17.21", "3.10.1")
	f.fetchable("lodash", "4.17.21")
	f.fetchable("lodash", "3.10.1")

	res, err := f.resolver.Resolve(context.Background(), g, f.reg, nil)
	require.NoError(t, err)

	d, _ := res.Get("lodash")
	assert.Equal(t, "4.17.21", d.Hoisted.Version.String())
	assert.Len(t, d.Nested, 2)
}

func TestResolve_Cancelled(t *testing.T) {
	f := newFixture(t)
	g := build(t,
		pkg(t, "a", "packages/a", map[string]string{"react": "^18.0.0"}),
	)
	f.reg.EXPECT().AvailableVersions(gomock.Any(), "react").Return(nil, context.Canceled).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.resolver.Resolve(ctx, g, f.reg, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolve_Deterministic(t *testing.T) {
	run := func() *domain.Resolution {
		f := newFixture(t)
		g := build(t,
			pkg(t, "a", "packages/a", map[string]string{"lodash": "^4.0.0", "react": "^18.0.0"}),
			pkg(t, "b", "packages/b", map[string]string{"lodash": "^3.0.0", "react": "^18.2.0"}),
		)
		f.publish("lodash", "4.17.21", "3.10.1")
		f.publish("react", "18.3.1", "18.2.0")
		f.fetchable("lodash", "4.17.21")
		f.fetchable("lodash", "3.10.1")
		f.fetchable("react", "18.3.1")

		res, err := f.resolver.Resolve(context.Background(), g, f.reg, nil)
		require.NoError(t, err)
		return res
	}

	first, second := run(), run()
	assert.Equal(t, domain.LockfileFromResolution(first), domain.LockfileFromResolution(second))
}
