// Package resolver picks concrete registry versions for every external dependency
// and decides which of them are hoisted to the workspace root.
package resolver

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/hoist/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Resolver implements version resolution and hoisting.
//
// Registry lookups run through a bounded pool. Every decision is made in a
// single pass over names in sorted order, so the result depends only on the
// graph, the registry answers and the lockfile.
type Resolver struct {
	logger      ports.Logger
	tracer      ports.Tracer
	concurrency int
}

// NewResolver creates a new Resolver. A concurrency below 1 uses the number of CPUs.
func NewResolver(logger ports.Logger, tracer ports.Tracer, concurrency int) *Resolver {
	if concurrency < 1 {
		concurrency = runtime.NumCPU()
	}
	return &Resolver{logger: logger, tracer: tracer, concurrency: concurrency}
}

type lookup struct {
	versions []*semver.Version
	err      error
}

// Resolve returns the resolution for every external name of g.
// The lockfile may be nil. Version conflicts for all names are returned joined.
func (r *Resolver) Resolve(
	ctx context.Context,
	g *domain.Graph,
	reg ports.Registry,
	lock *domain.Lockfile,
) (*domain.Resolution, error) {
	ctx, span := r.tracer.Start(ctx, "resolve")
	defer span.End()

	names := g.ExternalNames()
	span.SetAttribute("external_names", len(names))

	lookups, err := r.lookupAll(ctx, reg, names)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	res := domain.NewResolution()
	var errs []error
	for i, name := range names {
		reqs := g.Requirements(name)
		if lookups[i].err != nil {
			errs = append(errs, lookupError(name, reqs, lookups[i].err))
			continue
		}
		d, err := r.decide(name, reqs, lookups[i].versions, lock)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res.Add(d)
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		return nil, err
	}

	if err := r.fetchAll(ctx, reg, res, lock); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttribute("hoisting_rate", res.HoistingRate())
	return res, nil
}

// lookupAll fetches available versions for all names concurrently.
// Per-name failures are kept in the result; only cancellation fails the call.
func (r *Resolver) lookupAll(ctx context.Context, reg ports.Registry, names []string) ([]lookup, error) {
	ctx, span := r.tracer.Start(ctx, "resolve.metadata")
	defer span.End()

	out := make([]lookup, len(names))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, name := range names {
		g.Go(func() error {
			versions, err := reg.AvailableVersions(ctx, name)
			out[i] = lookup{versions: versions, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// decide picks the hoisted and nested versions for one name.
func (r *Resolver) decide(
	name string,
	reqs []domain.Requirement,
	versions []*semver.Version,
	lock *domain.Lockfile,
) (*domain.DependencyResolution, error) {
	picks := make([]*semver.Version, len(reqs))
	var errs []error
	for i, req := range reqs {
		picks[i] = highest(versions, req.Range)
		if picks[i] == nil {
			errs = append(errs, conflictError(name, req, versions))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	d := &domain.DependencyResolution{
		Name:   name,
		Nested: make(map[domain.PackageID]domain.ResolvedVersion),
		Ranges: make(map[domain.PackageID]domain.RegistryRange, len(reqs)),
	}
	for _, req := range reqs {
		d.Ranges[req.Consumer] = req.Range
	}

	hoisted, reason := r.fromLock(name, reqs, versions, lock, d)
	if hoisted == nil {
		hoisted, reason = common(reqs, versions)
	}
	if hoisted == nil {
		hoisted, reason = mostConsumers(picks)
	}
	d.Hoisted = domain.ResolvedVersion{Name: name, Version: hoisted}
	d.Reason = reason

	// A locked or common version is admitted by every range. A split keeps
	// each consumer on its own pick.
	split := reason == domain.ReasonMostConsumers
	for i, req := range reqs {
		if !split || picks[i].Equal(hoisted) {
			d.Shared = append(d.Shared, req.Consumer)
			continue
		}
		d.Nested[req.Consumer] = domain.ResolvedVersion{Name: name, Version: picks[i]}
	}
	return d, nil
}

// fromLock returns the locked version when it is still available and admitted by every range.
func (r *Resolver) fromLock(
	name string,
	reqs []domain.Requirement,
	versions []*semver.Version,
	lock *domain.Lockfile,
	d *domain.DependencyResolution,
) (*semver.Version, domain.HoistReason) {
	entry, ok := lock.Lookup(name)
	if !ok {
		return nil, ""
	}
	if locked, err := semver.StrictNewVersion(entry.Version); err == nil {
		if v := published(versions, locked); v != nil && admitsAll(reqs, v) {
			return v, domain.ReasonLocked
		}
	}
	d.LockDiscarded = true
	r.logger.Debug(fmt.Sprintf("discarding locked %s@%s", name, entry.Version))
	return nil, ""
}

// common returns the highest version every range admits.
func common(reqs []domain.Requirement, versions []*semver.Version) (*semver.Version, domain.HoistReason) {
	for _, v := range versions {
		if admitsAll(reqs, v) {
			return v, domain.ReasonCommon
		}
	}
	return nil, ""
}

// mostConsumers groups consumers by their pick and returns the pick of the largest group,
// preferring higher versions on ties.
func mostConsumers(picks []*semver.Version) (*semver.Version, domain.HoistReason) {
	var best *semver.Version
	bestCount := 0
	for _, candidate := range picks {
		count := 0
		for _, pick := range picks {
			if pick.Equal(candidate) {
				count++
			}
		}
		if count > bestCount || (count == bestCount && candidate.GreaterThan(best)) {
			best, bestCount = candidate, count
		}
	}
	return best, domain.ReasonMostConsumers
}

// highest returns the first version admitted by rng. versions are highest first.
func highest(versions []*semver.Version, rng domain.RegistryRange) *semver.Version {
	for _, v := range versions {
		if rng.Admits(v) {
			return v
		}
	}
	return nil
}

func admitsAll(reqs []domain.Requirement, v *semver.Version) bool {
	for _, req := range reqs {
		if !req.Range.Admits(v) {
			return false
		}
	}
	return true
}

// published returns the registry's instance of v, or nil when it is not available.
func published(versions []*semver.Version, v *semver.Version) *semver.Version {
	for _, candidate := range versions {
		if candidate.Equal(v) {
			return candidate
		}
	}
	return nil
}

func conflictError(name string, req domain.Requirement, versions []*semver.Version) error {
	list := make([]string, len(versions))
	for i, v := range versions {
		list[i] = v.String()
	}
	err := zerr.With(domain.ErrExternalVersionConflict, "consumer", req.Consumer.String())
	err = zerr.With(err, "range", req.Range.Raw())
	err = zerr.With(err, "available", cmp.Or(strings.Join(list, ", "), "none"))
	return domain.NewError(domain.KindExternalVersionConflict, name, err)
}

// lookupError classifies a failed lookup. Unknown packages conflict with every range.
func lookupError(name string, reqs []domain.Requirement, err error) error {
	if domain.KindOf(err) == domain.KindExternalVersionConflict {
		consumers := make([]string, len(reqs))
		for i, req := range reqs {
			consumers[i] = req.Consumer.String()
		}
		wrapped := zerr.With(zerr.Wrap(err, domain.ErrExternalVersionConflict.Error()), "consumers", strings.Join(consumers, ", "))
		return domain.NewError(domain.KindExternalVersionConflict, name, wrapped)
	}
	return domain.NewError(domain.KindUnknown, name, zerr.Wrap(err, domain.ErrRegistryLookupFailed.Error()))
}
