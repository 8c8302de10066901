package resolver

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/hoist/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// fetchAll fetches every selected version once and fills in digests and sources.
func (r *Resolver) fetchAll(ctx context.Context, reg ports.Registry, res *domain.Resolution, lock *domain.Lockfile) error {
	ctx, span := r.tracer.Start(ctx, "resolve.fetch")
	defer span.End()

	var selected []domain.ResolvedVersion
	index := make(map[string]int)
	collect := func(rv domain.ResolvedVersion) {
		if _, ok := index[rv.Key()]; ok {
			return
		}
		index[rv.Key()] = len(selected)
		selected = append(selected, rv)
	}
	for _, name := range res.Names() {
		d, _ := res.Get(name)
		collect(d.Hoisted)
		for _, consumer := range d.NestedConsumers() {
			collect(d.Nested[consumer])
		}
	}
	span.SetAttribute("artifacts", len(selected))

	artifacts := make([]domain.Artifact, len(selected))
	fetchErrs := make([]error, len(selected))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, rv := range selected {
		g.Go(func() error {
			artifacts[i], fetchErrs[i] = reg.Fetch(ctx, rv.Name, rv.Version)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	var errs []error
	for i, err := range fetchErrs {
		if err != nil {
			wrapped := zerr.With(zerr.Wrap(err, domain.ErrRegistryLookupFailed.Error()), "version", selected[i].Key())
			errs = append(errs, domain.NewError(domain.KindUnknown, selected[i].Name, wrapped))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	fill := func(rv domain.ResolvedVersion) domain.ResolvedVersion {
		a := artifacts[index[rv.Key()]]
		rv.Digest = a.Digest
		rv.Source = a.Source
		return rv
	}
	for _, name := range res.Names() {
		d, _ := res.Get(name)
		d.Hoisted = fill(d.Hoisted)
		for consumer, rv := range d.Nested {
			d.Nested[consumer] = fill(rv)
		}
		r.checkLockedDigest(d, lock)
	}
	return nil
}

// checkLockedDigest warns when the registry serves different content for the locked version.
func (r *Resolver) checkLockedDigest(d *domain.DependencyResolution, lock *domain.Lockfile) {
	entry, ok := lock.Lookup(d.Name)
	if !ok || entry.Digest == "" || entry.Version != d.Hoisted.Version.String() {
		return
	}
	if entry.Digest != d.Hoisted.Digest.String() {
		r.logger.Warn(fmt.Sprintf("registry digest for %s differs from lockfile (%s, locked %s)",
			d.Hoisted.Key(), d.Hoisted.Digest, entry.Digest))
	}
}
