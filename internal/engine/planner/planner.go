// Package planner turns a resolved graph into an install plan.
// It does not touch the filesystem.
package planner

import (
	"errors"
	"path"
	"slices"
	"strings"

	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/zerr"
)

// Plan derives the install plan for g from res.
//
// Hoisted versions become one shared copy at the root. Consumers reachable
// through that copy get no entry of their own. Local dependencies become links
// and consumers forced off the hoisted version get nested copies.
func Plan(g *domain.Graph, res *domain.Resolution) (*domain.InstallPlan, error) {
	var shared, scoped []domain.PlacementEntry
	var errs []error

	for _, name := range res.Names() {
		d, _ := res.Get(name)
		consumers := make([]string, 0, len(d.Shared))
		for _, id := range d.Shared {
			consumers = append(consumers, id.String())
		}
		shared = append(shared, copyEntry(path.Join(domain.ModulesDirName, name), domain.PlacementSharedCopy, d.Hoisted, consumers))
	}

	for _, e := range g.Edges() {
		consumer, ok := g.Manifest(e.Consumer)
		if !ok {
			continue
		}
		target := path.Join(consumer.Path, domain.ModulesDirName, e.Name)

		switch e.Provider.Kind {
		case domain.ProviderLocal:
			sibling, _ := g.Manifest(e.Provider.Local)
			scoped = append(scoped, domain.PlacementEntry{
				Target:    target,
				Kind:      domain.PlacementLocalLink,
				Name:      e.Name,
				Source:    sibling.Path,
				Version:   sibling.Version.String(),
				Consumers: []string{consumer.Name},
			})
		default:
			d, ok := res.Get(e.Name)
			if !ok {
				errs = append(errs, missing(consumer.Name, e.Name))
				continue
			}
			rv, hoisted, ok := d.For(e.Consumer)
			if !ok {
				errs = append(errs, missing(consumer.Name, e.Name))
				continue
			}
			if !hoisted {
				scoped = append(scoped, copyEntry(target, domain.PlacementNestedCopy, rv, []string{consumer.Name}))
			}
		}
	}

	sortByTarget(shared)
	sortByTarget(scoped)
	plan := &domain.InstallPlan{Entries: append(shared, scoped...)}

	errs = append(errs, collisions(plan)...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return plan, nil
}

func copyEntry(target string, kind domain.PlacementKind, rv domain.ResolvedVersion, consumers []string) domain.PlacementEntry {
	return domain.PlacementEntry{
		Target:    target,
		Kind:      kind,
		Name:      rv.Name,
		Source:    rv.Source,
		Version:   rv.Version.String(),
		Digest:    rv.Digest,
		Consumers: consumers,
	}
}

func sortByTarget(entries []domain.PlacementEntry) {
	slices.SortStableFunc(entries, func(a, b domain.PlacementEntry) int {
		return strings.Compare(a.Target, b.Target)
	})
}

func missing(consumer, name string) error {
	err := zerr.With(domain.ErrMissingResolution, "dependency", name)
	return domain.NewError(domain.KindUnknown, consumer, err)
}

func collisions(plan *domain.InstallPlan) []error {
	var errs []error
	owner := make(map[string]domain.PlacementEntry, len(plan.Entries))
	for _, e := range plan.Entries {
		if first, dup := owner[e.Target]; dup {
			err := zerr.With(domain.ErrPlacementCollision, "target", e.Target)
			err = zerr.With(err, "first", string(first.Kind)+" "+first.Name)
			err = zerr.With(err, "second", string(e.Kind)+" "+e.Name)
			errs = append(errs, domain.NewError(domain.KindUnknown, e.Target, err))
			continue
		}
		owner[e.Target] = e
	}
	return errs
}
