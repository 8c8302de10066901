// Package reporter summarizes resolved workspaces and explains individual decisions.
package reporter

import (
	"fmt"
	"path"

	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/zerr"
)

// Summarize builds the report for a resolved and planned workspace.
func Summarize(g *domain.Graph, res *domain.Resolution, plan *domain.InstallPlan) domain.Report {
	hoisted, total := res.Instances()
	report := domain.Report{
		HoistingRate:      res.HoistingRate(),
		HoistedInstances:  hoisted,
		ExternalInstances: total,
		SharedCopies:      plan.Count(domain.PlacementSharedCopy),
		NestedCopies:      plan.Count(domain.PlacementNestedCopy),
		LocalLinks:        plan.Count(domain.PlacementLocalLink),
	}

	for _, name := range res.Names() {
		d, _ := res.Get(name)
		if len(d.Nested) == 0 {
			continue
		}
		dup := domain.Duplicate{Name: name, Hoisted: d.Hoisted.Version.String()}
		for _, consumer := range d.Shared {
			dup.Shared = append(dup.Shared, consumer.String())
		}
		for _, consumer := range d.NestedConsumers() {
			dup.Nested = append(dup.Nested, domain.NestedUse{
				Consumer: consumer.String(),
				Range:    d.Ranges[consumer].Raw(),
				Version:  d.Nested[consumer].Version.String(),
			})
		}
		report.Duplicates = append(report.Duplicates, dup)
	}

	for _, c := range g.Cycles() {
		report.Cycles = append(report.Cycles, c.String())
	}
	return report
}

// Why explains where consumer gets the dependency name from.
func Why(g *domain.Graph, res *domain.Resolution, consumer, name string) (domain.Explanation, error) {
	m, ok := g.Lookup(consumer)
	if !ok {
		err := zerr.With(domain.ErrConsumerNotFound, "consumer", consumer)
		return domain.Explanation{}, domain.NewError(domain.KindUnknown, consumer, err)
	}
	e, ok := g.Edge(m.ID, name)
	if !ok {
		err := zerr.With(domain.ErrDependencyNotFound, "dependency", name)
		return domain.Explanation{}, domain.NewError(domain.KindUnknown, consumer, err)
	}

	ex := domain.Explanation{
		Consumer: consumer,
		Name:     name,
		Spec:     e.Spec.Raw(),
		Target:   path.Join(m.Path, domain.ModulesDirName, name),
	}

	if e.Provider.Kind == domain.ProviderLocal {
		sibling, _ := g.Manifest(e.Provider.Local)
		ex.Provider = "workspace"
		ex.Local = sibling.Path
		ex.Version = sibling.Version.String()
		ex.Reason = "workspace reference linked to sibling package"
		return ex, nil
	}

	d, ok := res.Get(name)
	if !ok {
		err := zerr.With(domain.ErrMissingResolution, "dependency", name)
		return domain.Explanation{}, domain.NewError(domain.KindUnknown, consumer, err)
	}
	rv, hoisted, ok := d.For(m.ID)
	if !ok {
		err := zerr.With(domain.ErrMissingResolution, "dependency", name)
		return domain.Explanation{}, domain.NewError(domain.KindUnknown, consumer, err)
	}

	ex.Provider = "registry"
	ex.Version = rv.Version.String()
	ex.Hoisted = hoisted
	ex.HoistedVersion = d.Hoisted.Version.String()
	if hoisted {
		ex.Target = path.Join(domain.ModulesDirName, name)
		ex.Reason = string(d.Reason)
	} else if rng, ok := d.Ranges[m.ID]; ok && rng.Admits(d.Hoisted.Version) {
		ex.Reason = fmt.Sprintf("range %s picks %s; hoisted %s is the pick of more consumers", e.Spec.Raw(), rv.Version, d.Hoisted.Version)
	} else {
		ex.Reason = fmt.Sprintf("range %s excludes hoisted %s", e.Spec.Raw(), d.Hoisted.Version)
	}
	return ex, nil
}

// CheckHoistingRate fails when the hoisting rate of res is below minRate.
func CheckHoistingRate(res *domain.Resolution, minRate float64) error {
	rate := res.HoistingRate()
	if rate >= minRate {
		return nil
	}
	err := zerr.With(domain.ErrHoistingRateBelowTarget, "rate", FormatRate(rate))
	err = zerr.With(err, "target", FormatRate(minRate))
	return domain.NewError(domain.KindHoistingRateBelowTarget, "", err)
}

// FormatRate renders a rate in [0, 1] as a percentage with one decimal.
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}
