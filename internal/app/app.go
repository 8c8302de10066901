// Package app implements the application layer for hoist.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/hoist/internal/adapters/config"
	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/hoist/internal/core/ports"
	"go.trai.ch/hoist/internal/engine/graph"
	"go.trai.ch/hoist/internal/engine/planner"
	"go.trai.ch/hoist/internal/engine/reporter"
	"go.trai.ch/hoist/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	loader   ports.WorkspaceLoader
	registry ports.RegistryProvider
	lockfile ports.LockfileStore
	linker   ports.Linker
	resolver *resolver.Resolver
	tracer   ports.Tracer
	logger   ports.Logger
	settings config.Settings
}

// New creates a new App instance.
func New(
	loader ports.WorkspaceLoader,
	registry ports.RegistryProvider,
	lockfile ports.LockfileStore,
	linker ports.Linker,
	res *resolver.Resolver,
	tracer ports.Tracer,
	log ports.Logger,
	settings *config.Settings,
) *App {
	s := config.DefaultSettings()
	if settings != nil {
		s = *settings
	}
	return &App{
		loader:   loader,
		registry: registry,
		lockfile: lockfile,
		linker:   linker,
		resolver: res,
		tracer:   tracer,
		logger:   log,
		settings: s,
	}
}

// Options are the per-invocation overrides of the user settings.
type Options struct {
	// Dir is where workspace discovery starts. Empty means the current directory.
	Dir string
	// Registry overrides the registry directory.
	Registry string
	// NoLockfile ignores the lockfile when resolving and skips writing it on install.
	NoLockfile bool
	// MinHoistingRate overrides the target checked by Report when set.
	MinHoistingRate *float64
}

// Outcome is a resolved and planned workspace.
type Outcome struct {
	Workspace  *domain.Workspace
	Graph      *domain.Graph
	Resolution *domain.Resolution
	Plan       *domain.InstallPlan
}

// Resolve discovers the workspace and computes its install plan without writing anything.
func (a *App) Resolve(ctx context.Context, opts Options) (*Outcome, error) {
	ctx, span := a.tracer.Start(ctx, "hoist.resolve")
	defer span.End()

	out, err := a.resolve(ctx, opts)
	span.RecordError(err)
	return out, err
}

// Install resolves the workspace, records the lockfile and applies the plan.
func (a *App) Install(ctx context.Context, opts Options) (*Outcome, domain.ApplyResult, error) {
	ctx, span := a.tracer.Start(ctx, "hoist.install")
	defer span.End()

	out, err := a.resolve(ctx, opts)
	if err != nil {
		span.RecordError(err)
		return nil, domain.ApplyResult{}, err
	}

	if a.useLockfile(opts) {
		if err := a.lockfile.Save(out.Workspace.Root, domain.LockfileFromResolution(out.Resolution)); err != nil {
			span.RecordError(err)
			return out, domain.ApplyResult{}, err
		}
	}

	applyCtx, applySpan := a.tracer.Start(ctx, "apply")
	applySpan.SetAttribute("entries", len(out.Plan.Entries))
	result, err := a.linker.Apply(applyCtx, out.Workspace.Root, out.Plan)
	applySpan.RecordError(err)
	applySpan.End()
	if err != nil {
		span.RecordError(err)
		return out, result, err
	}

	a.logger.Info(fmt.Sprintf("installed %d placements (%d applied, %d unchanged, %d pruned)",
		len(out.Plan.Entries), result.Applied, result.Skipped, result.Pruned))
	return out, result, nil
}

// Why explains how consumer's dependency on name is satisfied.
func (a *App) Why(ctx context.Context, opts Options, consumer, name string) (domain.Explanation, error) {
	ctx, span := a.tracer.Start(ctx, "hoist.why")
	defer span.End()

	out, err := a.resolve(ctx, opts)
	if err != nil {
		span.RecordError(err)
		return domain.Explanation{}, err
	}
	ex, err := reporter.Why(out.Graph, out.Resolution, consumer, name)
	span.RecordError(err)
	return ex, err
}

// Report summarizes the workspace and checks the hoisting rate against the target.
// The report is returned even when the rate is below target.
func (a *App) Report(ctx context.Context, opts Options) (*domain.Report, error) {
	ctx, span := a.tracer.Start(ctx, "hoist.report")
	defer span.End()

	out, err := a.resolve(ctx, opts)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	report := reporter.Summarize(out.Graph, out.Resolution, out.Plan)
	minRate := a.settings.MinHoistingRate
	if opts.MinHoistingRate != nil {
		minRate = *opts.MinHoistingRate
	}
	err = reporter.CheckHoistingRate(out.Resolution, minRate)
	span.RecordError(err)
	return &report, err
}

func (a *App) resolve(ctx context.Context, opts Options) (*Outcome, error) {
	ws, err := a.discover(ctx, opts)
	if err != nil {
		return nil, err
	}

	_, graphSpan := a.tracer.Start(ctx, "graph")
	g, graphErr := graph.Build(ws)
	graphSpan.RecordError(graphErr)
	graphSpan.End()
	for _, c := range g.Cycles() {
		a.logger.Warn("workspace cycle: " + c.String())
	}

	// Graph errors do not stop resolution of the requirements that were bound.
	res := domain.NewResolution()
	if len(g.ExternalNames()) > 0 {
		reg, err := a.registry.Open(ctx, ws.Root, a.registryDir(opts))
		if err != nil {
			return nil, errors.Join(graphErr, zerr.Wrap(err, domain.ErrRegistryLookupFailed.Error()))
		}
		res, err = a.resolver.Resolve(ctx, g, reg, a.loadLockfile(ws.Root, opts))
		if err != nil {
			return nil, errors.Join(graphErr, err)
		}
	}
	if graphErr != nil {
		return nil, graphErr
	}

	_, planSpan := a.tracer.Start(ctx, "plan")
	plan, err := planner.Plan(g, res)
	planSpan.RecordError(err)
	planSpan.End()
	if err != nil {
		return nil, err
	}

	a.logger.Debug(fmt.Sprintf("planned %d entries for %d packages", len(plan.Entries), len(ws.Manifests)))
	return &Outcome{Workspace: ws, Graph: g, Resolution: res, Plan: plan}, nil
}

func (a *App) discover(ctx context.Context, opts Options) (*domain.Workspace, error) {
	ctx, span := a.tracer.Start(ctx, "discover")
	defer span.End()

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	root, err := a.loader.DiscoverRoot(dir)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("root", root)

	ws, err := a.loader.Load(ctx, root)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("packages", len(ws.Manifests))
	return ws, nil
}

// loadLockfile returns the lockfile hint. A lockfile that cannot be read is ignored with a warning.
func (a *App) loadLockfile(root string, opts Options) *domain.Lockfile {
	if !a.useLockfile(opts) {
		return nil
	}
	lock, err := a.lockfile.Load(root)
	if err != nil {
		a.logger.Warn(fmt.Sprintf("ignoring lockfile: %v", err))
		return nil
	}
	return lock
}

func (a *App) useLockfile(opts Options) bool {
	return a.settings.Lockfile && !opts.NoLockfile
}

func (a *App) registryDir(opts Options) string {
	if opts.Registry != "" {
		return opts.Registry
	}
	return a.settings.Registry
}
