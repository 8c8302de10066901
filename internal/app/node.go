package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hoist/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hoist/internal/adapters/linker"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hoist/internal/adapters/lockfile"  //nolint:depguard // Wired in app layer
	"go.trai.ch/hoist/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hoist/internal/adapters/registry"  //nolint:depguard // Wired in app layer
	"go.trai.ch/hoist/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/hoist/internal/core/ports"
	"go.trai.ch/hoist/internal/engine/resolver"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			registry.NodeID,
			lockfile.NodeID,
			linker.NodeID,
			resolver.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
			config.SettingsNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.SettingsNodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			settings, err := graft.Dep[*config.Settings](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: a, Logger: log, Settings: settings}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.WorkspaceLoader](ctx)
	if err != nil {
		return nil, err
	}

	reg, err := graft.Dep[ports.RegistryProvider](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.LockfileStore](ctx)
	if err != nil {
		return nil, err
	}

	lnk, err := graft.Dep[ports.Linker](ctx)
	if err != nil {
		return nil, err
	}

	res, err := graft.Dep[*resolver.Resolver](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	settings, err := graft.Dep[*config.Settings](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, reg, store, lnk, res, tracer, log, settings), nil
}
