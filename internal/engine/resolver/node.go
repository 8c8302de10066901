package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hoist/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hoist/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hoist/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hoist/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
			telemetry.TracerNodeID,
			config.SettingsNodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			settings, err := graft.Dep[*config.Settings](ctx)
			if err != nil {
				return nil, err
			}

			return NewResolver(log, tracer, settings.Concurrency), nil
		},
	})
}
