package config

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/hoist/internal/adapters/logger"
	"go.trai.ch/hoist/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the workspace loader Graft node.
	NodeID graft.ID = "adapter.workspace_loader"

	// SettingsNodeID is the unique identifier for the settings Graft node.
	SettingsNodeID graft.ID = "adapter.settings"

	// SettingsFileEnv names an explicit settings file.
	SettingsFileEnv = "HOIST_CONFIG"
)

func init() {
	graft.Register(graft.Node[*Settings]{
		ID:        SettingsNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Settings, error) {
			return LoadSettings(SettingsOptions{File: os.Getenv(SettingsFileEnv)})
		},
	})

	graft.Register(graft.Node[ports.WorkspaceLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, SettingsNodeID},
		Run: func(ctx context.Context) (ports.WorkspaceLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := graft.Dep[*Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log, settings.Concurrency), nil
		},
	})
}
