// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/hoist/internal/adapters/config"
	_ "go.trai.ch/hoist/internal/adapters/linker"
	_ "go.trai.ch/hoist/internal/adapters/lockfile"
	_ "go.trai.ch/hoist/internal/adapters/logger"
	_ "go.trai.ch/hoist/internal/adapters/registry"
	_ "go.trai.ch/hoist/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/hoist/internal/app"
	_ "go.trai.ch/hoist/internal/engine/resolver"
)
