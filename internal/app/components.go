package app

import (
	"go.trai.ch/hoist/internal/adapters/config"
	"go.trai.ch/hoist/internal/core/ports"
)

// Components holds what the command line needs from the wired application.
type Components struct {
	App      *App
	Logger   ports.Logger
	Settings *config.Settings
}
