package app

import "go.trai.ch/bob/internal/core/ports"

// Components holds the fully wired application, plus the collaborators the
// cmd/pier CLI needs directly: a logger for top-level error reporting and
// the recipe loader that turns pier.yaml into the Task graph run drives.
type Components struct {
	App          *App
	Logger       ports.Logger
	ConfigLoader ports.ConfigLoader
}

// NewComponents creates a Components from its already-wired dependencies.
func NewComponents(app *App, logger ports.Logger, loader ports.ConfigLoader) *Components {
	return &Components{
		App:          app,
		Logger:       logger,
		ConfigLoader: loader,
	}
}

// Close tears down the wired App, flushing the persistent rule cache and
// closing the telemetry recording session. cmd/pier defers this once
// components are resolved, so both survive process exit regardless of which
// command ran.
func (c *Components) Close() error {
	return c.App.Close()
}
